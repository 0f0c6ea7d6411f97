package search

import (
	"context"
	"errors"

	"github.com/aryan0dhankhar/freightlink/internal/domain"
	"github.com/aryan0dhankhar/freightlink/internal/reliability/circuitbreaker"
)

// Guarded fails fast with domain.ErrUnavailable while the breaker is open,
// so a struggling database is not hit by every keystroke.
func Guarded(next Searcher, breaker *circuitbreaker.CircuitBreaker) Searcher {
	return SearcherFunc(func(ctx context.Context, f Filter) ([]domain.SubcontractorRecord, error) {
		if !breaker.AllowRequest() {
			return nil, domain.ErrUnavailable
		}
		records, err := next.Search(ctx, f)
		switch {
		case err == nil:
			breaker.RecordSuccess()
		case errors.Is(err, context.Canceled), errors.Is(err, domain.ErrInvalidInput):
			// caller gave up or sent a bad filter; not a backend failure
		default:
			breaker.RecordFailure()
		}
		return records, err
	})
}
