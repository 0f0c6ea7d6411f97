package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aryan0dhankhar/freightlink/internal/domain"
	"github.com/aryan0dhankhar/freightlink/internal/reliability/circuitbreaker"
)

func TestGuardedFailsFastWhenOpen(t *testing.T) {
	calls := 0
	failing := SearcherFunc(func(context.Context, Filter) ([]domain.SubcontractorRecord, error) {
		calls++
		return nil, errors.New("connection refused")
	})
	g := Guarded(failing, circuitbreaker.New("search", 2, 1, time.Minute))

	for i := 0; i < 2; i++ {
		g.Search(context.Background(), Filter{})
	}
	_, err := g.Search(context.Background(), Filter{})
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("open breaker must not reach the backend, got %d calls", calls)
	}
}

func TestGuardedIgnoresCallerErrors(t *testing.T) {
	cb := circuitbreaker.New("search", 1, 1, time.Minute)
	g := Guarded(SearcherFunc(func(context.Context, Filter) ([]domain.SubcontractorRecord, error) {
		return nil, context.Canceled
	}), cb)

	g.Search(context.Background(), Filter{})
	if cb.GetState() != circuitbreaker.StateClosed {
		t.Fatal("cancellation must not count as a backend failure")
	}
}
