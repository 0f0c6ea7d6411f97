package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/freightlink/internal/infrastructure/events"
	"github.com/aryan0dhankhar/freightlink/internal/tenancy"
)

// TxRunner runs fn in one database transaction.
// *repository.TxManager implements it.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// AffiliationResolver is the part of *tenancy.Resolver the services use.
type AffiliationResolver interface {
	Resolve(ctx context.Context, identity string) tenancy.Result
	Refresh(ctx context.Context, identity string) tenancy.Result
	Invalidate(identity string)
}

// publish emits ev and logs a failure. Events never fail the mutation
// that produced them.
func publish(ctx context.Context, p events.Publisher, logger *slog.Logger, eventType, key string, payload any) {
	if p == nil {
		return
	}
	ev := events.Event{Type: eventType, Key: key, OccurredAt: time.Now().UTC(), Payload: payload}
	if err := p.Publish(ctx, ev); err != nil {
		logger.Warn("failed to publish event",
			slog.String("type", eventType),
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}
