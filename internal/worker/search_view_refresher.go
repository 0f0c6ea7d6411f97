package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/freightlink/internal/reliability/retry"
)

// ViewStore rebuilds the subcontractor search view.
// *repository.PostgresSearchRepository implements it.
type ViewStore interface {
	RefreshView(ctx context.Context) error
}

// SearchViewRefresher periodically rebuilds the materialized search view
// and also on demand after prequalification or fleet changes. Triggers
// arriving while a refresh runs collapse into one follow-up refresh.
type SearchViewRefresher struct {
	store    ViewStore
	logger   *slog.Logger
	interval time.Duration
	retry    *retry.Config
	trigger  chan struct{}
}

// NewSearchViewRefresher creates a new refresher
func NewSearchViewRefresher(store ViewStore, logger *slog.Logger, interval time.Duration) *SearchViewRefresher {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchViewRefresher{
		store:    store,
		logger:   logger,
		interval: interval,
		retry: &retry.Config{
			MaxAttempts:       3,
			InitialBackoff:    time.Second,
			MaxBackoff:        10 * time.Second,
			BackoffMultiplier: 2.0,
		},
		trigger: make(chan struct{}, 1),
	}
}

// Trigger asks for a refresh soon. It never blocks.
func (w *SearchViewRefresher) Trigger() {
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

// Start runs the refresh loop until ctx is done.
func (w *SearchViewRefresher) Start(ctx context.Context) {
	var tick <-chan time.Time
	if w.interval > 0 {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	w.logger.Info("search view refresher started", slog.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("search view refresher stopped")
			return
		case <-tick:
			w.refresh(ctx, "interval")
		case <-w.trigger:
			w.refresh(ctx, "trigger")
		}
	}
}

func (w *SearchViewRefresher) refresh(ctx context.Context, reason string) {
	_, err := retry.Do(ctx, w.retry, w.logger, "refresh_search_view", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, w.store.RefreshView(ctx)
	})
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Error("search view refresh failed",
				slog.String("reason", reason),
				slog.String("error", err.Error()),
			)
		}
		return
	}
	w.logger.Debug("search view refreshed", slog.String("reason", reason))
}
