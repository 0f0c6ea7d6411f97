package search

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aryan0dhankhar/freightlink/internal/domain"
	"github.com/aryan0dhankhar/freightlink/internal/observability/metrics"
)

// DefaultDebounce is the minimum inactivity before free text is applied.
const DefaultDebounce = 300 * time.Millisecond

// Searcher runs one filter against the search projection.
type Searcher interface {
	Search(ctx context.Context, f Filter) ([]domain.SubcontractorRecord, error)
}

// SearcherFunc adapts a function to Searcher.
type SearcherFunc func(ctx context.Context, f Filter) ([]domain.SubcontractorRecord, error)

func (fn SearcherFunc) Search(ctx context.Context, f Filter) ([]domain.SubcontractorRecord, error) {
	return fn(ctx, f)
}

// Snapshot is what a consumer observes. Results always belong to Filter
// as of sequence Seq; Failed marks a query error surfaced as no results.
type Snapshot struct {
	Filter  Filter                       `json:"filter"`
	Results []domain.SubcontractorRecord `json:"results"`
	Loading bool                         `json:"loading"`
	Failed  bool                         `json:"failed"`
	Seq     uint64                       `json:"seq"`
	Version uint64                       `json:"-"`
}

// Option configures an Engine.
type Option func(*Engine)

func WithDebounce(d time.Duration) Option {
	return func(e *Engine) { e.debounce = d }
}

// WithInitialFilter seeds the engine, e.g. from shipper preferences.
func WithInitialFilter(f Filter) Option {
	return func(e *Engine) { e.filter = f.Clone() }
}

// WithListener registers a callback invoked after every state change.
// Calls are serialized and never go backwards in Version.
func WithListener(fn func(Snapshot)) Option {
	return func(e *Engine) { e.listener = fn }
}

// Engine holds the current filter and keeps the result set in step with
// it. Every filter change issues a query; only the result of the latest
// issued query is ever committed.
type Engine struct {
	searcher Searcher
	logger   *slog.Logger
	debounce time.Duration
	listener func(Snapshot)

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	filter    Filter
	seq       uint64
	committed uint64
	results   []domain.SubcontractorRecord
	loading   bool
	failed    bool
	version   uint64
	textTimer *time.Timer
	textGen   uint64
	closed    bool

	notifyMu  sync.Mutex
	delivered uint64

	wg sync.WaitGroup
}

// NewEngine creates an engine bound to ctx. Queries are issued in the
// background and stop being committed once ctx is done or Close is called.
func NewEngine(ctx context.Context, searcher Searcher, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		searcher: searcher,
		logger:   logger,
		debounce: DefaultDebounce,
		results:  []domain.SubcontractorRecord{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.ctx, e.cancel = context.WithCancel(ctx)
	return e
}

// Start issues the initial query for the current filter.
func (e *Engine) Start() {
	e.Refresh()
}

// UpdateFilters shallow-merges the patches into the current filter and
// re-queries.
func (e *Engine) UpdateFilters(patches ...Patch) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.filter = Merge(e.filter, patches...)
	snap := e.issueLocked()
	e.mu.Unlock()
	e.notify(snap)
}

// ResetFilters clears every field, including pending free text, and
// re-queries.
func (e *Engine) ResetFilters() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.stopTextLocked()
	e.filter = Filter{}
	snap := e.issueLocked()
	e.mu.Unlock()
	e.notify(snap)
}

// SetSearchText applies free text after the debounce interval has passed
// without another call. Only the final value of a burst is queried.
func (e *Engine) SetSearchText(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.stopTextLocked()
	gen := e.textGen
	e.wg.Add(1)
	e.textTimer = time.AfterFunc(e.debounce, func() {
		defer e.wg.Done()
		e.mu.Lock()
		if e.closed || gen != e.textGen {
			e.mu.Unlock()
			return
		}
		e.textTimer = nil
		e.filter = Merge(e.filter, SetSearchText(text))
		snap := e.issueLocked()
		e.mu.Unlock()
		e.notify(snap)
	})
}

// Refresh re-runs the current filter. It is the manual retry after a
// failed query.
func (e *Engine) Refresh() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	snap := e.issueLocked()
	e.mu.Unlock()
	e.notify(snap)
}

// Filter returns a copy of the current filter.
func (e *Engine) Filter() Filter {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.filter.Clone()
}

// Snapshot returns the consumer-visible state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Wait blocks until pending debounced text and in-flight queries finish.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Close stops the engine. Pending text is dropped and late results are
// discarded.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.stopTextLocked()
	e.mu.Unlock()
	e.cancel()
	e.wg.Wait()
}

// stopTextLocked invalidates any scheduled free-text update.
func (e *Engine) stopTextLocked() {
	e.textGen++
	if e.textTimer != nil && e.textTimer.Stop() {
		e.wg.Done()
	}
	e.textTimer = nil
}

func (e *Engine) issueLocked() Snapshot {
	e.seq++
	e.loading = true
	e.version++
	seq, f := e.seq, e.filter.Clone()
	e.wg.Add(1)
	go e.run(seq, f)
	return e.snapshotLocked()
}

func (e *Engine) run(seq uint64, f Filter) {
	defer e.wg.Done()

	start := time.Now()
	records, err := e.searcher.Search(e.ctx, f)
	elapsed := time.Since(start)

	e.mu.Lock()
	if e.closed || seq != e.seq {
		e.mu.Unlock()
		metrics.ObserveStaleSearch()
		e.logger.Debug("discarding stale search result", slog.Uint64("seq", seq))
		return
	}
	if err != nil {
		metrics.ObserveSearch("error", elapsed)
		e.logger.Warn("subcontractor search failed", slog.String("error", err.Error()))
		e.results = []domain.SubcontractorRecord{}
		e.failed = true
	} else {
		metrics.ObserveSearch("ok", elapsed)
		if records == nil {
			records = []domain.SubcontractorRecord{}
		}
		e.results = records
		e.failed = false
	}
	e.loading = false
	e.committed = seq
	e.version++
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(snap)
}

func (e *Engine) snapshotLocked() Snapshot {
	results := make([]domain.SubcontractorRecord, len(e.results))
	copy(results, e.results)
	return Snapshot{
		Filter:  e.filter.Clone(),
		Results: results,
		Loading: e.loading,
		Failed:  e.failed,
		Seq:     e.committed,
		Version: e.version,
	}
}

func (e *Engine) notify(snap Snapshot) {
	if e.listener == nil {
		return
	}
	e.notifyMu.Lock()
	defer e.notifyMu.Unlock()
	if snap.Version <= e.delivered {
		return
	}
	e.delivered = snap.Version
	e.listener(snap)
}
