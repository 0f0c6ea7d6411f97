package tenancy

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"github.com/aryan0dhankhar/freightlink/internal/domain"
	"github.com/aryan0dhankhar/freightlink/internal/observability/metrics"
	"github.com/aryan0dhankhar/freightlink/internal/observability/tracing"
	"github.com/aryan0dhankhar/freightlink/pkg/cache"
)

const (
	DefaultCacheTTL    = 30 * time.Second
	DefaultMinInterval = 10 * time.Second
)

// Store is the backend the resolver queries. Implementations return
// domain.ErrNotFound when a lookup has no result.
type Store interface {
	OwnedCompany(ctx context.Context, identity string) (*domain.Company, error)
	MemberRole(ctx context.Context, companyID, identity string) (domain.Role, error)
	JoinedCompany(ctx context.Context, identity string) (*domain.Company, domain.Role, error)
}

// Outcome says how a resolution was served.
type Outcome int

const (
	OutcomeCached Outcome = iota
	OutcomeFetched
	OutcomeThrottled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCached:
		return "cached"
	case OutcomeFetched:
		return "fetched"
	default:
		return "throttled"
	}
}

// Result is the resolver's answer. A throttled result carries no
// affiliation; callers keep whatever they held before.
type Result struct {
	Affiliation Affiliation
	Outcome     Outcome
}

// Resolver maps identities to their company. It caches results per
// identity, including the absence of a company, and enforces a minimum
// interval between backend fetches across all identities. It never
// returns errors: backend failures are logged and treated as not found.
type Resolver struct {
	store    Store
	cache    *cache.Cache[Affiliation]
	ttl      time.Duration
	limiter  *rate.Limiter
	now      func() time.Time
	errLevel slog.Level
	logger   *slog.Logger

	// seq stamps invalidations. A fetch only writes its result to the
	// cache when no invalidation for its identity happened after it began.
	mu          sync.Mutex
	seq         uint64
	invalidated map[string]uint64
	resetAt     uint64
}

// Option configures a Resolver
type Option func(*resolverOptions)

type resolverOptions struct {
	ttl         time.Duration
	minInterval time.Duration
	now         func() time.Time
	errLevel    slog.Level
}

// WithCacheTTL sets how long a resolution is reused.
func WithCacheTTL(ttl time.Duration) Option {
	return func(o *resolverOptions) { o.ttl = ttl }
}

// WithMinInterval sets the minimum gap between backend fetches.
// Zero disables throttling.
func WithMinInterval(d time.Duration) Option {
	return func(o *resolverOptions) { o.minInterval = d }
}

// WithClock overrides the time source for cache expiry and throttling.
func WithClock(now func() time.Time) Option {
	return func(o *resolverOptions) { o.now = now }
}

// WithErrorLogLevel sets the level swallowed backend errors are logged at.
func WithErrorLogLevel(level slog.Level) Option {
	return func(o *resolverOptions) { o.errLevel = level }
}

// NewResolver creates a resolver over store.
func NewResolver(store Store, logger *slog.Logger, opts ...Option) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	o := resolverOptions{
		ttl:         DefaultCacheTTL,
		minInterval: DefaultMinInterval,
		now:         time.Now,
		errLevel:    slog.LevelWarn,
	}
	for _, opt := range opts {
		opt(&o)
	}

	r := &Resolver{
		store:    store,
		cache:    cache.New[Affiliation](cache.WithClock(o.now)),
		ttl:      o.ttl,
		now:      o.now,
		errLevel:    o.errLevel,
		logger:      logger,
		invalidated: map[string]uint64{},
	}
	if o.minInterval > 0 {
		r.limiter = rate.NewLimiter(rate.Every(o.minInterval), 1)
	}
	return r
}

// Resolve returns the identity's affiliation, from cache when fresh.
func (r *Resolver) Resolve(ctx context.Context, identity string) Result {
	if a, ok := r.cache.Get(identity); ok {
		metrics.ObserveTenancyLookup(OutcomeCached.String())
		return Result{Affiliation: a, Outcome: OutcomeCached}
	}

	if r.limiter != nil && !r.limiter.AllowN(r.now(), 1) {
		metrics.ObserveTenancyLookup(OutcomeThrottled.String())
		r.logger.Debug("company fetch throttled", slog.String("identity", identity))
		return Result{Outcome: OutcomeThrottled}
	}

	return r.fetch(ctx, identity)
}

// Refresh drops the identity's cache entry and fetches again. An explicit
// refresh is user initiated and is never throttled; it still counts as a
// fetch for the interval seen by automatic resolutions.
func (r *Resolver) Refresh(ctx context.Context, identity string) Result {
	r.Invalidate(identity)
	if r.limiter != nil {
		r.limiter.AllowN(r.now(), 1)
	}
	return r.fetch(ctx, identity)
}

// Invalidate drops the identity's cache entry. Fetches already in flight
// for the identity will not repopulate it.
func (r *Resolver) Invalidate(identity string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	r.invalidated[identity] = r.seq
	r.cache.Delete(identity)
}

// Reset drops every cache entry. Used on full sign-out.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	r.resetAt = r.seq
	clear(r.invalidated)
	r.cache.Clear()
}

func (r *Resolver) begin() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seq
}

// commit caches a for identity unless it was invalidated after started.
func (r *Resolver) commit(identity string, a Affiliation, started uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.resetAt > started || r.invalidated[identity] > started {
		return false
	}
	r.cache.Set(identity, a, r.ttl)
	return true
}

func (r *Resolver) fetch(ctx context.Context, identity string) Result {
	ctx, span := tracing.Start(ctx, "tenancy.resolve", attribute.String("identity", identity))
	defer span.End()

	started := r.begin()
	a := r.lookup(ctx, identity)
	if !r.commit(identity, a, started) {
		r.logger.Debug("discarding company lookup invalidated while in flight", slog.String("identity", identity))
	}
	metrics.ObserveTenancyLookup(OutcomeFetched.String())
	span.SetAttributes(attribute.String("affiliation", a.Kind.String()))
	return Result{Affiliation: a, Outcome: OutcomeFetched}
}

func (r *Resolver) lookup(ctx context.Context, identity string) Affiliation {
	company, err := r.store.OwnedCompany(ctx, identity)
	switch {
	case err == nil && company != nil:
		role, err := r.store.MemberRole(ctx, company.ID, identity)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				r.logBackendError(ctx, "member_role", identity, err)
			}
			role = domain.CreatorRole
		}
		return Owned(company, role)
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		r.logBackendError(ctx, "owned_company", identity, err)
	}

	company, role, err := r.store.JoinedCompany(ctx, identity)
	switch {
	case err == nil && company != nil:
		return Member(company, role)
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		r.logBackendError(ctx, "joined_company", identity, err)
	}

	return None()
}

func (r *Resolver) logBackendError(ctx context.Context, step, identity string, err error) {
	metrics.ObserveTenancyError(step)
	r.logger.Log(ctx, r.errLevel, "company lookup failed",
		slog.String("step", step),
		slog.String("identity", identity),
		slog.String("error", err.Error()),
	)
}
