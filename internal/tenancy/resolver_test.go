package tenancy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aryan0dhankhar/freightlink/internal/domain"
)

func TestResolveCachesWithinTTL(t *testing.T) {
	store := newMemStore()
	company := &domain.Company{ID: "c1", Type: domain.CompanyTypeShipper}
	store.addOwned("u1", company)
	store.addRole("c1", "u1", domain.RoleCompanyAdmin)
	clock := newFakeClock()
	r := NewResolver(store, quietLogger(), WithClock(clock.Now))

	first := r.Resolve(context.Background(), "u1")
	clock.Advance(29 * time.Second)
	second := r.Resolve(context.Background(), "u1")

	if store.calls() != 1 {
		t.Fatalf("expected 1 backend query, got %d", store.calls())
	}
	if first.Outcome != OutcomeFetched || second.Outcome != OutcomeCached {
		t.Fatalf("unexpected outcomes %s, %s", first.Outcome, second.Outcome)
	}
	if first.Affiliation.Company != second.Affiliation.Company || first.Affiliation.Role != second.Affiliation.Role {
		t.Fatalf("cached result differs from fetched result")
	}
}

func TestResolveCachesAbsenceOfCompany(t *testing.T) {
	store := newMemStore()
	r := NewResolver(store, quietLogger(), WithMinInterval(0))

	if r.Resolve(context.Background(), "u1").Affiliation.HasCompany() {
		t.Fatal("expected no company")
	}
	res := r.Resolve(context.Background(), "u1")
	if res.Outcome != OutcomeCached || res.Affiliation.Kind != KindNone {
		t.Fatalf("expected cached none, got %s/%s", res.Outcome, res.Affiliation.Kind)
	}
	if store.joinedCalls != 1 {
		t.Fatalf("expected membership lookup once, got %d", store.joinedCalls)
	}
}

func TestResolveExpiresAfterTTL(t *testing.T) {
	store := newMemStore()
	clock := newFakeClock()
	r := NewResolver(store, quietLogger(), WithClock(clock.Now), WithMinInterval(0))

	r.Resolve(context.Background(), "u1")
	clock.Advance(DefaultCacheTTL)
	res := r.Resolve(context.Background(), "u1")

	if res.Outcome != OutcomeFetched || store.calls() != 2 {
		t.Fatalf("expected refetch after ttl, outcome=%s calls=%d", res.Outcome, store.calls())
	}
}

func TestThrottleAcrossIdentities(t *testing.T) {
	store := newMemStore()
	store.addOwned("u2", &domain.Company{ID: "c2"})
	clock := newFakeClock()
	r := NewResolver(store, quietLogger(), WithClock(clock.Now))

	if res := r.Resolve(context.Background(), "u1"); res.Outcome != OutcomeFetched {
		t.Fatalf("expected first fetch, got %s", res.Outcome)
	}

	clock.Advance(5 * time.Second)
	res := r.Resolve(context.Background(), "u2")
	if res.Outcome != OutcomeThrottled {
		t.Fatalf("expected throttled, got %s", res.Outcome)
	}
	if store.calls() != 1 {
		t.Fatalf("throttled resolution must not query, got %d calls", store.calls())
	}

	clock.Advance(5 * time.Second)
	res = r.Resolve(context.Background(), "u2")
	if res.Outcome != OutcomeFetched || !res.Affiliation.HasCompany() {
		t.Fatalf("expected fetch after interval, got %s", res.Outcome)
	}
}

func TestCacheHitDoesNotConsumeThrottle(t *testing.T) {
	store := newMemStore()
	clock := newFakeClock()
	r := NewResolver(store, quietLogger(), WithClock(clock.Now))

	r.Resolve(context.Background(), "u1")
	clock.Advance(5 * time.Second)
	r.Resolve(context.Background(), "u1") // cached
	clock.Advance(5 * time.Second)
	if res := r.Resolve(context.Background(), "u2"); res.Outcome != OutcomeFetched {
		t.Fatalf("cache hits must not count as fetches, got %s", res.Outcome)
	}
}

func TestOwnedCompanyRole(t *testing.T) {
	tests := []struct {
		name     string
		explicit domain.Role
		roleErr  error
		want     domain.Role
	}{
		{"no membership row defaults to admin", "", nil, domain.RoleCompanyAdmin},
		{"explicit membership row wins", domain.RoleLogisticsManager, nil, domain.RoleLogisticsManager},
		{"role lookup error defaults to admin", "", errors.New("timeout"), domain.RoleCompanyAdmin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			store.addOwned("u1", &domain.Company{ID: "c1"})
			if tt.explicit != "" {
				store.addRole("c1", "u1", tt.explicit)
			}
			store.roleErr = tt.roleErr
			r := NewResolver(store, quietLogger(), WithMinInterval(0))

			a := r.Resolve(context.Background(), "u1").Affiliation
			if a.Kind != KindOwned || a.Role != tt.want {
				t.Fatalf("expected owned/%s, got %s/%s", tt.want, a.Kind, a.Role)
			}
			if store.joinedCalls != 0 {
				t.Fatal("owned company must short-circuit the membership lookup")
			}
		})
	}
}

func TestMemberCompany(t *testing.T) {
	store := newMemStore()
	store.addMember("u1", &domain.Company{ID: "c9", Type: domain.CompanyTypeSubcontractor}, domain.RoleDriver)
	r := NewResolver(store, quietLogger(), WithMinInterval(0))

	a := r.Resolve(context.Background(), "u1").Affiliation
	if a.Kind != KindMember || a.Role != domain.RoleDriver || a.Company.ID != "c9" {
		t.Fatalf("unexpected affiliation %+v", a)
	}
}

func TestBackendErrorsFallThrough(t *testing.T) {
	t.Run("owned lookup error falls through to membership", func(t *testing.T) {
		store := newMemStore()
		store.ownedErr = errors.New("connection reset")
		store.addMember("u1", &domain.Company{ID: "c1"}, domain.RoleEmployee)
		r := NewResolver(store, quietLogger(), WithMinInterval(0))

		a := r.Resolve(context.Background(), "u1").Affiliation
		if a.Kind != KindMember {
			t.Fatalf("expected member affiliation, got %s", a.Kind)
		}
	})

	t.Run("both lookups failing resolves to none", func(t *testing.T) {
		store := newMemStore()
		store.ownedErr = errors.New("down")
		store.joinedErr = errors.New("down")
		r := NewResolver(store, quietLogger(), WithMinInterval(0))

		res := r.Resolve(context.Background(), "u1")
		if res.Outcome != OutcomeFetched || res.Affiliation.HasCompany() {
			t.Fatalf("expected fetched none, got %s/%s", res.Outcome, res.Affiliation.Kind)
		}
	})
}

func TestRefreshBypassesCacheAndThrottle(t *testing.T) {
	store := newMemStore()
	clock := newFakeClock()
	r := NewResolver(store, quietLogger(), WithClock(clock.Now))

	r.Resolve(context.Background(), "u1")
	store.addOwned("u1", &domain.Company{ID: "c1", Type: domain.CompanyTypeShipper})

	clock.Advance(time.Second)
	res := r.Refresh(context.Background(), "u1")
	if res.Outcome != OutcomeFetched || !res.Affiliation.HasCompany() {
		t.Fatalf("expected refresh to fetch the new company, got %s", res.Outcome)
	}
	if res.Affiliation.Role != domain.RoleCompanyAdmin {
		t.Fatalf("expected creator to resolve as admin, got %s", res.Affiliation.Role)
	}
}

func TestInvalidateAndReset(t *testing.T) {
	store := newMemStore()
	r := NewResolver(store, quietLogger(), WithMinInterval(0))

	r.Resolve(context.Background(), "u1")
	r.Resolve(context.Background(), "u2")
	r.Invalidate("u1")
	if r.Resolve(context.Background(), "u1").Outcome != OutcomeFetched {
		t.Fatal("expected invalidated identity to be refetched")
	}
	if r.Resolve(context.Background(), "u2").Outcome != OutcomeCached {
		t.Fatal("invalidate must only touch the given identity")
	}
	r.Reset()
	if r.Resolve(context.Background(), "u2").Outcome != OutcomeFetched {
		t.Fatal("expected reset to drop every entry")
	}
}

func TestInvalidateWinsOverInFlightFetch(t *testing.T) {
	store := newMemStore()
	store.addOwned("u1", &domain.Company{ID: "C1", Type: domain.CompanyTypeShipper})
	store.holdOwned()
	r := NewResolver(store, quietLogger(), WithMinInterval(0))

	done := make(chan Result)
	go func() { done <- r.Resolve(context.Background(), "u1") }()
	<-store.ownedStarted
	r.Invalidate("u1")
	store.releaseOwned()
	if res := <-done; !res.Affiliation.HasCompany() {
		t.Fatalf("in-flight caller still gets its result, got %+v", res)
	}

	store.removeOwned("u1")
	res := r.Resolve(context.Background(), "u1")
	if res.Outcome != OutcomeFetched || res.Affiliation.HasCompany() {
		t.Fatalf("invalidated lookup repopulated the cache: %+v", res)
	}
}

func TestResetWinsOverInFlightFetch(t *testing.T) {
	store := newMemStore()
	store.holdOwned()
	r := NewResolver(store, quietLogger(), WithMinInterval(0))

	done := make(chan Result)
	go func() { done <- r.Resolve(context.Background(), "u1") }()
	<-store.ownedStarted
	r.Reset()
	store.releaseOwned()
	<-done

	if r.Resolve(context.Background(), "u1").Outcome != OutcomeFetched {
		t.Fatal("lookup started before reset must not be cached")
	}
}
