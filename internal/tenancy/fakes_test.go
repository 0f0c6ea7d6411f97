package tenancy

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aryan0dhankhar/freightlink/internal/domain"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{t: time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type membership struct {
	company *domain.Company
	role    domain.Role
}

// memStore is an in-memory Store with call counters and injectable errors.
type memStore struct {
	mu          sync.Mutex
	owned       map[string]*domain.Company
	roles       map[string]domain.Role // companyID|identity
	joined      map[string]membership
	ownedErr    error
	roleErr     error
	joinedErr   error
	ownedCalls  int
	joinedCalls int

	// ownedGate, when set, holds OwnedCompany until closed.
	ownedGate    chan struct{}
	ownedStarted chan string
}

func newMemStore() *memStore {
	return &memStore{
		owned:  map[string]*domain.Company{},
		roles:  map[string]domain.Role{},
		joined: map[string]membership{},
	}
}

func (m *memStore) addOwned(identity string, c *domain.Company) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.owned[identity] = c
}

func (m *memStore) addRole(companyID, identity string, role domain.Role) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roles[companyID+"|"+identity] = role
}

func (m *memStore) addMember(identity string, c *domain.Company, role domain.Role) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.joined[identity] = membership{company: c, role: role}
}

func (m *memStore) removeOwned(identity string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.owned, identity)
}

func (m *memStore) holdOwned() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ownedGate = make(chan struct{})
	m.ownedStarted = make(chan string, 8)
}

func (m *memStore) releaseOwned() {
	m.mu.Lock()
	defer m.mu.Unlock()
	close(m.ownedGate)
	m.ownedGate = nil
}

func (m *memStore) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ownedCalls
}

func (m *memStore) OwnedCompany(ctx context.Context, identity string) (*domain.Company, error) {
	m.mu.Lock()
	gate, started := m.ownedGate, m.ownedStarted
	m.mu.Unlock()
	if gate != nil {
		started <- identity
		<-gate
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.ownedCalls++
	if m.ownedErr != nil {
		return nil, m.ownedErr
	}
	c, ok := m.owned[identity]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (m *memStore) MemberRole(ctx context.Context, companyID, identity string) (domain.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.roleErr != nil {
		return "", m.roleErr
	}
	r, ok := m.roles[companyID+"|"+identity]
	if !ok {
		return "", domain.ErrNotFound
	}
	return r, nil
}

func (m *memStore) JoinedCompany(ctx context.Context, identity string) (*domain.Company, domain.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.joinedCalls++
	if m.joinedErr != nil {
		return nil, "", m.joinedErr
	}
	j, ok := m.joined[identity]
	if !ok {
		return nil, "", domain.ErrNotFound
	}
	return j.company, j.role, nil
}

// memProfiles serves profiles, optionally holding every call until release
// is closed.
type memProfiles struct {
	mu       sync.Mutex
	profiles map[string]*domain.Profile
	calls    int
	gate     chan struct{}
	started  chan string
}

func newMemProfiles() *memProfiles {
	return &memProfiles{profiles: map[string]*domain.Profile{}}
}

func (m *memProfiles) add(p *domain.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.ID] = p
}

func (m *memProfiles) hold() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gate = make(chan struct{})
	m.started = make(chan string, 8)
}

func (m *memProfiles) release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	close(m.gate)
}

func (m *memProfiles) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *memProfiles) Profile(ctx context.Context, identity string) (*domain.Profile, error) {
	m.mu.Lock()
	m.calls++
	gate, started := m.gate, m.started
	m.mu.Unlock()

	if gate != nil {
		started <- identity
		<-gate
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[identity]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}
