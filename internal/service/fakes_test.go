package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aryan0dhankhar/freightlink/internal/domain"
	"github.com/aryan0dhankhar/freightlink/internal/infrastructure/events"
	"github.com/aryan0dhankhar/freightlink/internal/infrastructure/redis"
	"github.com/aryan0dhankhar/freightlink/internal/tenancy"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

// inlineTx runs fn without a transaction. A single mutex serialises
// callers the way a row lock would.
type inlineTx struct{ mu sync.Mutex }

func (t *inlineTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx)
}

type memUserRepo struct {
	mu      sync.Mutex
	byID    map[string]*domain.User
	byEmail map[string]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: map[string]*domain.User{}, byEmail: map[string]*domain.User{}}
}

func (m *memUserRepo) Create(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[u.Email]; ok {
		return domain.ErrEmailTaken
	}
	u.ID = "u-" + u.Email
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	m.byID[u.ID] = u
	m.byEmail[u.Email] = u
	return nil
}

func (m *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memUserRepo) Update(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[u.ID] = u
	m.byEmail[u.Email] = u
	return nil
}

type memProfileRepo struct {
	mu   sync.Mutex
	byID map[string]*domain.Profile
	err  error
}

func newMemProfileRepo() *memProfileRepo {
	return &memProfileRepo{byID: map[string]*domain.Profile{}}
}

func (m *memProfileRepo) Create(_ context.Context, p *domain.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	cp := *p
	m.byID[p.ID] = &cp
	return nil
}

func (m *memProfileRepo) GetByID(_ context.Context, id string) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.byID[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memProfileRepo) Update(_ context.Context, p *domain.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.byID[p.ID] = &cp
	return nil
}

type memCompanyRepo struct {
	mu   sync.Mutex
	byID map[string]*domain.Company
	seq  int
}

func newMemCompanyRepo(companies ...*domain.Company) *memCompanyRepo {
	m := &memCompanyRepo{byID: map[string]*domain.Company{}}
	for _, c := range companies {
		m.byID[c.ID] = c
	}
	return m
}

func (m *memCompanyRepo) Create(_ context.Context, c *domain.Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	c.ID = fmt.Sprintf("c%d", m.seq)
	cp := *c
	m.byID[c.ID] = &cp
	return nil
}

func (m *memCompanyRepo) GetByID(_ context.Context, id string) (*domain.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.byID[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memCompanyRepo) GetByOwner(_ context.Context, userID string) (*domain.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.byID {
		if c.OwnerID == userID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memCompanyRepo) Update(_ context.Context, c *domain.Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.byID[c.ID] = &cp
	return nil
}

type memMembershipRepo struct {
	mu   sync.Mutex
	rows map[string]*domain.Membership // company|user
}

func newMemMembershipRepo() *memMembershipRepo {
	return &memMembershipRepo{rows: map[string]*domain.Membership{}}
}

func (m *memMembershipRepo) Insert(_ context.Context, ms *domain.Membership) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := ms.CompanyID + "|" + ms.UserID
	if _, ok := m.rows[key]; ok {
		return false, nil
	}
	ms.ID = "m-" + key
	cp := *ms
	m.rows[key] = &cp
	return true, nil
}

func (m *memMembershipRepo) Role(_ context.Context, companyID, userID string) (domain.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rows[companyID+"|"+userID]; ok {
		return r.Role, nil
	}
	return "", domain.ErrNotFound
}

func (m *memMembershipRepo) JoinedCompany(context.Context, string) (*domain.Company, domain.Role, error) {
	return nil, "", domain.ErrNotFound
}

func (m *memMembershipRepo) ListMembers(_ context.Context, companyID string) ([]domain.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Member
	for _, r := range m.rows {
		if r.CompanyID == companyID {
			out = append(out, domain.Member{Membership: *r})
		}
	}
	return out, nil
}

func (m *memMembershipRepo) UpdateRole(_ context.Context, companyID, userID string, role domain.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[companyID+"|"+userID]
	if !ok {
		return domain.ErrNotFound
	}
	r.Role = role
	return nil
}

func (m *memMembershipRepo) Delete(_ context.Context, companyID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := companyID + "|" + userID
	if _, ok := m.rows[key]; !ok {
		return domain.ErrNotFound
	}
	delete(m.rows, key)
	return nil
}

func (m *memMembershipRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type memInvitationRepo struct {
	mu   sync.Mutex
	byID map[string]*domain.Invitation
	seq  int
}

func newMemInvitationRepo(invs ...*domain.Invitation) *memInvitationRepo {
	m := &memInvitationRepo{byID: map[string]*domain.Invitation{}}
	for _, inv := range invs {
		m.byID[inv.ID] = inv
	}
	return m
}

func (m *memInvitationRepo) Create(_ context.Context, inv *domain.Invitation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.CompanyID == inv.CompanyID && existing.Email == inv.Email && !existing.Accepted() {
			return domain.ErrConflict
		}
	}
	m.seq++
	inv.ID = fmt.Sprintf("inv%d", m.seq)
	cp := *inv
	m.byID[inv.ID] = &cp
	return nil
}

func (m *memInvitationRepo) GetByID(_ context.Context, id string) (*domain.Invitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if inv, ok := m.byID[id]; ok {
		cp := *inv
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memInvitationRepo) GetForUpdate(ctx context.Context, id string) (*domain.Invitation, error) {
	return m.GetByID(ctx, id)
}

func (m *memInvitationRepo) GetByToken(_ context.Context, token string) (*domain.Invitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inv := range m.byID {
		if inv.Token == token {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memInvitationRepo) ListByCompany(_ context.Context, companyID string) ([]*domain.Invitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Invitation
	for _, inv := range m.byID {
		if inv.CompanyID == companyID {
			cp := *inv
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memInvitationRepo) MarkAccepted(_ context.Context, id string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.byID[id]
	if !ok || inv.AcceptedAt != nil {
		return false, nil
	}
	inv.AcceptedAt = &at
	return true, nil
}

func (m *memInvitationRepo) DeletePending(_ context.Context, companyID, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.byID[id]
	if !ok || inv.CompanyID != companyID || inv.AcceptedAt != nil {
		return false, nil
	}
	delete(m.byID, id)
	return true, nil
}

// fakeResolver answers from a fixed map and records invalidations.
type fakeResolver struct {
	mu          sync.Mutex
	affs        map[string]tenancy.Affiliation
	invalidated []string
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{affs: map[string]tenancy.Affiliation{}}
}

func (f *fakeResolver) set(identity string, aff tenancy.Affiliation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.affs[identity] = aff
}

func (f *fakeResolver) Resolve(_ context.Context, identity string) tenancy.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	aff, ok := f.affs[identity]
	if !ok {
		aff = tenancy.None()
	}
	return tenancy.Result{Affiliation: aff, Outcome: tenancy.OutcomeFetched}
}

func (f *fakeResolver) Refresh(ctx context.Context, identity string) tenancy.Result {
	return f.Resolve(ctx, identity)
}

func (f *fakeResolver) Invalidate(identity string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, identity)
}

type fakeLocker struct {
	err   error
	calls int
}

func (l *fakeLocker) AcquireLock(context.Context, string, time.Duration) (*redis.Lock, error) {
	l.calls++
	return nil, l.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type memTourRepo struct {
	mu   sync.Mutex
	byID map[string]*domain.Tour
	seq  int
}

func newMemTourRepo() *memTourRepo {
	return &memTourRepo{byID: map[string]*domain.Tour{}}
}

func (m *memTourRepo) Create(_ context.Context, t *domain.Tour) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t.ID = fmt.Sprintf("t%d", m.seq)
	cp := *t
	m.byID[t.ID] = &cp
	return nil
}

func (m *memTourRepo) GetByID(_ context.Context, id string) (*domain.Tour, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.byID[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memTourRepo) ListForCompany(_ context.Context, companyID string) ([]*domain.Tour, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Tour
	for _, t := range m.byID {
		if t.CompanyID == companyID || (t.AssignedSubcontractorID != nil && *t.AssignedSubcontractorID == companyID) {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memTourRepo) Update(_ context.Context, t *domain.Tour) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.byID[t.ID] = &cp
	return nil
}

func (m *memTourRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, id)
	return nil
}

type countingRefresher struct {
	mu sync.Mutex
	n  int
}

func (r *countingRefresher) Trigger() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.n++
}

func (r *countingRefresher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}
