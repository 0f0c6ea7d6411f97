package tenancy

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aryan0dhankhar/freightlink/internal/domain"
)

// EventKind is the type of an authentication state transition.
type EventKind int

const (
	SignedIn EventKind = iota
	SignedOut
	TokenRefreshed
)

// AuthEvent is one authentication state transition. Identity is empty
// for SignedOut.
type AuthEvent struct {
	Kind     EventKind
	Identity string
}

// ProfileSource loads the profile of an identity.
type ProfileSource interface {
	Profile(ctx context.Context, identity string) (*domain.Profile, error)
}

// CompanySource resolves the company of an identity. *Resolver implements it.
type CompanySource interface {
	Resolve(ctx context.Context, identity string) Result
	Refresh(ctx context.Context, identity string) Result
	Invalidate(identity string)
}

// State is what a session exposes to its consumers.
type State struct {
	Identity   string
	Profile    *domain.Profile
	Company    *domain.Company
	Role       domain.Role
	Kind       Kind
	HasCompany bool
	// Loading is true until both the profile and the company fetch have
	// completed once for the current identity.
	Loading bool
}

// Authenticated reports whether an identity is signed in.
func (s State) Authenticated() bool {
	return s.Identity != ""
}

type resource int

const (
	resourceProfile resource = iota
	resourceCompany
)

// Session drives one client's tenancy state from authentication events.
// Every fetch is tagged with the identity generation it was started for;
// a result whose generation is no longer current is discarded, so a late
// answer for a signed-out identity never overwrites the cleared state.
type Session struct {
	profiles  ProfileSource
	companies CompanySource
	logger    *slog.Logger

	mu       sync.Mutex
	state    State
	gen      uint64
	inFlight [2]bool
	done     [2]bool
	changed  chan struct{}
	wg       sync.WaitGroup
}

// NewSession creates a session in the loading state. Call Run, or Handle
// with the result of the initial session check, to leave it.
func NewSession(profiles ProfileSource, companies CompanySource, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		profiles:  profiles,
		companies: companies,
		logger:    logger,
		state:     State{Loading: true},
		changed:   make(chan struct{}),
	}
}

// Run performs the initial session check for initial (empty when there is
// no stored session) and then applies events in order until ctx is done or
// events is closed. It waits for in-flight fetches before returning.
func (s *Session) Run(ctx context.Context, initial string, events <-chan AuthEvent) {
	if initial != "" {
		s.Handle(ctx, AuthEvent{Kind: SignedIn, Identity: initial})
	} else {
		s.Handle(ctx, AuthEvent{Kind: SignedOut})
	}

	defer s.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.Handle(ctx, ev)
		}
	}
}

// Handle applies one event. Fetches run in the background; use WaitReady
// to block until the session is ready.
func (s *Session) Handle(ctx context.Context, ev AuthEvent) {
	if ev.Kind == SignedOut || ev.Identity == "" {
		s.signOut()
		return
	}

	s.mu.Lock()
	if ev.Identity != s.state.Identity {
		s.gen++
		s.state = State{Identity: ev.Identity, Loading: true}
		s.inFlight = [2]bool{}
		s.done = [2]bool{}
		s.notifyLocked()
	} else if ev.Kind == TokenRefreshed {
		s.mu.Unlock()
		return
	}
	s.startLocked(ctx, resourceProfile)
	s.startLocked(ctx, resourceCompany)
	s.mu.Unlock()
}

// RefreshCompany re-resolves the current identity's company, bypassing
// the cache and the fetch throttle. It blocks until the result is applied.
func (s *Session) RefreshCompany(ctx context.Context) State {
	s.mu.Lock()
	identity, gen := s.state.Identity, s.gen
	if identity == "" || s.inFlight[resourceCompany] {
		s.mu.Unlock()
		s.Wait()
		return s.State()
	}
	s.inFlight[resourceCompany] = true
	s.mu.Unlock()

	res := s.companies.Refresh(ctx, identity)

	s.mu.Lock()
	s.commitCompanyLocked(gen, res)
	st := s.state
	s.mu.Unlock()
	return st
}

// State returns a copy of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Wait blocks until every fetch started so far has finished.
func (s *Session) Wait() {
	s.wg.Wait()
}

// WaitReady blocks until the session is no longer loading or ctx is done.
func (s *Session) WaitReady(ctx context.Context) (State, error) {
	for {
		s.mu.Lock()
		st, ch := s.state, s.changed
		s.mu.Unlock()
		if !st.Loading {
			return st, nil
		}
		select {
		case <-ctx.Done():
			return st, ctx.Err()
		case <-ch:
		}
	}
}

func (s *Session) signOut() {
	s.mu.Lock()
	previous := s.state.Identity
	s.gen++
	s.state = State{}
	s.inFlight = [2]bool{}
	s.done = [2]bool{}
	s.notifyLocked()
	s.mu.Unlock()

	if previous != "" {
		s.companies.Invalidate(previous)
	}
}

func (s *Session) startLocked(ctx context.Context, r resource) {
	if s.inFlight[r] {
		return
	}
	s.inFlight[r] = true
	identity, gen := s.state.Identity, s.gen

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		switch r {
		case resourceProfile:
			profile, err := s.profiles.Profile(ctx, identity)
			if err != nil {
				s.logger.Warn("profile fetch failed",
					slog.String("identity", identity),
					slog.String("error", err.Error()),
				)
				profile = nil
			}
			s.mu.Lock()
			s.commitProfileLocked(gen, profile)
			s.mu.Unlock()
		case resourceCompany:
			res := s.companies.Resolve(ctx, identity)
			s.mu.Lock()
			s.commitCompanyLocked(gen, res)
			s.mu.Unlock()
		}
	}()
}

func (s *Session) commitProfileLocked(gen uint64, p *domain.Profile) {
	if gen != s.gen {
		return
	}
	s.state.Profile = p
	s.finishLocked(resourceProfile)
}

func (s *Session) commitCompanyLocked(gen uint64, res Result) {
	if gen != s.gen {
		return
	}
	if res.Outcome != OutcomeThrottled {
		a := res.Affiliation
		s.state.Company = a.Company
		s.state.Role = a.Role
		s.state.Kind = a.Kind
		s.state.HasCompany = a.HasCompany()
	}
	s.finishLocked(resourceCompany)
}

func (s *Session) finishLocked(r resource) {
	s.inFlight[r] = false
	s.done[r] = true
	s.state.Loading = !(s.done[resourceProfile] && s.done[resourceCompany])
	s.notifyLocked()
}

func (s *Session) notifyLocked() {
	close(s.changed)
	s.changed = make(chan struct{})
}
