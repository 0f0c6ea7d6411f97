package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/freightlink/internal/domain"
	"github.com/aryan0dhankhar/freightlink/internal/infrastructure/events"
	"github.com/aryan0dhankhar/freightlink/internal/infrastructure/redis"
	"github.com/aryan0dhankhar/freightlink/internal/observability/metrics"
)

const (
	DefaultInvitationTTL = 7 * 24 * time.Hour
	defaultLockTTL       = 10 * time.Second
)

// Locker hands out short-lived exclusive locks. *redis.Client implements it.
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (*redis.Lock, error)
}

// InvitationService manages invitations and accepts them.
type InvitationService struct {
	invitations domain.InvitationRepository
	memberships domain.MembershipRepository
	tx          TxRunner
	locker      Locker
	resolver    AffiliationResolver
	publisher   events.Publisher
	ttl         time.Duration
	lockTTL     time.Duration
	now         func() time.Time
	logger      *slog.Logger
}

// InvitationOption customises an InvitationService.
type InvitationOption func(*InvitationService)

func WithInvitationTTL(ttl time.Duration) InvitationOption {
	return func(s *InvitationService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithLockTTL(ttl time.Duration) InvitationOption {
	return func(s *InvitationService) {
		if ttl > 0 {
			s.lockTTL = ttl
		}
	}
}

func WithInvitationClock(now func() time.Time) InvitationOption {
	return func(s *InvitationService) { s.now = now }
}

func NewInvitationService(
	invitations domain.InvitationRepository,
	memberships domain.MembershipRepository,
	tx TxRunner,
	locker Locker,
	resolver AffiliationResolver,
	publisher events.Publisher,
	logger *slog.Logger,
	opts ...InvitationOption,
) *InvitationService {
	if logger == nil {
		logger = slog.Default()
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	s := &InvitationService{
		invitations: invitations,
		memberships: memberships,
		tx:          tx,
		locker:      locker,
		resolver:    resolver,
		publisher:   publisher,
		ttl:         DefaultInvitationTTL,
		lockTTL:     defaultLockTTL,
		now:         time.Now,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InvitationView is an invitation with its derived status.
type InvitationView struct {
	*domain.Invitation
	Status domain.InvitationStatus `json:"status"`
}

func (s *InvitationService) view(inv *domain.Invitation) InvitationView {
	return InvitationView{Invitation: inv, Status: inv.Status(s.now())}
}

// Create invites email to companyID with role.
func (s *InvitationService) Create(ctx context.Context, companyID, invitedBy, email string, role domain.Role) (*InvitationView, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, fmt.Errorf("%w: invalid email", domain.ErrInvalidInput)
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}

	now := s.now().UTC()
	inv := &domain.Invitation{
		CompanyID: companyID,
		Email:     email,
		Role:      role,
		InvitedBy: invitedBy,
		InvitedAt: now,
		ExpiresAt: now.Add(s.ttl),
		Token:     uuid.NewString(),
	}
	if err := s.invitations.Create(ctx, inv); err != nil {
		return nil, err
	}

	s.logger.Info("invitation created",
		slog.String("company_id", companyID),
		slog.String("invitation_id", inv.ID),
		slog.String("role", string(role)),
	)
	v := s.view(inv)
	return &v, nil
}

func (s *InvitationService) List(ctx context.Context, companyID string) ([]InvitationView, error) {
	invs, err := s.invitations.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	out := make([]InvitationView, 0, len(invs))
	for _, inv := range invs {
		out = append(out, s.view(inv))
	}
	return out, nil
}

// Delete withdraws an invitation that has not been accepted yet.
func (s *InvitationService) Delete(ctx context.Context, companyID, id string) error {
	deleted, err := s.invitations.DeletePending(ctx, companyID, id)
	if err != nil {
		return err
	}
	if deleted {
		return nil
	}
	inv, err := s.invitations.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if inv.CompanyID != companyID {
		return fmt.Errorf("invitation %s: %w", id, domain.ErrNotFound)
	}
	return domain.ErrInvitationUsed
}

// GetByToken is the public lookup behind an invitation link.
func (s *InvitationService) GetByToken(ctx context.Context, token string) (*InvitationView, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("%w: token is required", domain.ErrInvalidInput)
	}
	inv, err := s.invitations.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	v := s.view(inv)
	return &v, nil
}

// AcceptRequest is the body of the accept-invitation call.
type AcceptRequest struct {
	UserID       string      `json:"userId"`
	InvitationID string      `json:"invitationId"`
	CompanyID    string      `json:"companyId"`
	Role         domain.Role `json:"role"`
	InvitedBy    string      `json:"invitedBy"`
	InvitedAt    *time.Time  `json:"invitedAt"`

	// Email is the accepting identity's address, taken from the verified
	// token rather than the body. It must match the invited address.
	Email string `json:"-"`
}

// Missing lists the required fields that are empty.
func (r AcceptRequest) Missing() []string {
	var missing []string
	if r.UserID == "" {
		missing = append(missing, "userId")
	}
	if r.InvitationID == "" {
		missing = append(missing, "invitationId")
	}
	if r.CompanyID == "" {
		missing = append(missing, "companyId")
	}
	if r.Role == "" {
		missing = append(missing, "role")
	}
	return missing
}

// Accept turns an invitation into a membership exactly once. The row is
// locked for the transaction, the membership insert ignores an existing
// (company, user) pair and accepted_at is only set while still null. A
// short Redis lock keeps concurrent replays from queueing on the row lock.
func (s *InvitationService) Accept(ctx context.Context, req AcceptRequest) (m *domain.Membership, err error) {
	defer func() {
		metrics.ObserveInvitationAccept(acceptResult(err))
	}()

	if missing := req.Missing(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", domain.ErrInvalidInput, strings.Join(missing, ", "))
	}
	if !req.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, req.Role)
	}

	if s.locker != nil {
		lock, lockErr := s.locker.AcquireLock(ctx, "invitation:accept:"+req.InvitationID, s.lockTTL)
		switch {
		case errors.Is(lockErr, redis.ErrLockHeld):
			return nil, fmt.Errorf("%w: invitation is being accepted", domain.ErrConflict)
		case lockErr != nil:
			s.logger.Warn("invitation lock unavailable, relying on the database",
				slog.String("invitation_id", req.InvitationID),
				slog.String("error", lockErr.Error()),
			)
		default:
			defer lock.Release(context.WithoutCancel(ctx))
		}
	}

	if aff := s.resolver.Refresh(ctx, req.UserID).Affiliation; aff.HasCompany() && aff.Company.ID != req.CompanyID {
		return nil, domain.ErrAlreadyAffiliated
	}

	now := s.now().UTC()
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		inv, err := s.invitations.GetForUpdate(ctx, req.InvitationID)
		if err != nil {
			return err
		}
		if inv.CompanyID != req.CompanyID {
			return fmt.Errorf("%w: invitation does not belong to company", domain.ErrInvalidInput)
		}
		if inv.Role != req.Role {
			return fmt.Errorf("%w: role does not match invitation", domain.ErrInvalidInput)
		}
		if req.InvitedBy != "" && req.InvitedBy != inv.InvitedBy {
			return fmt.Errorf("%w: inviter does not match invitation", domain.ErrInvalidInput)
		}
		if !strings.EqualFold(strings.TrimSpace(req.Email), inv.Email) {
			return fmt.Errorf("%w: invitation was sent to another address", domain.ErrForbidden)
		}
		if inv.Accepted() {
			return domain.ErrInvitationUsed
		}
		if inv.Expired(now) {
			return domain.ErrInvitationExpired
		}

		invitedAt := inv.InvitedAt
		m = &domain.Membership{
			CompanyID:  inv.CompanyID,
			UserID:     req.UserID,
			Role:       inv.Role,
			InvitedBy:  inv.InvitedBy,
			InvitedAt:  &invitedAt,
			AcceptedAt: &now,
		}
		inserted, err := s.memberships.Insert(ctx, m)
		if err != nil {
			return err
		}
		if !inserted {
			return domain.ErrAlreadyAffiliated
		}

		marked, err := s.invitations.MarkAccepted(ctx, inv.ID, now)
		if err != nil {
			return err
		}
		if !marked {
			return domain.ErrInvitationUsed
		}
		return nil
	})
	if err != nil {
		s.logger.Info("invitation accept rejected",
			slog.String("invitation_id", req.InvitationID),
			slog.String("user_id", req.UserID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.resolver.Invalidate(req.UserID)
	s.logger.Info("invitation accepted",
		slog.String("invitation_id", req.InvitationID),
		slog.String("company_id", m.CompanyID),
		slog.String("user_id", req.UserID),
	)
	publish(ctx, s.publisher, s.logger, events.InvitationAccepted, m.CompanyID, map[string]string{
		"invitationId": req.InvitationID,
		"companyId":    m.CompanyID,
		"userId":       req.UserID,
		"role":         string(m.Role),
	})
	return m, nil
}

func acceptResult(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid"
	case errors.Is(err, domain.ErrInvitationUsed), errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrAlreadyAffiliated):
		return "conflict"
	case errors.Is(err, domain.ErrInvitationExpired):
		return "expired"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
