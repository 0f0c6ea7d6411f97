package domain

import (
	"context"
	"time"
)

// InvitationStatus is derived from the stored timestamps, never stored.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationExpired  InvitationStatus = "expired"
)

// Invitation is a pending offer of membership.
type Invitation struct {
	ID         string     `json:"id"`
	CompanyID  string     `json:"companyId"`
	Email      string     `json:"email"`
	Role       Role       `json:"role"`
	InvitedBy  string     `json:"invitedBy"`
	InvitedAt  time.Time  `json:"invitedAt"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	AcceptedAt *time.Time `json:"acceptedAt,omitempty"`
	Token      string     `json:"-"`
}

// Accepted reports whether the invitation has been used.
func (i *Invitation) Accepted() bool {
	return i.AcceptedAt != nil
}

// Expired reports whether the invitation lapsed before being accepted.
func (i *Invitation) Expired(now time.Time) bool {
	return !i.Accepted() && !now.Before(i.ExpiresAt)
}

// Status derives the lifecycle state at now.
func (i *Invitation) Status(now time.Time) InvitationStatus {
	switch {
	case i.Accepted():
		return InvitationAccepted
	case i.Expired(now):
		return InvitationExpired
	default:
		return InvitationPending
	}
}

// InvitationRepository defines data access for company_invitations
type InvitationRepository interface {
	Create(ctx context.Context, inv *Invitation) error
	GetByID(ctx context.Context, id string) (*Invitation, error)
	// GetForUpdate locks the row for the surrounding transaction.
	GetForUpdate(ctx context.Context, id string) (*Invitation, error)
	GetByToken(ctx context.Context, token string) (*Invitation, error)
	ListByCompany(ctx context.Context, companyID string) ([]*Invitation, error)
	// MarkAccepted sets accepted_at only if it is still null and reports
	// whether this call was the one that set it.
	MarkAccepted(ctx context.Context, id string, at time.Time) (bool, error)
	// DeletePending removes the invitation only while it is unaccepted.
	DeletePending(ctx context.Context, companyID, id string) (bool, error)
}
