package domain

import (
	"context"
	"fmt"
	"time"
)

// Role is a member's role inside a company.
type Role string

const (
	RoleCompanyAdmin     Role = "company_admin"
	RoleLogisticsManager Role = "logistics_manager"
	RoleFinanceManager   Role = "finance_manager"
	RoleEmployee         Role = "employee"
	RoleDriver           Role = "driver"
)

// Roles is the closed set of membership roles.
var Roles = []Role{RoleCompanyAdmin, RoleLogisticsManager, RoleFinanceManager, RoleEmployee, RoleDriver}

// Valid reports whether r belongs to Roles.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// ParseRole validates s against the closed role set.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, s)
	}
	return r, nil
}

// CreatorRole is the role of a company's owner when no membership row
// exists for them. Company creation writes an explicit row with this role;
// companies created before that rule still resolve their owner as admin.
const CreatorRole = RoleCompanyAdmin

// Membership associates an identity with a company and a role.
type Membership struct {
	ID         string     `json:"id"`
	CompanyID  string     `json:"companyId"`
	UserID     string     `json:"userId"`
	Role       Role       `json:"role"`
	InvitedBy  string     `json:"invitedBy,omitempty"`
	InvitedAt  *time.Time `json:"invitedAt,omitempty"`
	AcceptedAt *time.Time `json:"acceptedAt,omitempty"`
}

// Member is a membership joined with the member's profile for listings.
type Member struct {
	Membership
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// MembershipRepository defines data access for company_users
type MembershipRepository interface {
	// Insert reports false when a row for (company, user) already exists.
	Insert(ctx context.Context, m *Membership) (bool, error)
	// Role returns ErrNotFound when the identity has no row for the company.
	Role(ctx context.Context, companyID, userID string) (Role, error)
	// JoinedCompany returns the company the identity is a member of.
	JoinedCompany(ctx context.Context, userID string) (*Company, Role, error)
	ListMembers(ctx context.Context, companyID string) ([]Member, error)
	UpdateRole(ctx context.Context, companyID, userID string, role Role) error
	Delete(ctx context.Context, companyID, userID string) error
}
