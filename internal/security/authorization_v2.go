package security

import (
	"fmt"
	"log/slog"

	"github.com/aryan0dhankhar/freightlink/internal/domain"
)

// ResourceType identifies the kind of resource being accessed
type ResourceType string

const (
	ResourceTour       ResourceType = "tour"
	ResourceEmployee   ResourceType = "employee"
	ResourceVehicle    ResourceType = "vehicle"
	ResourceInvitation ResourceType = "invitation"
)

// Action identifies what operation is being performed
type Action string

const (
	ActionRead   Action = "read"
	ActionWrite  Action = "write"
	ActionDelete Action = "delete"
	// ActionStatus moves a tour through its lifecycle.
	ActionStatus Action = "status"
)

// ResourceRef describes a tenant-owned resource. SharedWith is a second
// company with limited access, such as the subcontractor assigned to a tour.
type ResourceRef struct {
	Type       ResourceType
	ID         string
	CompanyID  string
	SharedWith string
}

// AuthorizationServiceV2 adds company-scoped resource checks on top of the
// role table.
type AuthorizationServiceV2 struct {
	logger *slog.Logger
}

// NewAuthorizationServiceV2 creates a new resource-aware authorization service
func NewAuthorizationServiceV2(logger *slog.Logger) *AuthorizationServiceV2 {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthorizationServiceV2{logger: logger}
}

// ValidateResourceAccess lets the owning company do anything and the
// sharing company read or advance status. Everyone else gets
// domain.ErrNotFound, so foreign ids are not disclosed.
func (a *AuthorizationServiceV2) ValidateResourceAccess(companyID string, ref ResourceRef, action Action) error {
	if companyID != "" && ref.CompanyID == companyID {
		return nil
	}
	if companyID != "" && ref.SharedWith == companyID && (action == ActionRead || action == ActionStatus) {
		return nil
	}

	a.logger.Warn("resource access denied",
		slog.String("company_id", companyID),
		slog.String("resource_id", ref.ID),
		slog.String("resource_type", string(ref.Type)),
		slog.String("owner_company_id", ref.CompanyID),
		slog.String("action", string(action)),
	)
	return fmt.Errorf("%s %s: %w", ref.Type, ref.ID, domain.ErrNotFound)
}
