package security

import (
	"fmt"
	"log/slog"

	"github.com/aryan0dhankhar/freightlink/internal/domain"
)

// Permission represents an action permission
type Permission string

const (
	PermManageCompany          Permission = "manage_company"
	PermViewMembers            Permission = "view_members"
	PermManageMembers          Permission = "manage_members"
	PermManageInvitations      Permission = "manage_invitations"
	PermViewTours              Permission = "view_tours"
	PermManageTours            Permission = "manage_tours"
	PermUpdateTourStatus       Permission = "update_tour_status"
	PermViewFleet              Permission = "view_fleet"
	PermManageFleet            Permission = "manage_fleet"
	PermManagePreferences      Permission = "manage_preferences"
	PermManagePrequalification Permission = "manage_prequalification"
	PermManagePublicProfile    Permission = "manage_public_profile"
	PermSearchSubcontractors   Permission = "search_subcontractors"
)

// RolePermissions maps membership roles to their permissions
var RolePermissions = map[domain.Role][]Permission{
	domain.RoleCompanyAdmin: {
		PermManageCompany,
		PermViewMembers,
		PermManageMembers,
		PermManageInvitations,
		PermViewTours,
		PermManageTours,
		PermUpdateTourStatus,
		PermViewFleet,
		PermManageFleet,
		PermManagePreferences,
		PermManagePrequalification,
		PermManagePublicProfile,
		PermSearchSubcontractors,
	},
	domain.RoleLogisticsManager: {
		PermViewMembers,
		PermViewTours,
		PermManageTours,
		PermUpdateTourStatus,
		PermViewFleet,
		PermManageFleet,
		PermManagePreferences,
		PermManagePrequalification,
		PermSearchSubcontractors,
	},
	domain.RoleFinanceManager: {
		PermViewMembers,
		PermViewTours,
		PermViewFleet,
		PermSearchSubcontractors,
	},
	domain.RoleEmployee: {
		PermViewTours,
		PermViewFleet,
		PermSearchSubcontractors,
	},
	domain.RoleDriver: {
		PermViewTours,
		PermUpdateTourStatus,
	},
}

// AuthorizationService handles authorization checks
type AuthorizationService struct {
	logger *slog.Logger
}

// NewAuthorizationService creates a new authorization service
func NewAuthorizationService(logger *slog.Logger) *AuthorizationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthorizationService{
		logger: logger,
	}
}

// HasPermission checks if a role has a specific permission
func (as *AuthorizationService) HasPermission(role domain.Role, permission Permission) bool {
	for _, p := range RolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}

// ValidatePermission returns domain.ErrForbidden when role lacks permission.
func (as *AuthorizationService) ValidatePermission(role domain.Role, permission Permission) error {
	if !as.HasPermission(role, permission) {
		as.logger.Warn("permission denied",
			slog.String("role", string(role)),
			slog.String("permission", string(permission)),
		)
		return fmt.Errorf("%w: %s role cannot %s", domain.ErrForbidden, role, permission)
	}
	return nil
}

// GetRolePermissions returns all permissions for a role
func (as *AuthorizationService) GetRolePermissions(role domain.Role) []Permission {
	return RolePermissions[role]
}
