package service

import (
	"context"
	"fmt"

	"github.com/aryan0dhankhar/freightlink/internal/domain"
	"github.com/aryan0dhankhar/freightlink/internal/security"
	"github.com/aryan0dhankhar/freightlink/internal/tenancy"
)

// TenantGuard resolves the caller's company and checks a role permission
// against it.
type TenantGuard struct {
	resolver AffiliationResolver
	authz    *security.AuthorizationService
}

func NewTenantGuard(resolver AffiliationResolver, authz *security.AuthorizationService) *TenantGuard {
	return &TenantGuard{resolver: resolver, authz: authz}
}

// Affiliation returns the caller's affiliation without any permission check.
func (g *TenantGuard) Affiliation(ctx context.Context, userID string) tenancy.Affiliation {
	res := g.resolver.Resolve(ctx, userID)
	if res.Outcome == tenancy.OutcomeThrottled {
		res = g.resolver.Refresh(ctx, userID)
	}
	return res.Affiliation
}

// Require returns the caller's affiliation if its role grants perm.
func (g *TenantGuard) Require(ctx context.Context, userID string, perm security.Permission) (tenancy.Affiliation, error) {
	if userID == "" {
		return tenancy.None(), domain.ErrUnauthorized
	}
	aff := g.Affiliation(ctx, userID)
	if !aff.HasCompany() {
		return aff, domain.ErrNoCompany
	}
	if err := g.authz.ValidatePermission(aff.Role, perm); err != nil {
		return aff, err
	}
	return aff, nil
}

// RequireType is Require plus a company type check.
func (g *TenantGuard) RequireType(ctx context.Context, userID string, perm security.Permission, t domain.CompanyType) (tenancy.Affiliation, error) {
	aff, err := g.Require(ctx, userID, perm)
	if err != nil {
		return aff, err
	}
	if aff.Company.Type != t {
		return aff, fmt.Errorf("%w: only %s companies can do this", domain.ErrForbidden, t)
	}
	return aff, nil
}
