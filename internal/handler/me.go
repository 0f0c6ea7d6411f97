package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/freightlink/internal/domain"
	"github.com/aryan0dhankhar/freightlink/internal/security/middleware"
	"github.com/aryan0dhankhar/freightlink/internal/service"
	"github.com/aryan0dhankhar/freightlink/internal/tenancy"
)

// MeResponse is the caller's session view: profile, resolved company and
// the route a client should land on.
type MeResponse struct {
	UserID      string          `json:"userId"`
	Email       string          `json:"email"`
	Profile     *domain.Profile `json:"profile"`
	Company     *domain.Company `json:"company"`
	Role        domain.Role     `json:"role,omitempty"`
	Affiliation string          `json:"affiliation"`
	HasCompany  bool            `json:"hasCompany"`
	HomeRoute   string          `json:"homeRoute"`
}

// MeHandler serves the caller's own profile and affiliation.
type MeHandler struct {
	profiles *service.ProfileService
	resolver service.AffiliationResolver
	logger   *slog.Logger
}

func NewMeHandler(profiles *service.ProfileService, resolver service.AffiliationResolver, logger *slog.Logger) *MeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MeHandler{profiles: profiles, resolver: resolver, logger: logger}
}

// Get handles GET /api/me
func (h *MeHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, false)
}

// Refresh handles POST /api/me/refresh. It bypasses the affiliation cache.
func (h *MeHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, true)
}

func (h *MeHandler) respond(w http.ResponseWriter, r *http.Request, refresh bool) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing auth")
		return
	}

	profile, err := h.profiles.Get(r.Context(), claims.UserID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		writeServiceError(w, r, h.logger, err)
		return
	}

	var res tenancy.Result
	if refresh {
		res = h.resolver.Refresh(r.Context(), claims.UserID)
	} else {
		res = h.resolver.Resolve(r.Context(), claims.UserID)
	}
	aff := res.Affiliation

	state := tenancy.State{
		Identity:   claims.UserID,
		Profile:    profile,
		Company:    aff.Company,
		Role:       aff.Role,
		Kind:       aff.Kind,
		HasCompany: aff.HasCompany(),
	}
	writeJSON(w, http.StatusOK, MeResponse{
		UserID:      claims.UserID,
		Email:       claims.Email,
		Profile:     profile,
		Company:     aff.Company,
		Role:        aff.Role,
		Affiliation: aff.Kind.String(),
		HasCompany:  state.HasCompany,
		HomeRoute:   tenancy.HomeRoute(state),
	})
}

// UpdateProfile handles PUT /api/profile
func (h *MeHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req service.ProfileUpdate
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	p, err := h.profiles.Update(r.Context(), middleware.UserIDFromContext(r.Context()), req)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// TenancyHandler exposes the caller's raw tenancy lookups. Clients run
// their own tenancy.Resolver over these.
type TenancyHandler struct {
	store  tenancy.Store
	logger *slog.Logger
}

func NewTenancyHandler(store tenancy.Store, logger *slog.Logger) *TenancyHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TenancyHandler{store: store, logger: logger}
}

// MembershipResponse is a joined company with the caller's role in it.
type MembershipResponse struct {
	Company *domain.Company `json:"company"`
	Role    domain.Role     `json:"role"`
}

// Owned handles GET /api/tenancy/owned
func (h *TenancyHandler) Owned(w http.ResponseWriter, r *http.Request) {
	c, err := h.store.OwnedCompany(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Membership handles GET /api/tenancy/membership
func (h *TenancyHandler) Membership(w http.ResponseWriter, r *http.Request) {
	c, role, err := h.store.JoinedCompany(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MembershipResponse{Company: c, Role: role})
}

// Role handles GET /api/tenancy/role/{companyId}
func (h *TenancyHandler) Role(w http.ResponseWriter, r *http.Request) {
	role, err := h.store.MemberRole(r.Context(), r.PathValue("companyId"), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]domain.Role{"role": role})
}
