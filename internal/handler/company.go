package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/freightlink/internal/domain"
	"github.com/aryan0dhankhar/freightlink/internal/security"
	"github.com/aryan0dhankhar/freightlink/internal/security/middleware"
	"github.com/aryan0dhankhar/freightlink/internal/service"
	"github.com/aryan0dhankhar/freightlink/internal/tenancy"
)

// CompanyHandler serves company creation, details and members.
type CompanyHandler struct {
	companies *service.CompanyService
	guard     *service.TenantGuard
	logger    *slog.Logger
}

func NewCompanyHandler(companies *service.CompanyService, guard *service.TenantGuard, logger *slog.Logger) *CompanyHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CompanyHandler{companies: companies, guard: guard, logger: logger}
}

// require resolves the caller's company and checks perm, answering the
// request itself on failure.
func require(w http.ResponseWriter, r *http.Request, guard *service.TenantGuard, logger *slog.Logger, perm security.Permission) (tenancy.Affiliation, bool) {
	aff, err := guard.Require(r.Context(), middleware.UserIDFromContext(r.Context()), perm)
	if err != nil {
		writeServiceError(w, r, logger, err)
		return aff, false
	}
	return aff, true
}

// Create handles POST /api/companies
func (h *CompanyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CompanyInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	c, err := h.companies.Create(r.Context(), middleware.UserIDFromContext(r.Context()), req)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// Get handles GET /api/company
func (h *CompanyHandler) Get(w http.ResponseWriter, r *http.Request) {
	aff, ok := require(w, r, h.guard, h.logger, security.PermViewTours)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, aff.Company)
}

// Update handles PUT /api/company
func (h *CompanyHandler) Update(w http.ResponseWriter, r *http.Request) {
	aff, ok := require(w, r, h.guard, h.logger, security.PermManageCompany)
	if !ok {
		return
	}
	var req service.CompanyInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	c, err := h.companies.Update(r.Context(), aff.Company.ID, req)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Members handles GET /api/company/members
func (h *CompanyHandler) Members(w http.ResponseWriter, r *http.Request) {
	aff, ok := require(w, r, h.guard, h.logger, security.PermViewMembers)
	if !ok {
		return
	}
	members, err := h.companies.Members(r.Context(), aff.Company.ID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if members == nil {
		members = []domain.Member{}
	}
	writeJSON(w, http.StatusOK, members)
}

// ChangeRoleRequest is the body of PUT /api/company/members/{userId}
type ChangeRoleRequest struct {
	Role domain.Role `json:"role"`
}

// ChangeRole handles PUT /api/company/members/{userId}
func (h *CompanyHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	aff, ok := require(w, r, h.guard, h.logger, security.PermManageMembers)
	if !ok {
		return
	}
	var req ChangeRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if err := h.companies.ChangeRole(r.Context(), aff.Company.ID, r.PathValue("userId"), req.Role); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveMember handles DELETE /api/company/members/{userId}
func (h *CompanyHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	aff, ok := require(w, r, h.guard, h.logger, security.PermManageMembers)
	if !ok {
		return
	}
	if err := h.companies.RemoveMember(r.Context(), aff.Company.ID, r.PathValue("userId")); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
