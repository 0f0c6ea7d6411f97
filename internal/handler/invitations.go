package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/freightlink/internal/domain"
	"github.com/aryan0dhankhar/freightlink/internal/security"
	"github.com/aryan0dhankhar/freightlink/internal/security/middleware"
	"github.com/aryan0dhankhar/freightlink/internal/service"
)

// InvitationHandler serves the admin side of invitations and the public
// token lookup.
type InvitationHandler struct {
	invitations *service.InvitationService
	guard       *service.TenantGuard
	logger      *slog.Logger
}

func NewInvitationHandler(invitations *service.InvitationService, guard *service.TenantGuard, logger *slog.Logger) *InvitationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &InvitationHandler{invitations: invitations, guard: guard, logger: logger}
}

// CreateInvitationRequest is the body of POST /api/company/invitations
type CreateInvitationRequest struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// List handles GET /api/company/invitations
func (h *InvitationHandler) List(w http.ResponseWriter, r *http.Request) {
	aff, ok := require(w, r, h.guard, h.logger, security.PermManageInvitations)
	if !ok {
		return
	}
	views, err := h.invitations.List(r.Context(), aff.Company.ID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// Create handles POST /api/company/invitations
func (h *InvitationHandler) Create(w http.ResponseWriter, r *http.Request) {
	aff, ok := require(w, r, h.guard, h.logger, security.PermManageInvitations)
	if !ok {
		return
	}
	var req CreateInvitationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	v, err := h.invitations.Create(r.Context(), aff.Company.ID, middleware.UserIDFromContext(r.Context()), req.Email, req.Role)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	// The creating admin gets the token once, to build the invitation link.
	writeJSON(w, http.StatusCreated, struct {
		service.InvitationView
		Token string `json:"token"`
	}{*v, v.Token})
}

// Delete handles DELETE /api/company/invitations/{id}
func (h *InvitationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	aff, ok := require(w, r, h.guard, h.logger, security.PermManageInvitations)
	if !ok {
		return
	}
	if err := h.invitations.Delete(r.Context(), aff.Company.ID, r.PathValue("id")); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ByToken handles GET /api/invitations/by-token/{token}
func (h *InvitationHandler) ByToken(w http.ResponseWriter, r *http.Request) {
	v, err := h.invitations.GetByToken(r.Context(), r.PathValue("token"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
