package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aryan0dhankhar/freightlink/internal/domain"
	"github.com/aryan0dhankhar/freightlink/internal/security/audit"
	"github.com/aryan0dhankhar/freightlink/internal/security/auth"
	"github.com/aryan0dhankhar/freightlink/internal/service"
)

var acceptCORSHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Headers": "authorization, x-client-info, apikey, content-type",
	"Access-Control-Allow-Methods": "POST, OPTIONS",
}

// AcceptInvitationResponse is returned when the membership was written.
type AcceptInvitationResponse struct {
	Success    bool               `json:"success"`
	Membership *domain.Membership `json:"membership"`
}

// AcceptInvitationHandler is the privileged accept-invitation function. It
// answers its own CORS preflight and verifies the caller's token itself.
type AcceptInvitationHandler struct {
	invitations *service.InvitationService
	tokens      *auth.TokenManager
	audit       *audit.Logger
	logger      *slog.Logger
}

func NewAcceptInvitationHandler(invitations *service.InvitationService, tokens *auth.TokenManager, auditLog *audit.Logger, logger *slog.Logger) *AcceptInvitationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AcceptInvitationHandler{invitations: invitations, tokens: tokens, audit: auditLog, logger: logger}
}

// ServeHTTP handles OPTIONS|POST on the accept-invitation path
func (h *AcceptInvitationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	for k, v := range acceptCORSHeaders {
		w.Header().Set(k, v)
	}

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodPost:
	default:
		w.Header().Set("Allow", "POST, OPTIONS")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	token, err := auth.ExtractToken(r.Header.Get("Authorization"))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "missing auth")
		return
	}
	claims, err := h.tokens.ValidateToken(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	var req service.AcceptRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if missing := req.Missing(); len(missing) > 0 {
		writeError(w, http.StatusBadRequest, "missing required fields: "+strings.Join(missing, ", "))
		return
	}
	if req.UserID != claims.UserID {
		h.audit.LogDenied(r.Context(), claims.UserID, fmt.Sprintf("accept invitation %s for another user", req.InvitationID))
		writeError(w, http.StatusForbidden, "cannot accept an invitation for another user")
		return
	}

	req.Email = claims.Email

	m, err := h.invitations.Accept(r.Context(), req)
	if err != nil {
		h.audit.LogInvitationAccept(r.Context(), req.UserID, req.InvitationID, "failed", err.Error())
		writeServiceError(w, r, h.logger, err)
		return
	}
	h.audit.LogInvitationAccept(r.Context(), req.UserID, req.InvitationID, "ok", m.CompanyID)
	writeJSON(w, http.StatusOK, AcceptInvitationResponse{Success: true, Membership: m})
}
