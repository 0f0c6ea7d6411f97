package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/freightlink/internal/domain"
	"github.com/aryan0dhankhar/freightlink/internal/security"
	"github.com/aryan0dhankhar/freightlink/internal/service"
)

// PreferencesHandler serves shipper preferences, subcontractor
// prequalification and public profiles.
type PreferencesHandler struct {
	preferences *service.PreferencesService
	profiles    *service.PublicProfileService
	guard       *service.TenantGuard
	logger      *slog.Logger
}

func NewPreferencesHandler(
	preferences *service.PreferencesService,
	profiles *service.PublicProfileService,
	guard *service.TenantGuard,
	logger *slog.Logger,
) *PreferencesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PreferencesHandler{preferences: preferences, profiles: profiles, guard: guard, logger: logger}
}

// GetPreferences handles GET /api/preferences
func (h *PreferencesHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	aff, ok := require(w, r, h.guard, h.logger, security.PermSearchSubcontractors)
	if !ok {
		return
	}
	p, err := h.preferences.Preferences(r.Context(), aff.Company.ID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// UpdatePreferences handles PUT /api/preferences
func (h *PreferencesHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	aff, ok := require(w, r, h.guard, h.logger, security.PermManagePreferences)
	if !ok {
		return
	}
	var p domain.Preferences
	if err := decodeJSON(w, r, &p); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	saved, err := h.preferences.UpdatePreferences(r.Context(), aff.Company, &p)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// DefaultFilter handles GET /api/preferences/filter
func (h *PreferencesHandler) DefaultFilter(w http.ResponseWriter, r *http.Request) {
	aff, ok := requireShipper(w, r, h.guard, h.logger)
	if !ok {
		return
	}
	f, err := h.preferences.DefaultFilter(r.Context(), aff.Company.ID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// GetPrequalification handles GET /api/prequalification
func (h *PreferencesHandler) GetPrequalification(w http.ResponseWriter, r *http.Request) {
	aff, ok := require(w, r, h.guard, h.logger, security.PermViewFleet)
	if !ok {
		return
	}
	p, err := h.preferences.Prequalification(r.Context(), aff.Company.ID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// UpdatePrequalification handles PUT /api/prequalification
func (h *PreferencesHandler) UpdatePrequalification(w http.ResponseWriter, r *http.Request) {
	aff, ok := require(w, r, h.guard, h.logger, security.PermManagePrequalification)
	if !ok {
		return
	}
	var p domain.Prequalification
	if err := decodeJSON(w, r, &p); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	saved, err := h.preferences.UpdatePrequalification(r.Context(), aff.Company, &p)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// PublicProfile handles GET /api/public/companies/{id}
func (h *PreferencesHandler) PublicProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.profiles.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ToggleSection handles POST /api/public-profile/toggle/{section}
func (h *PreferencesHandler) ToggleSection(w http.ResponseWriter, r *http.Request) {
	aff, ok := require(w, r, h.guard, h.logger, security.PermManagePublicProfile)
	if !ok {
		return
	}
	v, err := h.profiles.Toggle(r.Context(), aff.Company.ID, domain.ProfileSection(r.PathValue("section")))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
