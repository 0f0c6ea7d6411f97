package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/freightlink/internal/domain"
	"github.com/aryan0dhankhar/freightlink/internal/security"
	"github.com/aryan0dhankhar/freightlink/internal/security/middleware"
	"github.com/aryan0dhankhar/freightlink/internal/service"
)

// TourHandler serves tenant-scoped tours.
type TourHandler struct {
	tours  *service.TourService
	guard  *service.TenantGuard
	logger *slog.Logger
}

func NewTourHandler(tours *service.TourService, guard *service.TenantGuard, logger *slog.Logger) *TourHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TourHandler{tours: tours, guard: guard, logger: logger}
}

// List handles GET /api/tours
func (h *TourHandler) List(w http.ResponseWriter, r *http.Request) {
	aff, ok := require(w, r, h.guard, h.logger, security.PermViewTours)
	if !ok {
		return
	}
	tours, err := h.tours.List(r.Context(), aff.Company.ID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if tours == nil {
		tours = []*domain.Tour{}
	}
	writeJSON(w, http.StatusOK, tours)
}

// Create handles POST /api/tours
func (h *TourHandler) Create(w http.ResponseWriter, r *http.Request) {
	aff, ok := require(w, r, h.guard, h.logger, security.PermManageTours)
	if !ok {
		return
	}
	var req service.TourInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	t, err := h.tours.Create(r.Context(), aff.Company, middleware.UserIDFromContext(r.Context()), req)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// Get handles GET /api/tours/{id}
func (h *TourHandler) Get(w http.ResponseWriter, r *http.Request) {
	aff, ok := require(w, r, h.guard, h.logger, security.PermViewTours)
	if !ok {
		return
	}
	t, err := h.tours.Get(r.Context(), aff.Company.ID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Update handles PUT /api/tours/{id}
func (h *TourHandler) Update(w http.ResponseWriter, r *http.Request) {
	aff, ok := require(w, r, h.guard, h.logger, security.PermManageTours)
	if !ok {
		return
	}
	var req service.TourInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	t, err := h.tours.Update(r.Context(), aff.Company.ID, r.PathValue("id"), req)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Delete handles DELETE /api/tours/{id}
func (h *TourHandler) Delete(w http.ResponseWriter, r *http.Request) {
	aff, ok := require(w, r, h.guard, h.logger, security.PermManageTours)
	if !ok {
		return
	}
	if err := h.tours.Delete(r.Context(), aff.Company.ID, r.PathValue("id")); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ChangeStatus handles POST /api/tours/{id}/status
func (h *TourHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	aff, ok := require(w, r, h.guard, h.logger, security.PermUpdateTourStatus)
	if !ok {
		return
	}
	var req service.StatusChange
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	t, err := h.tours.ChangeStatus(r.Context(), aff.Company.ID, r.PathValue("id"), req)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}
