package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/freightlink/internal/domain"
	"github.com/aryan0dhankhar/freightlink/internal/security"
	"github.com/aryan0dhankhar/freightlink/internal/service"
)

// FleetHandler serves a company's employees and vehicles.
type FleetHandler struct {
	fleet  *service.FleetService
	guard  *service.TenantGuard
	logger *slog.Logger
}

func NewFleetHandler(fleet *service.FleetService, guard *service.TenantGuard, logger *slog.Logger) *FleetHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FleetHandler{fleet: fleet, guard: guard, logger: logger}
}

// ListEmployees handles GET /api/employees
func (h *FleetHandler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	aff, ok := require(w, r, h.guard, h.logger, security.PermViewFleet)
	if !ok {
		return
	}
	list, err := h.fleet.ListEmployees(r.Context(), aff.Company.ID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if list == nil {
		list = []*domain.Employee{}
	}
	writeJSON(w, http.StatusOK, list)
}

// CreateEmployee handles POST /api/employees
func (h *FleetHandler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	aff, ok := require(w, r, h.guard, h.logger, security.PermManageFleet)
	if !ok {
		return
	}
	var e domain.Employee
	if err := decodeJSON(w, r, &e); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if err := h.fleet.CreateEmployee(r.Context(), aff.Company.ID, &e); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// GetEmployee handles GET /api/employees/{id}
func (h *FleetHandler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	aff, ok := require(w, r, h.guard, h.logger, security.PermViewFleet)
	if !ok {
		return
	}
	e, err := h.fleet.GetEmployee(r.Context(), aff.Company.ID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// UpdateEmployee handles PUT /api/employees/{id}
func (h *FleetHandler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	aff, ok := require(w, r, h.guard, h.logger, security.PermManageFleet)
	if !ok {
		return
	}
	var in domain.Employee
	if err := decodeJSON(w, r, &in); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	e, err := h.fleet.UpdateEmployee(r.Context(), aff.Company.ID, r.PathValue("id"), &in)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// DeleteEmployee handles DELETE /api/employees/{id}
func (h *FleetHandler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	aff, ok := require(w, r, h.guard, h.logger, security.PermManageFleet)
	if !ok {
		return
	}
	if err := h.fleet.DeleteEmployee(r.Context(), aff.Company.ID, r.PathValue("id")); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListVehicles handles GET /api/vehicles
func (h *FleetHandler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	aff, ok := require(w, r, h.guard, h.logger, security.PermViewFleet)
	if !ok {
		return
	}
	list, err := h.fleet.ListVehicles(r.Context(), aff.Company.ID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if list == nil {
		list = []*domain.Vehicle{}
	}
	writeJSON(w, http.StatusOK, list)
}

// CreateVehicle handles POST /api/vehicles
func (h *FleetHandler) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	aff, ok := require(w, r, h.guard, h.logger, security.PermManageFleet)
	if !ok {
		return
	}
	var v domain.Vehicle
	if err := decodeJSON(w, r, &v); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if err := h.fleet.CreateVehicle(r.Context(), aff.Company.ID, &v); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

// GetVehicle handles GET /api/vehicles/{id}
func (h *FleetHandler) GetVehicle(w http.ResponseWriter, r *http.Request) {
	aff, ok := require(w, r, h.guard, h.logger, security.PermViewFleet)
	if !ok {
		return
	}
	v, err := h.fleet.GetVehicle(r.Context(), aff.Company.ID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// UpdateVehicle handles PUT /api/vehicles/{id}
func (h *FleetHandler) UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	aff, ok := require(w, r, h.guard, h.logger, security.PermManageFleet)
	if !ok {
		return
	}
	var in domain.Vehicle
	if err := decodeJSON(w, r, &in); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	v, err := h.fleet.UpdateVehicle(r.Context(), aff.Company.ID, r.PathValue("id"), &in)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// DeleteVehicle handles DELETE /api/vehicles/{id}
func (h *FleetHandler) DeleteVehicle(w http.ResponseWriter, r *http.Request) {
	aff, ok := require(w, r, h.guard, h.logger, security.PermManageFleet)
	if !ok {
		return
	}
	if err := h.fleet.DeleteVehicle(r.Context(), aff.Company.ID, r.PathValue("id")); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
