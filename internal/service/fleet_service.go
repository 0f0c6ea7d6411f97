package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aryan0dhankhar/freightlink/internal/domain"
	"github.com/aryan0dhankhar/freightlink/internal/security"
)

// FleetService manages a company's employees and vehicles. Changes feed
// the search view, so they trigger a refresh when one is configured.
type FleetService struct {
	employees domain.EmployeeRepository
	vehicles  domain.VehicleRepository
	access    *security.AuthorizationServiceV2
	refresher ViewRefresher
	logger    *slog.Logger
}

// ViewRefresher schedules a rebuild of the search view.
type ViewRefresher interface {
	Trigger()
}

func NewFleetService(
	employees domain.EmployeeRepository,
	vehicles domain.VehicleRepository,
	access *security.AuthorizationServiceV2,
	refresher ViewRefresher,
	logger *slog.Logger,
) *FleetService {
	if logger == nil {
		logger = slog.Default()
	}
	return &FleetService{employees: employees, vehicles: vehicles, access: access, refresher: refresher, logger: logger}
}

func (s *FleetService) changed() {
	if s.refresher != nil {
		s.refresher.Trigger()
	}
}

func validateEmployee(e *domain.Employee) error {
	if strings.TrimSpace(e.FirstName) == "" || strings.TrimSpace(e.LastName) == "" {
		return fmt.Errorf("%w: first and last name are required", domain.ErrInvalidInput)
	}
	return nil
}

func validateVehicle(v *domain.Vehicle) error {
	switch {
	case strings.TrimSpace(v.LicensePlate) == "":
		return fmt.Errorf("%w: license plate is required", domain.ErrInvalidInput)
	case strings.TrimSpace(v.VehicleType) == "":
		return fmt.Errorf("%w: vehicle type is required", domain.ErrInvalidInput)
	case v.Year != 0 && (v.Year < 1950 || v.Year > time.Now().Year()+1):
		return fmt.Errorf("%w: implausible year %d", domain.ErrInvalidInput, v.Year)
	case v.PayloadKg < 0:
		return fmt.Errorf("%w: payload must not be negative", domain.ErrInvalidInput)
	}
	return nil
}

func (s *FleetService) CreateEmployee(ctx context.Context, companyID string, e *domain.Employee) error {
	if err := validateEmployee(e); err != nil {
		return err
	}
	e.CompanyID = companyID
	if err := s.employees.Create(ctx, e); err != nil {
		return err
	}
	s.changed()
	return nil
}

func (s *FleetService) ListEmployees(ctx context.Context, companyID string) ([]*domain.Employee, error) {
	return s.employees.ListByCompany(ctx, companyID)
}

func (s *FleetService) GetEmployee(ctx context.Context, companyID, id string) (*domain.Employee, error) {
	e, err := s.employees.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ref := security.ResourceRef{Type: security.ResourceEmployee, ID: id, CompanyID: e.CompanyID}
	if err := s.access.ValidateResourceAccess(companyID, ref, security.ActionRead); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *FleetService) UpdateEmployee(ctx context.Context, companyID, id string, in *domain.Employee) (*domain.Employee, error) {
	if err := validateEmployee(in); err != nil {
		return nil, err
	}
	if _, err := s.GetEmployee(ctx, companyID, id); err != nil {
		return nil, err
	}
	in.ID = id
	in.CompanyID = companyID
	if err := s.employees.Update(ctx, in); err != nil {
		return nil, err
	}
	s.changed()
	return in, nil
}

func (s *FleetService) DeleteEmployee(ctx context.Context, companyID, id string) error {
	if _, err := s.GetEmployee(ctx, companyID, id); err != nil {
		return err
	}
	if err := s.employees.Delete(ctx, id); err != nil {
		return err
	}
	s.changed()
	return nil
}

func (s *FleetService) CreateVehicle(ctx context.Context, companyID string, v *domain.Vehicle) error {
	if err := validateVehicle(v); err != nil {
		return err
	}
	v.CompanyID = companyID
	v.LicensePlate = strings.ToUpper(strings.TrimSpace(v.LicensePlate))
	if err := s.vehicles.Create(ctx, v); err != nil {
		return err
	}
	s.changed()
	return nil
}

func (s *FleetService) ListVehicles(ctx context.Context, companyID string) ([]*domain.Vehicle, error) {
	return s.vehicles.ListByCompany(ctx, companyID)
}

func (s *FleetService) GetVehicle(ctx context.Context, companyID, id string) (*domain.Vehicle, error) {
	v, err := s.vehicles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ref := security.ResourceRef{Type: security.ResourceVehicle, ID: id, CompanyID: v.CompanyID}
	if err := s.access.ValidateResourceAccess(companyID, ref, security.ActionRead); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *FleetService) UpdateVehicle(ctx context.Context, companyID, id string, in *domain.Vehicle) (*domain.Vehicle, error) {
	if err := validateVehicle(in); err != nil {
		return nil, err
	}
	if _, err := s.GetVehicle(ctx, companyID, id); err != nil {
		return nil, err
	}
	in.ID = id
	in.CompanyID = companyID
	in.LicensePlate = strings.ToUpper(strings.TrimSpace(in.LicensePlate))
	if err := s.vehicles.Update(ctx, in); err != nil {
		return nil, err
	}
	s.changed()
	return in, nil
}

func (s *FleetService) DeleteVehicle(ctx context.Context, companyID, id string) error {
	if _, err := s.GetVehicle(ctx, companyID, id); err != nil {
		return err
	}
	if err := s.vehicles.Delete(ctx, id); err != nil {
		return err
	}
	s.changed()
	return nil
}
