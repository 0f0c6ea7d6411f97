package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aryan0dhankhar/freightlink/internal/domain"
	"github.com/aryan0dhankhar/freightlink/internal/infrastructure/events"
	"github.com/aryan0dhankhar/freightlink/internal/security"
)

// TourService manages transport jobs. Shippers own tours; the
// subcontractor a tour is assigned to may read it and move it through
// transit and delivery.
type TourService struct {
	tours     domain.TourRepository
	companies domain.CompanyRepository
	access    *security.AuthorizationServiceV2
	publisher events.Publisher
	logger    *slog.Logger
}

func NewTourService(
	tours domain.TourRepository,
	companies domain.CompanyRepository,
	access *security.AuthorizationServiceV2,
	publisher events.Publisher,
	logger *slog.Logger,
) *TourService {
	if logger == nil {
		logger = slog.Default()
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &TourService{tours: tours, companies: companies, access: access, publisher: publisher, logger: logger}
}

// TourInput holds the editable tour fields.
type TourInput struct {
	Reference       string     `json:"reference"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	PickupCity      string     `json:"pickupCity"`
	PickupCountry   string     `json:"pickupCountry"`
	PickupDate      *time.Time `json:"pickupDate"`
	DeliveryCity    string     `json:"deliveryCity"`
	DeliveryCountry string     `json:"deliveryCountry"`
	DeliveryDate    *time.Time `json:"deliveryDate"`
	CargoType       string     `json:"cargoType"`
	WeightKg        float64    `json:"weightKg"`
	VehicleType     string     `json:"vehicleType"`
	Price           float64    `json:"price"`
	Currency        string     `json:"currency"`
}

func (in TourInput) validate() error {
	switch {
	case strings.TrimSpace(in.Title) == "":
		return fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	case strings.TrimSpace(in.PickupCity) == "" || strings.TrimSpace(in.DeliveryCity) == "":
		return fmt.Errorf("%w: pickup and delivery city are required", domain.ErrInvalidInput)
	case in.WeightKg < 0 || in.Price < 0:
		return fmt.Errorf("%w: weight and price must not be negative", domain.ErrInvalidInput)
	case in.PickupDate != nil && in.DeliveryDate != nil && in.DeliveryDate.Before(*in.PickupDate):
		return fmt.Errorf("%w: delivery date before pickup date", domain.ErrInvalidInput)
	}
	return nil
}

func (in TourInput) apply(t *domain.Tour) {
	t.Reference = strings.TrimSpace(in.Reference)
	t.Title = strings.TrimSpace(in.Title)
	t.Description = strings.TrimSpace(in.Description)
	t.PickupCity = strings.TrimSpace(in.PickupCity)
	t.PickupCountry = strings.ToUpper(strings.TrimSpace(in.PickupCountry))
	t.PickupDate = in.PickupDate
	t.DeliveryCity = strings.TrimSpace(in.DeliveryCity)
	t.DeliveryCountry = strings.ToUpper(strings.TrimSpace(in.DeliveryCountry))
	t.DeliveryDate = in.DeliveryDate
	t.CargoType = strings.TrimSpace(in.CargoType)
	t.WeightKg = in.WeightKg
	t.VehicleType = strings.TrimSpace(in.VehicleType)
	t.Price = in.Price
	t.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	if t.Currency == "" {
		t.Currency = "EUR"
	}
}

func tourRef(t *domain.Tour) security.ResourceRef {
	ref := security.ResourceRef{Type: security.ResourceTour, ID: t.ID, CompanyID: t.CompanyID}
	if t.AssignedSubcontractorID != nil {
		ref.SharedWith = *t.AssignedSubcontractorID
	}
	return ref
}

func (s *TourService) load(ctx context.Context, companyID, id string, action security.Action) (*domain.Tour, error) {
	t, err := s.tours.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.access.ValidateResourceAccess(companyID, tourRef(t), action); err != nil {
		return nil, err
	}
	return t, nil
}

// Create adds a draft tour for a shipper company.
func (s *TourService) Create(ctx context.Context, company *domain.Company, userID string, in TourInput) (*domain.Tour, error) {
	if company.Type != domain.CompanyTypeShipper {
		return nil, fmt.Errorf("%w: only shippers publish tours", domain.ErrForbidden)
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	t := &domain.Tour{CompanyID: company.ID, Status: domain.TourDraft, CreatedBy: userID}
	in.apply(t)
	if err := s.tours.Create(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Info("tour created",
		slog.String("tour_id", t.ID),
		slog.String("company_id", company.ID),
	)
	return t, nil
}

// List returns the tours owned by or assigned to companyID.
func (s *TourService) List(ctx context.Context, companyID string) ([]*domain.Tour, error) {
	return s.tours.ListForCompany(ctx, companyID)
}

func (s *TourService) Get(ctx context.Context, companyID, id string) (*domain.Tour, error) {
	return s.load(ctx, companyID, id, security.ActionRead)
}

// Update edits a tour that has not been assigned yet.
func (s *TourService) Update(ctx context.Context, companyID, id string, in TourInput) (*domain.Tour, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	t, err := s.load(ctx, companyID, id, security.ActionWrite)
	if err != nil {
		return nil, err
	}
	if t.Status != domain.TourDraft && t.Status != domain.TourPublished {
		return nil, fmt.Errorf("%w: tour is %s", domain.ErrInvalidTransition, t.Status)
	}
	in.apply(t)
	if err := s.tours.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Delete removes a draft or cancelled tour.
func (s *TourService) Delete(ctx context.Context, companyID, id string) error {
	t, err := s.load(ctx, companyID, id, security.ActionDelete)
	if err != nil {
		return err
	}
	if t.Status != domain.TourDraft && t.Status != domain.TourCancelled {
		return fmt.Errorf("%w: only draft or cancelled tours can be deleted", domain.ErrInvalidTransition)
	}
	return s.tours.Delete(ctx, id)
}

// StatusChange moves a tour to Status. AssigneeID names the subcontractor
// company when Status is assigned.
type StatusChange struct {
	Status     domain.TourStatus `json:"status"`
	AssigneeID string            `json:"assigneeId"`
}

// ChangeStatus applies a lifecycle transition. The assigned subcontractor
// may only start transit and confirm delivery.
func (s *TourService) ChangeStatus(ctx context.Context, companyID, id string, change StatusChange) (*domain.Tour, error) {
	t, err := s.load(ctx, companyID, id, security.ActionStatus)
	if err != nil {
		return nil, err
	}
	if !t.Status.CanTransition(change.Status) {
		return nil, fmt.Errorf("%w: %s to %s", domain.ErrInvalidTransition, t.Status, change.Status)
	}

	owner := t.CompanyID == companyID
	if !owner && change.Status != domain.TourInTransit && change.Status != domain.TourDelivered {
		return nil, fmt.Errorf("%w: only the shipper can set %s", domain.ErrForbidden, change.Status)
	}

	switch change.Status {
	case domain.TourAssigned:
		if change.AssigneeID == "" {
			return nil, fmt.Errorf("%w: assigneeId is required", domain.ErrInvalidInput)
		}
		assignee, err := s.companies.GetByID(ctx, change.AssigneeID)
		if err != nil {
			return nil, err
		}
		if assignee.Type != domain.CompanyTypeSubcontractor {
			return nil, fmt.Errorf("%w: tours can only be assigned to subcontractors", domain.ErrInvalidInput)
		}
		t.AssignedSubcontractorID = &assignee.ID
	case domain.TourPublished, domain.TourDraft:
		t.AssignedSubcontractorID = nil
	}

	from := t.Status
	t.Status = change.Status
	if err := s.tours.Update(ctx, t); err != nil {
		return nil, err
	}

	s.logger.Info("tour status changed",
		slog.String("tour_id", t.ID),
		slog.String("from", string(from)),
		slog.String("to", string(t.Status)),
		slog.String("by_company_id", companyID),
	)
	payload := map[string]string{
		"tourId":    t.ID,
		"companyId": t.CompanyID,
		"from":      string(from),
		"to":        string(t.Status),
	}
	if t.AssignedSubcontractorID != nil {
		payload["assigneeId"] = *t.AssignedSubcontractorID
	}
	publish(ctx, s.publisher, s.logger, events.TourStatusChanged, t.CompanyID, payload)
	return t, nil
}
