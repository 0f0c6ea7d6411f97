package domain

import (
	"context"
	"time"
)

// TourStatus is the lifecycle state of a transport job.
type TourStatus string

const (
	TourDraft     TourStatus = "draft"
	TourPublished TourStatus = "published"
	TourAssigned  TourStatus = "assigned"
	TourInTransit TourStatus = "in_transit"
	TourDelivered TourStatus = "delivered"
	TourCancelled TourStatus = "cancelled"
)

var tourTransitions = map[TourStatus][]TourStatus{
	TourDraft:     {TourPublished, TourCancelled},
	TourPublished: {TourAssigned, TourDraft, TourCancelled},
	TourAssigned:  {TourInTransit, TourPublished, TourCancelled},
	TourInTransit: {TourDelivered, TourCancelled},
}

// Terminal reports whether no further transitions are allowed.
func (s TourStatus) Terminal() bool {
	return s == TourDelivered || s == TourCancelled
}

// CanTransition reports whether a tour may move from s to next.
func (s TourStatus) CanTransition(next TourStatus) bool {
	for _, allowed := range tourTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Tour is a transport job published by a shipper.
type Tour struct {
	ID                      string     `json:"id"`
	CompanyID               string     `json:"companyId"`
	Reference               string     `json:"reference"`
	Title                   string     `json:"title"`
	Description             string     `json:"description"`
	PickupCity              string     `json:"pickupCity"`
	PickupCountry           string     `json:"pickupCountry"`
	PickupDate              *time.Time `json:"pickupDate,omitempty"`
	DeliveryCity            string     `json:"deliveryCity"`
	DeliveryCountry         string     `json:"deliveryCountry"`
	DeliveryDate            *time.Time `json:"deliveryDate,omitempty"`
	CargoType               string     `json:"cargoType"`
	WeightKg                float64    `json:"weightKg"`
	VehicleType             string     `json:"vehicleType"`
	Price                   float64    `json:"price"`
	Currency                string     `json:"currency"`
	Status                  TourStatus `json:"status"`
	AssignedSubcontractorID *string    `json:"assignedSubcontractorId,omitempty"`
	CreatedBy               string     `json:"createdBy"`
	CreatedAt               time.Time  `json:"createdAt"`
	UpdatedAt               time.Time  `json:"updatedAt"`
}

// TourRepository defines data access for tours
type TourRepository interface {
	Create(ctx context.Context, tour *Tour) error
	GetByID(ctx context.Context, id string) (*Tour, error)
	// ListForCompany returns tours owned by or assigned to the company.
	ListForCompany(ctx context.Context, companyID string) ([]*Tour, error)
	Update(ctx context.Context, tour *Tour) error
	Delete(ctx context.Context, id string) error
}
