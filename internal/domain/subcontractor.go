package domain

import (
	"context"
	"time"
)

// Availability is a subcontractor's current capacity category.
type Availability string

const (
	AvailabilityAvailable   Availability = "available"
	AvailabilityLimited     Availability = "limited"
	AvailabilityUnavailable Availability = "unavailable"
)

// Valid reports whether a is a known availability category.
func (a Availability) Valid() bool {
	switch a {
	case AvailabilityAvailable, AvailabilityLimited, AvailabilityUnavailable:
		return true
	}
	return false
}

// SubcontractorRecord is one row of the subcontractor_search_data view.
// It is read-only: the view is derived from companies, prequalification,
// vehicles, employees and ratings.
type SubcontractorRecord struct {
	CompanyID           string       `json:"company_id"`
	CompanyName         string       `json:"company_name"`
	City                string       `json:"city"`
	Country             string       `json:"country"`
	PostalCode          string       `json:"postal_code"`
	Languages           []string     `json:"languages"`
	ServiceRegions      []string     `json:"service_regions"`
	Specializations     []string     `json:"specializations"`
	VehicleTypes        []string     `json:"vehicle_types"`
	BodyTypes           []string     `json:"body_types"`
	DangerousGoods      bool         `json:"dangerous_goods"`
	TemperatureControl  bool         `json:"temperature_control"`
	Express             bool         `json:"express"`
	Availability        Availability `json:"availability"`
	AvgRating           float64      `json:"avg_rating"`
	RatingCount         int          `json:"rating_count"`
	VehicleCount        int          `json:"vehicle_count"`
	EmployeeCount       int          `json:"employee_count"`
	HasADRCertificate   bool         `json:"has_adr_certificate"`
	HasEULicense        bool         `json:"has_eu_license"`
	HasGDPCertificate   bool         `json:"has_gdp_certificate"`
	HasOtherCertificate bool         `json:"has_other_certificate"`
}

// Prequalification is the capability profile a subcontractor maintains.
// It feeds the search view.
type Prequalification struct {
	CompanyID           string       `json:"companyId"`
	Languages           []string     `json:"languages"`
	ServiceRegions      []string     `json:"serviceRegions"`
	Specializations     []string     `json:"specializations"`
	Availability        Availability `json:"availability"`
	DangerousGoods      bool         `json:"dangerousGoods"`
	TemperatureControl  bool         `json:"temperatureControl"`
	Express             bool         `json:"express"`
	HasADRCertificate   bool         `json:"hasAdrCertificate"`
	HasEULicense        bool         `json:"hasEuLicense"`
	HasGDPCertificate   bool         `json:"hasGdpCertificate"`
	HasOtherCertificate bool         `json:"hasOtherCertificate"`
	UpdatedAt           time.Time    `json:"updatedAt"`
}

// PrequalificationRepository defines data access for prequalification profiles
type PrequalificationRepository interface {
	Get(ctx context.Context, companyID string) (*Prequalification, error)
	Upsert(ctx context.Context, p *Prequalification) error
}
