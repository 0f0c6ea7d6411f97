package domain

import (
	"context"
	"fmt"
	"time"
)

// Preferences are a shipper's sourcing defaults for subcontractor search.
type Preferences struct {
	CompanyID        string    `json:"companyId"`
	PreferredRegions []string  `json:"preferredRegions"`
	VehicleTypes     []string  `json:"vehicleTypes"`
	BodyTypes        []string  `json:"bodyTypes"`
	Languages        []string  `json:"languages"`
	RequireADR       bool      `json:"requireAdr"`
	RequireEU        bool      `json:"requireEu"`
	RequireGDP       bool      `json:"requireGdp"`
	MinRating        *float64  `json:"minRating,omitempty"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// PreferencesRepository defines data access for preferences
type PreferencesRepository interface {
	Get(ctx context.Context, companyID string) (*Preferences, error)
	Upsert(ctx context.Context, p *Preferences) error
}

// ProfileSection names one toggleable block of a public company profile.
type ProfileSection string

const (
	SectionContact        ProfileSection = "contact"
	SectionFleet          ProfileSection = "fleet"
	SectionCertificates   ProfileSection = "certificates"
	SectionRatings        ProfileSection = "ratings"
	SectionServiceRegions ProfileSection = "service_regions"
)

// Visibility holds which public profile sections are shown.
type Visibility struct {
	CompanyID          string    `json:"companyId"`
	ShowContact        bool      `json:"showContact"`
	ShowFleet          bool      `json:"showFleet"`
	ShowCertificates   bool      `json:"showCertificates"`
	ShowRatings        bool      `json:"showRatings"`
	ShowServiceRegions bool      `json:"showServiceRegions"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// DefaultVisibility is used for companies that never changed their settings.
func DefaultVisibility(companyID string) *Visibility {
	return &Visibility{
		CompanyID:          companyID,
		ShowContact:        true,
		ShowFleet:          true,
		ShowCertificates:   true,
		ShowRatings:        true,
		ShowServiceRegions: true,
	}
}

// Toggle flips the flag for section.
func (v *Visibility) Toggle(section ProfileSection) error {
	switch section {
	case SectionContact:
		v.ShowContact = !v.ShowContact
	case SectionFleet:
		v.ShowFleet = !v.ShowFleet
	case SectionCertificates:
		v.ShowCertificates = !v.ShowCertificates
	case SectionRatings:
		v.ShowRatings = !v.ShowRatings
	case SectionServiceRegions:
		v.ShowServiceRegions = !v.ShowServiceRegions
	default:
		return fmt.Errorf("%w: unknown profile section %q", ErrInvalidInput, section)
	}
	return nil
}

// VisibilityRepository defines data access for public profile settings
type VisibilityRepository interface {
	Get(ctx context.Context, companyID string) (*Visibility, error)
	Upsert(ctx context.Context, v *Visibility) error
}
