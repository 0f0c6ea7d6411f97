package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aryan0dhankhar/freightlink/internal/domain"
	"github.com/aryan0dhankhar/freightlink/internal/search"
)

// PreferencesService stores shipper sourcing preferences and subcontractor
// prequalification profiles.
type PreferencesService struct {
	preferences domain.PreferencesRepository
	prequal     domain.PrequalificationRepository
	refresher   ViewRefresher
	logger      *slog.Logger
}

func NewPreferencesService(
	preferences domain.PreferencesRepository,
	prequal domain.PrequalificationRepository,
	refresher ViewRefresher,
	logger *slog.Logger,
) *PreferencesService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PreferencesService{preferences: preferences, prequal: prequal, refresher: refresher, logger: logger}
}

// Preferences returns the stored preferences, or empty ones for a company
// that never saved any.
func (s *PreferencesService) Preferences(ctx context.Context, companyID string) (*domain.Preferences, error) {
	p, err := s.preferences.Get(ctx, companyID)
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.Preferences{CompanyID: companyID}, nil
	}
	return p, err
}

func (s *PreferencesService) UpdatePreferences(ctx context.Context, company *domain.Company, p *domain.Preferences) (*domain.Preferences, error) {
	if company.Type != domain.CompanyTypeShipper {
		return nil, fmt.Errorf("%w: preferences are for shippers", domain.ErrForbidden)
	}
	if p.MinRating != nil && (*p.MinRating < 0 || *p.MinRating > 5) {
		return nil, fmt.Errorf("%w: minRating must be between 0 and 5", domain.ErrInvalidInput)
	}
	p.CompanyID = company.ID
	if err := s.preferences.Upsert(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DefaultFilter turns the company's preferences into the initial search
// filter.
func (s *PreferencesService) DefaultFilter(ctx context.Context, companyID string) (search.Filter, error) {
	p, err := s.Preferences(ctx, companyID)
	if err != nil {
		return search.Filter{}, err
	}
	return FilterFromPreferences(p), nil
}

func FilterFromPreferences(p *domain.Preferences) search.Filter {
	f := search.Filter{
		Region:       p.PreferredRegions,
		VehicleTypes: p.VehicleTypes,
		BodyTypes:    p.BodyTypes,
		Languages:    p.Languages,
		Certificates: search.Certificates{
			ADR: p.RequireADR,
			EU:  p.RequireEU,
			GDP: p.RequireGDP,
		},
	}
	if p.MinRating != nil {
		r := *p.MinRating
		f.MinRating = &r
	}
	return f.Clone()
}

// Prequalification returns the stored profile, or a default "available"
// profile for a company that never saved one.
func (s *PreferencesService) Prequalification(ctx context.Context, companyID string) (*domain.Prequalification, error) {
	p, err := s.prequal.Get(ctx, companyID)
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.Prequalification{CompanyID: companyID, Availability: domain.AvailabilityAvailable}, nil
	}
	return p, err
}

// UpdatePrequalification saves a subcontractor's capability profile and
// schedules a search view refresh.
func (s *PreferencesService) UpdatePrequalification(ctx context.Context, company *domain.Company, p *domain.Prequalification) (*domain.Prequalification, error) {
	if company.Type != domain.CompanyTypeSubcontractor {
		return nil, fmt.Errorf("%w: prequalification is for subcontractors", domain.ErrForbidden)
	}
	if p.Availability == "" {
		p.Availability = domain.AvailabilityAvailable
	}
	if !p.Availability.Valid() {
		return nil, fmt.Errorf("%w: unknown availability %q", domain.ErrInvalidInput, p.Availability)
	}
	p.CompanyID = company.ID
	if err := s.prequal.Upsert(ctx, p); err != nil {
		return nil, err
	}
	if s.refresher != nil {
		s.refresher.Trigger()
	}
	s.logger.Info("prequalification updated", slog.String("company_id", company.ID))
	return p, nil
}
