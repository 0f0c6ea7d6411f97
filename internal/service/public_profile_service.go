package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aryan0dhankhar/freightlink/internal/domain"
)

// RecordSource returns one company's search record.
// *repository.PostgresSearchRepository implements it.
type RecordSource interface {
	GetByCompany(ctx context.Context, companyID string) (*domain.SubcontractorRecord, error)
}

// PublicProfile is the public page of a company with hidden sections
// removed.
type PublicProfile struct {
	Company    *domain.Company             `json:"company"`
	Record     *domain.SubcontractorRecord `json:"record,omitempty"`
	Visibility *domain.Visibility          `json:"visibility"`
}

// PublicProfileService renders public company pages and toggles their
// sections.
type PublicProfileService struct {
	companies  domain.CompanyRepository
	records    RecordSource
	visibility domain.VisibilityRepository
	logger     *slog.Logger
}

func NewPublicProfileService(
	companies domain.CompanyRepository,
	records RecordSource,
	visibility domain.VisibilityRepository,
	logger *slog.Logger,
) *PublicProfileService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PublicProfileService{companies: companies, records: records, visibility: visibility, logger: logger}
}

// Visibility returns the settings, or the defaults when none were saved.
func (s *PublicProfileService) Visibility(ctx context.Context, companyID string) (*domain.Visibility, error) {
	v, err := s.visibility.Get(ctx, companyID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.DefaultVisibility(companyID), nil
	}
	return v, err
}

// Toggle flips one section and stores the result.
func (s *PublicProfileService) Toggle(ctx context.Context, companyID string, section domain.ProfileSection) (*domain.Visibility, error) {
	v, err := s.Visibility(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if err := v.Toggle(section); err != nil {
		return nil, err
	}
	if err := s.visibility.Upsert(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *PublicProfileService) Get(ctx context.Context, companyID string) (*PublicProfile, error) {
	c, err := s.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	v, err := s.Visibility(ctx, companyID)
	if err != nil {
		return nil, err
	}

	pub := *c
	pub.OwnerID = ""
	if !v.ShowContact {
		pub.Phone, pub.Email, pub.Street = "", "", ""
	}
	profile := &PublicProfile{Company: &pub, Visibility: v}

	if c.Type != domain.CompanyTypeSubcontractor {
		return profile, nil
	}
	rec, err := s.records.GetByCompany(ctx, companyID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return profile, nil
	case err != nil:
		s.logger.Warn("public profile without search record",
			slog.String("company_id", companyID),
			slog.String("error", err.Error()),
		)
		return profile, nil
	}
	masked := *rec
	if !v.ShowFleet {
		masked.VehicleTypes, masked.BodyTypes = nil, nil
		masked.VehicleCount, masked.EmployeeCount = 0, 0
	}
	if !v.ShowCertificates {
		masked.HasADRCertificate, masked.HasEULicense = false, false
		masked.HasGDPCertificate, masked.HasOtherCertificate = false, false
	}
	if !v.ShowRatings {
		masked.AvgRating, masked.RatingCount = 0, 0
	}
	if !v.ShowServiceRegions {
		masked.ServiceRegions = nil
	}
	profile.Record = &masked
	return profile, nil
}
