package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/aryan0dhankhar/freightlink/internal/domain"
)

// PostgresPreferencesRepository implements domain.PreferencesRepository
type PostgresPreferencesRepository struct {
	db *sql.DB
}

func NewPostgresPreferencesRepository(db *sql.DB) *PostgresPreferencesRepository {
	return &PostgresPreferencesRepository{db: db}
}

func (r *PostgresPreferencesRepository) Get(ctx context.Context, companyID string) (*domain.Preferences, error) {
	query := `
		SELECT company_id, preferred_regions, vehicle_types, body_types, languages,
			require_adr, require_eu, require_gdp, min_rating, updated_at
		FROM shipper_preferences
		WHERE company_id = $1
	`
	p := &domain.Preferences{}
	var minRating sql.NullFloat64
	err := conn(ctx, r.db).QueryRowContext(ctx, query, companyID).Scan(
		&p.CompanyID, pq.Array(&p.PreferredRegions), pq.Array(&p.VehicleTypes), pq.Array(&p.BodyTypes),
		pq.Array(&p.Languages), &p.RequireADR, &p.RequireEU, &p.RequireGDP, &minRating, &p.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err, "preferences")
	}
	if minRating.Valid {
		p.MinRating = &minRating.Float64
	}
	return p, nil
}

func (r *PostgresPreferencesRepository) Upsert(ctx context.Context, p *domain.Preferences) error {
	query := `
		INSERT INTO shipper_preferences (company_id, preferred_regions, vehicle_types, body_types, languages,
			require_adr, require_eu, require_gdp, min_rating)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (company_id) DO UPDATE SET
			preferred_regions = EXCLUDED.preferred_regions,
			vehicle_types = EXCLUDED.vehicle_types,
			body_types = EXCLUDED.body_types,
			languages = EXCLUDED.languages,
			require_adr = EXCLUDED.require_adr,
			require_eu = EXCLUDED.require_eu,
			require_gdp = EXCLUDED.require_gdp,
			min_rating = EXCLUDED.min_rating,
			updated_at = now()
		RETURNING updated_at
	`
	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		p.CompanyID, pq.Array(stringsOrEmpty(p.PreferredRegions)), pq.Array(stringsOrEmpty(p.VehicleTypes)),
		pq.Array(stringsOrEmpty(p.BodyTypes)), pq.Array(stringsOrEmpty(p.Languages)),
		p.RequireADR, p.RequireEU, p.RequireGDP, p.MinRating,
	).Scan(&p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return nil
}

// PostgresPrequalificationRepository implements domain.PrequalificationRepository
type PostgresPrequalificationRepository struct {
	db *sql.DB
}

func NewPostgresPrequalificationRepository(db *sql.DB) *PostgresPrequalificationRepository {
	return &PostgresPrequalificationRepository{db: db}
}

func (r *PostgresPrequalificationRepository) Get(ctx context.Context, companyID string) (*domain.Prequalification, error) {
	query := `
		SELECT company_id, languages, service_regions, specializations, availability,
			dangerous_goods, temperature_control, express,
			has_adr_certificate, has_eu_license, has_gdp_certificate, has_other_certificate, updated_at
		FROM subcontractor_prequalification
		WHERE company_id = $1
	`
	p := &domain.Prequalification{}
	err := conn(ctx, r.db).QueryRowContext(ctx, query, companyID).Scan(
		&p.CompanyID, pq.Array(&p.Languages), pq.Array(&p.ServiceRegions), pq.Array(&p.Specializations),
		&p.Availability, &p.DangerousGoods, &p.TemperatureControl, &p.Express,
		&p.HasADRCertificate, &p.HasEULicense, &p.HasGDPCertificate, &p.HasOtherCertificate, &p.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err, "prequalification")
	}
	return p, nil
}

func (r *PostgresPrequalificationRepository) Upsert(ctx context.Context, p *domain.Prequalification) error {
	query := `
		INSERT INTO subcontractor_prequalification (company_id, languages, service_regions, specializations,
			availability, dangerous_goods, temperature_control, express,
			has_adr_certificate, has_eu_license, has_gdp_certificate, has_other_certificate)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (company_id) DO UPDATE SET
			languages = EXCLUDED.languages,
			service_regions = EXCLUDED.service_regions,
			specializations = EXCLUDED.specializations,
			availability = EXCLUDED.availability,
			dangerous_goods = EXCLUDED.dangerous_goods,
			temperature_control = EXCLUDED.temperature_control,
			express = EXCLUDED.express,
			has_adr_certificate = EXCLUDED.has_adr_certificate,
			has_eu_license = EXCLUDED.has_eu_license,
			has_gdp_certificate = EXCLUDED.has_gdp_certificate,
			has_other_certificate = EXCLUDED.has_other_certificate,
			updated_at = now()
		RETURNING updated_at
	`
	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		p.CompanyID, pq.Array(stringsOrEmpty(p.Languages)), pq.Array(stringsOrEmpty(p.ServiceRegions)),
		pq.Array(stringsOrEmpty(p.Specializations)), string(p.Availability),
		p.DangerousGoods, p.TemperatureControl, p.Express,
		p.HasADRCertificate, p.HasEULicense, p.HasGDPCertificate, p.HasOtherCertificate,
	).Scan(&p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save prequalification: %w", err)
	}
	return nil
}

// PostgresVisibilityRepository implements domain.VisibilityRepository
type PostgresVisibilityRepository struct {
	db *sql.DB
}

func NewPostgresVisibilityRepository(db *sql.DB) *PostgresVisibilityRepository {
	return &PostgresVisibilityRepository{db: db}
}

func (r *PostgresVisibilityRepository) Get(ctx context.Context, companyID string) (*domain.Visibility, error) {
	query := `
		SELECT company_id, show_contact, show_fleet, show_certificates, show_ratings, show_service_regions, updated_at
		FROM public_profile_settings
		WHERE company_id = $1
	`
	v := &domain.Visibility{}
	err := conn(ctx, r.db).QueryRowContext(ctx, query, companyID).Scan(
		&v.CompanyID, &v.ShowContact, &v.ShowFleet, &v.ShowCertificates, &v.ShowRatings, &v.ShowServiceRegions, &v.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err, "profile settings")
	}
	return v, nil
}

func (r *PostgresVisibilityRepository) Upsert(ctx context.Context, v *domain.Visibility) error {
	query := `
		INSERT INTO public_profile_settings (company_id, show_contact, show_fleet, show_certificates,
			show_ratings, show_service_regions)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (company_id) DO UPDATE SET
			show_contact = EXCLUDED.show_contact,
			show_fleet = EXCLUDED.show_fleet,
			show_certificates = EXCLUDED.show_certificates,
			show_ratings = EXCLUDED.show_ratings,
			show_service_regions = EXCLUDED.show_service_regions,
			updated_at = now()
		RETURNING updated_at
	`
	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		v.CompanyID, v.ShowContact, v.ShowFleet, v.ShowCertificates, v.ShowRatings, v.ShowServiceRegions,
	).Scan(&v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save profile settings: %w", err)
	}
	return nil
}
