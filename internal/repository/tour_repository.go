package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/aryan0dhankhar/freightlink/internal/domain"
)

const tourColumns = `id, company_id, reference, title, description, pickup_city, pickup_country, pickup_date,
	delivery_city, delivery_country, delivery_date, cargo_type, weight_kg, vehicle_type, price, currency,
	status, assigned_subcontractor_id, created_by, created_at, updated_at`

func scanTour(row rowScanner) (*domain.Tour, error) {
	t := &domain.Tour{}
	var (
		pickup, delivery sql.NullTime
		assigned         sql.NullString
	)
	err := row.Scan(&t.ID, &t.CompanyID, &t.Reference, &t.Title, &t.Description,
		&t.PickupCity, &t.PickupCountry, &pickup,
		&t.DeliveryCity, &t.DeliveryCountry, &delivery,
		&t.CargoType, &t.WeightKg, &t.VehicleType, &t.Price, &t.Currency,
		&t.Status, &assigned, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.PickupDate = nullTime(&pickup)
	t.DeliveryDate = nullTime(&delivery)
	if assigned.Valid {
		t.AssignedSubcontractorID = &assigned.String
	}
	return t, nil
}

// PostgresTourRepository implements domain.TourRepository
type PostgresTourRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewPostgresTourRepository(db *sql.DB, logger *slog.Logger) *PostgresTourRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTourRepository{db: db, logger: logger}
}

func (r *PostgresTourRepository) Create(ctx context.Context, t *domain.Tour) error {
	query := `
		INSERT INTO tours (company_id, reference, title, description, pickup_city, pickup_country, pickup_date,
			delivery_city, delivery_country, delivery_date, cargo_type, weight_kg, vehicle_type, price, currency,
			status, assigned_subcontractor_id, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id, created_at, updated_at
	`
	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		t.CompanyID, t.Reference, t.Title, t.Description, t.PickupCity, t.PickupCountry, t.PickupDate,
		t.DeliveryCity, t.DeliveryCountry, t.DeliveryDate, t.CargoType, t.WeightKg, t.VehicleType, t.Price, t.Currency,
		string(t.Status), t.AssignedSubcontractorID, t.CreatedBy,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		r.logger.Error("failed to create tour",
			slog.String("company_id", t.CompanyID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create tour: %w", err)
	}
	return nil
}

func (r *PostgresTourRepository) GetByID(ctx context.Context, id string) (*domain.Tour, error) {
	t, err := scanTour(conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+tourColumns+` FROM tours WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "tour")
	}
	return t, nil
}

// ListForCompany returns tours the company published or was assigned,
// newest first.
func (r *PostgresTourRepository) ListForCompany(ctx context.Context, companyID string) ([]*domain.Tour, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx,
		`SELECT `+tourColumns+` FROM tours
		WHERE company_id = $1 OR assigned_subcontractor_id = $1
		ORDER BY created_at DESC`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tours: %w", err)
	}
	defer rows.Close()

	var tours []*domain.Tour
	for rows.Next() {
		t, err := scanTour(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tour: %w", err)
		}
		tours = append(tours, t)
	}
	return tours, rows.Err()
}

func (r *PostgresTourRepository) Update(ctx context.Context, t *domain.Tour) error {
	query := `
		UPDATE tours
		SET reference = $2, title = $3, description = $4, pickup_city = $5, pickup_country = $6, pickup_date = $7,
			delivery_city = $8, delivery_country = $9, delivery_date = $10, cargo_type = $11, weight_kg = $12,
			vehicle_type = $13, price = $14, currency = $15, status = $16, assigned_subcontractor_id = $17,
			updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`
	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		t.ID, t.Reference, t.Title, t.Description, t.PickupCity, t.PickupCountry, t.PickupDate,
		t.DeliveryCity, t.DeliveryCountry, t.DeliveryDate, t.CargoType, t.WeightKg,
		t.VehicleType, t.Price, t.Currency, string(t.Status), t.AssignedSubcontractorID,
	).Scan(&t.UpdatedAt)
	if err != nil {
		return notFound(err, "tour")
	}
	return nil
}

func (r *PostgresTourRepository) Delete(ctx context.Context, id string) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM tours WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tour: %w", err)
	}
	if ok, err := affected(res); err != nil || !ok {
		return fmt.Errorf("tour: %w", domain.ErrNotFound)
	}
	return nil
}
