package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/aryan0dhankhar/freightlink/internal/domain"
)

// PostgresEmployeeRepository implements domain.EmployeeRepository
type PostgresEmployeeRepository struct {
	db *sql.DB
}

func NewPostgresEmployeeRepository(db *sql.DB) *PostgresEmployeeRepository {
	return &PostgresEmployeeRepository{db: db}
}

const employeeColumns = `id, company_id, first_name, last_name, email, phone, position,
	license_classes, languages, has_adr, is_active, created_at, updated_at`

func scanEmployee(row rowScanner) (*domain.Employee, error) {
	e := &domain.Employee{}
	err := row.Scan(&e.ID, &e.CompanyID, &e.FirstName, &e.LastName, &e.Email, &e.Phone, &e.Position,
		pq.Array(&e.LicenseClasses), pq.Array(&e.Languages), &e.HasADR, &e.IsActive, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.LicenseClasses = stringsOrEmpty(e.LicenseClasses)
	e.Languages = stringsOrEmpty(e.Languages)
	return e, nil
}

func (r *PostgresEmployeeRepository) Create(ctx context.Context, e *domain.Employee) error {
	query := `
		INSERT INTO employees (company_id, first_name, last_name, email, phone, position,
			license_classes, languages, has_adr, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`
	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		e.CompanyID, e.FirstName, e.LastName, e.Email, e.Phone, e.Position,
		pq.Array(stringsOrEmpty(e.LicenseClasses)), pq.Array(stringsOrEmpty(e.Languages)), e.HasADR, e.IsActive,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create employee: %w", err)
	}
	return nil
}

func (r *PostgresEmployeeRepository) GetByID(ctx context.Context, id string) (*domain.Employee, error) {
	e, err := scanEmployee(conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "employee")
	}
	return e, nil
}

func (r *PostgresEmployeeRepository) ListByCompany(ctx context.Context, companyID string) ([]*domain.Employee, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE company_id = $1 ORDER BY last_name, first_name`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var out []*domain.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *PostgresEmployeeRepository) Update(ctx context.Context, e *domain.Employee) error {
	query := `
		UPDATE employees
		SET first_name = $2, last_name = $3, email = $4, phone = $5, position = $6,
			license_classes = $7, languages = $8, has_adr = $9, is_active = $10, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`
	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		e.ID, e.FirstName, e.LastName, e.Email, e.Phone, e.Position,
		pq.Array(stringsOrEmpty(e.LicenseClasses)), pq.Array(stringsOrEmpty(e.Languages)), e.HasADR, e.IsActive,
	).Scan(&e.UpdatedAt)
	if err != nil {
		return notFound(err, "employee")
	}
	return nil
}

func (r *PostgresEmployeeRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "employees", "employee", id)
}

// PostgresVehicleRepository implements domain.VehicleRepository
type PostgresVehicleRepository struct {
	db *sql.DB
}

func NewPostgresVehicleRepository(db *sql.DB) *PostgresVehicleRepository {
	return &PostgresVehicleRepository{db: db}
}

const vehicleColumns = `id, company_id, license_plate, vehicle_type, body_type, brand, model, year,
	payload_kg, temperature_control, is_active, created_at, updated_at`

func scanVehicle(row rowScanner) (*domain.Vehicle, error) {
	v := &domain.Vehicle{}
	err := row.Scan(&v.ID, &v.CompanyID, &v.LicensePlate, &v.VehicleType, &v.BodyType, &v.Brand, &v.Model,
		&v.Year, &v.PayloadKg, &v.TemperatureControl, &v.IsActive, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (r *PostgresVehicleRepository) Create(ctx context.Context, v *domain.Vehicle) error {
	query := `
		INSERT INTO vehicles (company_id, license_plate, vehicle_type, body_type, brand, model, year,
			payload_kg, temperature_control, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`
	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		v.CompanyID, v.LicensePlate, v.VehicleType, v.BodyType, v.Brand, v.Model, v.Year,
		v.PayloadKg, v.TemperatureControl, v.IsActive,
	).Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create vehicle: %w", err)
	}
	return nil
}

func (r *PostgresVehicleRepository) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	v, err := scanVehicle(conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "vehicle")
	}
	return v, nil
}

func (r *PostgresVehicleRepository) ListByCompany(ctx context.Context, companyID string) ([]*domain.Vehicle, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles WHERE company_id = $1 ORDER BY license_plate`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}
	defer rows.Close()

	var out []*domain.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vehicle: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *PostgresVehicleRepository) Update(ctx context.Context, v *domain.Vehicle) error {
	query := `
		UPDATE vehicles
		SET license_plate = $2, vehicle_type = $3, body_type = $4, brand = $5, model = $6, year = $7,
			payload_kg = $8, temperature_control = $9, is_active = $10, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`
	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		v.ID, v.LicensePlate, v.VehicleType, v.BodyType, v.Brand, v.Model, v.Year,
		v.PayloadKg, v.TemperatureControl, v.IsActive,
	).Scan(&v.UpdatedAt)
	if err != nil {
		return notFound(err, "vehicle")
	}
	return nil
}

func (r *PostgresVehicleRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "vehicles", "vehicle", id)
}

// deleteByID removes one row from a fixed table name.
func deleteByID(ctx context.Context, db *sql.DB, table, what, id string) error {
	res, err := conn(ctx, db).ExecContext(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", what, err)
	}
	if ok, err := affected(res); err != nil || !ok {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return nil
}
