package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aryan0dhankhar/freightlink/internal/domain"
)

// companyColumns reads a company joined with its type name. Unknown type
// names are carried through unchanged.
const companyColumns = `
	c.id, c.user_id, t.name, c.name, c.legal_form, c.street, c.postal_code,
	c.city, c.country, c.vat_id, c.phone, c.email, c.website, c.created_at, c.updated_at`

const companyFrom = `companies c JOIN company_types t ON t.id = c.company_type_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCompany(row rowScanner, extra ...any) (*domain.Company, error) {
	c := &domain.Company{}
	dest := []any{
		&c.ID, &c.OwnerID, &c.Type, &c.Name, &c.LegalForm, &c.Street, &c.PostalCode,
		&c.City, &c.Country, &c.VATID, &c.Phone, &c.Email, &c.Website, &c.CreatedAt, &c.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return c, nil
}

// PostgresCompanyRepository implements domain.CompanyRepository
type PostgresCompanyRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewPostgresCompanyRepository(db *sql.DB, logger *slog.Logger) *PostgresCompanyRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresCompanyRepository{db: db, logger: logger}
}

// Create inserts the company. Its type must exist in company_types.
func (r *PostgresCompanyRepository) Create(ctx context.Context, c *domain.Company) error {
	query := `
		INSERT INTO companies (user_id, company_type_id, name, legal_form, street, postal_code,
			city, country, vat_id, phone, email, website)
		SELECT $1, t.id, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		FROM company_types t WHERE t.name = $2
		RETURNING id, created_at, updated_at
	`
	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		c.OwnerID, string(c.Type), c.Name, c.LegalForm, c.Street, c.PostalCode,
		c.City, c.Country, c.VATID, c.Phone, c.Email, c.Website,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: unknown company type %q", domain.ErrInvalidInput, c.Type)
	}
	if err != nil {
		r.logger.Error("failed to create company",
			slog.String("owner_id", c.OwnerID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create company: %w", err)
	}
	return nil
}

func (r *PostgresCompanyRepository) GetByID(ctx context.Context, id string) (*domain.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM ` + companyFrom + ` WHERE c.id = $1`
	c, err := scanCompany(conn(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "company")
	}
	return c, nil
}

// GetByOwner returns the oldest company the identity owns.
func (r *PostgresCompanyRepository) GetByOwner(ctx context.Context, userID string) (*domain.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM ` + companyFrom + `
		WHERE c.user_id = $1
		ORDER BY c.created_at
		LIMIT 1`
	c, err := scanCompany(conn(ctx, r.db).QueryRowContext(ctx, query, userID))
	if err != nil {
		return nil, notFound(err, "company")
	}
	return c, nil
}

// Update writes the editable fields. Owner and type never change.
func (r *PostgresCompanyRepository) Update(ctx context.Context, c *domain.Company) error {
	query := `
		UPDATE companies
		SET name = $2, legal_form = $3, street = $4, postal_code = $5, city = $6,
			country = $7, vat_id = $8, phone = $9, email = $10, website = $11, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`
	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		c.ID, c.Name, c.LegalForm, c.Street, c.PostalCode, c.City,
		c.Country, c.VATID, c.Phone, c.Email, c.Website,
	).Scan(&c.UpdatedAt)
	if err != nil {
		return notFound(err, "company")
	}
	return nil
}
