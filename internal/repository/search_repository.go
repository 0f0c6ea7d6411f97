package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"

	"github.com/aryan0dhankhar/freightlink/internal/domain"
	"github.com/aryan0dhankhar/freightlink/internal/observability/metrics"
	"github.com/aryan0dhankhar/freightlink/internal/observability/tracing"
	"github.com/aryan0dhankhar/freightlink/internal/search"
)

// PostgresSearchRepository reads the subcontractor_search_data view.
type PostgresSearchRepository struct {
	db      *sql.DB
	logger  *slog.Logger
	maxRows int
}

// NewPostgresSearchRepository caps every result at maxRows; zero means no cap.
func NewPostgresSearchRepository(db *sql.DB, logger *slog.Logger, maxRows int) *PostgresSearchRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresSearchRepository{db: db, logger: logger, maxRows: maxRows}
}

func scanRecord(row rowScanner) (domain.SubcontractorRecord, error) {
	var (
		rec          domain.SubcontractorRecord
		postal, avai sql.NullString
	)
	err := row.Scan(&rec.CompanyID, &rec.CompanyName, &rec.City, &rec.Country, &postal,
		pq.Array(&rec.Languages), pq.Array(&rec.ServiceRegions), pq.Array(&rec.Specializations),
		pq.Array(&rec.VehicleTypes), pq.Array(&rec.BodyTypes),
		&rec.DangerousGoods, &rec.TemperatureControl, &rec.Express, &avai,
		&rec.AvgRating, &rec.RatingCount, &rec.VehicleCount, &rec.EmployeeCount,
		&rec.HasADRCertificate, &rec.HasEULicense, &rec.HasGDPCertificate, &rec.HasOtherCertificate)
	if err != nil {
		return rec, err
	}
	rec.PostalCode = postal.String
	rec.Availability = domain.Availability(avai.String)
	rec.Languages = stringsOrEmpty(rec.Languages)
	rec.ServiceRegions = stringsOrEmpty(rec.ServiceRegions)
	rec.Specializations = stringsOrEmpty(rec.Specializations)
	rec.VehicleTypes = stringsOrEmpty(rec.VehicleTypes)
	rec.BodyTypes = stringsOrEmpty(rec.BodyTypes)
	return rec, nil
}

// Search runs the filter as one statement against the view.
func (r *PostgresSearchRepository) Search(ctx context.Context, f search.Filter) (records []domain.SubcontractorRecord, err error) {
	ctx, span := tracing.Start(ctx, "repository.Search", attribute.Bool("filter.empty", f.Empty()))
	defer func() { tracing.End(span, err) }()

	q := search.BuildQuery(f, r.maxRows)
	rows, err := conn(ctx, r.db).QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search subcontractors: %w", err)
	}
	defer rows.Close()

	records = []domain.SubcontractorRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan search record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read search results: %w", err)
	}
	if r.maxRows > 0 && len(records) == r.maxRows {
		r.logger.Warn("search result hit the row cap", slog.Int("max_rows", r.maxRows))
	}
	span.SetAttributes(attribute.Int("search.results", len(records)))
	return records, nil
}

// GetByCompany returns one company's search record.
func (r *PostgresSearchRepository) GetByCompany(ctx context.Context, companyID string) (*domain.SubcontractorRecord, error) {
	rec, err := scanRecord(conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+search.Columns+` FROM `+search.View+` WHERE company_id = $1`, companyID))
	if err != nil {
		return nil, notFound(err, "search record")
	}
	return &rec, nil
}

// RefreshView rebuilds the materialized view without blocking readers.
func (r *PostgresSearchRepository) RefreshView(ctx context.Context) error {
	start := time.Now()
	_, err := r.db.ExecContext(ctx, `REFRESH MATERIALIZED VIEW CONCURRENTLY `+search.View)
	if err != nil {
		metrics.ObserveSearchViewRefresh("error", time.Since(start))
		return fmt.Errorf("failed to refresh search view: %w", err)
	}
	metrics.ObserveSearchViewRefresh("ok", time.Since(start))
	return nil
}
