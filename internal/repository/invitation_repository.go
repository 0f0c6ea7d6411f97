package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aryan0dhankhar/freightlink/internal/domain"
)

const invitationColumns = `id, company_id, email, role, invited_by, invited_at, expires_at, accepted_at, token`

func scanInvitation(row rowScanner) (*domain.Invitation, error) {
	inv := &domain.Invitation{}
	var accepted sql.NullTime
	if err := row.Scan(&inv.ID, &inv.CompanyID, &inv.Email, &inv.Role, &inv.InvitedBy,
		&inv.InvitedAt, &inv.ExpiresAt, &accepted, &inv.Token); err != nil {
		return nil, err
	}
	inv.AcceptedAt = nullTime(&accepted)
	return inv, nil
}

// PostgresInvitationRepository implements domain.InvitationRepository
type PostgresInvitationRepository struct {
	db *sql.DB
}

func NewPostgresInvitationRepository(db *sql.DB) *PostgresInvitationRepository {
	return &PostgresInvitationRepository{db: db}
}

func (r *PostgresInvitationRepository) Create(ctx context.Context, inv *domain.Invitation) error {
	query := `
		INSERT INTO company_invitations (company_id, email, role, invited_by, invited_at, expires_at, token)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		inv.CompanyID, inv.Email, string(inv.Role), inv.InvitedBy, inv.InvitedAt, inv.ExpiresAt, inv.Token,
	).Scan(&inv.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("invitation token: %w", domain.ErrConflict)
		}
		return fmt.Errorf("failed to create invitation: %w", err)
	}
	return nil
}

func (r *PostgresInvitationRepository) GetByID(ctx context.Context, id string) (*domain.Invitation, error) {
	return r.getOne(ctx, `SELECT `+invitationColumns+` FROM company_invitations WHERE id = $1`, id)
}

// GetForUpdate must run inside RunInTx; the row stays locked until the
// transaction ends.
func (r *PostgresInvitationRepository) GetForUpdate(ctx context.Context, id string) (*domain.Invitation, error) {
	return r.getOne(ctx, `SELECT `+invitationColumns+` FROM company_invitations WHERE id = $1 FOR UPDATE`, id)
}

func (r *PostgresInvitationRepository) GetByToken(ctx context.Context, token string) (*domain.Invitation, error) {
	return r.getOne(ctx, `SELECT `+invitationColumns+` FROM company_invitations WHERE token = $1`, token)
}

func (r *PostgresInvitationRepository) getOne(ctx context.Context, query, arg string) (*domain.Invitation, error) {
	inv, err := scanInvitation(conn(ctx, r.db).QueryRowContext(ctx, query, arg))
	if err != nil {
		return nil, notFound(err, "invitation")
	}
	return inv, nil
}

func (r *PostgresInvitationRepository) ListByCompany(ctx context.Context, companyID string) ([]*domain.Invitation, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx,
		`SELECT `+invitationColumns+` FROM company_invitations WHERE company_id = $1 ORDER BY invited_at DESC`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	defer rows.Close()

	var out []*domain.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// MarkAccepted sets accepted_at once. A second call reports false.
func (r *PostgresInvitationRepository) MarkAccepted(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE company_invitations SET accepted_at = $2 WHERE id = $1 AND accepted_at IS NULL`,
		id, at,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark invitation accepted: %w", err)
	}
	return affected(res)
}

func (r *PostgresInvitationRepository) DeletePending(ctx context.Context, companyID, id string) (bool, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`DELETE FROM company_invitations WHERE id = $1 AND company_id = $2 AND accepted_at IS NULL`,
		id, companyID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete invitation: %w", err)
	}
	return affected(res)
}
