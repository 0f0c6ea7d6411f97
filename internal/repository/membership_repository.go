package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aryan0dhankhar/freightlink/internal/domain"
)

// PostgresMembershipRepository implements domain.MembershipRepository over
// company_users.
type PostgresMembershipRepository struct {
	db *sql.DB
}

func NewPostgresMembershipRepository(db *sql.DB) *PostgresMembershipRepository {
	return &PostgresMembershipRepository{db: db}
}

// Insert adds the row unless (company_id, user_id) already exists, in
// which case it reports false and leaves the existing row untouched.
func (r *PostgresMembershipRepository) Insert(ctx context.Context, m *domain.Membership) (bool, error) {
	query := `
		INSERT INTO company_users (company_id, user_id, role, invited_by, invited_at, accepted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT ON CONSTRAINT company_users_company_user_key DO NOTHING
		RETURNING id
	`
	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		m.CompanyID, m.UserID, string(m.Role), nullString(m.InvitedBy), m.InvitedAt, m.AcceptedAt,
	).Scan(&m.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to insert membership: %w", err)
	}
	return true, nil
}

func (r *PostgresMembershipRepository) Role(ctx context.Context, companyID, userID string) (domain.Role, error) {
	var role domain.Role
	err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT role FROM company_users WHERE company_id = $1 AND user_id = $2`,
		companyID, userID,
	).Scan(&role)
	if err != nil {
		return "", notFound(err, "membership")
	}
	return role, nil
}

// JoinedCompany returns the company and role of the identity's membership.
func (r *PostgresMembershipRepository) JoinedCompany(ctx context.Context, userID string) (*domain.Company, domain.Role, error) {
	query := `SELECT ` + companyColumns + `, cu.role
		FROM company_users cu
		JOIN ` + companyFrom + ` ON c.id = cu.company_id
		WHERE cu.user_id = $1
		ORDER BY cu.accepted_at NULLS LAST
		LIMIT 1`
	var role domain.Role
	c, err := scanCompany(conn(ctx, r.db).QueryRowContext(ctx, query, userID), &role)
	if err != nil {
		return nil, "", notFound(err, "membership")
	}
	return c, role, nil
}

func (r *PostgresMembershipRepository) ListMembers(ctx context.Context, companyID string) ([]domain.Member, error) {
	query := `
		SELECT cu.id, cu.company_id, cu.user_id, cu.role, cu.invited_by, cu.invited_at, cu.accepted_at,
			u.email, COALESCE(p.first_name, ''), COALESCE(p.last_name, '')
		FROM company_users cu
		JOIN users u ON u.id = cu.user_id
		LEFT JOIN profiles p ON p.id = cu.user_id
		WHERE cu.company_id = $1
		ORDER BY u.email
	`
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []domain.Member
	for rows.Next() {
		var (
			m         domain.Member
			invitedBy sql.NullString
			invitedAt sql.NullTime
			accepted  sql.NullTime
		)
		if err := rows.Scan(&m.ID, &m.CompanyID, &m.UserID, &m.Role, &invitedBy, &invitedAt, &accepted,
			&m.Email, &m.FirstName, &m.LastName); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		m.InvitedBy = invitedBy.String
		m.InvitedAt = nullTime(&invitedAt)
		m.AcceptedAt = nullTime(&accepted)
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *PostgresMembershipRepository) UpdateRole(ctx context.Context, companyID, userID string, role domain.Role) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE company_users SET role = $3 WHERE company_id = $1 AND user_id = $2`,
		companyID, userID, string(role),
	)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	if ok, err := affected(res); err != nil || !ok {
		return fmt.Errorf("membership: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *PostgresMembershipRepository) Delete(ctx context.Context, companyID, userID string) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`DELETE FROM company_users WHERE company_id = $1 AND user_id = $2`,
		companyID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
	}
	if ok, err := affected(res); err != nil || !ok {
		return fmt.Errorf("membership: %w", domain.ErrNotFound)
	}
	return nil
}
