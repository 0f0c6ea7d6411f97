package repository

import (
	"context"
	"database/sql"

	"github.com/aryan0dhankhar/freightlink/internal/domain"
)

// TenancyStore answers the resolver's three lookups from PostgreSQL.
type TenancyStore struct {
	companies   *PostgresCompanyRepository
	memberships *PostgresMembershipRepository
}

func NewTenancyStore(db *sql.DB) *TenancyStore {
	return &TenancyStore{
		companies:   NewPostgresCompanyRepository(db, nil),
		memberships: NewPostgresMembershipRepository(db),
	}
}

func (s *TenancyStore) OwnedCompany(ctx context.Context, identity string) (*domain.Company, error) {
	return s.companies.GetByOwner(ctx, identity)
}

func (s *TenancyStore) MemberRole(ctx context.Context, companyID, identity string) (domain.Role, error) {
	return s.memberships.Role(ctx, companyID, identity)
}

func (s *TenancyStore) JoinedCompany(ctx context.Context, identity string) (*domain.Company, domain.Role, error) {
	return s.memberships.JoinedCompany(ctx, identity)
}
