package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aryan0dhankhar/freightlink/internal/domain"
	"github.com/aryan0dhankhar/freightlink/internal/infrastructure/events"
)

// CompanyService creates companies and manages their members.
type CompanyService struct {
	companies   domain.CompanyRepository
	memberships domain.MembershipRepository
	tx          TxRunner
	resolver    AffiliationResolver
	publisher   events.Publisher
	logger      *slog.Logger
}

func NewCompanyService(
	companies domain.CompanyRepository,
	memberships domain.MembershipRepository,
	tx TxRunner,
	resolver AffiliationResolver,
	publisher events.Publisher,
	logger *slog.Logger,
) *CompanyService {
	if logger == nil {
		logger = slog.Default()
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &CompanyService{
		companies:   companies,
		memberships: memberships,
		tx:          tx,
		resolver:    resolver,
		publisher:   publisher,
		logger:      logger,
	}
}

// CompanyInput holds the editable company fields. Type is only read on
// create.
type CompanyInput struct {
	Type       domain.CompanyType `json:"companyType"`
	Name       string             `json:"name"`
	LegalForm  string             `json:"legalForm"`
	Street     string             `json:"street"`
	PostalCode string             `json:"postalCode"`
	City       string             `json:"city"`
	Country    string             `json:"country"`
	VATID      string             `json:"vatId"`
	Phone      string             `json:"phone"`
	Email      string             `json:"email"`
	Website    string             `json:"website"`
}

func (in CompanyInput) apply(c *domain.Company) {
	c.Name = strings.TrimSpace(in.Name)
	c.LegalForm = strings.TrimSpace(in.LegalForm)
	c.Street = strings.TrimSpace(in.Street)
	c.PostalCode = strings.TrimSpace(in.PostalCode)
	c.City = strings.TrimSpace(in.City)
	c.Country = strings.ToUpper(strings.TrimSpace(in.Country))
	c.VATID = strings.TrimSpace(in.VATID)
	c.Phone = strings.TrimSpace(in.Phone)
	c.Email = strings.TrimSpace(in.Email)
	c.Website = strings.TrimSpace(in.Website)
}

func (in CompanyInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: company name is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(in.Country) == "" {
		return fmt.Errorf("%w: country is required", domain.ErrInvalidInput)
	}
	return nil
}

// Create registers a company owned by userID. The owner gets an explicit
// company_admin membership in the same transaction. An identity that
// already owns or belongs to a company is rejected.
func (s *CompanyService) Create(ctx context.Context, userID string, in CompanyInput) (*domain.Company, error) {
	if !in.Type.Known() {
		return nil, fmt.Errorf("%w: unknown company type %q", domain.ErrInvalidInput, in.Type)
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	if s.resolver.Refresh(ctx, userID).Affiliation.HasCompany() {
		return nil, domain.ErrAlreadyAffiliated
	}

	c := &domain.Company{OwnerID: userID, Type: in.Type}
	in.apply(c)

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.companies.GetByOwner(ctx, userID); err == nil {
			return domain.ErrAlreadyAffiliated
		}
		if err := s.companies.Create(ctx, c); err != nil {
			return err
		}
		now := time.Now().UTC()
		inserted, err := s.memberships.Insert(ctx, &domain.Membership{
			CompanyID:  c.ID,
			UserID:     userID,
			Role:       domain.CreatorRole,
			AcceptedAt: &now,
		})
		if err != nil {
			return err
		}
		if !inserted {
			return fmt.Errorf("%w: membership for new company already exists", domain.ErrConflict)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.resolver.Invalidate(userID)
	s.logger.Info("company created",
		slog.String("company_id", c.ID),
		slog.String("owner_id", userID),
		slog.String("company_type", string(c.Type)),
	)
	publish(ctx, s.publisher, s.logger, events.CompanyCreated, c.ID, map[string]string{
		"companyId":   c.ID,
		"ownerId":     userID,
		"companyType": string(c.Type),
	})
	return c, nil
}

func (s *CompanyService) Get(ctx context.Context, companyID string) (*domain.Company, error) {
	return s.companies.GetByID(ctx, companyID)
}

// Update edits the company's details. The type never changes.
func (s *CompanyService) Update(ctx context.Context, companyID string, in CompanyInput) (*domain.Company, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	c, err := s.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	in.apply(c)
	if err := s.companies.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CompanyService) Members(ctx context.Context, companyID string) ([]domain.Member, error) {
	return s.memberships.ListMembers(ctx, companyID)
}

// ChangeRole sets a member's role. The owner always stays company_admin.
func (s *CompanyService) ChangeRole(ctx context.Context, companyID, userID string, role domain.Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}
	c, err := s.companies.GetByID(ctx, companyID)
	if err != nil {
		return err
	}
	if c.OwnerID == userID && role != domain.CreatorRole {
		return fmt.Errorf("%w: the owner's role cannot change", domain.ErrForbidden)
	}
	if err := s.memberships.UpdateRole(ctx, companyID, userID, role); err != nil {
		return err
	}
	s.resolver.Invalidate(userID)
	return nil
}

// RemoveMember deletes a membership. The owner cannot be removed.
func (s *CompanyService) RemoveMember(ctx context.Context, companyID, userID string) error {
	c, err := s.companies.GetByID(ctx, companyID)
	if err != nil {
		return err
	}
	if c.OwnerID == userID {
		return fmt.Errorf("%w: the owner cannot be removed", domain.ErrForbidden)
	}
	if err := s.memberships.Delete(ctx, companyID, userID); err != nil {
		return err
	}
	s.resolver.Invalidate(userID)
	s.logger.Info("member removed",
		slog.String("company_id", companyID),
		slog.String("user_id", userID),
	)
	return nil
}
