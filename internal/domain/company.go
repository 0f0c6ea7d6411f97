package domain

import (
	"context"
	"time"
)

// CompanyType is read from the store as free text. Values outside the
// known set must be carried through, not rejected.
type CompanyType string

const (
	CompanyTypeShipper       CompanyType = "shipper"
	CompanyTypeSubcontractor CompanyType = "subcontractor"
)

// Known reports whether t is one of the recognised company types.
func (t CompanyType) Known() bool {
	return t == CompanyTypeShipper || t == CompanyTypeSubcontractor
}

// Company is a tenant.
type Company struct {
	ID         string      `json:"id"`
	OwnerID    string      `json:"userId"`
	Type       CompanyType `json:"companyType"`
	Name       string      `json:"name"`
	LegalForm  string      `json:"legalForm"`
	Street     string      `json:"street"`
	PostalCode string      `json:"postalCode"`
	City       string      `json:"city"`
	Country    string      `json:"country"`
	VATID      string      `json:"vatId"`
	Phone      string      `json:"phone"`
	Email      string      `json:"email"`
	Website    string      `json:"website"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// CompanyRepository defines data access for companies
type CompanyRepository interface {
	Create(ctx context.Context, company *Company) error
	GetByID(ctx context.Context, id string) (*Company, error)
	// GetByOwner returns ErrNotFound when the identity owns no company.
	GetByOwner(ctx context.Context, userID string) (*Company, error)
	Update(ctx context.Context, company *Company) error
}
