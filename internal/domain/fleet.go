package domain

import (
	"context"
	"time"
)

// Employee is a person on a company's staff roster. Employees do not need
// an identity; drivers who log in are Members as well.
type Employee struct {
	ID             string    `json:"id"`
	CompanyID      string    `json:"companyId"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Position       string    `json:"position"`
	LicenseClasses []string  `json:"licenseClasses"`
	Languages      []string  `json:"languages"`
	HasADR         bool      `json:"hasAdr"`
	IsActive       bool      `json:"isActive"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Vehicle is a unit of a company's fleet.
type Vehicle struct {
	ID                 string    `json:"id"`
	CompanyID          string    `json:"companyId"`
	LicensePlate       string    `json:"licensePlate"`
	VehicleType        string    `json:"vehicleType"`
	BodyType           string    `json:"bodyType"`
	Brand              string    `json:"brand"`
	Model              string    `json:"model"`
	Year               int       `json:"year"`
	PayloadKg          float64   `json:"payloadKg"`
	TemperatureControl bool      `json:"temperatureControl"`
	IsActive           bool      `json:"isActive"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// EmployeeRepository defines data access for employees
type EmployeeRepository interface {
	Create(ctx context.Context, e *Employee) error
	GetByID(ctx context.Context, id string) (*Employee, error)
	ListByCompany(ctx context.Context, companyID string) ([]*Employee, error)
	Update(ctx context.Context, e *Employee) error
	Delete(ctx context.Context, id string) error
}

// VehicleRepository defines data access for vehicles
type VehicleRepository interface {
	Create(ctx context.Context, v *Vehicle) error
	GetByID(ctx context.Context, id string) (*Vehicle, error)
	ListByCompany(ctx context.Context, companyID string) ([]*Vehicle, error)
	Update(ctx context.Context, v *Vehicle) error
	Delete(ctx context.Context, id string) error
}
