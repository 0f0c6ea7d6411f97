package domain

import (
	"context"
	"time"
)

// User is an authenticated identity. It carries no business data; the
// Profile and Company hold that.
type User struct {
	ID           string // UUID
	Email        string // Unique email address
	PasswordHash string // Bcrypt hashed password (not returned in API)
	CreatedAt    time.Time
	UpdatedAt    time.Time
	IsActive     bool
}

// UserRepository defines data access for identities
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User) error
}

// Profile is one-to-one with a User and holds display and contact data.
type Profile struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Phone     string    `json:"phone"`
	Language  string    `json:"language"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SupportedLanguages lists the UI languages a profile may choose.
var SupportedLanguages = []string{"de", "en", "pl", "cs", "ro", "hu"}

// IsSupportedLanguage reports whether code is one of SupportedLanguages.
func IsSupportedLanguage(code string) bool {
	for _, l := range SupportedLanguages {
		if l == code {
			return true
		}
	}
	return false
}

// ProfileRepository defines data access for profiles
type ProfileRepository interface {
	Create(ctx context.Context, profile *Profile) error
	GetByID(ctx context.Context, id string) (*Profile, error)
	Update(ctx context.Context, profile *Profile) error
}
