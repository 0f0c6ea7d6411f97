package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aryan0dhankhar/freightlink/internal/domain"
)

// PostgresUserRepository implements domain.UserRepository using PostgreSQL
type PostgresUserRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresUserRepository creates a new user repository
func NewPostgresUserRepository(db *sql.DB, logger *slog.Logger) *PostgresUserRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresUserRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new identity. A duplicate email yields domain.ErrEmailTaken.
func (r *PostgresUserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (email, password_hash, is_active)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`

	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		strings.ToLower(user.Email),
		user.PasswordHash,
		user.IsActive,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailTaken
		}
		r.logger.Error("failed to create user",
			slog.String("email", user.Email),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT id, email, password_hash, created_at, updated_at, is_active
		FROM users
		WHERE id = $1
	`
	return r.scanOne(ctx, query, id)
}

// GetByEmail retrieves an active user by email, case-insensitively.
func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT id, email, password_hash, created_at, updated_at, is_active
		FROM users
		WHERE email = $1 AND is_active = true
	`
	return r.scanOne(ctx, query, strings.ToLower(email))
}

// Update writes the password hash and active flag.
func (r *PostgresUserRepository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET password_hash = $2, is_active = $3, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`

	err := conn(ctx, r.db).QueryRowContext(ctx, query, user.ID, user.PasswordHash, user.IsActive).Scan(&user.UpdatedAt)
	if err != nil {
		return notFound(err, "user")
	}
	return nil
}

func (r *PostgresUserRepository) scanOne(ctx context.Context, query string, arg string) (*domain.User, error) {
	user := &domain.User{}
	err := conn(ctx, r.db).QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.IsActive,
	)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return user, nil
}

// PostgresProfileRepository implements domain.ProfileRepository
type PostgresProfileRepository struct {
	db *sql.DB
}

func NewPostgresProfileRepository(db *sql.DB) *PostgresProfileRepository {
	return &PostgresProfileRepository{db: db}
}

func (r *PostgresProfileRepository) Create(ctx context.Context, p *domain.Profile) error {
	query := `
		INSERT INTO profiles (id, first_name, last_name, phone, language)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`
	err := conn(ctx, r.db).QueryRowContext(ctx, query, p.ID, p.FirstName, p.LastName, p.Phone, p.Language).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

func (r *PostgresProfileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	query := `
		SELECT id, first_name, last_name, phone, language, created_at, updated_at
		FROM profiles
		WHERE id = $1
	`
	p := &domain.Profile{}
	err := conn(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.FirstName, &p.LastName, &p.Phone, &p.Language, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err, "profile")
	}
	return p, nil
}

func (r *PostgresProfileRepository) Update(ctx context.Context, p *domain.Profile) error {
	query := `
		UPDATE profiles
		SET first_name = $2, last_name = $3, phone = $4, language = $5, updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at
	`
	err := conn(ctx, r.db).QueryRowContext(ctx, query, p.ID, p.FirstName, p.LastName, p.Phone, p.Language).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return notFound(err, "profile")
	}
	return nil
}
