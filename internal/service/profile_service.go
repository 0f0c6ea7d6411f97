package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aryan0dhankhar/freightlink/internal/domain"
)

// ProfileService reads and edits the caller's own profile.
type ProfileService struct {
	profiles domain.ProfileRepository
	logger   *slog.Logger
}

func NewProfileService(profiles domain.ProfileRepository, logger *slog.Logger) *ProfileService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileService{profiles: profiles, logger: logger}
}

// ProfileUpdate holds the editable profile fields.
type ProfileUpdate struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	Language  string `json:"language"`
}

// Get returns the profile of userID. It also satisfies
// tenancy.ProfileSource for in-process sessions.
func (s *ProfileService) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	return s.profiles.GetByID(ctx, userID)
}

func (s *ProfileService) Profile(ctx context.Context, identity string) (*domain.Profile, error) {
	return s.Get(ctx, identity)
}

func (s *ProfileService) Update(ctx context.Context, userID string, in ProfileUpdate) (*domain.Profile, error) {
	if in.Language != "" && !domain.IsSupportedLanguage(in.Language) {
		return nil, fmt.Errorf("%w: unsupported language %q", domain.ErrInvalidInput, in.Language)
	}

	p, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	p.FirstName = strings.TrimSpace(in.FirstName)
	p.LastName = strings.TrimSpace(in.LastName)
	p.Phone = strings.TrimSpace(in.Phone)
	if in.Language != "" {
		p.Language = in.Language
	}

	if err := s.profiles.Update(ctx, p); err != nil {
		s.logger.Error("failed to update profile",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	return p, nil
}
