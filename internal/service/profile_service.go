package service

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/contentflow/contentflow-api/internal/models"
	"github.com/contentflow/contentflow-api/internal/repository"
	"github.com/contentflow/contentflow-api/internal/transfer"
)

const (
	maxFullNameLength  = 255
	maxAvatarURLLength = 1024
	maxTimezoneLength  = 50
)

type ProfileService interface {
	GetProfile(ctx context.Context, user transfer.CurrentUser) (*models.Profile, error)
	UpdateProfile(ctx context.Context, user transfer.CurrentUser, pu *transfer.ProfileUpdate) (*models.Profile, error)
}

type profileService struct {
	pr repository.ProfileRepository
}

func NewProfileService(pr repository.ProfileRepository) ProfileService {
	return &profileService{
		pr: pr,
	}
}

// GetProfile never fails for a missing row: callers get the defaults instead.
func (s *profileService) GetProfile(ctx context.Context, user transfer.CurrentUser) (*models.Profile, error) {
	profile, isExist, err := s.pr.GetByID(ctx, user.UserID)
	if err != nil {
		return nil, databaseError("failed to load profile", err)
	}
	if !isExist {
		slog.Info("profile row missing, returning defaults", "user_id", user.UserID)
		profile = &models.Profile{ID: user.UserID}
	}

	return withProfileDefaults(profile, user), nil
}

func (s *profileService) UpdateProfile(ctx context.Context, user transfer.CurrentUser, pu *transfer.ProfileUpdate) (*models.Profile, error) {
	if pu == nil || pu.IsEmpty() {
		return nil, validationError("no profile fields to update")
	}

	patch, err := buildProfilePatch(pu)
	if err != nil {
		return nil, err
	}

	res, err := s.pr.Update(ctx, user.UserID, patch)
	if err != nil {
		return nil, databaseError("failed to update profile", err)
	}

	profile, ok := res.First()
	if !ok {
		return nil, notFoundError("profile not found")
	}

	return withProfileDefaults(profile, user), nil
}

func buildProfilePatch(pu *transfer.ProfileUpdate) (repository.ProfilePatch, error) {
	patch := repository.ProfilePatch{}

	fields := []struct {
		column string
		value  transfer.Nullable[string]
		max    int
	}{
		{"full_name", pu.FullName, maxFullNameLength},
		{"avatar_url", pu.AvatarURL, maxAvatarURLLength},
		{"timezone", pu.Timezone, maxTimezoneLength},
	}
	for _, f := range fields {
		if !f.value.Set {
			continue
		}
		if v := f.value.Ptr(); v != nil {
			trimmed := strings.TrimSpace(*v)
			if utf8.RuneCountInString(trimmed) > f.max {
				return nil, validationError("%s must be at most %d characters", f.column, f.max)
			}
			patch[f.column] = trimmed
			continue
		}
		patch[f.column] = nil
	}

	return patch, nil
}

func withProfileDefaults(p *models.Profile, user transfer.CurrentUser) *models.Profile {
	out := *p
	if out.Timezone == "" {
		out.Timezone = models.DefaultProfileTimezone
	}
	if out.Email == nil && user.Email != "" {
		email := user.Email
		out.Email = &email
	}
	return &out
}
