package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/contentflow/contentflow-api/internal/models"
	"github.com/contentflow/contentflow-api/internal/repository"
	"github.com/contentflow/contentflow-api/internal/transfer"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProfileRepository struct {
	profiles    map[uuid.UUID]*models.Profile
	patches     []repository.ProfilePatch
	updateCalls int
	getErr      error
}

func newFakeProfileRepository(profiles ...*models.Profile) *fakeProfileRepository {
	r := &fakeProfileRepository{profiles: map[uuid.UUID]*models.Profile{}}
	for _, p := range profiles {
		r.profiles[p.ID] = p
	}
	return r
}

func (r *fakeProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, bool, error) {
	if r.getErr != nil {
		return nil, false, r.getErr
	}
	p, ok := r.profiles[id]
	if !ok {
		return nil, false, nil
	}
	c := *p
	return &c, true, nil
}

func (r *fakeProfileRepository) Update(ctx context.Context, id uuid.UUID, patch repository.ProfilePatch) (repository.Result[*models.Profile], error) {
	r.updateCalls++
	r.patches = append(r.patches, patch)
	p, ok := r.profiles[id]
	if !ok {
		return repository.Result[*models.Profile]{}, nil
	}
	for col, v := range patch {
		switch col {
		case "full_name":
			p.FullName = optString(v)
		case "avatar_url":
			p.AvatarURL = optString(v)
		case "timezone":
			if v == nil {
				p.Timezone = ""
			} else {
				p.Timezone = v.(string)
			}
		}
	}
	c := *p
	return repository.Result[*models.Profile]{Rows: []*models.Profile{&c}}, nil
}

func TestGetProfileFallsBackToDefaults(t *testing.T) {
	user := transfer.CurrentUser{UserID: uuid.New(), Email: "ana@example.com"}
	svc := NewProfileService(newFakeProfileRepository())

	profile, err := svc.GetProfile(context.Background(), user)
	require.NoError(t, err)

	assert.Equal(t, user.UserID, profile.ID)
	assert.Equal(t, "UTC", profile.Timezone)
	require.NotNil(t, profile.Email)
	assert.Equal(t, "ana@example.com", *profile.Email)
	assert.Nil(t, profile.FullName)
}

func TestGetProfileMergesStoredRow(t *testing.T) {
	user := transfer.CurrentUser{UserID: uuid.New()}
	repo := newFakeProfileRepository(&models.Profile{ID: user.UserID, FullName: strPtr("Ana"), Timezone: "America/Bogota"})
	svc := NewProfileService(repo)

	profile, err := svc.GetProfile(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, "Ana", *profile.FullName)
	assert.Equal(t, "America/Bogota", profile.Timezone)
	assert.Nil(t, profile.Email)

	repo.getErr = errBoom
	_, err = svc.GetProfile(context.Background(), user)
	assert.True(t, errors.Is(err, ErrDatabase))
}

func TestUpdateProfileIsPartial(t *testing.T) {
	user := transfer.CurrentUser{UserID: uuid.New()}
	repo := newFakeProfileRepository(&models.Profile{ID: user.UserID, FullName: strPtr("Ana"), AvatarURL: strPtr("https://img/a.png"), Timezone: "Europe/Madrid"})
	svc := NewProfileService(repo)

	profile, err := svc.UpdateProfile(context.Background(), user, &transfer.ProfileUpdate{
		FullName: transfer.Of("  Ana Pérez "),
		Timezone: transfer.Null[string](),
	})
	require.NoError(t, err)

	require.Len(t, repo.patches, 1)
	assert.Equal(t, repository.ProfilePatch{"full_name": "Ana Pérez", "timezone": nil}, repo.patches[0])
	assert.Equal(t, "Ana Pérez", *profile.FullName)
	assert.Equal(t, "https://img/a.png", *profile.AvatarURL)
	assert.Equal(t, "UTC", profile.Timezone)
}

func TestUpdateProfileValidation(t *testing.T) {
	user := transfer.CurrentUser{UserID: uuid.New()}
	repo := newFakeProfileRepository(&models.Profile{ID: user.UserID})
	svc := NewProfileService(repo)

	_, err := svc.UpdateProfile(context.Background(), user, &transfer.ProfileUpdate{})
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = svc.UpdateProfile(context.Background(), user, &transfer.ProfileUpdate{Timezone: transfer.Of(strings.Repeat("z", 51))})
	assert.True(t, errors.Is(err, ErrValidation))

	assert.Zero(t, repo.updateCalls)
}

func TestUpdateMissingProfileIsNotFound(t *testing.T) {
	svc := NewProfileService(newFakeProfileRepository())

	_, err := svc.UpdateProfile(context.Background(), transfer.CurrentUser{UserID: uuid.New()}, &transfer.ProfileUpdate{FullName: transfer.Of("Ana")})
	assert.True(t, errors.Is(err, ErrNotFound))
}
