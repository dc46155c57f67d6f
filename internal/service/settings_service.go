package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/contentflow/contentflow-api/internal/models"
	"github.com/contentflow/contentflow-api/internal/repository"
	"github.com/contentflow/contentflow-api/internal/transfer"
	"github.com/lib/pq"
)

const maxHashtagsCount = 15

var (
	hashtagStrategies = map[string]struct{}{"branded": {}, "trending": {}, "niche": {}, "mixed": {}}
	emojiStyles       = map[string]struct{}{"subtle": {}, "moderate": {}, "expressive": {}}
)

type SettingsService interface {
	GetAISettings(ctx context.Context, user transfer.CurrentUser) (*models.OrganizationSettings, error)
	UpdateAISettings(ctx context.Context, user transfer.CurrentUser, su *transfer.AISettingsUpdate) (*models.OrganizationSettings, error)
	GetContentPreferences(ctx context.Context, user transfer.CurrentUser) (*models.ContentPreferences, error)
	UpdateContentPreferences(ctx context.Context, user transfer.CurrentUser, cu *transfer.ContentPreferencesUpdate) (*models.ContentPreferences, error)
}

type settingsService struct {
	sr repository.SettingsRepository
}

func NewSettingsService(sr repository.SettingsRepository) SettingsService {
	return &settingsService{
		sr: sr,
	}
}

func (s *settingsService) GetAISettings(ctx context.Context, user transfer.CurrentUser) (*models.OrganizationSettings, error) {
	if err := requireOrganization(user); err != nil {
		return nil, err
	}

	settings, isExist, err := s.sr.GetByOrganizationID(ctx, user.OrganizationID)
	if err != nil {
		return nil, databaseError("failed to load organization settings", err)
	}
	if !isExist {
		return nil, notFoundError("AI settings have not been configured for this organization")
	}

	return settings, nil
}

func (s *settingsService) UpdateAISettings(ctx context.Context, user transfer.CurrentUser, su *transfer.AISettingsUpdate) (*models.OrganizationSettings, error) {
	if err := requireOrganization(user); err != nil {
		return nil, err
	}
	if su == nil {
		return nil, validationError("settings data is required")
	}

	settings := &models.OrganizationSettings{
		OrganizationID:        user.OrganizationID,
		AIBrandName:           trimmed(su.AIBrandName),
		AIBrandIndustry:       trimmed(su.AIBrandIndustry),
		AIBrandDescription:    trimmed(su.AIBrandDescription),
		AITargetAudience:      trimmed(su.AITargetAudience),
		AIBrandTone:           trimmed(su.AIBrandTone),
		AIBrandPersonality:    pq.StringArray(cleanList(su.AIBrandPersonality)),
		AIBrandKeywords:       pq.StringArray(cleanList(su.AIBrandKeywords)),
		AIProhibitedWords:     pq.StringArray(cleanList(su.AIProhibitedWords)),
		AIEmojiUsage:          trimmed(su.AIEmojiUsage),
		AILanguage:            trimmed(su.AILanguage),
		AIPostLength:          trimmed(su.AIPostLength),
		AICallToActions:       pq.StringArray(cleanList(su.AICallToActions)),
		AIHashtagStrategy:     trimmed(su.AIHashtagStrategy),
		AIExamplePosts:        pq.StringArray(cleanList(su.AIExamplePosts)),
		AIGenerationFrequency: trimmed(su.AIGenerationFrequency),
	}

	saved, err := s.sr.UpsertAISettings(ctx, settings)
	if err != nil {
		return nil, databaseError("failed to save organization settings", err)
	}
	return saved, nil
}

func (s *settingsService) GetContentPreferences(ctx context.Context, user transfer.CurrentUser) (*models.ContentPreferences, error) {
	if err := requireOrganization(user); err != nil {
		return nil, err
	}

	settings, isExist, err := s.sr.GetByOrganizationID(ctx, user.OrganizationID)
	if err != nil {
		return nil, databaseError("failed to load content preferences", err)
	}
	if !isExist {
		prefs := models.DefaultContentPreferences()
		return &prefs, nil
	}

	return &settings.ContentPreferences, nil
}

func (s *settingsService) UpdateContentPreferences(ctx context.Context, user transfer.CurrentUser, cu *transfer.ContentPreferencesUpdate) (*models.ContentPreferences, error) {
	current, err := s.GetContentPreferences(ctx, user)
	if err != nil {
		return nil, err
	}
	if cu == nil {
		return nil, validationError("preferences data is required")
	}

	prefs := *current
	if cu.Hashtags != nil {
		if cu.Hashtags.Count < 0 || cu.Hashtags.Count > maxHashtagsCount {
			return nil, validationError("hashtags count must be between 0 and %d", maxHashtagsCount)
		}
		if _, ok := hashtagStrategies[cu.Hashtags.Strategy]; !ok {
			return nil, newError(ErrInvalidEnum, fmt.Sprintf("invalid hashtags strategy %q", cu.Hashtags.Strategy), nil)
		}
		prefs.HashtagsEnabled = cu.Hashtags.Enabled
		prefs.HashtagsCount = cu.Hashtags.Count
		prefs.HashtagsStrategy = cu.Hashtags.Strategy
	}
	if cu.Emojis != nil {
		if _, ok := emojiStyles[cu.Emojis.Style]; !ok {
			return nil, newError(ErrInvalidEnum, fmt.Sprintf("invalid emojis style %q", cu.Emojis.Style), nil)
		}
		prefs.EmojisEnabled = cu.Emojis.Enabled
		prefs.EmojisStyle = cu.Emojis.Style
	}

	saved, err := s.sr.UpsertContentPreferences(ctx, user.OrganizationID, prefs)
	if err != nil {
		return nil, databaseError("failed to save content preferences", err)
	}
	return &saved.ContentPreferences, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if v := strings.TrimSpace(item); v != "" {
			out = append(out, v)
		}
	}
	return out
}
