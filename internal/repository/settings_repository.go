package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/contentflow/contentflow-api/internal/models"
	"github.com/google/uuid"
)

const settingsColumns = `id, organization_id, ai_brand_name, ai_brand_industry, ai_brand_description,
	ai_target_audience, ai_brand_tone, ai_brand_personality_tags, ai_brand_keywords, ai_prohibited_words,
	ai_emoji_usage, ai_language, ai_post_length_preference, ai_call_to_actions, ai_hashtag_strategy,
	ai_example_posts, ai_generation_frequency, hashtags_enabled, hashtags_count, hashtags_strategy,
	emojis_enabled, emojis_style, created_at, updated_at`

type SettingsRepository interface {
	GetByOrganizationID(ctx context.Context, orgID uuid.UUID) (*models.OrganizationSettings, bool, error)
	UpsertAISettings(ctx context.Context, s *models.OrganizationSettings) (*models.OrganizationSettings, error)
	UpsertContentPreferences(ctx context.Context, orgID uuid.UUID, p models.ContentPreferences) (*models.OrganizationSettings, error)
}

type settingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func scanSettings(row rowScanner) (*models.OrganizationSettings, error) {
	var s models.OrganizationSettings
	p := &s.ContentPreferences
	err := row.Scan(&s.ID, &s.OrganizationID, &s.AIBrandName, &s.AIBrandIndustry, &s.AIBrandDescription,
		&s.AITargetAudience, &s.AIBrandTone, &s.AIBrandPersonality, &s.AIBrandKeywords, &s.AIProhibitedWords,
		&s.AIEmojiUsage, &s.AILanguage, &s.AIPostLength, &s.AICallToActions, &s.AIHashtagStrategy,
		&s.AIExamplePosts, &s.AIGenerationFrequency, &p.HashtagsEnabled, &p.HashtagsCount, &p.HashtagsStrategy,
		&p.EmojisEnabled, &p.EmojisStyle, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *settingsRepository) GetByOrganizationID(ctx context.Context, orgID uuid.UUID) (*models.OrganizationSettings, bool, error) {
	query := `SELECT ` + settingsColumns + ` FROM organization_settings WHERE organization_id = $1`

	settings, err := scanSettings(r.db.QueryRowContext(ctx, query, orgID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		slog.Error(err.Error())
		return nil, false, err
	}

	return settings, true, nil
}

func (r *settingsRepository) UpsertAISettings(ctx context.Context, s *models.OrganizationSettings) (*models.OrganizationSettings, error) {
	query := `
		INSERT INTO organization_settings (
			organization_id, ai_brand_name, ai_brand_industry, ai_brand_description, ai_target_audience,
			ai_brand_tone, ai_brand_personality_tags, ai_brand_keywords, ai_prohibited_words, ai_emoji_usage,
			ai_language, ai_post_length_preference, ai_call_to_actions, ai_hashtag_strategy, ai_example_posts,
			ai_generation_frequency)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (organization_id) DO UPDATE SET
			ai_brand_name = EXCLUDED.ai_brand_name,
			ai_brand_industry = EXCLUDED.ai_brand_industry,
			ai_brand_description = EXCLUDED.ai_brand_description,
			ai_target_audience = EXCLUDED.ai_target_audience,
			ai_brand_tone = EXCLUDED.ai_brand_tone,
			ai_brand_personality_tags = EXCLUDED.ai_brand_personality_tags,
			ai_brand_keywords = EXCLUDED.ai_brand_keywords,
			ai_prohibited_words = EXCLUDED.ai_prohibited_words,
			ai_emoji_usage = EXCLUDED.ai_emoji_usage,
			ai_language = EXCLUDED.ai_language,
			ai_post_length_preference = EXCLUDED.ai_post_length_preference,
			ai_call_to_actions = EXCLUDED.ai_call_to_actions,
			ai_hashtag_strategy = EXCLUDED.ai_hashtag_strategy,
			ai_example_posts = EXCLUDED.ai_example_posts,
			ai_generation_frequency = EXCLUDED.ai_generation_frequency,
			updated_at = now()
		RETURNING ` + settingsColumns

	row := r.db.QueryRowContext(ctx, query, s.OrganizationID, s.AIBrandName, s.AIBrandIndustry,
		s.AIBrandDescription, s.AITargetAudience, s.AIBrandTone, s.AIBrandPersonality, s.AIBrandKeywords,
		s.AIProhibitedWords, s.AIEmojiUsage, s.AILanguage, s.AIPostLength, s.AICallToActions,
		s.AIHashtagStrategy, s.AIExamplePosts, s.AIGenerationFrequency)

	saved, err := scanSettings(row)
	if err != nil {
		slog.Error(err.Error())
		return nil, err
	}

	return saved, nil
}

func (r *settingsRepository) UpsertContentPreferences(ctx context.Context, orgID uuid.UUID, p models.ContentPreferences) (*models.OrganizationSettings, error) {
	query := `
		INSERT INTO organization_settings (organization_id, hashtags_enabled, hashtags_count, hashtags_strategy, emojis_enabled, emojis_style)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (organization_id) DO UPDATE SET
			hashtags_enabled = EXCLUDED.hashtags_enabled,
			hashtags_count = EXCLUDED.hashtags_count,
			hashtags_strategy = EXCLUDED.hashtags_strategy,
			emojis_enabled = EXCLUDED.emojis_enabled,
			emojis_style = EXCLUDED.emojis_style,
			updated_at = now()
		RETURNING ` + settingsColumns

	row := r.db.QueryRowContext(ctx, query, orgID, p.HashtagsEnabled, p.HashtagsCount, p.HashtagsStrategy,
		p.EmojisEnabled, p.EmojisStyle)

	saved, err := scanSettings(row)
	if err != nil {
		slog.Error(err.Error())
		return nil, err
	}

	return saved, nil
}
