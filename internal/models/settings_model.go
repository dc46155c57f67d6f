package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type OrganizationSettings struct {
	ID                    uuid.UUID      `db:"id" json:"id"`
	OrganizationID        uuid.UUID      `db:"organization_id" json:"organization_id"`
	AIBrandName           *string        `db:"ai_brand_name" json:"ai_brand_name"`
	AIBrandIndustry       *string        `db:"ai_brand_industry" json:"ai_brand_industry"`
	AIBrandDescription    *string        `db:"ai_brand_description" json:"ai_brand_description"`
	AITargetAudience      *string        `db:"ai_target_audience" json:"ai_target_audience"`
	AIBrandTone           *string        `db:"ai_brand_tone" json:"ai_brand_tone"`
	AIBrandPersonality    pq.StringArray `db:"ai_brand_personality_tags" json:"ai_brand_personality_tags"`
	AIBrandKeywords       pq.StringArray `db:"ai_brand_keywords" json:"ai_brand_keywords"`
	AIProhibitedWords     pq.StringArray `db:"ai_prohibited_words" json:"ai_prohibited_words"`
	AIEmojiUsage          *string        `db:"ai_emoji_usage" json:"ai_emoji_usage"`
	AILanguage            *string        `db:"ai_language" json:"ai_language"`
	AIPostLength          *string        `db:"ai_post_length_preference" json:"ai_post_length_preference"`
	AICallToActions       pq.StringArray `db:"ai_call_to_actions" json:"ai_call_to_actions"`
	AIHashtagStrategy     *string        `db:"ai_hashtag_strategy" json:"ai_hashtag_strategy"`
	AIExamplePosts        pq.StringArray `db:"ai_example_posts" json:"ai_example_posts"`
	AIGenerationFrequency *string        `db:"ai_generation_frequency" json:"ai_generation_frequency"`
	ContentPreferences    ContentPreferences `db:"-" json:"content_preferences"`
	CreatedAt             time.Time `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time `db:"updated_at" json:"updated_at"`
}

type ContentPreferences struct {
	HashtagsEnabled  bool   `db:"hashtags_enabled" json:"hashtags_enabled"`
	HashtagsCount    int    `db:"hashtags_count" json:"hashtags_count"`
	HashtagsStrategy string `db:"hashtags_strategy" json:"hashtags_strategy"` // branded, trending, niche, mixed
	EmojisEnabled    bool   `db:"emojis_enabled" json:"emojis_enabled"`
	EmojisStyle      string `db:"emojis_style" json:"emojis_style"` // subtle, moderate, expressive
}

func DefaultContentPreferences() ContentPreferences {
	return ContentPreferences{
		HashtagsEnabled:  true,
		HashtagsCount:    3,
		HashtagsStrategy: "mixed",
		EmojisEnabled:    true,
		EmojisStyle:      "subtle",
	}
}
