package transfer

type AISettingsUpdate struct {
	AIBrandName           *string  `json:"ai_brand_name"`
	AIBrandIndustry       *string  `json:"ai_brand_industry"`
	AIBrandDescription    *string  `json:"ai_brand_description"`
	AITargetAudience      *string  `json:"ai_target_audience"`
	AIBrandTone           *string  `json:"ai_brand_tone"`
	AIBrandPersonality    []string `json:"ai_brand_personality_tags"`
	AIBrandKeywords       []string `json:"ai_brand_keywords"`
	AIProhibitedWords     []string `json:"ai_prohibited_words"`
	AIEmojiUsage          *string  `json:"ai_emoji_usage"`
	AILanguage            *string  `json:"ai_language"`
	AIPostLength          *string  `json:"ai_post_length_preference"`
	AICallToActions       []string `json:"ai_call_to_actions"`
	AIHashtagStrategy     *string  `json:"ai_hashtag_strategy"`
	AIExamplePosts        []string `json:"ai_example_posts"`
	AIGenerationFrequency *string  `json:"ai_generation_frequency"`
}

type ContentPreferencesUpdate struct {
	Hashtags *HashtagPreferences `json:"hashtags"`
	Emojis   *EmojiPreferences   `json:"emojis"`
}

type HashtagPreferences struct {
	Enabled  bool   `json:"enabled"`
	Count    int    `json:"count"`
	Strategy string `json:"strategy"`
}

type EmojiPreferences struct {
	Enabled bool   `json:"enabled"`
	Style   string `json:"style"`
}

type ContentIdeasRequest struct {
	Topic string `json:"topic"`
}

type ContentIdea struct {
	Hook            string `json:"hook"`
	Description     string `json:"description"`
	SuggestedFormat string `json:"suggested_format"`
}

type ContentIdeas struct {
	Ideas []ContentIdea `json:"ideas"`
}
