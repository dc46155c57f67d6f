package config

import (
	"os"
	"strconv"
)

type Storage struct {
	Endpoint       string
	Region         string
	AccessKey      string
	SecretKey      string
	PublicURL      string
	MediaBucket    string
	PreviewsBucket string
}

type AI struct {
	OpenAIKey    string
	ImageModel   string
	TextProvider string
	TextModel    string
	AnthropicKey string
}

type Config struct {
	Port           string
	PostgresURI    string
	FrontendURL    string
	JWTSecret      string
	MaxUploadBytes int64
	Storage        Storage
	AI             AI
}

func LoadConfig() *Config {
	return &Config{
		Port:           getEnv("PORT", "8000"),
		PostgresURI:    getEnv("POSTGRES_URI", ""),
		FrontendURL:    getEnv("FRONTEND_URL", "http://localhost:5173"),
		JWTSecret:      getEnv("SUPABASE_JWT_SECRET", ""),
		MaxUploadBytes: getEnvInt64("MAX_UPLOAD_BYTES", 20*1024*1024),
		Storage: Storage{
			Endpoint:       getEnv("S3_ENDPOINT", ""),
			Region:         getEnv("S3_REGION", "auto"),
			AccessKey:      getEnv("S3_ACCESS_KEY", ""),
			SecretKey:      getEnv("S3_SECRET_KEY", ""),
			PublicURL:      getEnv("STORAGE_PUBLIC_URL", ""),
			MediaBucket:    getEnv("MEDIA_BUCKET", "content.flow.media"),
			PreviewsBucket: getEnv("PREVIEWS_BUCKET", "post.previews"),
		},
		AI: AI{
			OpenAIKey:    getEnv("OPENAI_API_KEY", ""),
			ImageModel:   getEnv("OPENAI_IMAGE_MODEL", "dall-e-3"),
			TextProvider: getEnv("TEXT_PROVIDER", "openai"),
			TextModel:    getEnv("TEXT_MODEL", ""),
			AnthropicKey: getEnv("ANTHROPIC_API_KEY", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}
