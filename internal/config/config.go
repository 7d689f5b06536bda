// Package config loads service configuration from an optional YAML file and
// RECIPEGENIUS_ environment variables.
package config

import "time"

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	LLM        LLMConfig        `mapstructure:"llm" validate:"required"`
	Generation GenerationConfig `mapstructure:"generation" validate:"required"`
	Images     ImagesConfig     `mapstructure:"images" validate:"required"`
	Storage    StorageConfig    `mapstructure:"storage"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port           int      `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel       string   `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	AllowedOrigins []string `mapstructure:"allowed_origins" validate:"required,min=1,dive,required"`
}

// LLMConfig selects and configures the generative providers.
type LLMConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key" validate:"required"`
	// Provider is the recipe text provider: gemini (structured JSON), search
	// (web-grounded markdown) or local (OpenAI-compatible server).
	Provider   string        `mapstructure:"provider" validate:"required,oneof=gemini search local"`
	TextModel  string        `mapstructure:"text_model"`
	ImageModel string        `mapstructure:"image_model"`
	Grounding  bool          `mapstructure:"grounding"`
	Timeout    time.Duration `mapstructure:"timeout" validate:"required,gt=0"`
	LocalURL   string        `mapstructure:"local_url" validate:"omitempty,url"`
	// LocalMaxTokens caps the local server's completion length.
	LocalMaxTokens int `mapstructure:"local_max_tokens" validate:"gte=0"`
}

// GenerationConfig contains session settings.
type GenerationConfig struct {
	SessionTTL time.Duration `mapstructure:"session_ttl" validate:"required,gt=0"`
}

// ImagesConfig bounds uploaded photos.
type ImagesConfig struct {
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes" validate:"required,gt=0"`
	MaxWidth       uint  `mapstructure:"max_width" validate:"required,gt=0"`
}

// StorageConfig enables S3 hosting of generated images when S3Bucket is set.
type StorageConfig struct {
	S3Bucket      string `mapstructure:"s3_bucket"`
	S3Region      string `mapstructure:"s3_region"`
	PublicBaseURL string `mapstructure:"public_base_url" validate:"omitempty,url"`
}

// RateLimitConfig limits generation requests per client. A zero rate
// disables limiting; RedisURL shares the counters across instances.
type RateLimitConfig struct {
	RequestsPerMinute int    `mapstructure:"requests_per_minute" validate:"gte=0"`
	RedisURL          string `mapstructure:"redis_url" validate:"omitempty,url"`
}
