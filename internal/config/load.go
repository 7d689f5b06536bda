package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every configuration environment variable.
const EnvPrefix = "RECIPEGENIUS"

// Load reads configuration from the YAML file at path (skipped when empty)
// and the environment. Environment variables take precedence over the file.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The API key also honours the variable names used by the SDKs.
	bindEnvs := []struct {
		key     string
		envVars []string
	}{
		{"llm.gemini_api_key", []string{EnvPrefix + "_LLM_GEMINI_API_KEY", "GEMINI_API_KEY", "API_KEY"}},
		{"storage.s3_bucket", []string{EnvPrefix + "_STORAGE_S3_BUCKET", "S3_BUCKET_NAME"}},
		{"storage.s3_region", []string{EnvPrefix + "_STORAGE_S3_REGION", "AWS_REGION"}},
		{"storage.public_base_url", []string{EnvPrefix + "_STORAGE_PUBLIC_BASE_URL"}},
		{"rate_limit.redis_url", []string{EnvPrefix + "_RATE_LIMIT_REDIS_URL"}},
	}
	for _, env := range bindEnvs {
		if err := v.BindEnv(append([]string{env.key}, env.envVars...)...); err != nil {
			return nil, fmt.Errorf("error binding environment variable for %s: %w", env.key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct constraints and cross-field rules.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if cfg.Storage.PublicBaseURL != "" && cfg.Storage.S3Bucket == "" {
		return errors.New("configuration validation failed: storage.public_base_url requires storage.s3_bucket")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("llm.gemini_api_key", "")
	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.text_model", "")
	v.SetDefault("llm.image_model", "")
	v.SetDefault("llm.grounding", true)
	v.SetDefault("llm.timeout", "45s")
	v.SetDefault("llm.local_url", "")
	v.SetDefault("llm.local_max_tokens", 4096)

	v.SetDefault("generation.session_ttl", "30m")

	v.SetDefault("images.max_upload_bytes", 10<<20)
	v.SetDefault("images.max_width", 1024)

	v.SetDefault("storage.s3_bucket", "")
	v.SetDefault("storage.s3_region", "")
	v.SetDefault("storage.public_base_url", "")

	v.SetDefault("rate_limit.requests_per_minute", 10)
	v.SetDefault("rate_limit.redis_url", "")
}
