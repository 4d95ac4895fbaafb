package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/madlib-comics/internal/generation"
	"github.com/phrazzld/madlib-comics/internal/moderation"
	"github.com/spf13/viper"
)

// Environment variables consulted for the model credential, in lookup order.
const (
	// APIKeyOverrideEnv takes precedence when set to a real value.
	APIKeyOverrideEnv = "GEMINI_API_KEY"
	// APIKeyEnv is the primary credential variable.
	APIKeyEnv = "API_KEY"
	// ConfigFileEnv points at an explicit config file.
	ConfigFileEnv = "COMIC_CONFIG_FILE"
)

const envPrefix = "COMIC"

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	return load(os.LookupEnv)
}

func load(lookup func(string) (string, bool)) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path, ok := lookup(ConfigFileEnv); ok && path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.LLM.APIKey = ResolveAPIKey(lookup, cfg.LLM.APIKey)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("database.url", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.text_model", "gemini-3-flash-preview")
	v.SetDefault("llm.image_model", "gemini-2.5-flash-image")
	v.SetDefault("llm.temperature", 0.9)
	v.SetDefault("llm.reader", generation.DefaultReader)
	v.SetDefault("generation.max_retries", 3)
	v.SetDefault("generation.initial_delay", "2s")
	v.SetDefault("generation.image_interval", "1500ms")
	v.SetDefault("generation.denylist", moderation.DefaultDenylist)
	v.SetDefault("runner.queue_size", 16)
	v.SetDefault("runner.job_timeout", "10m")
	v.SetDefault("limits.submit_rps", 0.2)
	v.SetDefault("limits.submit_burst", 3)
}

// ResolveAPIKey picks the model credential. The override variable wins when
// it holds a real value; otherwise API_KEY is used, and finally the value
// from the config file or COMIC_LLM_API_KEY. Quotes and surrounding
// whitespace are removed.
func ResolveAPIKey(lookup func(string) (string, bool), configured string) string {
	for _, name := range []string{APIKeyOverrideEnv, APIKeyEnv} {
		raw, ok := lookup(name)
		if !ok {
			continue
		}
		if key := generation.CleanAPIKey(raw); !generation.IsPlaceholderAPIKey(key) {
			return key
		}
	}
	return generation.CleanAPIKey(configured)
}
