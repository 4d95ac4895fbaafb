package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"     validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"`
	LLM        LLMConfig        `mapstructure:"llm"        validate:"required"`
	Generation GenerationConfig `mapstructure:"generation" validate:"required"`
	Runner     RunnerConfig     `mapstructure:"runner"     validate:"required"`
	Limits     LimitsConfig     `mapstructure:"limits"     validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains the optional story archive database. When URL is
// empty, jobs are kept in memory.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
}

// LLMConfig contains all LLM integration related settings.
type LLMConfig struct {
	// APIKey is validated when a generation call is made, not at load time,
	// so a server with a bad key still starts and reports the problem per request.
	APIKey      string  `mapstructure:"api_key"`
	TextModel   string  `mapstructure:"text_model"  validate:"required"`
	ImageModel  string  `mapstructure:"image_model" validate:"required"`
	Temperature float32 `mapstructure:"temperature" validate:"gte=0,lte=2"`
	// Reader is the child the comic is addressed to.
	Reader string `mapstructure:"reader" validate:"required"`
}

// GenerationConfig contains retry and pacing policy for remote calls and the
// moderation denylist.
type GenerationConfig struct {
	MaxRetries    int           `mapstructure:"max_retries"    validate:"gte=0,lte=10"`
	InitialDelay  time.Duration `mapstructure:"initial_delay"  validate:"gt=0"`
	ImageInterval time.Duration `mapstructure:"image_interval" validate:"gte=0"`
	Denylist      []string      `mapstructure:"denylist"`
}

// RunnerConfig contains background job settings.
type RunnerConfig struct {
	QueueSize int `mapstructure:"queue_size" validate:"gt=0"`
	// JobTimeout bounds a single pipeline run. Zero means no limit.
	JobTimeout time.Duration `mapstructure:"job_timeout" validate:"gte=0"`
}

// LimitsConfig bounds how fast clients may submit new stories.
type LimitsConfig struct {
	SubmitRPS   float64 `mapstructure:"submit_rps"   validate:"gt=0"`
	SubmitBurst int     `mapstructure:"submit_burst" validate:"gt=0"`
}
