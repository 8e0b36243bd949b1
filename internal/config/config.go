package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// ErrMissingInput reports a required startup input that was not provided.
var ErrMissingInput = errors.New("missing required input")

// Providers lists the supported generation providers.
var Providers = []string{"azure", "openai", "anthropic", "gemini"}

type Config struct {
	Environment string     `env:"ENVIRONMENT" envDefault:"development"`
	LogLevelRaw string     `env:"LOG_LEVEL" envDefault:"info"`
	LogLevel    slog.Level `env:"-"`
	LogFile     string     `env:"ADVENTURE_LOG_FILE" envDefault:"adventure.log"`

	// Generation service
	Provider        string        `env:"ADVENTURE_PROVIDER" envDefault:"azure"`
	Endpoint        string        `env:"ADVENTURE_ENDPOINT"`
	Model           string        `env:"ADVENTURE_MODEL" envDefault:"gpt-4o"`
	APIKey          string        `env:"ADVENTURE_API_KEY"`
	MaxOutputTokens int           `env:"ADVENTURE_MAX_TOKENS" envDefault:"5000"`
	Temperature     float64       `env:"ADVENTURE_TEMPERATURE" envDefault:"0.7"`
	TopP            float64       `env:"ADVENTURE_TOP_P" envDefault:"0.95"`
	Timeout         time.Duration `env:"ADVENTURE_TIMEOUT" envDefault:"120s"`

	// Credential source, used when no literal key is given
	VaultName  string `env:"ADVENTURE_VAULT" envDefault:"aoaikeys"`
	SecretName string `env:"ADVENTURE_SECRET" envDefault:"AOAIKey"`

	// Persistence
	SaveDir  string `env:"ADVENTURE_SAVE_DIR" envDefault:".saves"`
	RedisURL string `env:"REDIS_URL"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.LogLevel = parseLogLevel(cfg.LogLevelRaw)
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	return cfg, nil
}

// SetLogLevel updates both the raw and parsed log level.
func (c *Config) SetLogLevel(level string) {
	c.LogLevelRaw = level
	c.LogLevel = parseLogLevel(level)
}

// Validate reports missing or unusable generation settings.
func (c *Config) Validate() error {
	switch c.Provider {
	case "azure":
		if c.Endpoint == "" {
			return fmt.Errorf("%w: an endpoint is required for the azure provider", ErrMissingInput)
		}
	case "openai", "anthropic", "gemini":
		if c.Model == "" {
			return fmt.Errorf("%w: a model is required for the %s provider", ErrMissingInput, c.Provider)
		}
	default:
		return fmt.Errorf("%w: unknown provider %q (supported: %s)", ErrMissingInput, c.Provider, strings.Join(Providers, ", "))
	}
	if c.APIKey == "" && (c.VaultName == "" || c.SecretName == "") {
		return fmt.Errorf("%w: an api key or a vault and secret name is required", ErrMissingInput)
	}
	if c.MaxOutputTokens <= 0 {
		return fmt.Errorf("%w: max tokens must be positive", ErrMissingInput)
	}
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
