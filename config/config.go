package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env         string `env:"ENV" envDefault:"local" validate:"oneof=local staging production"`
	Port        int    `env:"PORT" envDefault:"8080" validate:"min=1,max=65535"`
	MetricsPort int    `env:"METRICS_PORT" envDefault:"9090" validate:"min=1,max=65535"`

	DatabaseURL string `env:"DATABASE_URL,required"`
	JWTSecret   string `env:"JWT_SECRET,required" validate:"min=32"`

	ResendAPIKey string `env:"RESEND_API_KEY"`
	ResendFrom   string `env:"RESEND_FROM" envDefault:"Hireloop <intros@hireloop.dev>"`

	// RespondBaseURL is the public origin used to build candidate
	// response links, e.g. https://app.hireloop.dev.
	RespondBaseURL string `env:"RESPOND_BASE_URL" envDefault:"http://localhost:8080"`
	AdminEmail     string `env:"ADMIN_EMAIL" envDefault:"team@hireloop.dev" validate:"email"`

	TokenTTLHours         int    `env:"TOKEN_TTL_HOURS" envDefault:"168" validate:"min=1"`
	ProtectionWindowHours int    `env:"PROTECTION_WINDOW_HOURS" envDefault:"720" validate:"min=1"`
	ReaperCronSpec        string `env:"REAPER_CRON_SPEC" envDefault:"@every 5m"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if cfg.Env != "local" && cfg.ResendAPIKey == "" {
		return nil, fmt.Errorf("RESEND_API_KEY is required when ENV=%s", cfg.Env)
	}

	return cfg, nil
}

func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
