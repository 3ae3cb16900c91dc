package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the service configuration.
type Config struct {
	HTTPAddr        string        `yaml:"http_addr"`
	DatabaseURL     string        `yaml:"database_url"`
	JWTSecret       string        `yaml:"jwt_secret"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	Log             LogConfig     `yaml:"log"`
	Alerts          AlertConfig   `yaml:"alerts"`
	Digest          DigestConfig  `yaml:"digest"`
	Dashboard       DashConfig    `yaml:"dashboard"`
}

// LogConfig controls logger construction.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AlertConfig controls breach notifications.
type AlertConfig struct {
	WebhookURL     string        `yaml:"webhook_url"`
	Template       string        `yaml:"template"`
	DedupeWindow   time.Duration `yaml:"dedupe_window"`
	NotifyTimeout  time.Duration `yaml:"notify_timeout"`
	TelegramToken  string        `yaml:"telegram_token"`
	TelegramChatID int64         `yaml:"telegram_chat_id"`
}

// DigestConfig controls the scheduled summary.
type DigestConfig struct {
	Schedule string        `yaml:"schedule"`
	Lookback time.Duration `yaml:"lookback"`
}

// DashConfig controls dashboard defaults.
type DashConfig struct {
	Window time.Duration `yaml:"window"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		HTTPAddr:        ":8080",
		ShutdownTimeout: 10 * time.Second,
		Log:             LogConfig{Level: "info", Format: "json"},
		Alerts: AlertConfig{
			DedupeWindow:  10 * time.Minute,
			NotifyTimeout: 5 * time.Second,
		},
		Digest:    DigestConfig{Lookback: 24 * time.Hour},
		Dashboard: DashConfig{Window: 30 * 24 * time.Hour},
	}
}

// Load reads defaults, then the optional YAML file at path, then environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("REFINERY_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks settings required to serve.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("config: DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		return errors.New("config: AUTH_JWT_SECRET is required")
	}
	if c.HTTPAddr == "" {
		return errors.New("config: http_addr is required")
	}
	if c.Alerts.TelegramToken != "" && c.Alerts.TelegramChatID == 0 {
		return errors.New("config: TELEGRAM_CHAT_ID is required with a telegram token")
	}
	return nil
}

func applyEnv(cfg *Config) error {
	var env envReader
	cfg.HTTPAddr = getenvDefault("HTTP_ADDR", cfg.HTTPAddr)
	cfg.DatabaseURL = getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", cfg.DatabaseURL))
	cfg.JWTSecret = getenvDefault("AUTH_JWT_SECRET", cfg.JWTSecret)
	cfg.ShutdownTimeout = env.duration("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	cfg.Log.Level = getenvDefault("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getenvDefault("LOG_FORMAT", cfg.Log.Format)
	cfg.Alerts.WebhookURL = getenvDefault("ALERT_WEBHOOK_URL", cfg.Alerts.WebhookURL)
	cfg.Alerts.Template = getenvDefault("ALERT_NOTIFY_TEMPLATE", cfg.Alerts.Template)
	cfg.Alerts.DedupeWindow = env.duration("ALERT_DEDUPE_WINDOW", cfg.Alerts.DedupeWindow)
	cfg.Alerts.NotifyTimeout = env.duration("ALERT_NOTIFY_TIMEOUT", cfg.Alerts.NotifyTimeout)
	cfg.Alerts.TelegramToken = getenvDefault("TELEGRAM_BOT_TOKEN", cfg.Alerts.TelegramToken)
	cfg.Alerts.TelegramChatID = env.int64("TELEGRAM_CHAT_ID", cfg.Alerts.TelegramChatID)
	cfg.Digest.Schedule = getenvDefault("DIGEST_SCHEDULE", cfg.Digest.Schedule)
	cfg.Digest.Lookback = env.duration("DIGEST_LOOKBACK", cfg.Digest.Lookback)
	cfg.Dashboard.Window = env.duration("DASHBOARD_WINDOW", cfg.Dashboard.Window)
	return errors.Join(env.errs...)
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

// envReader parses typed variables and collects every malformed one.
type envReader struct {
	errs []error
}

func (e *envReader) int64(key string, fallback int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("config: %s=%q is not an integer", key, value))
		return fallback
	}
	return parsed
}

func (e *envReader) duration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed < 0 {
		e.errs = append(e.errs, fmt.Errorf("config: %s=%q is not a non-negative duration", key, value))
		return fallback
	}
	return parsed
}
