// Package config loads process settings from the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"cashflow/internal/core"
	"cashflow/internal/state"
)

type Config struct {
	// HTTP Server
	Port string `env:"PORT" env-default:"8081" yaml:"port"`

	// Backend selection
	DataBackend  string `env:"DATA_BACKEND" env-default:"sqlite" yaml:"data_backend"`
	SQLiteDBPath string `env:"SQLITE_DB_PATH" env-default:"./data/cashflow.db" yaml:"sqlite_db_path"`
	// MemorySeedFile optionally preloads the memory backend from a JSON dump.
	MemorySeedFile string `env:"MEMORY_SEED_FILE" yaml:"memory_seed_file"`

	// AMQP; an empty URL disables asynchronous export
	AMQPURL      string `env:"AMQP_URL" yaml:"amqp_url"`
	AMQPExchange string `env:"AMQP_EXCHANGE" env-default:"cashflow" yaml:"amqp_exchange"`
	AMQPQueue    string `env:"AMQP_QUEUE" env-default:"export_reports" yaml:"amqp_queue"`

	// Export worker
	ExportDir       string        `env:"EXPORT_DIR" env-default:"./data/exports" yaml:"export_dir"`
	ExportRetention time.Duration `env:"EXPORT_RETENTION" env-default:"168h" yaml:"export_retention"`

	// Defaults for preferences never saved
	DefaultTheme    string `env:"DEFAULT_THEME" env-default:"light" yaml:"default_theme"`
	DefaultCurrency string `env:"DEFAULT_CURRENCY" env-default:"SOS" yaml:"default_currency"`
	DefaultLanguage string `env:"DEFAULT_LANGUAGE" env-default:"en" yaml:"default_language"`

	// AuthDelay simulates latency of login, signup and import.
	AuthDelay time.Duration `env:"AUTH_DELAY" env-default:"0s" yaml:"auth_delay"`

	LogLevel string `env:"LOG_LEVEL" env-default:"info" yaml:"log_level"`
	LogJSON  bool   `env:"LOG_JSON" env-default:"false" yaml:"log_json"`

	// Google Sheets import (optional)
	GoogleServiceAccountJSON string `env:"GOOGLE_SERVICE_ACCOUNT_JSON" yaml:"google_service_account_json"`
	GoogleServiceAccountFile string `env:"GOOGLE_SERVICE_ACCOUNT_FILE" yaml:"google_service_account_file"`

	// APIKey for AI summaries; accepted and passed through only.
	APIKey string `env:"API_KEY" yaml:"api_key"`

	RateLimitPerMinute int `env:"RATE_LIMIT_PER_MINUTE" env-default:"60" yaml:"rate_limit_per_minute"`
}

// Load reads configuration from the environment. When CONFIG_PATH names a
// YAML file it is read first and the environment overrides it.
func Load() (*Config, error) {
	var cfg Config
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		return &cfg, nil
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	return &cfg, nil
}

// Backends lists the accepted DATA_BACKEND values.
var Backends = []string{"memory", "sqlite"}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(Backends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, Backends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.ExportDir == "" {
		errors = append(errors, "export directory cannot be empty")
	}
	if c.ExportRetention < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid export retention %v: must be at least 1 minute", c.ExportRetention))
	}

	if !core.Theme(c.DefaultTheme).IsValid() {
		errors = append(errors, fmt.Sprintf("invalid default theme '%s': must be light or dark", c.DefaultTheme))
	}
	if !core.Currency(c.DefaultCurrency).IsValid() {
		errors = append(errors, fmt.Sprintf("invalid default currency '%s'", c.DefaultCurrency))
	}
	if !core.Language(c.DefaultLanguage).IsValid() {
		errors = append(errors, fmt.Sprintf("invalid default language '%s': must be en or ar", c.DefaultLanguage))
	}

	if c.AuthDelay < 0 || c.AuthDelay > 30*time.Second {
		errors = append(errors, fmt.Sprintf("invalid auth delay %v: must be between 0 and 30 seconds", c.AuthDelay))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}

	if c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimitPerMinute))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ExportEnabled reports whether a broker is configured for asynchronous export.
func (c *Config) ExportEnabled() bool { return c.AMQPURL != "" }

// SheetsEnabled reports whether Google Sheets credentials are configured.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleServiceAccountJSON != "" || c.GoogleServiceAccountFile != ""
}

// Preferences returns the fallback theme, currency and language.
func (c *Config) Preferences() state.Defaults {
	return state.Defaults{
		Theme:    core.Theme(c.DefaultTheme),
		Currency: core.Currency(c.DefaultCurrency),
		Language: core.Language(c.DefaultLanguage),
	}
}
