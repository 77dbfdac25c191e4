package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	// HTTP Server
	Port          string        `koanf:"PORT"`
	CookieSecure  bool          `koanf:"COOKIE_SECURE"`
	RateLimitRPM  int           `koanf:"RATE_LIMIT_RPM"`
	LogLevel      string        `koanf:"LOG_LEVEL"`
	LogFormat     string        `koanf:"LOG_FORMAT"`
	ShutdownGrace time.Duration `koanf:"SHUTDOWN_TIMEOUT"`

	// Athena REST API
	AthenaAPIURL     string        `koanf:"ATHENA_API_URL"`
	AthenaAPITimeout time.Duration `koanf:"ATHENA_API_TIMEOUT"`

	// Sessions
	SQLiteDBPath string        `koanf:"SQLITE_DB_PATH"`
	SessionTTL   time.Duration `koanf:"SESSION_TTL"`

	// AMQP audit events; empty URL disables publishing
	AMQPURL      string `koanf:"AMQP_URL"`
	AMQPExchange string `koanf:"AMQP_EXCHANGE"`
	AMQPQueue    string `koanf:"AMQP_QUEUE"`

	// Google Sheets audit log
	GoogleSpreadsheetID      string `koanf:"GOOGLE_SPREADSHEET_ID"`
	GoogleAuditSheetName     string `koanf:"GOOGLE_AUDIT_SHEET_NAME"`
	GoogleServiceAccountJSON string `koanf:"GOOGLE_SERVICE_ACCOUNT_JSON"`
	GoogleServiceAccountFile string `koanf:"GOOGLE_SERVICE_ACCOUNT_FILE"`
}

// Defaults returns the configuration used when no environment is set.
func Defaults() Config {
	return Config{
		Port:                 "8081",
		RateLimitRPM:         120,
		LogLevel:             "INFO",
		LogFormat:            "text",
		ShutdownGrace:        10 * time.Second,
		AthenaAPIURL:         "http://localhost:8000/api",
		SQLiteDBPath:         "./data/athena.db",
		SessionTTL:           12 * time.Hour,
		AMQPExchange:         "athena",
		AMQPQueue:            "category_audit",
		GoogleAuditSheetName: "Audit",
	}
}

// Load reads the configuration from the process environment on top of
// Defaults. Empty variables keep the default value.
func Load() (*Config, error) {
	k := koanf.New(".")
	skipEmpty := func(key, value string) (string, any) {
		if strings.TrimSpace(value) == "" {
			return "", nil
		}
		return key, value
	}
	if err := k.Load(env.ProviderWithValue("", ".", skipEmpty), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := Defaults()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf", FlatPaths: true}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.fillDefaults(Defaults())
	return &cfg, nil
}

func (c *Config) fillDefaults(d Config) {
	setIfEmpty(&c.Port, d.Port)
	setIfEmpty(&c.LogLevel, d.LogLevel)
	setIfEmpty(&c.LogFormat, d.LogFormat)
	setIfEmpty(&c.AthenaAPIURL, d.AthenaAPIURL)
	setIfEmpty(&c.SQLiteDBPath, d.SQLiteDBPath)
	setIfEmpty(&c.AMQPExchange, d.AMQPExchange)
	setIfEmpty(&c.AMQPQueue, d.AMQPQueue)
	setIfEmpty(&c.GoogleAuditSheetName, d.GoogleAuditSheetName)
	if c.SessionTTL == 0 {
		c.SessionTTL = d.SessionTTL
	}
	if c.ShutdownGrace == 0 {
		c.ShutdownGrace = d.ShutdownGrace
	}
	if c.RateLimitRPM == 0 {
		c.RateLimitRPM = d.RateLimitRPM
	}
}

func setIfEmpty(dst *string, def string) {
	if strings.TrimSpace(*dst) == "" {
		*dst = def
	}
}

// AuditEnabled reports whether category events should be published.
func (c *Config) AuditEnabled() bool {
	return c.AMQPURL != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	// Validate API base URL
	if parsedURL, err := url.Parse(c.AthenaAPIURL); err != nil || c.AthenaAPIURL == "" {
		errors = append(errors, fmt.Sprintf("invalid Athena API URL '%s'", c.AthenaAPIURL))
	} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid Athena API URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
	}

	if c.AthenaAPITimeout < 0 {
		errors = append(errors, fmt.Sprintf("invalid Athena API timeout %v: must not be negative", c.AthenaAPITimeout))
	}

	// Validate session store
	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else if c.SQLiteDBPath != ":memory:" {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	} else if c.SessionTTL > 30*24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at most 30 days", c.SessionTTL))
	}

	if c.RateLimitRPM < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitRPM))
	}

	// Validate AMQP URL if provided
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

	// Google Sheets audit log needs credentials when a spreadsheet is set
	if c.GoogleSpreadsheetID != "" {
		if c.GoogleAuditSheetName == "" {
			errors = append(errors, "Google audit sheet name is required when GOOGLE_SPREADSHEET_ID is set")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for the audit sheet")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}
