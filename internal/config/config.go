package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Supported blob backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

type Config struct {
	// HTTP Server
	Port string

	// Storage
	DataBackend  string
	StateKey     string
	StateDir     string
	SQLiteDBPath string
	RedisURL     string

	// Reporting
	Currency        string
	IncomeThreshold decimal.Decimal

	// Invoice export
	GotenbergURL  string
	ExportTimeout time.Duration

	// Logging
	LogLevel  string
	LogFormat string

	// Terminal markdown style: auto, dark, light, notty or plain
	RenderStyle string
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8081"),

		DataBackend:  getEnv("DATA_BACKEND", BackendFile),
		StateKey:     getEnv("STATE_KEY", "gigFinData"),
		StateDir:     getEnv("STATE_DIR", "./data"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/gigfin.db"),
		RedisURL:     getEnv("REDIS_URL", "redis://localhost:6379/0"),

		Currency:        strings.ToUpper(getEnv("CURRENCY", "INR")),
		IncomeThreshold: getEnvDecimal("INCOME_THRESHOLD", decimal.NewFromInt(5000)),

		GotenbergURL:  getEnv("GOTENBERG_URL", ""),
		ExportTimeout: getEnvDuration("EXPORT_TIMEOUT", 30*time.Second),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		RenderStyle: getEnv("RENDER_STYLE", "auto"),
	}
}

// PDFEnabled reports whether invoices can be exported as PDF.
func (c *Config) PDFEnabled() bool {
	return c.GotenbergURL != ""
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

	// Validate data backend
	validBackends := []string{BackendFile, BackendSQLite, BackendRedis, BackendMemory}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if strings.TrimSpace(c.StateKey) == "" {
		errors = append(errors, "state key cannot be empty")
	} else if strings.ContainsAny(c.StateKey, `/\`) {
		errors = append(errors, fmt.Sprintf("invalid state key '%s': must not contain path separators", c.StateKey))
	}

	switch c.DataBackend {
	case BackendFile:
		if c.StateDir == "" {
			errors = append(errors, "state directory cannot be empty when using file backend")
		} else if msg := ensureDir(c.StateDir); msg != "" {
			errors = append(errors, msg)
		}
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if msg := ensureDir(dir); msg != "" {
				errors = append(errors, msg)
			}
		}
	case BackendRedis:
		if parsedURL, err := url.Parse(c.RedisURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid Redis URL '%s': %v", c.RedisURL, err))
		} else if parsedURL.Scheme != "redis" && parsedURL.Scheme != "rediss" {
			errors = append(errors, fmt.Sprintf("invalid Redis URL scheme '%s': must be 'redis' or 'rediss'", parsedURL.Scheme))
		}
	}

	if len(c.Currency) != 3 {
		errors = append(errors, fmt.Sprintf("invalid currency '%s': must be a 3-letter ISO code", c.Currency))
	}
	if c.IncomeThreshold.IsNegative() {
		errors = append(errors, fmt.Sprintf("invalid income threshold %s: must not be negative", c.IncomeThreshold))
	}

	// Validate Gotenberg URL if provided
	if c.GotenbergURL != "" {
		if parsedURL, err := url.Parse(c.GotenbergURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid Gotenberg URL '%s': %v", c.GotenbergURL, err))
		} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid Gotenberg URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
		}
	}
	if c.ExportTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid export timeout %v: must be at least 1 second", c.ExportTimeout))
	} else if c.ExportTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid export timeout %v: must be at most 5 minutes", c.ExportTimeout))
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json", "tint":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be one of text, json, tint", c.LogFormat))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ensureDir creates dir when missing and returns a message on failure.
func ensureDir(dir string) string {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Sprintf("cannot create directory '%s': %v", dir, err)
		}
	}
	return ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(strings.TrimSpace(value)); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
