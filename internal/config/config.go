// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for all databases (always absolute)
	Port     int
	LogLevel string
	DevMode  bool
	AppEnv   string // "production" enables real email delivery

	// Vendor credentials
	AlphaVantageAPIKey  string
	UnusualWhalesAPIKey string
	SendGridAPIKey      string

	// Outbound email addresses
	NewsletterFrom string
	AlertsFrom     string
	TriggerNotify  string // Recipient for stock-event notifications

	// Default tickers collected even without watchlist entries
	TrackedTickers []string

	Backup *BackupConfig
}

// BackupConfig holds settings for the nightly database backup upload.
type BackupConfig struct {
	Enabled        bool
	Bucket         string
	Endpoint       string // S3-compatible endpoint; empty for AWS
	Region         string
	AccessKeyID    string
	SecretKey      string
	RetentionDays  int // Remote backups older than this are pruned
}

// defaultTickers mirror the pipeline's standard tracked symbols.
var defaultTickers = []string{"AAPL", "MSFT", "AMZN", "GOOGL", "META", "NVDA", "TSLA", "AMD", "JPM", "BAC"}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("DATA_DIR", "./data")

	// Always resolve to absolute path
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	// Ensure directory exists
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:             absDataDir,
		Port:                getEnvAsInt("PORT", 8080),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		DevMode:             getEnvAsBool("DEV_MODE", false),
		AppEnv:              getEnv("APP_ENV", "development"),
		AlphaVantageAPIKey:  getEnv("ALPHA_VANTAGE_API_KEY", ""),
		UnusualWhalesAPIKey: getEnv("UNUSUAL_WHALES_API_KEY", ""),
		SendGridAPIKey:      getEnv("SENDGRID_API_KEY", ""),
		NewsletterFrom:      getEnv("NEWSLETTER_FROM", "newsletter@aihedgefund.app"),
		AlertsFrom:          getEnv("ALERTS_FROM", "alerts@aihedgefund.app"),
		TriggerNotify:       getEnv("TRIGGER_NOTIFY_EMAIL", "research@aihedgefund.app"),
		TrackedTickers:      getEnvAsList("TRACKED_TICKERS", defaultTickers),
		Backup:              loadBackupConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsProduction reports whether real email delivery is enabled.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	// Vendor keys are optional: the collectors log and skip when a key is
	// absent so the API surface still works against previously stored data.
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	return nil
}

func loadBackupConfig() *BackupConfig {
	cfg := &BackupConfig{
		Enabled:        getEnvAsBool("BACKUP_ENABLED", false),
		Bucket:         getEnv("BACKUP_S3_BUCKET", ""),
		Endpoint:       getEnv("BACKUP_S3_ENDPOINT", ""),
		Region:         getEnv("BACKUP_S3_REGION", "auto"),
		AccessKeyID:    getEnv("BACKUP_S3_ACCESS_KEY_ID", ""),
		SecretKey:      getEnv("BACKUP_S3_SECRET_ACCESS_KEY", ""),
		RetentionDays:  getEnvAsInt("BACKUP_RETENTION_DAYS", 7),
	}

	// Backups silently disable themselves without credentials.
	if cfg.Bucket == "" || cfg.AccessKeyID == "" || cfg.SecretKey == "" {
		cfg.Enabled = false
	}

	return cfg
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, strings.ToUpper(trimmed))
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
