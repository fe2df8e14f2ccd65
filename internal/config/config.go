package config

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int

	// Logging
	LogLevel string

	// Backend selection
	DataBackend  string
	SQLiteDBPath string
	RedisURL     string
	DatabaseURL  string

	// Storage facade
	StoragePrefix        string
	StorageCodec         string
	StorageEncryptionKey string
	CacheSize            int
	CacheTTL             time.Duration

	// AMQP (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Backup worker
	BackupDir         string
	BackupRetention   int
	BackupMinInterval time.Duration

	// Google Sheets report export (optional)
	GoogleSpreadsheetID    string
	GoogleReportsSheetName string

	// Scheduler
	ScheduleDaily   string
	ScheduleWeekly  string
	ScheduleMonthly string
	ScheduleYearly  string
}

var (
	validBackends = []string{"sqlite", "memory", "redis", "postgres"}
	validCodecs   = []string{"plain", "base64", "sealed"}
)

func Load() *Config {
	cfg := &Config{
		Port:               getEnv("PORT", "8081"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		DataBackend:  getEnv("DATA_BACKEND", "sqlite"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/budgetwise.db"),
		RedisURL:     getEnv("REDIS_URL", "redis://localhost:6379/0"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),

		StoragePrefix:        getEnv("STORAGE_PREFIX", "budgetwise_"),
		StorageCodec:         getEnv("STORAGE_CODEC", "plain"),
		StorageEncryptionKey: getEnv("STORAGE_ENCRYPTION_KEY", ""),
		CacheSize:            getEnvInt("CACHE_SIZE", 64),
		CacheTTL:             getEnvDuration("CACHE_TTL", 5*time.Minute),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "budgetwise"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "budgetwise_changes"),

		BackupDir:         getEnv("BACKUP_DIR", "./data/backups"),
		BackupRetention:   getEnvInt("BACKUP_RETENTION", 10),
		BackupMinInterval: getEnvDuration("BACKUP_MIN_INTERVAL", 5*time.Minute),

		GoogleSpreadsheetID:    getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleReportsSheetName: getEnv("GOOGLE_REPORTS_SHEET_NAME", "Reports"),

		ScheduleDaily:   getEnv("SCHEDULE_DAILY", "@daily"),
		ScheduleWeekly:  getEnv("SCHEDULE_WEEKLY", "@weekly"),
		ScheduleMonthly: getEnv("SCHEDULE_MONTHLY", "@monthly"),
		ScheduleYearly:  getEnv("SCHEDULE_YEARLY", "@yearly"),
	}

	return cfg
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

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of [debug info warn error]", c.LogLevel))
	}

	// Validate data backend
	if !contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			// Check if directory exists or can be created
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	case "redis":
		if parsedURL, err := url.Parse(c.RedisURL); err != nil || c.RedisURL == "" {
			errors = append(errors, fmt.Sprintf("invalid Redis URL '%s'", c.RedisURL))
		} else if parsedURL.Scheme != "redis" && parsedURL.Scheme != "rediss" {
			errors = append(errors, fmt.Sprintf("invalid Redis URL scheme '%s': must be 'redis' or 'rediss'", parsedURL.Scheme))
		}
	case "postgres":
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when using postgres backend")
		}
	}

	if c.StoragePrefix == "" {
		errors = append(errors, "storage prefix cannot be empty")
	}

	if !contains(validCodecs, c.StorageCodec) {
		errors = append(errors, fmt.Sprintf("invalid storage codec '%s': must be one of %v", c.StorageCodec, validCodecs))
	}
	if c.StorageCodec == "sealed" {
		if c.StorageEncryptionKey == "" {
			errors = append(errors, "STORAGE_ENCRYPTION_KEY is required when using sealed codec")
		} else if key, err := base64.StdEncoding.DecodeString(c.StorageEncryptionKey); err != nil || len(key) != 32 {
			errors = append(errors, "STORAGE_ENCRYPTION_KEY must be 32 bytes encoded as standard base64")
		}
	}

	if c.CacheSize < 0 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must not be negative", c.CacheSize))
	}
	if c.CacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must not be negative", c.CacheTTL))
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

	// Validate backup worker configuration
	if c.BackupDir == "" {
		errors = append(errors, "backup directory cannot be empty")
	}
	if c.BackupRetention < 1 {
		errors = append(errors, fmt.Sprintf("invalid backup retention %d: must be at least 1", c.BackupRetention))
	}
	if c.BackupMinInterval < 0 {
		errors = append(errors, fmt.Sprintf("invalid backup interval %v: must not be negative", c.BackupMinInterval))
	}

	if c.GoogleSpreadsheetID != "" && c.GoogleReportsSheetName == "" {
		errors = append(errors, "Google reports sheet name is required when a spreadsheet ID is set")
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	for name, spec := range map[string]string{
		"SCHEDULE_DAILY":   c.ScheduleDaily,
		"SCHEDULE_WEEKLY":  c.ScheduleWeekly,
		"SCHEDULE_MONTHLY": c.ScheduleMonthly,
		"SCHEDULE_YEARLY":  c.ScheduleYearly,
	} {
		if _, err := parser.Parse(spec); err != nil {
			errors = append(errors, fmt.Sprintf("invalid %s '%s': %v", name, spec, err))
		}
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// AMQPEnabled reports whether change events should be published.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

// SheetsEnabled reports whether generated reports are exported.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
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
