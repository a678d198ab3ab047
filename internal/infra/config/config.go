package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	TelegramToken     string
	DatabaseURL       string
	OwnerTelegramID   int64
	LogLevel          string
	Environment       string
	CronSpecDailyScan string        // How often the scheduler wakes up; the scan itself runs once per day
	ScanTimeout       time.Duration // Upper bound for a single scan
	NotifyHour        int
	NotifyMinute      int
	CurrencySymbol    string
	Location          *time.Location
	PreferenceBackend string // postgres or redis
	RedisURL          string
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	ownerIDStr := os.Getenv("OWNER_TELEGRAM_ID")
	if ownerIDStr == "" {
		return nil, fmt.Errorf("OWNER_TELEGRAM_ID is not set")
	}
	cfg.OwnerTelegramID, err = strconv.ParseInt(ownerIDStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid OWNER_TELEGRAM_ID: %w", err)
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	cfg.CronSpecDailyScan = os.Getenv("CRON_SPEC_DAILY_SCAN")
	if cfg.CronSpecDailyScan == "" {
		cfg.CronSpecDailyScan = "*/30 * * * *" // Default: every 30 minutes
	}

	cfg.ScanTimeout = 2 * time.Minute
	if raw := os.Getenv("SCAN_TIMEOUT"); raw != "" {
		cfg.ScanTimeout, err = time.ParseDuration(raw)
		if err != nil || cfg.ScanTimeout <= 0 {
			return nil, fmt.Errorf("invalid SCAN_TIMEOUT %q: must be a positive duration", raw)
		}
	}

	notifyAt := os.Getenv("NOTIFY_AT")
	if notifyAt == "" {
		notifyAt = "09:00"
	}
	cfg.NotifyHour, cfg.NotifyMinute, err = ParseClock(notifyAt)
	if err != nil {
		return nil, fmt.Errorf("invalid NOTIFY_AT: %w", err)
	}

	cfg.CurrencySymbol = os.Getenv("CURRENCY_SYMBOL")

	cfg.Location = time.Local
	if tz := os.Getenv("TIMEZONE"); tz != "" {
		cfg.Location, err = time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
		}
	}

	cfg.PreferenceBackend = strings.ToLower(os.Getenv("PREFERENCE_BACKEND"))
	if cfg.PreferenceBackend == "" {
		cfg.PreferenceBackend = BackendPostgres
	}
	switch cfg.PreferenceBackend {
	case BackendPostgres:
	case BackendRedis:
		cfg.RedisURL = os.Getenv("REDIS_URL")
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("REDIS_URL is not set but PREFERENCE_BACKEND is redis")
		}
	default:
		return nil, fmt.Errorf("unknown PREFERENCE_BACKEND %q", cfg.PreferenceBackend)
	}

	return cfg, nil
}

// ParseClock parses a "HH:MM" time of day.
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	return t.Hour(), t.Minute(), nil
}
