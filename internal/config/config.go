package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server
	Port        string
	Environment string

	// Database
	DatabaseURL string

	// Background Workers
	WorkerCount int

	// CORS
	AllowedOrigins []string

	// Sentry
	SentryDSN string

	// Interest batch schedule. Fire time is "HH:MM" in local time; if the
	// process wakes up later than the misfire grace past the scheduled
	// occurrence, that day's run is skipped and logged instead of running stale.
	BatchFireHour     int
	BatchFireMinute   int
	BatchMisfireGrace time.Duration

	// Risk classification thresholds
	HighDebtThreshold float64
	DelayGraceDays    int
	FrequentDelays    int
	OnTimePayments    int
	RecentEntryWindow int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		Environment:       getEnv("ENVIRONMENT", "development"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		WorkerCount:       getEnvAsInt("WORKER_COUNT", 5),
		AllowedOrigins:    getEnvAsSlice("ALLOWED_ORIGINS", []string{"*"}),
		SentryDSN:         getEnv("SENTRY_DSN", ""),
		BatchMisfireGrace: time.Duration(getEnvAsInt("BATCH_MISFIRE_GRACE_MINUTES", 30)) * time.Minute,
		HighDebtThreshold: getEnvAsFloat("RISK_HIGH_DEBT_THRESHOLD", 50000),
		DelayGraceDays:    getEnvAsInt("RISK_DELAY_GRACE_DAYS", 15),
		FrequentDelays:    getEnvAsInt("RISK_FREQUENT_DELAY_COUNT", 3),
		OnTimePayments:    getEnvAsInt("RISK_ON_TIME_PAYMENT_COUNT", 5),
		RecentEntryWindow: getEnvAsInt("RISK_RECENT_ENTRY_WINDOW", 20),
	}

	hour, minute, err := parseFireTime(getEnv("BATCH_FIRE_TIME", "00:01"))
	if err != nil {
		return nil, err
	}
	cfg.BatchFireHour = hour
	cfg.BatchFireMinute = minute

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

// parseFireTime parses an "HH:MM" clock time.
func parseFireTime(s string) (int, int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("BATCH_FIRE_TIME must be HH:MM, got %q", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("BATCH_FIRE_TIME has invalid hour %q", parts[0])
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("BATCH_FIRE_TIME has invalid minute %q", parts[1])
	}
	return hour, minute, nil
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt reads an environment variable as integer
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat reads an environment variable as float64
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsSlice reads an environment variable as comma-separated slice
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return strings.Split(valueStr, ",")
}
