package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins string
	JWTSecret      string
	AdminUserID    string

	DatabaseURL string
	DBHost      string
	DBUser      string
	DBPass      string
	DBName      string
	DBPort      string

	RedisURL string

	MeiliSearchHost string
	MeiliMasterKey  string

	LogFile  string
	LogLevel string

	// Calendar days for streaks and league weeks are counted in this zone.
	Location *time.Location

	EventWorkers    int
	CatalogCacheTTL time.Duration

	StreakReminderCron   string
	SeasonRolloverCron   string
	DeadLetterReplayCron string
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:8081"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		AdminUserID:    os.Getenv("ADMIN_USER_ID"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPass:      os.Getenv("DB_PASS"),
		DBName:      getEnv("DB_NAME", "fitquest"),
		DBPort:      getEnv("DB_PORT", "5432"),

		RedisURL: os.Getenv("REDIS_URL"),

		MeiliSearchHost: getEnv("MEILISEARCH_HOST", "http://localhost:7700"),
		MeiliMasterKey:  os.Getenv("MEILI_MASTER_KEY"),

		LogFile:  os.Getenv("LOG_FILE"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StreakReminderCron:   getEnv("STREAK_REMINDER_CRON", "0 18 * * *"),
		SeasonRolloverCron:   getEnv("SEASON_ROLLOVER_CRON", "5 0 * * *"),
		DeadLetterReplayCron: getEnv("DEAD_LETTER_REPLAY_CRON", "*/15 * * * *"),
	}

	if cfg.JWTSecret == "" {
		if cfg.AppEnv == "production" {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		cfg.JWTSecret = "dev-secret"
	}

	var err error
	cfg.Location, err = time.LoadLocation(getEnv("APP_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}

	cfg.EventWorkers, err = strconv.Atoi(getEnv("EVENT_WORKERS", "4"))
	if err != nil || cfg.EventWorkers < 1 {
		return nil, fmt.Errorf("invalid EVENT_WORKERS: must be a positive integer")
	}

	cfg.CatalogCacheTTL, err = parseDuration(getEnv("CATALOG_CACHE_TTL", "10m"))
	if err != nil {
		return nil, fmt.Errorf("invalid CATALOG_CACHE_TTL: %w", err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func parseDuration(s string) (time.Duration, error) {
	return time.ParseDuration(s)
}
