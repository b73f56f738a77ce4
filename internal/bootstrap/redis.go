package bootstrap

import (
	"fmt"

	"anoa.com/fitquest/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ConnectRedis returns nil when url is empty; callers treat a nil client as redis disabled.
func ConnectRedis(url string) (*redis.Client, error) {
	if url == "" {
		logger.Logger.Warn("redis_disabled", zap.String("reason", "REDIS_URL not set"))
		return nil, nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opt), nil
}

// Prepare migrates the schema and seeds roles plus the optional admin user.
func Prepare(db *gorm.DB, adminUserID string) error {
	if err := Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := SeedRoles(db); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}
	if err := SeedAdminUser(db, adminUserID); err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}
	return nil
}
