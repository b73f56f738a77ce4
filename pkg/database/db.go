package database

import (
	"fmt"
	"sync"
	"time"

	"anoa.com/fitquest/internal/config"
	"anoa.com/fitquest/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	DB   *gorm.DB
	once sync.Once
)

// Connect opens the shared connection pool. DATABASE_URL wins over the DB_* parts.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	var connectErr error
	once.Do(func() {
		dsn := cfg.DatabaseURL
		if dsn == "" {
			dsn = fmt.Sprintf(
				"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
				cfg.DBHost,
				cfg.DBUser,
				cfg.DBPass,
				cfg.DBName,
				cfg.DBPort,
			)
		}

		logLevel := gormlogger.Warn
		if cfg.AppEnv == "development" {
			logLevel = gormlogger.Info
		}

		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger:         gormlogger.Default.LogMode(logLevel),
			TranslateError: true,
		})
		if err != nil {
			connectErr = fmt.Errorf("failed to connect database: %w", err)
			return
		}

		sqlDB, err := db.DB()
		if err != nil {
			connectErr = fmt.Errorf("failed to get sql handle: %w", err)
			return
		}
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)

		logger.Logger.Info("database_connected", zap.String("host", cfg.DBHost))
		DB = db
	})

	if connectErr != nil {
		return nil, connectErr
	}
	return DB, nil
}
