package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"anoa.com/fitquest/internal/bootstrap"
	"anoa.com/fitquest/internal/config"
	"anoa.com/fitquest/internal/server"
	"anoa.com/fitquest/pkg/database"
	"anoa.com/fitquest/pkg/logger"
	"anoa.com/fitquest/pkg/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger.Init(cfg.LogFile, cfg.LogLevel)
	defer logger.Logger.Sync()
	metrics.Init()

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		logger.Logger.Fatal("database_connect_failed", zap.Error(err))
	}
	if err := bootstrap.Prepare(db, cfg.AdminUserID); err != nil {
		logger.Logger.Fatal("bootstrap_failed", zap.Error(err))
	}

	redisClient, err := bootstrap.ConnectRedis(cfg.RedisURL)
	if err != nil {
		logger.Logger.Fatal("redis_connect_failed", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	srv, err := server.NewServer(cfg, db, redisClient)
	if err != nil {
		logger.Logger.Fatal("server_init_failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logger.Logger.Fatal("server_failed", zap.Error(err))
	}
}
