package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"anoa.com/fitquest/internal/config"
	"anoa.com/fitquest/internal/events"
	"anoa.com/fitquest/internal/middleware"
	"anoa.com/fitquest/internal/progression"
	"anoa.com/fitquest/internal/scheduler"
	"anoa.com/fitquest/pkg/logger"

	achievementHttp "anoa.com/fitquest/internal/modules/achievement/delivery/http"
	achievementRepo "anoa.com/fitquest/internal/modules/achievement/repository"
	achievementService "anoa.com/fitquest/internal/modules/achievement/service"

	leagueHttp "anoa.com/fitquest/internal/modules/league/delivery/http"
	leagueRepo "anoa.com/fitquest/internal/modules/league/repository"
	leagueService "anoa.com/fitquest/internal/modules/league/service"

	notiHttp "anoa.com/fitquest/internal/modules/notification/delivery/http"
	notifRepo "anoa.com/fitquest/internal/modules/notification/repository"
	notifService "anoa.com/fitquest/internal/modules/notification/service"

	progressionHttp "anoa.com/fitquest/internal/modules/progression/delivery/http"
	progressionRepo "anoa.com/fitquest/internal/modules/progression/repository"
	progressionService "anoa.com/fitquest/internal/modules/progression/service"

	userRepo "anoa.com/fitquest/internal/modules/user/repository"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	eventSeenTTL    = 24 * time.Hour
	shutdownTimeout = 15 * time.Second
)

type Server struct {
	cfg         *config.Config
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client

	bus            *events.Bus
	dispatcher     *events.Dispatcher
	scheduler      *scheduler.Scheduler
	achievementSvc achievementService.AchievementService
}

// NewServer wires every module. redisClient may be nil; the change feed, realtime streams
// and catalog cache are then disabled and league standings are ranked inline.
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	userRepo := userRepo.NewUserRepository(db)

	// Initialize Meilisearch
	meiliHost := cfg.MeiliSearchHost
	if !strings.HasPrefix(meiliHost, "http") {
		meiliHost = "http://" + meiliHost + ":7700"
	}
	meiliClient := meilisearch.New(meiliHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))

	bus := events.NewBus(redisClient)
	var (
		publisher events.Publisher
		store     events.Store
	)
	if redisClient != nil {
		publisher = bus
		store = events.NewRedisStore(redisClient, eventSeenTTL)
	}

	// Notification Module
	notificationRepository := notifRepo.NewNotificationRepository(db)
	notificationSvc := notifService.NewNotificationService(notificationRepository, redisClient)
	notificationHandler := notiHttp.NewNotificationHandler(notificationSvc, redisClient)

	progressionRepository := progressionRepo.NewProgressionRepository(db)

	achievementRepository := achievementRepo.NewAchievementRepository(db)
	achievementSvc := achievementService.NewAchievementService(
		achievementRepository,
		progressionRepository,
		achievementService.NewRedisCatalogCache(redisClient, cfg.CatalogCacheTTL),
		achievementService.NewMeiliSearchIndex(meiliClient),
	)
	achievementHandler := achievementHttp.NewAchievementHandler(achievementSvc)

	leagueRepository := leagueRepo.NewLeagueRepository(db)
	leagueSvc := leagueService.NewLeagueService(leagueRepository, notificationSvc, publisher, progression.DefaultLeagueSettings(), cfg.Location)
	leagueHandler := leagueHttp.NewLeagueHandler(leagueSvc)

	progressionSvc := progressionService.NewProgressionService(
		progressionRepository,
		userRepo,
		achievementSvc,
		leagueSvc,
		notificationSvc,
		publisher,
		redisClient,
		cfg.Location,
	)
	progressionHandler := progressionHttp.NewProgressionHandler(progressionSvc, redisClient)

	dispatcher := events.NewDispatcher(store, publisher, cfg.EventWorkers)
	dispatcher.Handle(events.TypeWorkoutCompleted, progressionSvc.HandleWorkoutCompleted)
	dispatcher.Handle(events.TypeActivity, progressionSvc.HandleActivity)
	dispatcher.Handle(events.TypeLeagueChanged, leagueSvc.HandleLeagueChanged)

	sched := scheduler.New(cfg.Location)
	jobs := []scheduler.Job{
		scheduler.NewStreakReminderJob(cfg.StreakReminderCron, progressionSvc.RemindAtRisk),
		scheduler.NewSeasonRolloverJob(cfg.SeasonRolloverCron, leagueSvc.Rollover),
	}
	if redisClient != nil {
		jobs = append(jobs, scheduler.NewDeadLetterReplayJob(cfg.DeadLetterReplayCron, dispatcher.ReplayDeadLetters))
	}
	for _, job := range jobs {
		if err := sched.Register(job); err != nil {
			return nil, err
		}
	}

	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger("/healthz", "/metrics"))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", healthz(db, redisClient))

	authMiddleware := middleware.NewAuthMiddleware(userRepo, cfg.JWTSecret)

	api := router.Group("/api")

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		// Admin routes
		adminGroup := protected.Group("/admin")
		adminGroup.Use(authMiddleware.RequireAdmin())
		{
			adminGroup.POST("/achievements", achievementHandler.CreateAchievement)
		}

		// Progression routes
		protected.POST("/progression/init", progressionHandler.InitStats)
		protected.GET("/progression/me", progressionHandler.GetMyProgression)
		protected.POST("/progression/xp", progressionHandler.AwardXP)
		protected.POST("/progression/streak/validate", progressionHandler.ValidateStreak)
		protected.POST("/progression/achievements/check", progressionHandler.CheckAchievements)
		protected.GET("/progression/ws", progressionHandler.HandleWebSocket)
		protected.POST("/workouts/complete", progressionHandler.CompleteWorkout)

		// League routes
		protected.POST("/leagues/join", leagueHandler.Join)
		protected.GET("/leagues/me", leagueHandler.GetMyLeague)
		protected.POST("/leagues/cohorts/:id/standings", leagueHandler.RecomputeStandings)

		// Achievement routes
		protected.GET("/achievements", achievementHandler.GetAchievements)
		protected.GET("/achievements/me", achievementHandler.GetMyAchievements)
		protected.GET("/achievements/search", achievementHandler.SearchAchievements)

		// Notification routes
		protected.GET("/notifications", notificationHandler.GetNotifications)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.GET("/notifications/ws", notificationHandler.HandleWebSocket)
	}

	return &Server{
		cfg:            cfg,
		engine:         router,
		db:             db,
		redisClient:    redisClient,
		bus:            bus,
		dispatcher:     dispatcher,
		scheduler:      sched,
		achievementSvc: achievementSvc,
	}, nil
}

// Run seeds the catalog, starts the background workers and serves HTTP until ctx ends.
func (s *Server) Run(ctx context.Context) error {
	if created, err := s.achievementSvc.SeedDefaults(ctx); err != nil {
		logger.Logger.Error("achievement_seed_failed", zap.Error(err))
	} else if created > 0 {
		logger.Logger.Info("achievements_seeded", zap.Int("created", created))
	}
	if err := s.achievementSvc.Reindex(ctx); err != nil {
		logger.Logger.Warn("achievement_reindex_failed", zap.Error(err))
	}

	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()

	if s.redisClient != nil {
		go func() {
			if err := s.dispatcher.Run(workerCtx, s.bus); err != nil && !errors.Is(err, context.Canceled) {
				logger.Logger.Error("event_dispatcher_stopped", zap.Error(err))
			}
		}()
	} else {
		logger.Logger.Warn("event_dispatcher_disabled", zap.String("reason", "redis not configured"))
	}

	s.scheduler.Start()

	srv := &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Logger.Info("http_server_started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	stopWorkers()
	s.scheduler.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Join(serveErr, err)
	}
	logger.Logger.Info("http_server_stopped")
	return serveErr
}

// Jobs lists the registered background jobs.
func (s *Server) Jobs() []string {
	return s.scheduler.Registered()
}

// RunJob executes one background job immediately.
func (s *Server) RunJob(ctx context.Context, name string) error {
	return s.scheduler.RunByName(ctx, name)
}

func healthz(db *gorm.DB, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := gin.H{"status": "ok", "database": "up", "redis": "disabled"}
		code := http.StatusOK

		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status["status"] = "degraded"
			status["database"] = "down"
			code = http.StatusServiceUnavailable
		}
		if redisClient != nil {
			status["redis"] = "up"
			if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
				status["status"] = "degraded"
				status["redis"] = "down"
			}
		}

		c.JSON(code, status)
	}
}

func setupCORS(router *gin.Engine, allowedOrigins string) {
	var origins []string
	if allowedOrigins != "" {
		origins = strings.Split(allowedOrigins, ",")
	} else {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
