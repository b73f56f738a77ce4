package main

import (
	"fmt"
	"os"
	"strings"

	"anoa.com/fitquest/internal/bootstrap"
	"anoa.com/fitquest/internal/config"
	"anoa.com/fitquest/internal/server"
	"anoa.com/fitquest/pkg/database"
	"anoa.com/fitquest/pkg/logger"
	"anoa.com/fitquest/pkg/metrics"
	"github.com/fatih/color"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:           "fitquestctl",
	Short:         "Operational commands for the fitquest service",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger.Init(cfg.LogFile, cfg.LogLevel)
		metrics.Init()
		appCfg = cfg
		return nil
	},
}

var appCfg *config.Config

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate the schema and seed roles and the admin user",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database.Connect(appCfg)
		if err != nil {
			return err
		}
		if err := bootstrap.Prepare(db, appCfg.AdminUserID); err != nil {
			return err
		}
		color.Green("schema migrated")
		return nil
	},
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect and trigger background jobs",
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, closeFn, err := buildServer()
		if err != nil {
			return err
		}
		defer closeFn()

		for _, name := range srv.Jobs() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

var jobsRunCmd = &cobra.Command{
	Use:   "run <name>",
	Short: "Run one job now, outside its schedule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, closeFn, err := buildServer()
		if err != nil {
			return err
		}
		defer closeFn()

		name := strings.TrimSpace(args[0])
		if err := srv.RunJob(cmd.Context(), name); err != nil {
			return fmt.Errorf("job %s: %w", name, err)
		}
		color.Green("job %s finished", name)
		return nil
	},
}

// buildServer wires the service without serving HTTP so jobs run against the real modules.
func buildServer() (*server.Server, func(), error) {
	db, err := database.Connect(appCfg)
	if err != nil {
		return nil, nil, err
	}
	redisClient, err := bootstrap.ConnectRedis(appCfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	srv, err := server.NewServer(appCfg, db, redisClient)
	if err != nil {
		closeAll(db, redisClient)
		return nil, nil, err
	}
	return srv, func() { closeAll(db, redisClient) }, nil
}

func closeAll(db *gorm.DB, redisClient *redis.Client) {
	if redisClient != nil {
		redisClient.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

func init() {
	jobsCmd.AddCommand(jobsListCmd, jobsRunCmd)
	rootCmd.AddCommand(migrateCmd, jobsCmd)
}

func main() {
	err := rootCmd.Execute()
	_ = logger.Logger.Sync()
	if err != nil {
		color.Red("error: %v", err)
		os.Exit(1)
	}
}
