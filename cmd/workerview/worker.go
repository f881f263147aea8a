package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/workerview/internal/infrastructure/config"
	"github.com/GriffinCanCode/workerview/internal/infrastructure/logging"
	"github.com/GriffinCanCode/workerview/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/workerview/internal/infrastructure/server"
	"github.com/GriffinCanCode/workerview/internal/transport"
	"github.com/GriffinCanCode/workerview/internal/worker"
)

func addRedisFlags(cmd *cobra.Command) {
	cmd.Flags().String("redis", "", "Redis address (overrides REDIS_ADDR)")
	cmd.Flags().String("channel", "", "Channel name shared by worker and view")
}

func redisClient(cmd *cobra.Command, cfg *config.Config) *redis.Client {
	if addr, _ := cmd.Flags().GetString("redis"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if channel, _ := cmd.Flags().GetString("channel"); channel != "" {
		cfg.Redis.Channel = channel
	}
	return redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run a background root that talks to a view over Redis",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := logging.FromLevel(cfg.Logging.Level, cfg.Logging.Development)
		defer func() { _ = logger.Sync() }()

		client := redisClient(cmd, cfg)
		defer client.Close()

		node, err := server.Factory(cfg, logger).New()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := client.Ping(ctx).Err(); err != nil {
			logger.Error("Failed to reach redis", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			return err
		}

		port := transport.NewRedisBackground(client, cfg.Redis.Channel)
		// stale messages from an earlier run would be read as this run's
		if err := port.Reset(ctx); err != nil {
			return err
		}

		logger.Info("Worker starting",
			zap.String("redis", cfg.Redis.Addr),
			zap.String("channel", cfg.Redis.Channel),
			zap.String("app", cfg.Worker.App))

		w := worker.New(port, worker.Options{Logger: logger, Metrics: monitoring.NewMetrics()})
		return w.Run(ctx, node)
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
	addRedisFlags(workerCmd)
}
