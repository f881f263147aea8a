package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/workerview/internal/infrastructure/logging"
	"github.com/GriffinCanCode/workerview/internal/infrastructure/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the WebSocket stream",
	Long: `Starts the HTTP server. Every WebSocket connection on /stream gets its
own background root; /roots lists them and /roots/:id/snapshot returns the
last snapshot each one shipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if port, _ := cmd.Flags().GetString("port"); port != "" {
			cfg.Server.Port = port
		}
		if host, _ := cmd.Flags().GetString("host"); host != "" {
			cfg.Server.Host = host
		}

		logger := logging.FromLevel(cfg.Logging.Level, cfg.Logging.Development)
		defer func() { _ = logger.Sync() }()

		srv, err := server.NewServer(cfg, logger)
		if err != nil {
			logger.Error("Failed to create server", zap.Error(err))
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			logger.Error("Server error", zap.Error(err))
			return err
		}
		return srv.Close()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on")
	serveCmd.Flags().String("host", "", "Host to bind")
}
