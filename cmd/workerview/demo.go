package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/workerview/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/workerview/internal/infrastructure/server"
	"github.com/GriffinCanCode/workerview/internal/transport"
	"github.com/GriffinCanCode/workerview/internal/worker"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a background root and a terminal foreground in one process",
	Long: `Connects a worker and a terminal foreground over an in-process pipe.
Tab moves between buttons, enter clicks, q quits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logPath, _ := cmd.Flags().GetString("log-file")
		logger, err := fileLogger(cfg, logPath)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		node, err := server.Factory(cfg, logger).New()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		fg, bg := transport.Pipe()
		w := worker.New(bg, worker.Options{Logger: logger, Metrics: monitoring.NewMetrics()})
		workerErr := make(chan error, 1)
		go func() { workerErr <- w.Run(ctx, node) }()

		fgErr := runForeground(ctx, cmd, fg, logger)
		cancel()
		if err := <-workerErr; err != nil {
			logger.Error("worker failed", zap.Error(err))
			return errors.Join(fgErr, err)
		}
		return fgErr
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)
	addForegroundFlags(demoCmd)
}
