package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/workerview/internal/transport"
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Show a background root running elsewhere",
	Long: `Attaches a terminal foreground to a worker. With --url it opens the
stream of a running server; otherwise it joins a worker over Redis.`,
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

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var port transport.Port
		if url, _ := cmd.Flags().GetString("url"); url != "" {
			conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
			if err != nil {
				return err
			}
			port = transport.NewWebSocket(conn)
		} else {
			client := redisClient(cmd, cfg)
			defer client.Close()
			if err := client.Ping(ctx).Err(); err != nil {
				return err
			}
			port = transport.NewRedisForeground(client, cfg.Redis.Channel)
		}
		return runForeground(ctx, cmd, port, logger)
	},
}

func init() {
	rootCmd.AddCommand(viewCmd)
	addForegroundFlags(viewCmd)
	addRedisFlags(viewCmd)
	viewCmd.Flags().String("url", "", "WebSocket stream URL, e.g. ws://localhost:8000/stream")
}
