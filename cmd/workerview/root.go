package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/workerview/internal/infrastructure/config"
	"github.com/GriffinCanCode/workerview/internal/infrastructure/logging"
)

var rootCmd = &cobra.Command{
	Use:   "workerview",
	Short: "Render UIs on a background loop and display them elsewhere",
	Long: `workerview runs a reconciling UI renderer on a background event loop,
ships a snapshot of the rendered tree after every commit and routes click
requests from the foreground back to button handlers.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "YAML or TOML config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("dev", false, "Development logging")
	rootCmd.PersistentFlags().String("app", "", "UI to render: demo, counter, ticker or script")
	rootCmd.PersistentFlags().String("script", "", "Script path for --app script")
}

// loadConfig reads the config file and applies persistent flag overrides
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if dev, _ := cmd.Flags().GetBool("dev"); dev {
		cfg.Logging.Development = true
	}
	if app, _ := cmd.Flags().GetString("app"); app != "" {
		cfg.Worker.App = app
	}
	if script, _ := cmd.Flags().GetString("script"); script != "" {
		cfg.Worker.Script = script
		if !cmd.Flags().Changed("app") {
			cfg.Worker.App = config.AppScript
		}
	}
	return cfg, cfg.Validate()
}

// fileLogger logs to path, or nowhere when path is empty. Terminal
// foregrounds own stdout, so their logs go to a file.
func fileLogger(cfg *config.Config, path string) (*logging.Logger, error) {
	if path == "" {
		return logging.Nop(), nil
	}
	lc := logging.DefaultConfig()
	if cfg.Logging.Development {
		lc = logging.DevelopmentConfig()
	}
	lc.Level = cfg.Logging.Level
	lc.OutputPaths = []string{path}
	return logging.New(lc)
}
