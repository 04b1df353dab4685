package main

import (
	"os"

	"github.com/spf13/cobra"

	"monthcal/internal/config"
	appLog "monthcal/internal/log"
)

var (
	configPath string
	debugMode  bool
)

// rootCmd is the base command for monthcal.
var rootCmd = &cobra.Command{
	Use:   "monthcal",
	Short: "Month-view calendar with side-by-side event lanes",
	Long: `monthcal lays out timed events on a monthly grid. Events that overlap on
the same day are placed in parallel lanes using as few lanes as possible.

It can run as:
  - An HTTP server with a calendar page and a JSON API (serve)
  - A one-shot text renderer (month)
  - A headless PNG snapshotter of the calendar page (snapshot)`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debugMode {
			appLog.SetLevel(appLog.LevelDebug)
		}
	},
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(`{{printf "monthcal version %s\n" .Version}}`)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "monthcal.yaml", "Path to config file")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMonthCmd())
	rootCmd.AddCommand(newSnapshotCmd())
}

// loadConfig reads the config file, writing defaults on first run.
func loadConfig() (*config.Config, error) {
	conf, err := config.Load(configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", configPath)
		return nil, err
	}
	return conf, nil
}
