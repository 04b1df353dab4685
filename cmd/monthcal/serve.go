package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"monthcal/internal/config"
	appLog "monthcal/internal/log"
	"monthcal/internal/source"
	"monthcal/internal/store"
	"monthcal/internal/web"
)

func newServeCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the calendar page and JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := loadConfig()
			if err != nil {
				return err
			}
			if listen != "" {
				conf.Listen = listen
			}
			return runServe(conf)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config if set)")
	return cmd
}

func runServe(conf *config.Config) error {
	appLog.Info("monthcal starting", "version", version)
	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"week_start", conf.WeekStart,
		"events_path", conf.EventsPath,
		"reload", conf.Reload,
		"preview_limit", conf.PreviewLimit,
		"metrics", conf.Metrics,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	st := store.New()
	if conf.EventsPath != "" {
		w := source.NewWatcher(source.NewLoader(), conf.EventsPath, st)
		if _, err := w.Sync(ctx); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			appLog.Warn("event source not found; starting empty", "events_path", conf.EventsPath)
		}
		if conf.Reload != "" {
			c, err := w.Start(ctx, conf.Reload)
			if err != nil {
				return err
			}
			defer c.Stop()
		}
	}

	if err := web.StartServer(ctx, conf, st); err != nil {
		appLog.Error("HTTP server failed", err)
		return err
	}
	appLog.Info("monthcal exiting")
	return nil
}
