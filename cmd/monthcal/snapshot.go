package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"monthcal/internal/capture"
	"monthcal/internal/dateutil"
	appLog "monthcal/internal/log"
	"monthcal/internal/source"
	"monthcal/internal/store"
	"monthcal/internal/web"
)

func newSnapshotCmd() *cobra.Command {
	var (
		out     string
		month   string
		width   int
		height  int
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Render the calendar page in headless Chromium and save a PNG",
		RunE: func(cmd *cobra.Command, args []string) error {
			if month != "" {
				if _, err := dateutil.ParseMonth(month); err != nil {
					return err
				}
			}
			conf, err := loadConfig()
			if err != nil {
				return err
			}
			// The page is served to ourselves only.
			conf.BasicAuth = nil
			conf.Metrics = false

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			st := store.New()
			if conf.EventsPath != "" {
				if _, err := source.NewWatcher(source.NewLoader(), conf.EventsPath, st).Sync(ctx); err != nil {
					return err
				}
			}

			ln, err := net.Listen("tcp", "127.0.0.1:0")
			if err != nil {
				return err
			}
			srvCtx, stop := context.WithCancel(ctx)
			errCh := make(chan error, 1)
			go func() {
				errCh <- web.NewServer(conf, st).Serve(srvCtx, ln)
			}()

			target := url.URL{Scheme: "http", Host: ln.Addr().String(), Path: "/calendar"}
			if month != "" {
				target.RawQuery = url.Values{"month": {month}}.Encode()
			}
			appLog.Info("capturing calendar", "url", target.String(), "out", out)

			capErr := capture.CalendarPNGToFile(ctx, capture.Options{
				URL:     target.String(),
				Width:   width,
				Height:  height,
				Timeout: timeout,
			}, out)

			stop()
			if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
				appLog.Error("snapshot server failed", err)
			}
			if capErr != nil {
				return capErr
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "calendar.png", "Output PNG path")
	cmd.Flags().StringVar(&month, "month", "", "Month to capture as YYYY-MM (default: current month)")
	cmd.Flags().IntVar(&width, "width", capture.DefaultWidth, "Viewport width in pixels")
	cmd.Flags().IntVar(&height, "height", capture.DefaultHeight, "Viewport height in pixels")
	cmd.Flags().DurationVar(&timeout, "timeout", capture.DefaultTimeout, "Capture timeout")
	return cmd
}
