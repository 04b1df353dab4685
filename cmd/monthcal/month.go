package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"monthcal/internal/config"
	"monthcal/internal/dateutil"
	"monthcal/internal/grid"
	"monthcal/internal/layout"
	"monthcal/internal/source"
)

func newMonthCmd() *cobra.Command {
	var (
		month  string
		events string
	)

	cmd := &cobra.Command{
		Use:   "month",
		Short: "Print a month grid and its event lanes as text",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := loadConfig()
			if err != nil {
				return err
			}
			if events == "" {
				events = conf.EventsPath
			}

			res, err := source.NewLoader().Load(cmd.Context(), events)
			if err != nil {
				return err
			}
			days, err := layout.GroupEventsByDate(res.Events)
			if err != nil {
				return err
			}

			today := time.Now().In(displayZone(conf))
			ref := dateutil.MonthStart(today)
			if month != "" {
				if ref, err = dateutil.ParseMonth(month); err != nil {
					return err
				}
			}
			renderMonth(cmd.OutOrStdout(), grid.Build(ref, today, days, weekStart(conf)))
			return nil
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "Month to print as YYYY-MM (default: current month)")
	cmd.Flags().StringVar(&events, "events", "", "Event source (overrides events_path)")
	return cmd
}

// renderMonth writes the grid followed by one block per day with events.
// Today is marked with '*'; each lane adds two spaces of indent.
func renderMonth(w io.Writer, m grid.Month) {
	fmt.Fprintln(w, m.Title)
	for _, wd := range m.Weekdays {
		fmt.Fprintf(w, "%5s", wd)
	}
	fmt.Fprintln(w)

	for i, c := range m.Cells {
		switch {
		case !c.Valid:
			fmt.Fprintf(w, "%5s", "")
		case c.Today:
			fmt.Fprintf(w, "%5s", fmt.Sprintf("*%d", c.Day))
		default:
			fmt.Fprintf(w, "%5d", c.Day)
		}
		if i%7 == 6 {
			fmt.Fprintln(w)
		}
	}

	for _, c := range m.Cells {
		day, ok := c.Events.Get()
		if !ok {
			continue
		}
		fmt.Fprintf(w, "\n%s (%d %s)\n", c.DateKey, day.TotalLanes, plural(day.TotalLanes, "lane", "lanes"))
		for _, ev := range day.Events {
			done := ""
			if ev.Completed {
				done = " [done]"
			}
			fmt.Fprintf(w, "  %s%s-%s %s%s\n", strings.Repeat("  ", ev.Lane), ev.StartTime, ev.EndTime, ev.Title, done)
		}
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func displayZone(conf *config.Config) *time.Location {
	if conf.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(conf.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func weekStart(conf *config.Config) time.Weekday {
	if conf.WeekStart == "monday" {
		return time.Monday
	}
	return time.Sunday
}
