package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ansonwcy/ccusage-overlay/internal/config"
	"github.com/ansonwcy/ccusage-overlay/internal/domain"
	"github.com/ansonwcy/ccusage-overlay/internal/parser"
)

// newReportCmd emits one aggregation pass as JSON and exits; the scripting
// counterpart of the dashboard.
func newReportCmd(flags *rootFlags) *cobra.Command {
	var since, until string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the full summary bundle as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			for _, df := range []struct{ name, val string }{{"--since", since}, {"--until", until}} {
				if df.val != "" {
					if _, err := time.Parse("2006-01-02", df.val); err != nil {
						return fmt.Errorf("invalid %s date (use YYYY-MM-DD): %s", df.name, df.val)
					}
				}
			}
			return runReport(cfg, since, until, flags.verbose)
		},
	}

	cmd.Flags().StringVar(&since, "since", "", "filter events from this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&until, "until", "", "filter events until this date (YYYY-MM-DD)")
	return cmd
}

func runReport(cfg config.Config, since, until string, verbose bool) error {
	log := zap.NewNop()
	if verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		defer l.Sync()
		log = l
	}

	tz, err := cfg.Location()
	if err != nil {
		return err
	}
	weekStart, err := cfg.WeekStartDay()
	if err != nil {
		return err
	}

	ctx := context.Background()
	paths := parser.DiscoverFiles(cfg.General.DataDir)
	files := parser.LoadFiles(ctx, paths, cfg.Ingest.GroupSize, cfg.ReadTimeout(), log)

	var events []domain.UsageEvent
	for _, evs := range files {
		events = append(events, evs...)
	}
	events = parser.Dedup(events)

	events, err = domain.FilterByTimeRange(events, since, until, tz)
	if err != nil {
		return fmt.Errorf("parsing date filter: %w", err)
	}

	bundle := domain.Aggregate(events, time.Now(), domain.AggregateOptions{
		TZ:          tz,
		HoursWindow: cfg.General.HoursWindow,
		WeekStart:   weekStart,
	})

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(bundle)
}
