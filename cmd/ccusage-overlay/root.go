package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ansonwcy/ccusage-overlay/internal/config"
	"github.com/ansonwcy/ccusage-overlay/internal/service"
	"github.com/ansonwcy/ccusage-overlay/internal/snapshot"
	"github.com/ansonwcy/ccusage-overlay/internal/ui"
)

type rootFlags struct {
	configPath string
	dataDir    string
	timezone   string
	hours      int
	verbose    bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:     "ccusage-overlay",
		Short:   "Live cost and token dashboard over Claude Code usage logs",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			return runDashboard(cfg, flags)
		},
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", config.DefaultPath(), "config file path")
	cmd.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "usage log data directory")
	cmd.PersistentFlags().StringVar(&flags.timezone, "timezone", "", "override timezone (e.g., Asia/Seoul)")
	cmd.PersistentFlags().IntVar(&flags.hours, "hours", 0, "hourly window size")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(newReportCmd(flags))
	return cmd
}

func loadConfig(flags *rootFlags) (config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return cfg, err
	}
	if flags.dataDir != "" {
		cfg.General.DataDir = flags.dataDir
	}
	if flags.timezone != "" {
		if _, err := time.LoadLocation(flags.timezone); err != nil {
			return cfg, fmt.Errorf("invalid timezone %q", flags.timezone)
		}
		cfg.General.Timezone = flags.timezone
	}
	if flags.hours > 0 {
		cfg.General.HoursWindow = flags.hours
	}
	return cfg, cfg.Validate()
}

func runDashboard(cfg config.Config, flags *rootFlags) error {
	stateDir := filepath.Dir(config.DefaultPath())
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	// The TUI owns the terminal, so logs go to a file.
	log, err := fileLogger(filepath.Join(stateDir, "ccusage-overlay.log"), flags.verbose)
	if err != nil {
		return err
	}
	defer log.Sync()

	store, err := snapshot.Open(filepath.Join(stateDir, "snapshot.db"), snapshot.DefaultTTL)
	if err != nil {
		log.Warn("snapshot store unavailable, continuing without", zap.Error(err))
		store = nil
	}
	if store != nil {
		defer store.Close()
	}

	svc, err := service.New(cfg, store, log)
	if err != nil {
		return err
	}
	if err := svc.Start(context.Background()); err != nil {
		return err
	}
	defer svc.Stop()

	updates, cancel := svc.Subscribe()
	p := tea.NewProgram(ui.NewDashboard(updates, cancel), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func fileLogger(path string, verbose bool) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	return cfg.Build()
}
