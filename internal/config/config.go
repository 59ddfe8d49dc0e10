package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Reference date strategies. The most-recent-data fallback exists for stale
// fixture data, where the system clock's "today" matches no event; it shows
// the newest data date as current instead of an empty dashboard. That is a
// deliberate display policy, so it stays opt-in.
const (
	StrategySystemClock    = "system-clock"
	StrategyMostRecentData = "most-recent-data"
)

type Config struct {
	General GeneralConfig `toml:"general"`
	Ingest  IngestConfig  `toml:"ingest"`
}

type GeneralConfig struct {
	DataDir               string `toml:"data_dir"`
	Timezone              string `toml:"timezone"`
	WeekStart             string `toml:"week_start"`
	HoursWindow           int    `toml:"hours_window"`
	ReferenceDateStrategy string `toml:"reference_date_strategy"`
}

type IngestConfig struct {
	DebounceMS    int `toml:"debounce_ms"`
	SettleMS      int `toml:"settle_ms"`
	PollSeconds   int `toml:"poll_seconds"`
	GroupSize     int `toml:"group_size"`
	ReadTimeoutMS int `toml:"read_timeout_ms"`
}

func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			DataDir:               DefaultDataDir(),
			Timezone:              "Local",
			WeekStart:             "sunday",
			HoursWindow:           24,
			ReferenceDateStrategy: StrategySystemClock,
		},
		Ingest: IngestConfig{
			DebounceMS:    500,
			SettleMS:      2000,
			PollSeconds:   10,
			GroupSize:     10,
			ReadTimeoutMS: 5000,
		},
	}
}

func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "ccusage-overlay", "config.toml")
}

func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".claude", "projects")
	}
	return filepath.Join(home, ".claude", "projects")
}

func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil // use defaults
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("decode config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func Save(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

func (c Config) Validate() error {
	switch c.General.ReferenceDateStrategy {
	case StrategySystemClock, StrategyMostRecentData:
	default:
		return fmt.Errorf("unknown reference_date_strategy %q", c.General.ReferenceDateStrategy)
	}
	if _, err := c.WeekStartDay(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the configured timezone.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.General.Timezone)
}

// WeekStartDay resolves the configured week start day name.
func (c Config) WeekStartDay() (time.Weekday, error) {
	days := map[string]time.Weekday{
		"sunday":    time.Sunday,
		"monday":    time.Monday,
		"tuesday":   time.Tuesday,
		"wednesday": time.Wednesday,
		"thursday":  time.Thursday,
		"friday":    time.Friday,
		"saturday":  time.Saturday,
	}
	d, ok := days[strings.ToLower(c.General.WeekStart)]
	if !ok {
		return time.Sunday, fmt.Errorf("unknown week_start %q", c.General.WeekStart)
	}
	return d, nil
}

func (c Config) Debounce() time.Duration {
	return time.Duration(c.Ingest.DebounceMS) * time.Millisecond
}

func (c Config) Settle() time.Duration {
	return time.Duration(c.Ingest.SettleMS) * time.Millisecond
}

func (c Config) PollInterval() time.Duration {
	return time.Duration(c.Ingest.PollSeconds) * time.Second
}

func (c Config) ReadTimeout() time.Duration {
	return time.Duration(c.Ingest.ReadTimeoutMS) * time.Millisecond
}
