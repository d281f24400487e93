package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	_ "time/tzdata" // timezone validation must not depend on the host zoneinfo

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Defaults used by DefaultConfig and Normalize.
const (
	DefaultListen       = "127.0.0.1:8080"
	DefaultTimezone     = "America/Chicago"
	DefaultWeekStart    = "sunday"
	DefaultRefresh      = "0 */6 * * *"
	DefaultFestivalsURL = "./public/data/texas_songwriter_festivals_2025_2026.json"
	DefaultVenuesURL    = "./public/data/texas-music-venues.json"
	DefaultDomain       = "festdir.local"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "json"
	DefaultSnapshotPath = "./cache/calendar.png"
	DefaultSnapshotW    = 1280
	DefaultSnapshotH    = 1600
	DefaultSnapshotSecs = 30
)

// SnapshotConfig controls the headless calendar screenshot.
type SnapshotConfig struct {
	// Page is the path (relative to the listen address) to capture.
	Page           string `yaml:"page" json:"page"`
	Path           string `yaml:"path" json:"path" validate:"required"`
	Width          int    `yaml:"width" json:"width" validate:"gte=320,lte=8192"`
	Height         int    `yaml:"height" json:"height" validate:"gte=320,lte=8192"`
	TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds" validate:"gte=1,lte=600"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API.
	Listen string `yaml:"listen" json:"listen" validate:"required,hostname_port"`

	// Timezone is the IANA timezone that decides what "today" is when
	// separating upcoming from past instances.
	Timezone string `yaml:"timezone" json:"timezone" validate:"required,timezone"`

	// WeekStart controls which weekday is treated as the first day of the week
	// in calendar grids: "sunday" (default) or "monday".
	WeekStart string `yaml:"week_start" json:"week_start" validate:"oneof=monday sunday"`

	// RefreshCron is a cron-style schedule string (e.g. "0 */6 * * *").
	// Each tick starts a new dataset session.
	RefreshCron string `yaml:"refresh" json:"refresh" validate:"required"`

	// FestivalsURL and VenuesURL locate the datasets: http(s) URLs or local
	// file paths.
	FestivalsURL string `yaml:"festivals_url" json:"festivals_url" validate:"required"`
	VenuesURL    string `yaml:"venues_url" json:"venues_url"`

	// CalendarDomain qualifies UIDs in exported calendar invites.
	CalendarDomain string `yaml:"calendar_domain" json:"calendar_domain" validate:"required,hostname"`

	LogLevel  string `yaml:"log_level" json:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string `yaml:"log_format" json:"log_format" validate:"oneof=json console"`

	Snapshot SnapshotConfig `yaml:"snapshot" json:"snapshot"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:         DefaultListen,
		Timezone:       DefaultTimezone,
		WeekStart:      DefaultWeekStart,
		RefreshCron:    DefaultRefresh,
		FestivalsURL:   DefaultFestivalsURL,
		VenuesURL:      DefaultVenuesURL,
		CalendarDomain: DefaultDomain,
		LogLevel:       DefaultLogLevel,
		LogFormat:      DefaultLogFormat,
		Snapshot: SnapshotConfig{
			Page:           "/",
			Path:           DefaultSnapshotPath,
			Width:          DefaultSnapshotW,
			Height:         DefaultSnapshotH,
			TimeoutSeconds: DefaultSnapshotSecs,
		},
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
	// Unknown week starts fall back to sunday to avoid surprising layouts.
	c.WeekStart = strings.ToLower(strings.TrimSpace(c.WeekStart))
	if c.WeekStart != "monday" && c.WeekStart != "sunday" {
		c.WeekStart = DefaultWeekStart
	}
	if c.RefreshCron == "" {
		c.RefreshCron = DefaultRefresh
	}
	if c.FestivalsURL == "" {
		c.FestivalsURL = DefaultFestivalsURL
	}
	if c.CalendarDomain == "" {
		c.CalendarDomain = DefaultDomain
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
	if c.Snapshot.Page == "" {
		c.Snapshot.Page = "/"
	}
	if c.Snapshot.Path == "" {
		c.Snapshot.Path = DefaultSnapshotPath
	}
	if c.Snapshot.Width <= 0 {
		c.Snapshot.Width = DefaultSnapshotW
	}
	if c.Snapshot.Height <= 0 {
		c.Snapshot.Height = DefaultSnapshotH
	}
	if c.Snapshot.TimeoutSeconds <= 0 {
		c.Snapshot.TimeoutSeconds = DefaultSnapshotSecs
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints after Normalize.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("config: invalid: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("config: invalid: %w", err)
	}
	return nil
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults and validate
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".festdir-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
