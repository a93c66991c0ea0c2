package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ICSConfig describes a single ICS subscription source.
type ICSConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for de-dup and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label shown in the UI.
	Name string `yaml:"name" json:"name"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address of the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone views and events are displayed in.
	Timezone string `yaml:"timezone" json:"timezone"`

	// WeekStart is "monday" (default) or "sunday".
	WeekStart string `yaml:"week_start" json:"week_start"`

	// RefreshCron is the cron schedule (e.g. "*/15 * * * *") on which
	// ICS feeds are re-fetched.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// HorizonDays bounds the All view to this many days around today.
	HorizonDays int `yaml:"horizon_days" json:"horizon_days"`

	// MaxViews caps the views mounted through the API at once.
	MaxViews int `yaml:"max_views" json:"max_views"`

	// ViewIdleMinutes unmounts API views that have not been used for this
	// long.
	ViewIdleMinutes int `yaml:"view_idle_minutes" json:"view_idle_minutes"`

	// CacheDir holds the per-feed HTTP cache.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// LogLevel is "debug", "info" or "error".
	LogLevel string `yaml:"log_level" json:"log_level"`

	// Colors overrides or extends the event status palette.
	Colors map[string]string `yaml:"colors,omitempty" json:"colors,omitempty"`

	// ICS is the list of subscribed ICS sources.
	ICS []ICSConfig `yaml:"ics" json:"ics"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

const (
	defaultListen      = "127.0.0.1:8080"
	defaultTimezone    = "UTC"
	defaultWeekStart   = "monday"
	defaultRefreshCron = "*/15 * * * *"
	defaultHorizonDays = 365
	defaultMaxViews    = 1000
	defaultViewIdle    = 30
	defaultCacheDir    = "./var/ics-cache"
	defaultLogLevel    = "info"
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:          defaultListen,
		Timezone:        defaultTimezone,
		WeekStart:       defaultWeekStart,
		RefreshCron:     defaultRefreshCron,
		HorizonDays:     defaultHorizonDays,
		MaxViews:        defaultMaxViews,
		ViewIdleMinutes: defaultViewIdle,
		CacheDir:        defaultCacheDir,
		LogLevel:        defaultLogLevel,
		ICS:             []ICSConfig{},
	}
}

// Normalize fills in missing values so partially written files behave.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	switch strings.ToLower(c.WeekStart) {
	case "monday", "sunday":
		c.WeekStart = strings.ToLower(c.WeekStart)
	default:
		// Unknown value; fall back to monday to avoid surprising layouts.
		c.WeekStart = defaultWeekStart
	}
	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefreshCron
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = defaultHorizonDays
	}
	if c.MaxViews <= 0 {
		c.MaxViews = defaultMaxViews
	}
	if c.ViewIdleMinutes <= 0 {
		c.ViewIdleMinutes = defaultViewIdle
	}
	if c.CacheDir == "" {
		c.CacheDir = defaultCacheDir
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
	for i := range c.ICS {
		if c.ICS[i].ID == "" {
			c.ICS[i].ID = c.ICS[i].SourceID()
		}
	}
}

// SourceID is the identifier used in logs: ID, then Name, then URL.
func (s ICSConfig) SourceID() string {
	switch {
	case s.ID != "":
		return s.ID
	case s.Name != "":
		return s.Name
	default:
		return s.URL
	}
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// FirstWeekday maps WeekStart to a time.Weekday.
func (c *Config) FirstWeekday() time.Weekday {
	if strings.EqualFold(c.WeekStart, "sunday") {
		return time.Sunday
	}
	return time.Monday
}

// Horizon is HorizonDays as a duration.
func (c *Config) Horizon() time.Duration {
	return time.Duration(c.HorizonDays) * 24 * time.Hour
}

// ViewIdleTimeout is ViewIdleMinutes as a duration.
func (c *Config) ViewIdleTimeout() time.Duration {
	return time.Duration(c.ViewIdleMinutes) * time.Minute
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written there with
//     0600 permissions and returned.
//   - Otherwise the YAML is read and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
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
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600
// permissions, creating the parent directory with 0700 if needed.
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

	tmp, err := os.CreateTemp(dir, ".calview-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
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

// Save is a convenience method delegating to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
