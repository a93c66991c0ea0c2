package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadNormalizesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
timezone: Europe/Berlin
week_start: Sunday
colors:
  holiday: "#ff0000"
ics:
  - url: https://example.com/a.ics
    name: Team
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Listen)
	assert.Equal(t, "sunday", cfg.WeekStart)
	assert.Equal(t, time.Sunday, cfg.FirstWeekday())
	assert.Equal(t, "*/15 * * * *", cfg.RefreshCron)
	assert.Equal(t, 365*24*time.Hour, cfg.Horizon())
	assert.Equal(t, 1000, cfg.MaxViews)
	assert.Equal(t, 30*time.Minute, cfg.ViewIdleTimeout())
	assert.Equal(t, "#ff0000", cfg.Colors["holiday"])
	require.Len(t, cfg.ICS, 1)
	assert.Equal(t, "Team", cfg.ICS[0].ID)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: [unclosed"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestUnknownWeekStartFallsBackToMonday(t *testing.T) {
	cfg := &Config{WeekStart: "friday"}
	cfg.Normalize()
	assert.Equal(t, "monday", cfg.WeekStart)
	assert.Equal(t, time.Monday, cfg.FirstWeekday())
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Listen = ":9090"
	cfg.BasicAuth = &BasicAuthConfig{Username: "u", Password: "p"}

	require.NoError(t, cfg.Save(path))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestInvalidTimezone(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timezone = "Mars/Olympus"
	_, err := cfg.Location()
	assert.Error(t, err)
}
