package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	session, err := cfg.TradingSession()
	require.NoError(t, err)
	assert.Equal(t, 390, session.MinutesPerDay)
	assert.Equal(t, 9, session.OpenHour)
	assert.Equal(t, 31, session.OpenMinute)

	cal, err := cfg.TradingCalendar()
	require.NoError(t, err)
	assert.Greater(t, cal.Len(), 200, "a year of weekdays")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	body := `
application:
  log_level: debug
session:
  minutes_per_day: 60
  open: "10:00"
  timezone: UTC
storage:
  base_path: /tmp/bars
  price_scale: 100
calendar:
  start: "2020-01-01"
  end: "2020-03-31"
  holidays:
    - "2020-01-01"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Application.LogLevel)
	assert.Equal(t, "minute-store", cfg.Application.Name, "unset fields keep defaults")
	assert.Equal(t, 60, cfg.Session.MinutesPerDay)
	assert.Equal(t, float64(100), cfg.Storage.PriceScale)

	cal, err := cfg.TradingCalendar()
	require.NoError(t, err)
	assert.False(t, cal.Contains(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, cal.Contains(time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)))
}

func TestLoadEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("application:\n  log_level: info\n"), 0644))

	t.Setenv("MINUTE_STORE_BASE_PATH", "/mnt/minute")
	t.Setenv("MINUTE_STORE_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/mnt/minute", cfg.Storage.BasePath)
	assert.Equal(t, "warn", cfg.Application.LogLevel)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero session minutes", func(c *Config) { c.Session.MinutesPerDay = 0 }},
		{"negative price scale", func(c *Config) { c.Storage.PriceScale = -1 }},
		{"bad calendar start", func(c *Config) { c.Calendar.Start = "soon" }},
		{"bad calendar end", func(c *Config) { c.Calendar.End = "02/01/2002" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")

	cfg := Default()
	cfg.Storage.BasePath = "data/test"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
