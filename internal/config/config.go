package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/trade-engine/minute-store/internal/calendar"
)

type Config struct {
	Application Application    `yaml:"application"`
	Session     Session        `yaml:"session"`
	Storage     Storage        `yaml:"storage"`
	Calendar    CalendarConfig `yaml:"calendar"`
}

type Application struct {
	Name     string `yaml:"name"`
	LogLevel string `yaml:"log_level"`
}

// Session fixes the per-day minute grid geometry. Writer and reader of the
// same store must share these values.
type Session struct {
	MinutesPerDay int    `yaml:"minutes_per_day"`
	Open          string `yaml:"open"`
	Timezone      string `yaml:"timezone"`
}

type Storage struct {
	BasePath   string  `yaml:"base_path"`
	PriceScale float64 `yaml:"price_scale"`
}

// CalendarConfig generates the trading-day window: weekdays between start
// and end minus the listed holidays.
type CalendarConfig struct {
	Start    string   `yaml:"start"`
	End      string   `yaml:"end"`
	Holidays []string `yaml:"holidays"`
}

const dayLayout = "2006-01-02"

func Default() *Config {
	return &Config{
		Application: Application{
			Name:     "minute-store",
			LogLevel: "info",
		},
		Session: Session{
			MinutesPerDay: 390,
			Open:          "09:31",
			Timezone:      "America/New_York",
		},
		Storage: Storage{
			BasePath:   "data/minute",
			PriceScale: 1000,
		},
		Calendar: CalendarConfig{
			Start: "2002-01-01",
			End:   "2002-12-31",
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v, ok := os.LookupEnv("MINUTE_STORE_BASE_PATH"); ok && v != "" {
		cfg.Storage.BasePath = v
	}
	if v, ok := os.LookupEnv("MINUTE_STORE_LOG_LEVEL"); ok && v != "" {
		cfg.Application.LogLevel = v
	}
}

func (c *Config) Validate() error {
	if c.Session.MinutesPerDay <= 0 {
		return fmt.Errorf("session.minutes_per_day must be positive, got %d", c.Session.MinutesPerDay)
	}
	if c.Storage.PriceScale <= 0 {
		return fmt.Errorf("storage.price_scale must be positive, got %g", c.Storage.PriceScale)
	}
	if _, err := time.Parse(dayLayout, c.Calendar.Start); err != nil {
		return fmt.Errorf("calendar.start: %w", err)
	}
	if _, err := time.Parse(dayLayout, c.Calendar.End); err != nil {
		return fmt.Errorf("calendar.end: %w", err)
	}
	return nil
}

// TradingSession resolves the configured session geometry.
func (c *Config) TradingSession() (calendar.Session, error) {
	return calendar.NewSession(c.Session.MinutesPerDay, c.Session.Open, c.Session.Timezone)
}

// TradingCalendar generates the configured trading-day window.
func (c *Config) TradingCalendar() (*calendar.Calendar, error) {
	start, err := time.Parse(dayLayout, c.Calendar.Start)
	if err != nil {
		return nil, fmt.Errorf("calendar.start: %w", err)
	}
	end, err := time.Parse(dayLayout, c.Calendar.End)
	if err != nil {
		return nil, fmt.Errorf("calendar.end: %w", err)
	}

	holidays := make([]time.Time, 0, len(c.Calendar.Holidays))
	for _, h := range c.Calendar.Holidays {
		day, err := time.Parse(dayLayout, h)
		if err != nil {
			return nil, fmt.Errorf("calendar.holidays %q: %w", h, err)
		}
		holidays = append(holidays, day)
	}

	return calendar.Weekdays(start, end, holidays...), nil
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
