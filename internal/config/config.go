package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port" validate:"min=1,max=65535"`
		Mode string `yaml:"mode" validate:"oneof=debug release test"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format" validate:"oneof=json console"`
	} `yaml:"log"`
	Storage struct {
		Driver      string `yaml:"driver" validate:"oneof=memory sqlite postgres redis badger"`
		SQLitePath  string `yaml:"sqlite_path"`
		PostgresDSN string `yaml:"postgres_dsn"`
		RedisAddr   string `yaml:"redis_addr"`
		RedisDB     int    `yaml:"redis_db" validate:"min=0"`
		BadgerPath  string `yaml:"badger_path"`
	} `yaml:"storage"`
	Sources struct {
		NavURL         string        `yaml:"nav_url" validate:"required,url"`
		AumURL         string        `yaml:"aum_url" validate:"required,url"`
		IndexURL       string        `yaml:"index_url" validate:"required,url"`
		IndexSymbol    string        `yaml:"index_symbol" validate:"required"`
		RequestTimeout time.Duration `yaml:"request_timeout" validate:"gt=0"`
		RatePerSecond  float64       `yaml:"rate_per_second" validate:"gt=0"`
		Burst          int           `yaml:"burst" validate:"min=1"`
		Proxy          string        `yaml:"proxy"`
	} `yaml:"sources"`
	Funds struct {
		File  string `yaml:"file"`
		Watch bool   `yaml:"watch"`
	} `yaml:"funds"`
	Cache struct {
		RetentionYears int `yaml:"retention_years" validate:"min=1"`
		// Timezone decides where a calendar day starts, for "today" checks
		// and for index bar dates.
		Timezone string `yaml:"timezone"`
	} `yaml:"cache"`
	Schedule struct {
		Enabled     bool   `yaml:"enabled"`
		RefreshCron string `yaml:"refresh_cron"`
		RefreshDays int    `yaml:"refresh_days" validate:"min=1"`
	} `yaml:"schedule"`
	Aum struct {
		// YearIDs maps a calendar year to the report's Year_Id form value.
		YearIDs map[string]string `yaml:"year_ids"`
	} `yaml:"aum"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("NAVSENTINEL_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("NAVSENTINEL_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("NAVSENTINEL_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("NAVSENTINEL_STORAGE"); v != "" {
		c.Storage.Driver = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Storage.SQLitePath = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Storage.PostgresDSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Storage.RedisAddr = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Sources.Proxy = v
	}
	if v := os.Getenv("NAVSENTINEL_TZ"); v != "" {
		c.Cache.Timezone = v
	}
	if v := os.Getenv("FUNDS_FILE"); v != "" {
		c.Funds.File = v
	}
	if v := os.Getenv("REFRESH_CRON"); v != "" {
		c.Schedule.RefreshCron = v
		c.Schedule.Enabled = true
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "sqlite"
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "data/navsentinel.db"
	}
	if c.Storage.BadgerPath == "" {
		c.Storage.BadgerPath = "data/badger"
	}
	if c.Sources.NavURL == "" {
		c.Sources.NavURL = "https://www.amfiindia.com/modules/NavHistoryPeriod"
	}
	if c.Sources.AumURL == "" {
		c.Sources.AumURL = "https://www.amfiindia.com/modules/AverageAUMDetails"
	}
	if c.Sources.IndexURL == "" {
		c.Sources.IndexURL = "https://query1.finance.yahoo.com/v8/finance/chart"
	}
	if c.Sources.IndexSymbol == "" {
		c.Sources.IndexSymbol = "^NSEI"
	}
	if c.Sources.RequestTimeout == 0 {
		c.Sources.RequestTimeout = 30 * time.Second
	}
	if c.Sources.RatePerSecond == 0 {
		c.Sources.RatePerSecond = 2
	}
	if c.Sources.Burst == 0 {
		c.Sources.Burst = 2
	}
	if c.Funds.File == "" {
		c.Funds.File = "configs/funds.yaml"
	}
	if c.Cache.RetentionYears == 0 {
		c.Cache.RetentionYears = 5
	}
	if c.Cache.Timezone == "" {
		c.Cache.Timezone = "Asia/Kolkata"
	}
	if c.Schedule.RefreshCron == "" {
		c.Schedule.RefreshCron = "0 30 23 * * 1-5"
	}
	if c.Schedule.RefreshDays == 0 {
		c.Schedule.RefreshDays = 30
	}
	if c.Aum.YearIDs == nil {
		c.Aum.YearIDs = map[string]string{"2025": "1"}
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	switch c.Storage.Driver {
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path is required")
		}
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn is required")
		}
	case "redis":
		if c.Storage.RedisAddr == "" {
			return fmt.Errorf("storage.redis_addr is required")
		}
	case "badger":
		if c.Storage.BadgerPath == "" {
			return fmt.Errorf("storage.badger_path is required")
		}
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Schedule.Enabled && c.Schedule.RefreshCron == "" {
		return fmt.Errorf("schedule.refresh_cron is required when schedule is enabled")
	}
	return nil
}

// Location resolves cache.timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Cache.Timezone)
	if err != nil {
		return nil, fmt.Errorf("cache.timezone %q: %w", c.Cache.Timezone, err)
	}
	return loc, nil
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
