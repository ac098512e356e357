// Package config loads service settings from YAML with environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"feastly/internal/delivery"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Environment string `yaml:"environment"`
	Port        int    `yaml:"port"`
	LogLevel    string `yaml:"log_level"`

	Database struct {
		Driver       string `yaml:"driver"`
		DSN          string `yaml:"dsn"`
		LogMode      bool   `yaml:"log_mode"`
		MaxIdleConns int    `yaml:"max_idle_conns"`
		MaxOpenConns int    `yaml:"max_open_conns"`
	} `yaml:"database"`

	Auth struct {
		JWTSecret  string        `yaml:"jwt_secret"`
		TokenTTL   time.Duration `yaml:"token_ttl"`
		BcryptCost int           `yaml:"bcrypt_cost"`
		RateLimit  struct {
			RPS   float64 `yaml:"rps"`
			Burst int     `yaml:"burst"`
		} `yaml:"rate_limit"`
	} `yaml:"auth"`

	Delivery struct {
		MinutesPerActiveOrder float64               `yaml:"minutes_per_active_order"`
		PeakMultiplier        float64               `yaml:"peak_multiplier"`
		PeakWindows           delivery.PeakSchedule `yaml:"peak_windows"`
		TimeZone              string                `yaml:"time_zone"`
	} `yaml:"delivery"`

	Checkout struct {
		TaxRate float64 `yaml:"tax_rate"`
	} `yaml:"checkout"`

	Events struct {
		RedisURL     string   `yaml:"redis_url"`
		KafkaBrokers []string `yaml:"kafka_brokers"`
		KafkaTopic   string   `yaml:"kafka_topic"`
	} `yaml:"events"`

	MetricsConfig struct {
		Enabled bool   `yaml:"enabled"`
		Port    int    `yaml:"port"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	cfg := &Config{
		Environment: "development",
		Port:        8080,
		LogLevel:    "info",
	}
	cfg.Database.Driver = "sqlite3"
	cfg.Database.DSN = "feastly.db"
	cfg.Database.MaxIdleConns = 10
	cfg.Database.MaxOpenConns = 100

	cfg.Auth.TokenTTL = time.Hour
	cfg.Auth.RateLimit.RPS = 1
	cfg.Auth.RateLimit.Burst = 5

	cfg.Delivery.MinutesPerActiveOrder = delivery.DefaultMinutesPerActiveOrder
	cfg.Delivery.PeakMultiplier = delivery.DefaultPeakMultiplier
	cfg.Delivery.PeakWindows = delivery.DefaultPeakSchedule
	cfg.Delivery.TimeZone = "Local"

	cfg.Events.KafkaTopic = "order-events"

	cfg.MetricsConfig.Enabled = true
	cfg.MetricsConfig.Port = 9090
	cfg.MetricsConfig.Path = "/metrics"
	return cfg
}

// Load reads path (optional) over the defaults and then applies FEASTLY_* overrides
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	str("FEASTLY_ENV", &c.Environment)
	str("FEASTLY_DB_DRIVER", &c.Database.Driver)
	str("FEASTLY_DB_DSN", &c.Database.DSN)
	str("FEASTLY_JWT_SECRET", &c.Auth.JWTSecret)
	str("FEASTLY_REDIS_URL", &c.Events.RedisURL)
	str("FEASTLY_TIME_ZONE", &c.Delivery.TimeZone)

	if v, ok := lookup("FEASTLY_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid FEASTLY_PORT %q: %w", v, err)
		}
		c.Port = port
	}
	if v, ok := lookup("FEASTLY_KAFKA_BROKERS"); ok {
		c.Events.KafkaBrokers = splitList(v)
	}
	if v, ok := lookup("FEASTLY_PEAK_WINDOWS"); ok {
		schedule, err := delivery.ParsePeakSchedule(v)
		if err != nil {
			return fmt.Errorf("invalid FEASTLY_PEAK_WINDOWS: %w", err)
		}
		c.Delivery.PeakWindows = schedule
	}
	if v, ok := lookup("FEASTLY_TAX_RATE"); ok {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid FEASTLY_TAX_RATE %q: %w", v, err)
		}
		c.Checkout.TaxRate = rate
	}
	return nil
}

// Validate checks values that would otherwise fail later at runtime
func (c *Config) Validate() error {
	if c.Port <= 0 {
		return errors.New("port must be positive")
	}
	if c.Delivery.MinutesPerActiveOrder < 0 {
		return errors.New("delivery.minutes_per_active_order must not be negative")
	}
	if c.Delivery.PeakMultiplier < 1 {
		return errors.New("delivery.peak_multiplier must be at least 1")
	}
	if err := c.Delivery.PeakWindows.Validate(); err != nil {
		return fmt.Errorf("delivery.peak_windows: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Checkout.TaxRate < 0 {
		return errors.New("checkout.tax_rate must not be negative")
	}
	if c.IsProduction() && c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required in production")
	}
	return nil
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Location resolves the delivery time zone
func (c *Config) Location() (*time.Location, error) {
	if c.Delivery.TimeZone == "" || c.Delivery.TimeZone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Delivery.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid delivery.time_zone: %w", err)
	}
	return loc, nil
}

// EstimatorOptions turns the delivery settings into estimator options
func (c *Config) EstimatorOptions() []delivery.Option {
	loc, _ := c.Location()
	return []delivery.Option{
		delivery.WithLocation(loc),
		delivery.WithMinutesPerActiveOrder(c.Delivery.MinutesPerActiveOrder),
		delivery.WithPeakMultiplier(c.Delivery.PeakMultiplier),
		delivery.WithPeakSchedule(c.Delivery.PeakWindows),
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
