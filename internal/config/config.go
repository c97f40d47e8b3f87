package config

import (
	"encoding/json"
	"fmt"
	"os"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

type Config struct {
	Prober    ProberConfig    `json:"prober"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Proxies   ProxiesConfig   `json:"proxies"`
	Storage   StorageConfig   `json:"storage"`
	API       APIConfig       `json:"api"`
	Metrics   MetricsConfig   `json:"metrics"`
	Logging   LoggingConfig   `json:"logging"`
}

type ProberConfig struct {
	TestURL   string `json:"test_url"`
	TimeoutMs int    `json:"timeout_ms"`
	PoolSize  int    `json:"pool_size"`
}

type SchedulerConfig struct {
	IntervalSeconds int `json:"interval_seconds"`
}

type ProxiesConfig struct {
	File string `json:"file"`
}

type StorageConfig struct {
	Type string `json:"type"` // "sqlite", "redis", "memory"
	Path string `json:"path"`
}

type APIConfig struct {
	Addr               string `json:"addr"`
	RateLimitPerMinute int    `json:"rate_limit_per_minute"`
	EnableIPRateLimit  bool   `json:"enable_ip_rate_limit"`
}

type MetricsConfig struct {
	Enabled   bool   `json:"enabled"`
	Endpoint  string `json:"endpoint"`
	Namespace string `json:"namespace"`
}

type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// Load reads configuration from a JSON file. A missing file yields the
// defaults.
func Load(filePath string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(filePath)
	switch {
	case os.IsNotExist(err):
		// Run on defaults.
	case err != nil:
		return nil, fmt.Errorf("read config file: %w", err)
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config JSON: %w", err)
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Prober.TestURL == "" {
		c.Prober.TestURL = "https://icanhazip.com"
	}
	if c.Prober.TimeoutMs == 0 {
		c.Prober.TimeoutMs = 8000
	}
	if c.Prober.PoolSize == 0 {
		c.Prober.PoolSize = 20
	}
	if c.Scheduler.IntervalSeconds == 0 {
		c.Scheduler.IntervalSeconds = 60
	}
	if c.Proxies.File == "" {
		c.Proxies.File = "proxies.txt"
	}
	if c.Storage.Type == "" {
		c.Storage.Type = "sqlite"
	}
	if c.Storage.Path == "" && c.Storage.Type == "sqlite" {
		c.Storage.Path = "proxies.db"
	}
	if c.API.Addr == "" {
		c.API.Addr = "127.0.0.1:3000"
	}
	if c.API.RateLimitPerMinute == 0 {
		c.API.RateLimitPerMinute = 1200
	}
	if c.Metrics.Endpoint == "" {
		c.Metrics.Endpoint = "/metrics"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "socksy"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	return validation.Errors{
		"prober": validation.ValidateStruct(&c.Prober,
			validation.Field(&c.Prober.TestURL, validation.Required, is.URL),
			validation.Field(&c.Prober.TimeoutMs, validation.Min(100), validation.Max(300000)),
			validation.Field(&c.Prober.PoolSize, validation.Min(1), validation.Max(10000)),
		),
		"scheduler": validation.ValidateStruct(&c.Scheduler,
			validation.Field(&c.Scheduler.IntervalSeconds, validation.Min(1), validation.Max(86400)),
		),
		"proxies": validation.ValidateStruct(&c.Proxies,
			validation.Field(&c.Proxies.File, validation.Required),
		),
		"storage": validation.ValidateStruct(&c.Storage,
			validation.Field(&c.Storage.Type, validation.Required,
				validation.In("sqlite", "redis", "memory")),
			validation.Field(&c.Storage.Path,
				validation.When(c.Storage.Type != "memory", validation.Required)),
		),
		"api": validation.ValidateStruct(&c.API,
			validation.Field(&c.API.Addr, validation.Required),
			validation.Field(&c.API.RateLimitPerMinute, validation.Min(1)),
		),
	}.Filter()
}
