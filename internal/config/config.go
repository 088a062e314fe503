// Package config holds the proautofill service configuration.
package config

import (
	"errors"
	"fmt"
	"time"

	infraconfig "github.com/Activ8Auto/ProAutoFill/infrastructure/config"
)

const (
	defaultServiceName     = "proautofill"
	defaultBackendTimeout  = 15 * time.Second
	defaultPollInterval    = 10 * time.Second
	defaultJobsPageSize    = 4
	defaultRecentRunsLimit = 5
	defaultTimeframe       = "week"

	// StoreMemory keeps sessions in process.
	StoreMemory = "memory"
	// StoreRedis persists sessions in redis.
	StoreRedis = "redis"

	// ProgressDocumented reports finished jobs as Σ chosen / Σ chosen.
	ProgressDocumented = "documented"
	// ProgressTarget reports finished jobs against their target minutes.
	ProgressTarget = "target"
)

// Config is the full service configuration.
type Config struct {
	Service   ServiceConfig             `yaml:"service"`
	Server    infraconfig.ServerConfig  `yaml:"server"`
	Backend   BackendConfig             `yaml:"backend"`
	Auth      AuthConfig                `yaml:"auth"`
	Session   SessionConfig             `yaml:"session"`
	Redis     infraconfig.RedisConfig   `yaml:"redis"`
	Poller    PollerConfig              `yaml:"poller"`
	Logging   infraconfig.LoggingConfig `yaml:"logging"`
	Dashboard DashboardConfig           `yaml:"dashboard"`
}

// ServiceConfig identifies the running service.
type ServiceConfig struct {
	Name    string `yaml:"name"`
	Version string `env:"APP_VERSION" yaml:"version"`
	Debug   bool   `env:"APP_DEBUG"   yaml:"debug"`
}

// BackendConfig points at the AutoFillPro REST API.
type BackendConfig struct {
	BaseURL              string        `env:"PROAUTOFILL_API_URL"          yaml:"base_url"`
	Timeout              time.Duration `env:"PROAUTOFILL_API_TIMEOUT"      yaml:"timeout"`
	StripePublishableKey string        `env:"STRIPE_PUBLISHABLE_KEY"       yaml:"stripe_publishable_key"`
}

// AuthConfig controls token decoding. An empty JWTSecret decodes tokens
// without verifying the signature.
type AuthConfig struct {
	JWTSecret string `env:"AUTH_JWT_SECRET" yaml:"jwt_secret"`
}

// SessionConfig selects the session store.
type SessionConfig struct {
	Store string `env:"SESSION_STORE" yaml:"store"`
	// ExpirySkew ends sessions slightly before the token's exp claim.
	ExpirySkew time.Duration `yaml:"expiry_skew"`
}

// PollerConfig controls the per-user jobs poller.
type PollerConfig struct {
	Interval time.Duration `env:"POLLER_INTERVAL" yaml:"interval"`
	Enabled  *bool         `yaml:"enabled"`
}

// IsEnabled defaults to true.
func (c PollerConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// DashboardConfig holds presentation defaults.
type DashboardConfig struct {
	DefaultTimeframe    string `env:"PROAUTOFILL_TIMEFRAME" yaml:"default_timeframe"`
	JobsPageSize        int    `yaml:"jobs_page_size"`
	RecentRunsLimit     int    `yaml:"recent_runs_limit"`
	FinishedJobProgress string `yaml:"finished_job_progress"`
}

// Load reads path and applies defaults, then validates.
func Load(path string) (*Config, error) {
	cfg, err := infraconfig.LoadWithDefaults[Config](path, setDefaults)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if validateErr := cfg.Validate(); validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Service.Name == "" {
		cfg.Service.Name = defaultServiceName
	}
	if cfg.Service.Version == "" {
		cfg.Service.Version = "dev"
	}
	cfg.Server.SetDefaults()
	cfg.Redis.SetDefaults()
	cfg.Logging.SetDefaults()
	if cfg.Service.Debug && cfg.Logging.Level == "info" {
		cfg.Logging.Level = "debug"
	}

	if cfg.Backend.Timeout == 0 {
		cfg.Backend.Timeout = defaultBackendTimeout
	}
	if cfg.Session.Store == "" {
		cfg.Session.Store = StoreMemory
	}
	if cfg.Poller.Interval == 0 {
		cfg.Poller.Interval = defaultPollInterval
	}
	if cfg.Dashboard.DefaultTimeframe == "" {
		cfg.Dashboard.DefaultTimeframe = defaultTimeframe
	}
	if cfg.Dashboard.JobsPageSize == 0 {
		cfg.Dashboard.JobsPageSize = defaultJobsPageSize
	}
	if cfg.Dashboard.RecentRunsLimit == 0 {
		cfg.Dashboard.RecentRunsLimit = defaultRecentRunsLimit
	}
	if cfg.Dashboard.FinishedJobProgress == "" {
		cfg.Dashboard.FinishedJobProgress = ProgressDocumented
	}
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	checks := []error{
		infraconfig.ValidatePort("server.port", c.Server.Port),
		infraconfig.ValidateURL("backend.base_url", c.Backend.BaseURL),
		c.Logging.Validate(),
		infraconfig.ValidateOneOf("session.store", c.Session.Store, StoreMemory, StoreRedis),
		infraconfig.ValidateOneOf("dashboard.default_timeframe", c.Dashboard.DefaultTimeframe, "day", "week", "month"),
		infraconfig.ValidateOneOf("dashboard.finished_job_progress", c.Dashboard.FinishedJobProgress,
			ProgressDocumented, ProgressTarget),
	}

	if c.Dashboard.JobsPageSize < 1 {
		checks = append(checks, &infraconfig.ValidationError{Field: "dashboard.jobs_page_size", Message: "must be positive"})
	}
	if c.Dashboard.RecentRunsLimit < 1 {
		checks = append(checks, &infraconfig.ValidationError{Field: "dashboard.recent_runs_limit", Message: "must be positive"})
	}
	if c.Poller.Interval <= 0 {
		checks = append(checks, &infraconfig.ValidationError{Field: "poller.interval", Message: "must be positive"})
	}
	if c.Session.Store == StoreRedis {
		checks = append(checks, infraconfig.ValidateRequired("redis.address", c.Redis.Address))
	}

	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	return nil
}

// IsValidationError reports whether err carries a field validation failure.
func IsValidationError(err error) bool {
	var ve *infraconfig.ValidationError
	return errors.As(err, &ve)
}
