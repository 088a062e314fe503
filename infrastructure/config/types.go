package config

import (
	"strconv"
	"time"
)

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host        string        `yaml:"host"`
	Port        int           `env:"PROAUTOFILL_PORT" yaml:"port"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
	// WriteTimeout stays zero by default: SSE streams are long-lived.
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
	// CORSOrigins lists the dashboard origins. Empty allows any origin.
	CORSOrigins []string `env:"CORS_ORIGINS" yaml:"cors_origins"`
}

// Address returns host:port.
func (c *ServerConfig) Address() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// SetDefaults fills empty fields.
func (c *ServerConfig) SetDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 30 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 120 * time.Second
	}
}

// RedisConfig holds connection settings for the optional redis session store.
type RedisConfig struct {
	Address   string `env:"REDIS_ADDRESS"  yaml:"address"`
	Password  string `env:"REDIS_PASSWORD" yaml:"password"`
	DB        int    `env:"REDIS_DB"       yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// SetDefaults fills empty fields.
func (c *RedisConfig) SetDefaults() {
	if c.Address == "" {
		c.Address = "localhost:6379"
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = "proautofill:session:"
	}
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL"  yaml:"level"`
	Format string `env:"LOG_FORMAT" yaml:"format"`
}

// SetDefaults fills empty fields.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "json"
	}
}

// Validate checks level and format.
func (c *LoggingConfig) Validate() error {
	if err := ValidateLogLevel(c.Level); err != nil {
		return err
	}
	return ValidateLogFormat(c.Format)
}
