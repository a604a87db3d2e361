// Package config loads snow-export settings from an optional file and the
// environment.
package config

import (
	"fmt"
	"time"

	"github.com/Sternrassler/servicenow-client/pkg/client"
	"github.com/Sternrassler/servicenow-client/pkg/logging"
	"github.com/go-playground/validator/v10"
)

// Sink types.
const (
	SinkStdout = "stdout"
	SinkRedis  = "redis"
)

// Config is the complete snow-export configuration.
type Config struct {
	ServiceNow ServiceNowConfig `mapstructure:"servicenow"`
	Retry      RetryConfig      `mapstructure:"retry"`
	Export     ExportConfig     `mapstructure:"export"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Log        LogConfig        `mapstructure:"log"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// ServiceNowConfig identifies the instance and account.
type ServiceNowConfig struct {
	Hostname string        `mapstructure:"hostname"`
	Username string        `mapstructure:"username" validate:"required"`
	Password string        `mapstructure:"password" validate:"required"`
	HTTP2    bool          `mapstructure:"http2"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// RetryConfig bounds the retry of cancelled transactions.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts" validate:"gte=1"`
	MinBackoff  time.Duration `mapstructure:"min_backoff" validate:"gte=0,ltefield=MaxBackoff"`
	MaxBackoff  time.Duration `mapstructure:"max_backoff" validate:"gte=0"`
}

// ExportConfig controls the built-in queries.
type ExportConfig struct {
	// PageSize of 0 selects the query's default.
	PageSize int      `mapstructure:"page_size" validate:"gte=0"`
	Statuses []string `mapstructure:"statuses" validate:"dive,required"`
	Sink     string   `mapstructure:"sink" validate:"oneof=stdout redis"`
}

// RedisConfig is used by the redis sink.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr" validate:"omitempty,hostname_port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db" validate:"gte=0,lte=15"`
	Key      string        `mapstructure:"key"`
	TTL      time.Duration `mapstructure:"ttl" validate:"gte=0"`
}

// LogConfig mirrors logging.Config.
type LogConfig struct {
	Level          string `mapstructure:"level" validate:"oneof=debug info warn error disabled"`
	TransportLevel string `mapstructure:"transport_level" validate:"oneof=debug info warn error disabled"`
	Pretty         bool   `mapstructure:"pretty"`
}

// MetricsConfig configures the Prometheus endpoint. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr" validate:"omitempty,hostname_port"`
}

var validate = validator.New()

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Export.Sink == SinkRedis && c.Redis.Addr == "" {
		return fmt.Errorf("invalid config: redis.addr is required for the redis sink")
	}
	return nil
}

// ClientConfig returns the client configuration.
func (c *Config) ClientConfig() client.Config {
	cfg := client.DefaultConfig()
	cfg.Hostname = c.ServiceNow.Hostname
	cfg.Username = c.ServiceNow.Username
	cfg.Password = c.ServiceNow.Password
	cfg.HTTP2 = c.ServiceNow.HTTP2
	if c.ServiceNow.Timeout > 0 {
		cfg.Timeout = c.ServiceNow.Timeout
	}
	cfg.Retry = client.RetryConfig{
		MaxAttempts: c.Retry.MaxAttempts,
		MinBackoff:  c.Retry.MinBackoff,
		MaxBackoff:  c.Retry.MaxBackoff,
	}
	return cfg
}

// LoggingConfig returns the logger configuration.
func (c *Config) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.LogLevel(c.Log.Level)
	cfg.TransportLevel = logging.LogLevel(c.Log.TransportLevel)
	cfg.Pretty = c.Log.Pretty
	return cfg
}
