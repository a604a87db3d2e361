package config

import (
	"fmt"
	"strings"

	"github.com/Sternrassler/servicenow-client/pkg/client"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. SNOW_EXPORT_EXPORT_SINK.
const EnvPrefix = "SNOW_EXPORT"

// Load reads the configuration. path may be empty, in which case only
// defaults and the environment are used. Credentials additionally honour
// SERVICENOW_H, SERVICENOW_U and SERVICENOW_P.
func Load(path string) (*Config, error) {
	v := New()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	return Unmarshal(v)
}

// New returns a viper instance with defaults and environment bindings.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	// The client's own variables take precedence over the prefixed ones.
	_ = v.BindEnv("servicenow.hostname", client.EnvHostname, EnvPrefix+"_SERVICENOW_HOSTNAME")
	_ = v.BindEnv("servicenow.username", client.EnvUsername, EnvPrefix+"_SERVICENOW_USERNAME")
	_ = v.BindEnv("servicenow.password", client.EnvPassword, EnvPrefix+"_SERVICENOW_PASSWORD")

	return v
}

// Unmarshal decodes and validates the configuration held by v.
func Unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	retry := client.DefaultRetryConfig()

	v.SetDefault("servicenow.hostname", "")
	v.SetDefault("servicenow.username", "")
	v.SetDefault("servicenow.password", "")
	v.SetDefault("servicenow.http2", false)
	v.SetDefault("servicenow.timeout", "60s")

	v.SetDefault("retry.max_attempts", retry.MaxAttempts)
	v.SetDefault("retry.min_backoff", retry.MinBackoff.String())
	v.SetDefault("retry.max_backoff", retry.MaxBackoff.String())

	v.SetDefault("export.page_size", 0)
	v.SetDefault("export.statuses", []string{})
	v.SetDefault("export.sink", SinkStdout)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key", "")
	v.SetDefault("redis.ttl", "0s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.transport_level", "error")
	v.SetDefault("log.pretty", false)

	v.SetDefault("metrics.addr", "")
}
