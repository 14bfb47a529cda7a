// Package config provides configuration loading, defaults, and validation.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all settings.
const envPrefix = "HLA"

// newViper builds a pre-configured viper instance: YAML file type, HLA_ env
// prefix, automatic env binding, and a key replacer mapping "." → "_" so that
// nested keys like "cache.addr" resolve to "HLA_CACHE_ADDR".
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	registerKeys(v)
	return v
}

// registerKeys declares every configuration key to viper. Without this,
// viper.Unmarshal never consults the environment for keys that are absent
// from the config file, silently ignoring HLA_* overrides.
func registerKeys(v *viper.Viper) {
	for _, key := range []string{
		"input.meta_file",
		"patterns.hla_file", "patterns.scenario_file", "patterns.disease_file",
		"output.annotation_file", "output.review_file",
		"fetch.timeout", "fetch.delay", "fetch.user_agent",
		"cache.enabled", "cache.addr", "cache.password", "cache.db",
		"cache.key_prefix", "cache.ttl", "cache.dial_timeout",
		"cache.read_timeout", "cache.write_timeout",
		"store.enabled", "store.host", "store.port", "store.user",
		"store.password", "store.db_name", "store.ssl_mode", "store.max_conns",
		"store.connect_timeout", "store.migrations_path",
		"worker.concurrency",
		"log.level", "log.format", "log.output_paths",
		"metrics.enabled", "metrics.namespace",
	} {
		v.SetDefault(key, nil)
	}
}

// Load reads the YAML file at configPath, merges any HLA_* environment
// variable overrides, applies defaults for unset fields, and validates the
// result. It returns a fully-populated *Config or a descriptive error.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from HLA_* environment variables with
// no config file required.
//
// Environment variable naming convention:
//
//	HLA_<SECTION>_<FIELD>   e.g.  HLA_CACHE_ADDR, HLA_WORKER_CONCURRENCY
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

// unmarshalAndFinalize unmarshals viper state into a Config struct, applies
// defaults, and validates the result.
func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}
