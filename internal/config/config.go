// Package config defines all configuration structures for the annotator.
// No I/O or parsing logic lives here — only plain data types and validation.
package config

import (
	"fmt"
	"time"
)

// InputConfig locates the accession list driving a run.
type InputConfig struct {
	// MetaFile is a TSV whose first column holds accession identifiers
	// (header row skipped). Prior annotation columns, when present, serve as
	// the fallback for accessions that cannot be fetched.
	MetaFile string `mapstructure:"meta_file"`
}

// PatternsConfig locates the three ordered rule tables. Each file is a YAML
// mapping whose declaration order encodes match priority; they are loaded by
// the ordered rule loader, never through viper (maps lose key order).
type PatternsConfig struct {
	HLAFile      string `mapstructure:"hla_file"`
	ScenarioFile string `mapstructure:"scenario_file"`
	DiseaseFile  string `mapstructure:"disease_file"`
}

// OutputConfig names the two result tables.
type OutputConfig struct {
	// AnnotationFile receives every record as TSV.
	AnnotationFile string `mapstructure:"annotation_file"`
	// ReviewFile receives the manual-review subset as CSV.
	ReviewFile string `mapstructure:"review_file"`
}

// FetchConfig holds PRIDE archive client tunables.
type FetchConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
	// Delay is the pause inserted after each successful request to stay
	// polite toward the public API.
	Delay     time.Duration `mapstructure:"delay"`
	UserAgent string        `mapstructure:"user_agent"`
}

// CacheConfig holds Redis metadata-cache parameters. The cache is optional;
// when disabled every fetch goes straight to the source.
type CacheConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
	TTL          time.Duration `mapstructure:"ttl"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// StoreConfig holds PostgreSQL parameters for the optional annotation store.
type StoreConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	User           string        `mapstructure:"user"`
	Password       string        `mapstructure:"password"`
	DBName         string        `mapstructure:"db_name"`
	SSLMode        string        `mapstructure:"ssl_mode"`
	MaxConns       int           `mapstructure:"max_conns"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	MigrationsPath string        `mapstructure:"migrations_path"`
}

// WorkerConfig holds record-processing parallelism parameters.
type WorkerConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level       string   `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format      string   `mapstructure:"format"` // "json" | "console"
	OutputPaths []string `mapstructure:"output_paths"`
}

// MetricsConfig holds Prometheus parameters.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// Config is the root configuration structure. Every component reads its
// settings from the relevant sub-struct; nothing reads viper directly.
type Config struct {
	Input    InputConfig    `mapstructure:"input"`
	Patterns PatternsConfig `mapstructure:"patterns"`
	Output   OutputConfig   `mapstructure:"output"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Store    StoreConfig    `mapstructure:"store"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start the run.
func (c *Config) Validate() error {
	if c.Input.MetaFile == "" {
		return fmt.Errorf("config: input.meta_file is required")
	}

	if c.Patterns.HLAFile == "" {
		return fmt.Errorf("config: patterns.hla_file is required")
	}
	if c.Patterns.ScenarioFile == "" {
		return fmt.Errorf("config: patterns.scenario_file is required")
	}
	if c.Patterns.DiseaseFile == "" {
		return fmt.Errorf("config: patterns.disease_file is required")
	}

	if c.Output.AnnotationFile == "" {
		return fmt.Errorf("config: output.annotation_file is required")
	}
	if c.Output.ReviewFile == "" {
		return fmt.Errorf("config: output.review_file is required")
	}

	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("config: fetch.timeout must be positive, got %s", c.Fetch.Timeout)
	}

	if c.Cache.Enabled && c.Cache.Addr == "" {
		return fmt.Errorf("config: cache.addr is required when cache is enabled")
	}

	if c.Store.Enabled {
		if c.Store.Host == "" {
			return fmt.Errorf("config: store.host is required when store is enabled")
		}
		if c.Store.Port < 1 || c.Store.Port > 65535 {
			return fmt.Errorf("config: store.port %d is out of range [1, 65535]", c.Store.Port)
		}
		if c.Store.User == "" {
			return fmt.Errorf("config: store.user is required when store is enabled")
		}
		if c.Store.DBName == "" {
			return fmt.Errorf("config: store.db_name is required when store is enabled")
		}
	}

	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("config: worker.concurrency must be ≥ 1, got %d", c.Worker.Concurrency)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}
