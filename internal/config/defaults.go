package config

import "time"

// Default value constants. Explicit configuration always wins; these only
// fill fields the caller left at their zero value.
const (
	DefaultMetaFile = "meta.txt"

	DefaultHLAPatternFile      = "configs/patterns/hla_patterns.yaml"
	DefaultScenarioPatternFile = "configs/patterns/scenarios.yaml"
	DefaultDiseasePatternFile  = "configs/patterns/diseases.yaml"

	DefaultAnnotationFile = "dataset_annotation.tsv"
	DefaultReviewFile     = "needs_manual.csv"

	DefaultFetchTimeout = 15 * time.Second
	DefaultFetchDelay   = 100 * time.Millisecond
	DefaultUserAgent    = "hla-annotator"

	DefaultCacheAddr      = "localhost:6379"
	DefaultCacheKeyPrefix = "hla:"
	DefaultCacheTTL       = 7 * 24 * time.Hour

	DefaultStorePort           = 5432
	DefaultStoreSSLMode        = "disable"
	DefaultStoreMaxConns       = 10
	DefaultStoreConnectTimeout = 5 * time.Second
	DefaultStoreMigrationsPath = "file://migrations"

	DefaultWorkerConcurrency = 10

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsNamespace = "hla_annotator"
)

// ApplyDefaults fills every zero-value field in cfg with the project default.
// It must be called after unmarshalling raw config data and before Validate()
// so that optional-but-defaulted fields are never seen as missing.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Input.MetaFile == "" {
		cfg.Input.MetaFile = DefaultMetaFile
	}

	if cfg.Patterns.HLAFile == "" {
		cfg.Patterns.HLAFile = DefaultHLAPatternFile
	}
	if cfg.Patterns.ScenarioFile == "" {
		cfg.Patterns.ScenarioFile = DefaultScenarioPatternFile
	}
	if cfg.Patterns.DiseaseFile == "" {
		cfg.Patterns.DiseaseFile = DefaultDiseasePatternFile
	}

	if cfg.Output.AnnotationFile == "" {
		cfg.Output.AnnotationFile = DefaultAnnotationFile
	}
	if cfg.Output.ReviewFile == "" {
		cfg.Output.ReviewFile = DefaultReviewFile
	}

	if cfg.Fetch.Timeout == 0 {
		cfg.Fetch.Timeout = DefaultFetchTimeout
	}
	if cfg.Fetch.Delay == 0 {
		cfg.Fetch.Delay = DefaultFetchDelay
	}
	if cfg.Fetch.UserAgent == "" {
		cfg.Fetch.UserAgent = DefaultUserAgent
	}

	if cfg.Cache.Addr == "" {
		cfg.Cache.Addr = DefaultCacheAddr
	}
	if cfg.Cache.KeyPrefix == "" {
		cfg.Cache.KeyPrefix = DefaultCacheKeyPrefix
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = DefaultCacheTTL
	}

	if cfg.Store.Port == 0 {
		cfg.Store.Port = DefaultStorePort
	}
	if cfg.Store.SSLMode == "" {
		cfg.Store.SSLMode = DefaultStoreSSLMode
	}
	if cfg.Store.MaxConns == 0 {
		cfg.Store.MaxConns = DefaultStoreMaxConns
	}
	if cfg.Store.ConnectTimeout == 0 {
		cfg.Store.ConnectTimeout = DefaultStoreConnectTimeout
	}
	if cfg.Store.MigrationsPath == "" {
		cfg.Store.MigrationsPath = DefaultStoreMigrationsPath
	}

	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultWorkerConcurrency
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
}

// NewDefaultConfig returns a Config populated entirely with defaults.
// Used by the CLI when no config file is present.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
