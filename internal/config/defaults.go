package config

import "time"

const (
	DefaultServerPort = 8080
	DefaultServerMode = "debug"

	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBName     = "vendoriq"
	DefaultDBMaxConns = 25

	DefaultRedisAddr = "localhost:6379"

	DefaultKafkaBroker  = "localhost:9092"
	DefaultKafkaGroupID = "vendoriq-group"

	DefaultRemoteTimeout     = 30 * time.Second
	DefaultRemoteMaxAttempts = 3
	DefaultRemoteBackoffBase = 2 * time.Second

	DefaultRegistryLookupTimeout = 15 * time.Second
	DefaultRegistryMaxParallel   = 4

	DefaultBatchConcurrency = 5
	DefaultLockTTL          = 2 * time.Minute
	DefaultCacheTTL         = 15 * time.Minute

	DefaultWorkerConcurrency = 10

	DefaultMetricsNamespace = "vendoriq"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// ApplyDefaults fills every zero-value field in cfg with the platform default.
// Fields already set by the caller are left unchanged so explicit
// configuration always wins.  Call after unmarshalling and before Validate().
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}

	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "vendoriq"
	}
	if cfg.Redis.DefaultTTL == 0 {
		cfg.Redis.DefaultTTL = DefaultCacheTTL
	}

	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.AutoOffsetReset == "" {
		cfg.Kafka.AutoOffsetReset = "earliest"
	}

	if cfg.Remote.RequestTimeout == 0 {
		cfg.Remote.RequestTimeout = DefaultRemoteTimeout
	}
	if cfg.Remote.MaxAttempts == 0 {
		cfg.Remote.MaxAttempts = DefaultRemoteMaxAttempts
	}
	if cfg.Remote.BackoffBase == 0 {
		cfg.Remote.BackoffBase = DefaultRemoteBackoffBase
	}

	if cfg.Registry.LookupTimeout == 0 {
		cfg.Registry.LookupTimeout = DefaultRegistryLookupTimeout
	}
	if cfg.Registry.MaxParallel == 0 {
		cfg.Registry.MaxParallel = DefaultRegistryMaxParallel
	}

	if cfg.Evaluation.BatchConcurrency == 0 {
		cfg.Evaluation.BatchConcurrency = DefaultBatchConcurrency
	}
	if cfg.Evaluation.LockTTL == 0 {
		cfg.Evaluation.LockTTL = DefaultLockTTL
	}
	if cfg.Evaluation.CacheTTL == 0 {
		cfg.Evaluation.CacheTTL = DefaultCacheTTL
	}

	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultWorkerConcurrency
	}
	if cfg.Worker.MaxRetries == 0 {
		cfg.Worker.MaxRetries = 3
	}
	if cfg.Worker.RetryBackoff == 0 {
		cfg.Worker.RetryBackoff = 5 * time.Second
	}
	if cfg.Worker.ShutdownGrace == 0 {
		cfg.Worker.ShutdownGrace = 30 * time.Second
	}

	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}
