package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultMaxUploadBytes  = int64(64 << 20)

	// Engine defaults
	DefaultEngineBackend       = "lua"
	DefaultEngineInitTimeout   = 30 * time.Second
	DefaultLuaHeapSize         = 256 << 20
	DefaultLuaExecutionTimeout = 10 * time.Second

	// Source defaults
	DefaultGistTransport  = "api"
	DefaultGistAPIBaseURL = "https://api.github.com"
	DefaultGistGitBaseURL = "https://gist.github.com"
	DefaultGistTimeout    = 15 * time.Second
	DefaultWatchDebounce  = 100 * time.Millisecond

	// History defaults
	DefaultHistoryEnabled       = true
	DefaultHistoryBackend       = "sqlite"
	DefaultHistoryMaxRecords    = int64(500)
	DefaultHistoryPruneSchedule = "@every 10m"

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "text"
	DefaultMetricsEnabled     = true
	DefaultMetricsPath        = "/metrics"
	DefaultMetricsNamespace   = "playground"
	DefaultTracingSampler     = "always"
	DefaultTracingSampleRatio = 1.0
	DefaultTracingInsecure    = true
	DefaultTracingTimeout     = 10 * time.Second
	DefaultTracingServiceName = "pattern-playground"
)

// DefaultExecutionDurationBuckets covers fast pattern runs up to the lua
// execution timeout.
var DefaultExecutionDurationBuckets = []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10}

// NewDefaultConfig returns a configuration with every default applied. It is
// what the CLI uses when no configuration file exists.
func NewDefaultConfig() *Config {
	cfg := &Config{
		History: HistoryConfig{Enabled: DefaultHistoryEnabled},
		Telemetry: TelemetryConfig{
			Metrics: MetricsConfig{Enabled: DefaultMetricsEnabled},
			Tracing: TracingConfig{Insecure: DefaultTracingInsecure},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
//
// Boolean fields whose default is true (history.enabled, metrics.enabled)
// are only defaulted by NewDefaultConfig and the YAML loader, because a zero
// bool cannot be told apart from an explicit false here.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxUploadBytes == 0 {
		cfg.Server.MaxUploadBytes = DefaultMaxUploadBytes
	}

	// Engine defaults
	if cfg.Engine.Backend == "" {
		cfg.Engine.Backend = DefaultEngineBackend
	}
	if cfg.Engine.InitTimeout == 0 {
		cfg.Engine.InitTimeout = DefaultEngineInitTimeout
	}
	if cfg.Engine.Lua.HeapSize == 0 {
		cfg.Engine.Lua.HeapSize = DefaultLuaHeapSize
	}
	if cfg.Engine.Lua.ExecutionTimeout == 0 {
		cfg.Engine.Lua.ExecutionTimeout = DefaultLuaExecutionTimeout
	}

	// Source defaults
	if cfg.Source.Gist.Transport == "" {
		cfg.Source.Gist.Transport = DefaultGistTransport
	}
	if cfg.Source.Gist.APIBaseURL == "" {
		cfg.Source.Gist.APIBaseURL = DefaultGistAPIBaseURL
	}
	if cfg.Source.Gist.GitBaseURL == "" {
		cfg.Source.Gist.GitBaseURL = DefaultGistGitBaseURL
	}
	if cfg.Source.Gist.Timeout == 0 {
		cfg.Source.Gist.Timeout = DefaultGistTimeout
	}
	if cfg.Source.WatchDebounce == 0 {
		cfg.Source.WatchDebounce = DefaultWatchDebounce
	}

	// History defaults
	if cfg.History.Backend == "" {
		cfg.History.Backend = DefaultHistoryBackend
	}
	if cfg.History.MaxRecords == 0 {
		cfg.History.MaxRecords = DefaultHistoryMaxRecords
	}
	if cfg.History.PruneSchedule == "" {
		cfg.History.PruneSchedule = DefaultHistoryPruneSchedule
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if len(cfg.Telemetry.Metrics.ExecutionDurationBuckets) == 0 {
		cfg.Telemetry.Metrics.ExecutionDurationBuckets = append([]float64(nil), DefaultExecutionDurationBuckets...)
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Telemetry.Tracing.Timeout == 0 {
		cfg.Telemetry.Tracing.Timeout = DefaultTracingTimeout
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
}
