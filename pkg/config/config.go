package config

import "time"

// Config is the root configuration structure for the pattern playground.
// It contains all configuration sections for the HTTP front end, the embedded
// engine, pattern source acquisition, the session run history and telemetry.
type Config struct {
	// Server contains HTTP front end configuration including listen address
	// and timeouts.
	Server ServerConfig `yaml:"server"`

	// Engine contains configuration for the embedded pattern language engine,
	// including which runtime backend hosts it.
	Engine EngineConfig `yaml:"engine"`

	// Source contains configuration for pattern source acquisition
	// (gist deep links, watched pattern files).
	Source SourceConfig `yaml:"source"`

	// History contains configuration for the session-scoped run history.
	History HistoryConfig `yaml:"history"`

	// Telemetry contains configuration for observability including logging,
	// metrics, and distributed tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP front end.
type ServerConfig struct {
	// ListenAddress is the address and port for the server to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:8080", "0.0.0.0:8080").
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. Executions run inside the request, so this also bounds them.
	// Default: 60s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// Default: 10s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxUploadBytes limits the size of a picked data file.
	// Default: 67108864 (64MB)
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
}

// EngineConfig contains configuration for the embedded engine.
type EngineConfig struct {
	// Backend selects the runtime hosting the engine.
	// Options: "wasm" (compiled pattern language module), "lua" (built-in engine)
	// Default: "lua"
	Backend string `yaml:"backend"`

	// InitTimeout bounds how long callers wait on the readiness gate.
	// Default: 30s
	InitTimeout time.Duration `yaml:"init_timeout"`

	// WASM contains configuration for the wasm backend.
	WASM WASMConfig `yaml:"wasm"`

	// Lua contains configuration for the lua backend.
	Lua LuaConfig `yaml:"lua"`
}

// WASMConfig contains configuration for the wasm engine backend.
type WASMConfig struct {
	// ModulePath is the path to the compiled pattern language module.
	// Required when backend is "wasm".
	ModulePath string `yaml:"module_path"`

	// SourcesDir is mounted at /sources inside the module so that
	// #include resolves against /sources/includes and /sources/patterns.
	// Optional.
	SourcesDir string `yaml:"sources_dir"`

	// MemoryLimitPages caps linear memory growth (64KiB pages). 0 keeps the
	// runtime default.
	MemoryLimitPages uint32 `yaml:"memory_limit_pages"`
}

// LuaConfig contains configuration for the lua engine backend.
type LuaConfig struct {
	// HeapSize is the size of the simulated engine memory in bytes.
	// Default: 268435456 (256MB)
	HeapSize int `yaml:"heap_size"`

	// ExecutionTimeout bounds a single program run.
	// Default: 10s
	ExecutionTimeout time.Duration `yaml:"execution_timeout"`
}

// SourceConfig contains configuration for pattern source acquisition.
type SourceConfig struct {
	// Gist contains configuration for the gist deep link strategy.
	Gist GistConfig `yaml:"gist"`

	// PatternFile is an optional pattern file loaded at startup.
	PatternFile string `yaml:"pattern_file"`

	// Watch reloads PatternFile whenever it changes on disk.
	// Default: false
	Watch bool `yaml:"watch"`

	// WatchDebounce is the delay before a change triggers a reload.
	// Default: 100ms
	WatchDebounce time.Duration `yaml:"watch_debounce"`
}

// GistConfig contains configuration for gist fetching.
type GistConfig struct {
	// Transport selects how gists are fetched.
	// Options: "api" (REST metadata + raw_url), "git" (in-memory clone)
	// Default: "api"
	Transport string `yaml:"transport"`

	// APIBaseURL is the base URL of the gist metadata API.
	// Default: "https://api.github.com"
	APIBaseURL string `yaml:"api_base_url"`

	// GitBaseURL is the base URL gist repositories are cloned from.
	// Default: "https://gist.github.com"
	GitBaseURL string `yaml:"git_base_url"`

	// Token is an optional access token sent with gist requests.
	// Prefer PLAYGROUND_SOURCE_GIST_TOKEN over putting it in the file.
	Token string `yaml:"token"`

	// Timeout bounds each gist request. There are no retries.
	// Default: 15s
	Timeout time.Duration `yaml:"timeout"`
}

// HistoryConfig contains configuration for the session run history.
// The history lives in memory and is gone when the process exits.
type HistoryConfig struct {
	// Enabled controls whether executions are recorded.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Backend selects the store.
	// Options: "sqlite" (in-memory database), "memory"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// MaxRecords is the number of records kept after pruning. 0 means unlimited.
	// Default: 500
	MaxRecords int64 `yaml:"max_records"`

	// PruneSchedule is a cron expression for pruning.
	// Default: "@every 10m"
	PruneSchedule string `yaml:"prune_schedule"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "text"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "playground"
	Namespace string `yaml:"namespace"`

	// ExecutionDurationBuckets defines histogram buckets for execution
	// duration in seconds.
	// Default: [0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10]
	ExecutionDurationBuckets []float64 `yaml:"execution_duration_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "always"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Only used when Sampler is "ratio".
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Example: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS for the collector connection.
	// Default: true
	Insecure bool `yaml:"insecure"`

	// Timeout bounds each export.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`

	// ServiceName is the service name in traces.
	// Default: "pattern-playground"
	ServiceName string `yaml:"service_name"`
}
