package config

import "time"

// Config is the root configuration structure for videogate.
type Config struct {
	// Server contains HTTP server configuration including listen address,
	// timeouts, the public base URL and CORS.
	Server ServerConfig `yaml:"server"`

	// Storage describes the directory uploaded videos live in.
	Storage StorageConfig `yaml:"storage"`

	// Upload contains limits and validation for the upload endpoint.
	Upload UploadConfig `yaml:"upload"`

	// Retention controls the sweeper that deletes expired videos.
	Retention RetentionConfig `yaml:"retention"`

	// Ledger configures the SQLite history of sweep runs.
	Ledger LedgerConfig `yaml:"ledger"`

	// Security contains API key and bearer token authentication settings.
	Security SecurityConfig `yaml:"security"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:3000", "0.0.0.0:3000").
	// Default: "0.0.0.0:3000"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body. Uploads of large videos need a generous value.
	// Default: 5m
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response.
	// Default: 5m
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for in-flight requests
	// during graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits the size of request headers.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// PublicBaseURL is the scheme and host used to build video URLs
	// (e.g., "https://media.primeia.app"). When empty, "https://" plus the
	// request Host header is used.
	PublicBaseURL string `yaml:"public_base_url"`

	// TLS enables HTTPS on the listener.
	TLS TLSConfig `yaml:"tls"`

	// CORS contains Cross-Origin Resource Sharing configuration.
	CORS CORSConfig `yaml:"cors"`
}

// TLSConfig contains TLS configuration.
type TLSConfig struct {
	// Enabled serves HTTPS instead of HTTP.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// CertFile is the path to the PEM certificate. Required when enabled.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM private key. Required when enabled.
	KeyFile string `yaml:"key_file"`
}

// CORSConfig contains CORS (Cross-Origin Resource Sharing) configuration.
type CORSConfig struct {
	// Enabled controls whether CORS checks are applied.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// AllowedOrigins is the origin allowlist. Requests carrying any other
	// Origin are rejected with 403. "*" allows every origin.
	// Default: the primeia.app origins
	AllowedOrigins []string `yaml:"allowed_origins"`

	// AllowedMethods is a list of allowed HTTP methods for CORS requests.
	// Default: ["GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"]
	AllowedMethods []string `yaml:"allowed_methods"`

	// AllowedHeaders is a list of allowed request headers.
	// Default: ["Content-Type", "Authorization", "X-Requested-With", "Accept", "Origin"]
	AllowedHeaders []string `yaml:"allowed_headers"`

	// ExposedHeaders is a list of headers that are exposed to the client.
	// Default: ["Content-Type", "Authorization"]
	ExposedHeaders []string `yaml:"exposed_headers"`

	// MaxAge is the maximum age (in seconds) for preflight request cache.
	// Default: 3600 (1 hour)
	MaxAge int `yaml:"max_age"`

	// AllowCredentials controls whether credentials are allowed.
	// Default: true
	AllowCredentials bool `yaml:"allow_credentials"`
}

// StorageConfig describes where videos are stored and served from.
type StorageConfig struct {
	// Directory is the flat directory holding uploaded videos.
	// Default: "public/videos"
	Directory string `yaml:"directory"`

	// URLPrefix is the path videos are served under.
	// Default: "/videos"
	URLPrefix string `yaml:"url_prefix"`

	// CreateIfMissing creates Directory at startup.
	// Default: true
	CreateIfMissing bool `yaml:"create_if_missing"`

	// Watch keeps a live stored-file count through fsnotify.
	// Default: true
	Watch bool `yaml:"watch"`

	// WatchDebounce is the quiet period before the directory is recounted.
	// Default: 250ms
	WatchDebounce time.Duration `yaml:"watch_debounce"`
}

// UploadConfig contains upload endpoint limits.
type UploadConfig struct {
	// MaxBytes is the largest accepted video in bytes.
	// Default: 52428800 (50MB)
	MaxBytes int64 `yaml:"max_bytes"`

	// FieldName is the multipart form field carrying the video.
	// Default: "video"
	FieldName string `yaml:"field_name"`

	// AllowedMIMETypes lists the accepted Content-Types of the file part.
	// Default: ["video/mp4", "video/quicktime", "video/x-msvideo", "video/x-matroska"]
	AllowedMIMETypes []string `yaml:"allowed_mime_types"`

	// RateLimit throttles uploads per client address.
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig configures a per-client token bucket.
type RateLimitConfig struct {
	// Enabled turns the limiter on.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// RequestsPerMinute is the sustained rate per client.
	// Default: 30
	RequestsPerMinute float64 `yaml:"requests_per_minute"`

	// Burst is the bucket size.
	// Default: 10
	Burst int `yaml:"burst"`

	// ClientTTL evicts limiters for clients idle this long.
	// Default: 10m
	ClientTTL time.Duration `yaml:"client_ttl"`
}

// RetentionConfig controls the retention sweeper.
type RetentionConfig struct {
	// Enabled turns scheduled and startup sweeps on.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Window is how long a video is kept. Files strictly older are deleted.
	// Default: 24h
	Window time.Duration `yaml:"window"`

	// Schedule is a standard 5-field cron expression. Empty disables the
	// recurring sweep.
	// Default: "0 * * * *" (minute zero of every hour)
	Schedule string `yaml:"schedule"`

	// Timezone is the IANA name the schedule is evaluated in.
	// Default: "America/Mexico_City"
	Timezone string `yaml:"timezone"`

	// RunOnStart sweeps once at startup.
	// Default: true
	RunOnStart bool `yaml:"run_on_start"`
}

// LedgerConfig configures the sweep history database.
type LedgerConfig struct {
	// Enabled records every sweep run.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Driver selects the SQLite implementation.
	// Options: "sqlite3" (cgo, mattn/go-sqlite3), "sqlite" (pure Go, modernc)
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// Path is the database file path.
	// Default: "data/ledger.db"
	Path string `yaml:"path"`

	// BusyTimeout is how long to wait on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// MaxRuns caps the number of stored runs. Zero keeps everything.
	// Default: 1000
	MaxRuns int `yaml:"max_runs"`

	// HistoryLimit is the default page size for history queries.
	// Default: 20
	HistoryLimit int `yaml:"history_limit"`
}

// SecurityConfig contains authentication configuration.
type SecurityConfig struct {
	// APIKey protects API routes with static keys.
	APIKey APIKeyAuthConfig `yaml:"api_key"`

	// Token protects API routes with bearer tokens verified by the auth
	// provider.
	Token TokenAuthConfig `yaml:"token"`
}

// APIKeyAuthConfig contains API key authentication configuration.
type APIKeyAuthConfig struct {
	// Enabled controls whether API key authentication is enforced.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sources defines where to extract API keys from.
	// Default: X-API-Key header, then Authorization with the Bearer scheme
	Sources []APIKeySource `yaml:"sources"`

	// Keys is the list of valid API keys.
	Keys []APIKeyConfig `yaml:"keys"`
}

// APIKeySource defines where to extract API keys from in HTTP requests.
type APIKeySource struct {
	// Type is the source type.
	// Options: "header", "query"
	Type string `yaml:"type"`

	// Name is the header name or query parameter name.
	Name string `yaml:"name"`

	// Scheme is the authentication scheme for header-based extraction.
	// Example: "Bearer" (for "Authorization: Bearer <key>")
	Scheme string `yaml:"scheme,omitempty"`
}

// APIKeyConfig contains configuration for a single API key.
type APIKeyConfig struct {
	// Key is the API key value.
	Key string `yaml:"key"`

	// UserID is the identifier associated with this key.
	UserID string `yaml:"user_id"`

	// Enabled controls whether this key is accepted.
	// Default: true
	Enabled *bool `yaml:"enabled,omitempty"`
}

// IsEnabled reports whether the key is accepted. Keys are enabled unless
// explicitly disabled.
func (k APIKeyConfig) IsEnabled() bool {
	return k.Enabled == nil || *k.Enabled
}

// TokenAuthConfig configures bearer token verification against Supabase.
type TokenAuthConfig struct {
	// Enabled requires a valid bearer token on API routes.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// ProviderURL is the Supabase project URL.
	// Env fallback: SUPABASE_URL
	ProviderURL string `yaml:"provider_url"`

	// PublishableKey is the Supabase publishable (anon) key.
	// Env fallback: SUPABASE_PUBLISHABLE_KEY
	PublishableKey string `yaml:"publishable_key"`

	// Timeout bounds each verification call.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains OpenTelemetry tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// File additionally writes logs to a rotating file.
	File LogFileConfig `yaml:"file"`
}

// LogFileConfig configures rotating file output.
type LogFileConfig struct {
	// Enabled turns file output on.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Path is the log file path.
	// Default: "logs/videogate.log"
	Path string `yaml:"path"`

	// MaxSizeMB rotates the file once it reaches this size.
	// Default: 100
	MaxSizeMB int `yaml:"max_size_mb"`

	// MaxBackups is how many rotated files are kept.
	// Default: 5
	MaxBackups int `yaml:"max_backups"`

	// MaxAgeDays removes rotated files older than this.
	// Default: 30
	MaxAgeDays int `yaml:"max_age_days"`

	// Compress gzips rotated files.
	// Default: true
	Compress bool `yaml:"compress"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and exposed.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "videogate"
	Namespace string `yaml:"namespace"`
}

// TracingConfig contains OpenTelemetry tracing configuration. Spans are
// exported over OTLP/gRPC.
type TracingConfig struct {
	// Enabled controls whether spans are recorded and exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// ServiceName is reported as the service.name resource attribute.
	// Default: "videogate"
	ServiceName string `yaml:"service_name"`

	// Endpoint is the OTLP collector address ("host:port").
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS to the collector.
	// Default: false
	Insecure bool `yaml:"insecure"`

	// Timeout bounds each export.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`

	// Sampler selects the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces kept by the "ratio" sampler.
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`
}
