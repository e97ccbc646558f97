package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "0.0.0.0:3000"
	DefaultReadTimeout     = 5 * time.Minute
	DefaultWriteTimeout    = 5 * time.Minute
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB

	// CORS defaults
	DefaultCORSMaxAge = 3600 // 1 hour

	// Storage defaults
	DefaultStorageDirectory     = "public/videos"
	DefaultStorageURLPrefix     = "/videos"
	DefaultStorageWatchDebounce = 250 * time.Millisecond

	// Upload defaults
	DefaultUploadMaxBytes     = int64(50 * 1024 * 1024)
	DefaultUploadFieldName    = "video"
	DefaultRateLimitPerMinute = 30.0
	DefaultRateLimitBurst     = 10
	DefaultRateLimitClientTTL = 10 * time.Minute

	// Retention defaults
	DefaultRetentionWindow   = 24 * time.Hour
	DefaultRetentionSchedule = "0 * * * *"
	DefaultRetentionTimezone = "America/Mexico_City"

	// Ledger defaults
	DefaultLedgerDriver       = "sqlite"
	DefaultLedgerPath         = "data/ledger.db"
	DefaultLedgerBusyTimeout  = 5 * time.Second
	DefaultLedgerMaxRuns      = 1000
	DefaultLedgerHistoryLimit = 20

	// Security defaults
	DefaultTokenTimeout = 10 * time.Second

	// Telemetry defaults
	DefaultLoggingLevel      = "info"
	DefaultLoggingFormat     = "json"
	DefaultLogFilePath       = "logs/videogate.log"
	DefaultLogFileMaxSizeMB  = 100
	DefaultLogFileMaxBackups = 5
	DefaultLogFileMaxAgeDays = 30
	DefaultPrometheusPath    = "/metrics"
	DefaultMetricsNamespace  = "videogate"
	DefaultTracingService    = "videogate"
	DefaultTracingEndpoint   = "localhost:4317"
	DefaultTracingTimeout    = 10 * time.Second
	DefaultTracingSampler    = "ratio"
	DefaultTracingRatio      = 1.0
)

// Defaults returns a configuration populated with every default, including
// boolean fields whose default is true. Loading starts from this value so a
// YAML file only needs to name what it changes, and can still turn a
// default-on feature off.
func Defaults() *Config {
	cfg := &Config{
		Server: ServerConfig{
			CORS: CORSConfig{
				Enabled:          true,
				AllowCredentials: true,
			},
		},
		Storage: StorageConfig{
			CreateIfMissing: true,
			Watch:           true,
		},
		Upload: UploadConfig{
			RateLimit: RateLimitConfig{Enabled: true},
		},
		Retention: RetentionConfig{
			Enabled:    true,
			Schedule:   DefaultRetentionSchedule,
			RunOnStart: true,
		},
		Ledger: LedgerConfig{Enabled: true},
		Telemetry: TelemetryConfig{
			Logging: LoggingConfig{
				File: LogFileConfig{Compress: true},
			},
			Metrics: MetricsConfig{Enabled: true},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued scalar and list fields with defaults.
// Booleans are left alone; see Defaults.
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
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}

	applyCORSDefaults(&cfg.Server.CORS)

	// Storage defaults
	if cfg.Storage.Directory == "" {
		cfg.Storage.Directory = DefaultStorageDirectory
	}
	if cfg.Storage.URLPrefix == "" {
		cfg.Storage.URLPrefix = DefaultStorageURLPrefix
	}
	if cfg.Storage.WatchDebounce == 0 {
		cfg.Storage.WatchDebounce = DefaultStorageWatchDebounce
	}

	// Upload defaults
	if cfg.Upload.MaxBytes == 0 {
		cfg.Upload.MaxBytes = DefaultUploadMaxBytes
	}
	if cfg.Upload.FieldName == "" {
		cfg.Upload.FieldName = DefaultUploadFieldName
	}
	if len(cfg.Upload.AllowedMIMETypes) == 0 {
		cfg.Upload.AllowedMIMETypes = []string{
			"video/mp4",
			"video/quicktime",
			"video/x-msvideo",
			"video/x-matroska",
		}
	}
	if cfg.Upload.RateLimit.RequestsPerMinute == 0 {
		cfg.Upload.RateLimit.RequestsPerMinute = DefaultRateLimitPerMinute
	}
	if cfg.Upload.RateLimit.Burst == 0 {
		cfg.Upload.RateLimit.Burst = DefaultRateLimitBurst
	}
	if cfg.Upload.RateLimit.ClientTTL == 0 {
		cfg.Upload.RateLimit.ClientTTL = DefaultRateLimitClientTTL
	}

	// Retention defaults. An empty schedule is meaningful (no recurring
	// sweep), so it is only set by Defaults.
	if cfg.Retention.Window == 0 {
		cfg.Retention.Window = DefaultRetentionWindow
	}
	if cfg.Retention.Timezone == "" {
		cfg.Retention.Timezone = DefaultRetentionTimezone
	}

	// Ledger defaults
	if cfg.Ledger.Driver == "" {
		cfg.Ledger.Driver = DefaultLedgerDriver
	}
	if cfg.Ledger.Path == "" {
		cfg.Ledger.Path = DefaultLedgerPath
	}
	if cfg.Ledger.BusyTimeout == 0 {
		cfg.Ledger.BusyTimeout = DefaultLedgerBusyTimeout
	}
	if cfg.Ledger.MaxRuns == 0 {
		cfg.Ledger.MaxRuns = DefaultLedgerMaxRuns
	}
	if cfg.Ledger.HistoryLimit == 0 {
		cfg.Ledger.HistoryLimit = DefaultLedgerHistoryLimit
	}

	// Security defaults
	if len(cfg.Security.APIKey.Sources) == 0 {
		cfg.Security.APIKey.Sources = []APIKeySource{
			{Type: "header", Name: "X-API-Key"},
			{Type: "header", Name: "Authorization", Scheme: "Bearer"},
		}
	}
	if cfg.Security.Token.Timeout == 0 {
		cfg.Security.Token.Timeout = DefaultTokenTimeout
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	file := &cfg.Telemetry.Logging.File
	if file.Path == "" {
		file.Path = DefaultLogFilePath
	}
	if file.MaxSizeMB == 0 {
		file.MaxSizeMB = DefaultLogFileMaxSizeMB
	}
	if file.MaxBackups == 0 {
		file.MaxBackups = DefaultLogFileMaxBackups
	}
	if file.MaxAgeDays == 0 {
		file.MaxAgeDays = DefaultLogFileMaxAgeDays
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultPrometheusPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}

	tracing := &cfg.Telemetry.Tracing
	if tracing.ServiceName == "" {
		tracing.ServiceName = DefaultTracingService
	}
	if tracing.Endpoint == "" {
		tracing.Endpoint = DefaultTracingEndpoint
	}
	if tracing.Timeout == 0 {
		tracing.Timeout = DefaultTracingTimeout
	}
	if tracing.Sampler == "" {
		tracing.Sampler = DefaultTracingSampler
		if tracing.SampleRatio == 0 {
			tracing.SampleRatio = DefaultTracingRatio
		}
	}
}

// applyCORSDefaults applies default values to CORS configuration.
func applyCORSDefaults(cors *CORSConfig) {
	if len(cors.AllowedOrigins) == 0 {
		cors.AllowedOrigins = []string{
			"https://www.primeia.app",
			"http://www.primeia.app",
			"https://primeia.app",
			"http://primeia.app",
		}
	}
	if len(cors.AllowedMethods) == 0 {
		cors.AllowedMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cors.AllowedHeaders) == 0 {
		cors.AllowedHeaders = []string{"Content-Type", "Authorization", "X-Requested-With", "Accept", "Origin"}
	}
	if len(cors.ExposedHeaders) == 0 {
		cors.ExposedHeaders = []string{"Content-Type", "Authorization"}
	}
	if cors.MaxAge == 0 {
		cors.MaxAge = DefaultCORSMaxAge
	}
}
