package config

import (
	"fmt"
	"mime"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "retention.window").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateStorage(&cfg.Storage)...)
	errs = append(errs, validateUpload(&cfg.Upload)...)
	errs = append(errs, validateRetention(&cfg.Retention)...)
	errs = append(errs, validateLedger(&cfg.Ledger)...)
	errs = append(errs, validateSecurity(&cfg.Security)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

// validateServer validates server configuration.
func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	} else if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: fmt.Sprintf("invalid listen address: %v", err),
		})
	}

	durations := []struct {
		field string
		value time.Duration
	}{
		{"server.read_timeout", cfg.ReadTimeout},
		{"server.write_timeout", cfg.WriteTimeout},
		{"server.idle_timeout", cfg.IdleTimeout},
		{"server.shutdown_timeout", cfg.ShutdownTimeout},
	}
	for _, d := range durations {
		if d.value < 0 {
			errs = append(errs, FieldError{Field: d.field, Message: "must not be negative"})
		}
	}

	if cfg.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "max header bytes must be non-negative",
		})
	}
	if cfg.MaxHeaderBytes > 10*1024*1024 {
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "max header bytes exceeds reasonable limit (10MB)",
		})
	}

	if cfg.PublicBaseURL != "" {
		u, err := url.Parse(cfg.PublicBaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, FieldError{
				Field:   "server.public_base_url",
				Message: "must be an absolute http(s) URL",
			})
		}
	}

	if cfg.TLS.Enabled {
		if cfg.TLS.CertFile == "" {
			errs = append(errs, FieldError{
				Field:   "server.tls.cert_file",
				Message: "TLS certificate file is required when TLS is enabled",
			})
		}
		if cfg.TLS.KeyFile == "" {
			errs = append(errs, FieldError{
				Field:   "server.tls.key_file",
				Message: "TLS key file is required when TLS is enabled",
			})
		}
	}

	if cfg.CORS.Enabled {
		for i, origin := range cfg.CORS.AllowedOrigins {
			if origin == "*" {
				continue
			}
			u, err := url.Parse(origin)
			if err != nil || u.Scheme == "" || u.Host == "" || (u.Path != "" && u.Path != "/") {
				errs = append(errs, FieldError{
					Field:   fmt.Sprintf("server.cors.allowed_origins[%d]", i),
					Message: fmt.Sprintf("invalid origin %q: must be scheme://host[:port]", origin),
				})
			}
		}
		if cfg.CORS.MaxAge < 0 {
			errs = append(errs, FieldError{
				Field:   "server.cors.max_age",
				Message: "max age must be non-negative",
			})
		}
	}

	return errs
}

// validateStorage validates storage configuration.
func validateStorage(cfg *StorageConfig) []FieldError {
	var errs []FieldError

	if cfg.Directory == "" {
		errs = append(errs, FieldError{
			Field:   "storage.directory",
			Message: "storage directory is required",
		})
	}
	if !strings.HasPrefix(cfg.URLPrefix, "/") || strings.HasSuffix(cfg.URLPrefix, "/") {
		errs = append(errs, FieldError{
			Field:   "storage.url_prefix",
			Message: fmt.Sprintf("invalid prefix %q: must start with / and not end with /", cfg.URLPrefix),
		})
	}
	if strings.HasPrefix(cfg.URLPrefix, "/api") {
		errs = append(errs, FieldError{
			Field:   "storage.url_prefix",
			Message: "prefix must not overlap the /api routes",
		})
	}
	if cfg.WatchDebounce < 0 {
		errs = append(errs, FieldError{
			Field:   "storage.watch_debounce",
			Message: "watch debounce must not be negative",
		})
	}

	return errs
}

// validateUpload validates upload configuration.
func validateUpload(cfg *UploadConfig) []FieldError {
	var errs []FieldError

	if cfg.MaxBytes <= 0 {
		errs = append(errs, FieldError{
			Field:   "upload.max_bytes",
			Message: "max bytes must be positive",
		})
	}
	if cfg.FieldName == "" {
		errs = append(errs, FieldError{
			Field:   "upload.field_name",
			Message: "field name is required",
		})
	}
	for i, mt := range cfg.AllowedMIMETypes {
		if _, _, err := mime.ParseMediaType(mt); err != nil {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("upload.allowed_mime_types[%d]", i),
				Message: fmt.Sprintf("invalid media type %q: %v", mt, err),
			})
		}
	}

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.RequestsPerMinute <= 0 {
			errs = append(errs, FieldError{
				Field:   "upload.rate_limit.requests_per_minute",
				Message: "requests per minute must be positive",
			})
		}
		if cfg.RateLimit.Burst <= 0 {
			errs = append(errs, FieldError{
				Field:   "upload.rate_limit.burst",
				Message: "burst must be positive",
			})
		}
		if cfg.RateLimit.ClientTTL < 0 {
			errs = append(errs, FieldError{
				Field:   "upload.rate_limit.client_ttl",
				Message: "client TTL must not be negative",
			})
		}
	}

	return errs
}

// validateRetention validates retention configuration.
func validateRetention(cfg *RetentionConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return errs
	}

	if cfg.Window <= 0 {
		errs = append(errs, FieldError{
			Field:   "retention.window",
			Message: "retention window must be positive",
		})
	}
	if cfg.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "retention.schedule",
				Message: fmt.Sprintf("invalid cron expression %q: %v", cfg.Schedule, err),
			})
		}
	}
	if cfg.Timezone != "" {
		if _, err := time.LoadLocation(cfg.Timezone); err != nil {
			errs = append(errs, FieldError{
				Field:   "retention.timezone",
				Message: fmt.Sprintf("unknown timezone %q: %v", cfg.Timezone, err),
			})
		}
	}
	if cfg.Schedule == "" && !cfg.RunOnStart {
		errs = append(errs, FieldError{
			Field:   "retention.schedule",
			Message: "retention is enabled but neither a schedule nor run_on_start is set",
		})
	}

	return errs
}

// validateLedger validates ledger configuration.
func validateLedger(cfg *LedgerConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return errs
	}

	validDrivers := map[string]bool{"sqlite3": true, "sqlite": true}
	if !validDrivers[cfg.Driver] {
		errs = append(errs, FieldError{
			Field:   "ledger.driver",
			Message: fmt.Sprintf("invalid driver %q: must be 'sqlite3' or 'sqlite'", cfg.Driver),
		})
	}
	if cfg.Path == "" {
		errs = append(errs, FieldError{
			Field:   "ledger.path",
			Message: "ledger path is required when the ledger is enabled",
		})
	}
	if cfg.BusyTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "ledger.busy_timeout",
			Message: "busy timeout must not be negative",
		})
	}
	if cfg.MaxRuns < 0 {
		errs = append(errs, FieldError{
			Field:   "ledger.max_runs",
			Message: "max runs must be non-negative",
		})
	}
	if cfg.HistoryLimit <= 0 {
		errs = append(errs, FieldError{
			Field:   "ledger.history_limit",
			Message: "history limit must be positive",
		})
	}

	return errs
}

// validateSecurity validates authentication configuration.
func validateSecurity(cfg *SecurityConfig) []FieldError {
	var errs []FieldError

	if cfg.APIKey.Enabled {
		enabled := 0
		for i, k := range cfg.APIKey.Keys {
			if k.Key == "" {
				errs = append(errs, FieldError{
					Field:   fmt.Sprintf("security.api_key.keys[%d].key", i),
					Message: "key must not be empty",
				})
			}
			if k.IsEnabled() {
				enabled++
			}
		}
		if enabled == 0 {
			errs = append(errs, FieldError{
				Field:   "security.api_key.keys",
				Message: "at least one enabled key is required when API key auth is enabled (or set API_KEY)",
			})
		}
		for i, src := range cfg.APIKey.Sources {
			if src.Type != "header" && src.Type != "query" {
				errs = append(errs, FieldError{
					Field:   fmt.Sprintf("security.api_key.sources[%d].type", i),
					Message: fmt.Sprintf("invalid source type %q: must be 'header' or 'query'", src.Type),
				})
			}
			if src.Name == "" {
				errs = append(errs, FieldError{
					Field:   fmt.Sprintf("security.api_key.sources[%d].name", i),
					Message: "source name is required",
				})
			}
		}
	}

	if cfg.Token.Enabled {
		if cfg.Token.ProviderURL == "" {
			errs = append(errs, FieldError{
				Field:   "security.token.provider_url",
				Message: "provider URL is required when token auth is enabled (or set SUPABASE_URL)",
			})
		} else if u, err := url.Parse(cfg.Token.ProviderURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, FieldError{
				Field:   "security.token.provider_url",
				Message: fmt.Sprintf("invalid provider URL %q", cfg.Token.ProviderURL),
			})
		}
		if cfg.Token.PublishableKey == "" {
			errs = append(errs, FieldError{
				Field:   "security.token.publishable_key",
				Message: "publishable key is required when token auth is enabled (or set SUPABASE_PUBLISHABLE_KEY)",
			})
		}
		if cfg.Token.Timeout < 0 {
			errs = append(errs, FieldError{
				Field:   "security.token.timeout",
				Message: "timeout must not be negative",
			})
		}
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[strings.ToLower(cfg.Logging.Format)] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid log format %q: must be 'json' or 'text'", cfg.Logging.Format),
		})
	}

	if cfg.Logging.File.Enabled {
		if cfg.Logging.File.Path == "" {
			errs = append(errs, FieldError{
				Field:   "telemetry.logging.file.path",
				Message: "log file path is required when file logging is enabled",
			})
		}
		if cfg.Logging.File.MaxSizeMB <= 0 {
			errs = append(errs, FieldError{
				Field:   "telemetry.logging.file.max_size_mb",
				Message: "max size must be positive",
			})
		}
		if cfg.Logging.File.MaxBackups < 0 || cfg.Logging.File.MaxAgeDays < 0 {
			errs = append(errs, FieldError{
				Field:   "telemetry.logging.file",
				Message: "max backups and max age must be non-negative",
			})
		}
	}

	if cfg.Metrics.Enabled {
		if !strings.HasPrefix(cfg.Metrics.Path, "/") {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.path",
				Message: "metrics path must start with /",
			})
		}
		if cfg.Metrics.Namespace == "" {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.namespace",
				Message: "metrics namespace is required",
			})
		}
	}

	if cfg.Tracing.Enabled {
		if cfg.Tracing.Endpoint == "" {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.endpoint",
				Message: "collector endpoint is required when tracing is enabled",
			})
		}
		switch cfg.Tracing.Sampler {
		case "always", "never":
		case "ratio":
			if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
				errs = append(errs, FieldError{
					Field:   "telemetry.tracing.sample_ratio",
					Message: "sample ratio must be between 0.0 and 1.0",
				})
			}
		default:
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sampler",
				Message: "sampler must be one of: always, never, ratio",
			})
		}
		if cfg.Tracing.Timeout <= 0 {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.timeout",
				Message: "timeout must be positive",
			})
		}
	}

	return errs
}
