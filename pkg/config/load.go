package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "VIDEOGATE_"

// LoadConfig loads configuration from a YAML file at the specified path.
// An empty path yields the defaults. It applies default values, validates
// the configuration, and returns any errors. Environment variables are not
// consulted; use LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	cfg, err := parse(path)
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file (or only
// defaults when path is empty) and applies environment variable overrides.
// Environment variables follow the naming convention VIDEOGATE_SECTION_FIELD
// (e.g., VIDEOGATE_RETENTION_WINDOW) and always take precedence over the file.
//
// The loading sequence is:
// 1. Start from Defaults
// 2. Overlay the YAML file
// 3. Apply default values to anything left empty
// 4. Apply environment variable overrides
// 5. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := parse(path)
	if err != nil {
		return nil, err
	}

	envErrs := applyEnvOverrides(cfg, os.LookupEnv)

	err = Validate(cfg)
	var verr ValidationError
	switch {
	case err == nil && len(envErrs) == 0:
		return cfg, nil
	case err == nil:
		verr = ValidationError{}
	case !errors.As(err, &verr):
		return nil, err
	}
	verr.Errors = append(envErrs, verr.Errors...)
	return nil, fmt.Errorf("configuration validation failed: %w", verr)
}

func parse(path string) (*Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)
	return cfg, nil
}

// lookupFunc matches os.LookupEnv.
type lookupFunc func(key string) (string, bool)

// envApplier collects overrides and the errors from unparsable values.
type envApplier struct {
	lookup lookupFunc
	errs   []FieldError
}

func (e *envApplier) get(name string) (string, bool) {
	val, ok := e.lookup(EnvPrefix + name)
	if !ok || val == "" {
		return "", false
	}
	return val, true
}

func (e *envApplier) invalid(name, val string, err error) {
	e.errs = append(e.errs, FieldError{
		Field:   EnvPrefix + name,
		Message: fmt.Sprintf("invalid value %q: %v", val, err),
	})
}

func (e *envApplier) str(name string, dst *string) {
	if val, ok := e.get(name); ok {
		*dst = val
	}
}

func (e *envApplier) list(name string, dst *[]string) {
	val, ok := e.get(name)
	if !ok {
		return
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}

func (e *envApplier) boolean(name string, dst *bool) {
	val, ok := e.get(name)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		e.invalid(name, val, err)
		return
	}
	*dst = b
}

func (e *envApplier) integer(name string, dst *int) {
	val, ok := e.get(name)
	if !ok {
		return
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		e.invalid(name, val, err)
		return
	}
	*dst = i
}

func (e *envApplier) integer64(name string, dst *int64) {
	val, ok := e.get(name)
	if !ok {
		return
	}
	i, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		e.invalid(name, val, err)
		return
	}
	*dst = i
}

func (e *envApplier) float(name string, dst *float64) {
	val, ok := e.get(name)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		e.invalid(name, val, err)
		return
	}
	*dst = f
}

func (e *envApplier) duration(name string, dst *time.Duration) {
	val, ok := e.get(name)
	if !ok {
		return
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		e.invalid(name, val, err)
		return
	}
	*dst = d
}

// applyEnvOverrides applies VIDEOGATE_* overrides and the unprefixed
// API_KEY, SUPABASE_URL and SUPABASE_PUBLISHABLE_KEY fallbacks.
func applyEnvOverrides(cfg *Config, lookup lookupFunc) []FieldError {
	e := &envApplier{lookup: lookup}

	// Server overrides
	e.str("SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	e.duration("SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	e.duration("SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	e.duration("SERVER_IDLE_TIMEOUT", &cfg.Server.IdleTimeout)
	e.duration("SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	e.integer("SERVER_MAX_HEADER_BYTES", &cfg.Server.MaxHeaderBytes)
	e.str("SERVER_PUBLIC_BASE_URL", &cfg.Server.PublicBaseURL)
	e.boolean("SERVER_TLS_ENABLED", &cfg.Server.TLS.Enabled)
	e.str("SERVER_TLS_CERT_FILE", &cfg.Server.TLS.CertFile)
	e.str("SERVER_TLS_KEY_FILE", &cfg.Server.TLS.KeyFile)
	e.boolean("SERVER_CORS_ENABLED", &cfg.Server.CORS.Enabled)
	e.list("SERVER_CORS_ALLOWED_ORIGINS", &cfg.Server.CORS.AllowedOrigins)

	// Storage overrides
	e.str("STORAGE_DIRECTORY", &cfg.Storage.Directory)
	e.str("STORAGE_URL_PREFIX", &cfg.Storage.URLPrefix)
	e.boolean("STORAGE_CREATE_IF_MISSING", &cfg.Storage.CreateIfMissing)
	e.boolean("STORAGE_WATCH", &cfg.Storage.Watch)

	// Upload overrides
	e.integer64("UPLOAD_MAX_BYTES", &cfg.Upload.MaxBytes)
	e.str("UPLOAD_FIELD_NAME", &cfg.Upload.FieldName)
	e.list("UPLOAD_ALLOWED_MIME_TYPES", &cfg.Upload.AllowedMIMETypes)
	e.boolean("UPLOAD_RATE_LIMIT_ENABLED", &cfg.Upload.RateLimit.Enabled)
	e.float("UPLOAD_RATE_LIMIT_REQUESTS_PER_MINUTE", &cfg.Upload.RateLimit.RequestsPerMinute)
	e.integer("UPLOAD_RATE_LIMIT_BURST", &cfg.Upload.RateLimit.Burst)

	// Retention overrides
	e.boolean("RETENTION_ENABLED", &cfg.Retention.Enabled)
	e.duration("RETENTION_WINDOW", &cfg.Retention.Window)
	e.str("RETENTION_SCHEDULE", &cfg.Retention.Schedule)
	e.str("RETENTION_TIMEZONE", &cfg.Retention.Timezone)
	e.boolean("RETENTION_RUN_ON_START", &cfg.Retention.RunOnStart)

	// Ledger overrides
	e.boolean("LEDGER_ENABLED", &cfg.Ledger.Enabled)
	e.str("LEDGER_DRIVER", &cfg.Ledger.Driver)
	e.str("LEDGER_PATH", &cfg.Ledger.Path)
	e.integer("LEDGER_MAX_RUNS", &cfg.Ledger.MaxRuns)

	// Security overrides
	e.boolean("SECURITY_API_KEY_ENABLED", &cfg.Security.APIKey.Enabled)
	e.boolean("SECURITY_TOKEN_ENABLED", &cfg.Security.Token.Enabled)
	e.str("SECURITY_TOKEN_PROVIDER_URL", &cfg.Security.Token.ProviderURL)
	e.str("SECURITY_TOKEN_PUBLISHABLE_KEY", &cfg.Security.Token.PublishableKey)
	e.duration("SECURITY_TOKEN_TIMEOUT", &cfg.Security.Token.Timeout)

	// Telemetry overrides
	e.str("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	e.str("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	e.boolean("TELEMETRY_LOGGING_FILE_ENABLED", &cfg.Telemetry.Logging.File.Enabled)
	e.str("TELEMETRY_LOGGING_FILE_PATH", &cfg.Telemetry.Logging.File.Path)
	e.boolean("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	e.str("TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	e.boolean("TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	e.str("TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	e.boolean("TELEMETRY_TRACING_INSECURE", &cfg.Telemetry.Tracing.Insecure)
	e.str("TELEMETRY_TRACING_SAMPLER", &cfg.Telemetry.Tracing.Sampler)
	e.float("TELEMETRY_TRACING_SAMPLE_RATIO", &cfg.Telemetry.Tracing.SampleRatio)

	applyLegacyEnv(cfg, lookup)

	return e.errs
}

// applyLegacyEnv honours the unprefixed variables deployments already set.
// They only fill values the file and VIDEOGATE_* variables left empty.
func applyLegacyEnv(cfg *Config, lookup lookupFunc) {
	if key, ok := lookup("API_KEY"); ok && key != "" {
		if !hasKey(cfg.Security.APIKey.Keys, key) {
			cfg.Security.APIKey.Keys = append(cfg.Security.APIKey.Keys, APIKeyConfig{
				Key:    key,
				UserID: "default",
			})
		}
	}

	token := &cfg.Security.Token
	if token.ProviderURL == "" {
		if val, ok := lookup("SUPABASE_URL"); ok {
			token.ProviderURL = val
		}
	}
	if token.PublishableKey == "" {
		if val, ok := lookup("SUPABASE_PUBLISHABLE_KEY"); ok {
			token.PublishableKey = val
		}
	}
}

func hasKey(keys []APIKeyConfig, key string) bool {
	for _, k := range keys {
		if k.Key == key {
			return true
		}
	}
	return false
}
