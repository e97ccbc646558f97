package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func fieldErrors(t *testing.T, err error) map[string]bool {
	t.Helper()
	fields := make(map[string]bool)
	if err == nil {
		return fields
	}
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %T, want ValidationError", err)
	}
	for _, fe := range verr.Errors {
		fields[fe.Field] = true
	}
	return fields
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Server.ListenAddress = ""
	cfg.Retention.Window = -time.Hour
	cfg.Telemetry.Logging.Level = "verbose"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation to fail")
	}

	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(verr.Errors) != 3 {
		t.Errorf("expected 3 errors, got %d: %v", len(verr.Errors), verr.Errors)
	}
	if !strings.Contains(verr.Error(), "validation failed with 3 errors") {
		t.Errorf("error message should mention multiple errors: %s", verr.Error())
	}
}

func TestValidate_Fields(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{
			name:      "listen address without port",
			mutate:    func(c *Config) { c.Server.ListenAddress = "localhost" },
			wantField: "server.listen_address",
		},
		{
			name:      "negative read timeout",
			mutate:    func(c *Config) { c.Server.ReadTimeout = -time.Second },
			wantField: "server.read_timeout",
		},
		{
			name:      "relative public base URL",
			mutate:    func(c *Config) { c.Server.PublicBaseURL = "media.primeia.app" },
			wantField: "server.public_base_url",
		},
		{
			name:      "TLS without cert",
			mutate:    func(c *Config) { c.Server.TLS = TLSConfig{Enabled: true, KeyFile: "key.pem"} },
			wantField: "server.tls.cert_file",
		},
		{
			name: "unknown tracing sampler",
			mutate: func(c *Config) {
				c.Telemetry.Tracing.Enabled = true
				c.Telemetry.Tracing.Sampler = "sometimes"
			},
			wantField: "telemetry.tracing.sampler",
		},
		{
			name: "tracing ratio above one",
			mutate: func(c *Config) {
				c.Telemetry.Tracing.Enabled = true
				c.Telemetry.Tracing.SampleRatio = 1.5
			},
			wantField: "telemetry.tracing.sample_ratio",
		},
		{
			name:      "origin with path",
			mutate:    func(c *Config) { c.Server.CORS.AllowedOrigins = []string{"https://primeia.app/app"} },
			wantField: "server.cors.allowed_origins[0]",
		},
		{
			name:      "url prefix without slash",
			mutate:    func(c *Config) { c.Storage.URLPrefix = "videos" },
			wantField: "storage.url_prefix",
		},
		{
			name:      "url prefix under api",
			mutate:    func(c *Config) { c.Storage.URLPrefix = "/api/videos" },
			wantField: "storage.url_prefix",
		},
		{
			name:      "zero upload size",
			mutate:    func(c *Config) { c.Upload.MaxBytes = -1 },
			wantField: "upload.max_bytes",
		},
		{
			name:      "bad media type",
			mutate:    func(c *Config) { c.Upload.AllowedMIMETypes = []string{"video/"} },
			wantField: "upload.allowed_mime_types[0]",
		},
		{
			name:      "rate limit without burst",
			mutate:    func(c *Config) { c.Upload.RateLimit.Burst = -1 },
			wantField: "upload.rate_limit.burst",
		},
		{
			name:      "six field cron",
			mutate:    func(c *Config) { c.Retention.Schedule = "0 0 * * * *" },
			wantField: "retention.schedule",
		},
		{
			name:      "unknown timezone",
			mutate:    func(c *Config) { c.Retention.Timezone = "Mars/Base" },
			wantField: "retention.timezone",
		},
		{
			name: "no way to sweep",
			mutate: func(c *Config) {
				c.Retention.Schedule = ""
				c.Retention.RunOnStart = false
			},
			wantField: "retention.schedule",
		},
		{
			name:      "unknown ledger driver",
			mutate:    func(c *Config) { c.Ledger.Driver = "postgres" },
			wantField: "ledger.driver",
		},
		{
			name:      "api key auth without keys",
			mutate:    func(c *Config) { c.Security.APIKey.Enabled = true },
			wantField: "security.api_key.keys",
		},
		{
			name: "api key source type",
			mutate: func(c *Config) {
				c.Security.APIKey.Enabled = true
				c.Security.APIKey.Keys = []APIKeyConfig{{Key: "k"}}
				c.Security.APIKey.Sources = []APIKeySource{{Type: "cookie", Name: "k"}}
			},
			wantField: "security.api_key.sources[0].type",
		},
		{
			name: "token auth without key",
			mutate: func(c *Config) {
				c.Security.Token.Enabled = true
				c.Security.Token.ProviderURL = "https://project.supabase.co"
			},
			wantField: "security.token.publishable_key",
		},
		{
			name:      "log format",
			mutate:    func(c *Config) { c.Telemetry.Logging.Format = "console" },
			wantField: "telemetry.logging.format",
		},
		{
			name:      "metrics path",
			mutate:    func(c *Config) { c.Telemetry.Metrics.Path = "metrics" },
			wantField: "telemetry.metrics.path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)

			fields := fieldErrors(t, Validate(cfg))
			if !fields[tt.wantField] {
				t.Errorf("expected error for field %q, got %v", tt.wantField, fields)
			}
		})
	}
}

func TestValidate_DisabledSectionsSkipped(t *testing.T) {
	cfg := Defaults()
	cfg.Retention.Enabled = false
	cfg.Retention.Window = -time.Hour
	cfg.Ledger.Enabled = false
	cfg.Ledger.Driver = "postgres"
	cfg.Upload.RateLimit.Enabled = false
	cfg.Upload.RateLimit.Burst = -1

	if err := Validate(cfg); err != nil {
		t.Errorf("disabled sections should not be validated: %v", err)
	}
}

func TestValidate_WildcardOrigin(t *testing.T) {
	cfg := Defaults()
	cfg.Server.CORS.AllowedOrigins = []string{"*"}
	if err := Validate(cfg); err != nil {
		t.Errorf("wildcard origin rejected: %v", err)
	}
}

func TestAPIKeyConfig_IsEnabled(t *testing.T) {
	off := false
	on := true

	tests := []struct {
		name string
		key  APIKeyConfig
		want bool
	}{
		{"unset", APIKeyConfig{Key: "k"}, true},
		{"explicit true", APIKeyConfig{Key: "k", Enabled: &on}, true},
		{"explicit false", APIKeyConfig{Key: "k", Enabled: &off}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.IsEnabled(); got != tt.want {
				t.Errorf("IsEnabled() = %v, want %v", got, tt.want)
			}
		})
	}
}
