package config

import "time"

// ConfigBuilder provides a fluent API for building Config instances in tests.
// It starts with default values and allows selective overrides.
type ConfigBuilder struct {
	cfg *Config
}

// NewTestConfig creates a ConfigBuilder seeded with Defaults. The resulting
// configuration is valid and can be used immediately.
func NewTestConfig() *ConfigBuilder {
	return &ConfigBuilder{cfg: Defaults()}
}

// Build returns the built Config instance.
func (b *ConfigBuilder) Build() *Config {
	return b.cfg
}

// WithListenAddress sets the server listen address.
func (b *ConfigBuilder) WithListenAddress(addr string) *ConfigBuilder {
	b.cfg.Server.ListenAddress = addr
	return b
}

// WithRetention sets the retention window and schedule.
func (b *ConfigBuilder) WithRetention(window time.Duration, schedule string) *ConfigBuilder {
	b.cfg.Retention.Window = window
	b.cfg.Retention.Schedule = schedule
	return b
}

// WithAPIKey enables API key auth with a single key.
func (b *ConfigBuilder) WithAPIKey(key string) *ConfigBuilder {
	b.cfg.Security.APIKey.Enabled = true
	b.cfg.Security.APIKey.Keys = append(b.cfg.Security.APIKey.Keys, APIKeyConfig{Key: key, UserID: "test"})
	return b
}

// WithTokenAuth enables bearer token auth against providerURL.
func (b *ConfigBuilder) WithTokenAuth(providerURL, publishableKey string) *ConfigBuilder {
	b.cfg.Security.Token.Enabled = true
	b.cfg.Security.Token.ProviderURL = providerURL
	b.cfg.Security.Token.PublishableKey = publishableKey
	return b
}

// WithLedgerDriver sets the ledger driver.
func (b *ConfigBuilder) WithLedgerDriver(driver string) *ConfigBuilder {
	b.cfg.Ledger.Driver = driver
	return b
}
