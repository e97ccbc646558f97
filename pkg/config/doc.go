// Package config provides configuration management for videogate.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("config.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// An empty path means "defaults only", so the gateway runs without any file.
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention VIDEOGATE_SECTION_FIELD.
// For example:
//
//   - VIDEOGATE_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - VIDEOGATE_RETENTION_WINDOW overrides retention.window
//   - VIDEOGATE_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Three unprefixed variables are also read: API_KEY adds an API key,
// SUPABASE_URL and SUPABASE_PUBLISHABLE_KEY fill the token verifier settings
// when nothing else set them.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// Components receive the sections they need explicitly; there is no global
// configuration instance.
//
// # Example Configuration
//
//	server:
//	  listen_address: "0.0.0.0:3000"
//	  public_base_url: "https://media.primeia.app"
//
//	storage:
//	  directory: "public/videos"
//
//	retention:
//	  window: "24h"
//	  schedule: "0 * * * *"
//	  timezone: "America/Mexico_City"
//
//	ledger:
//	  driver: "sqlite"
//	  path: "data/ledger.db"
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
package config
