// Package config provides configuration loading and validation for
// apiguard clients.
//
// It uses Viper to load a YAML/JSON/TOML file, overlays values from a .env
// file (godotenv) and the process environment, and validates the result
// with struct tags (go-playground/validator).
//
// # Usage
//
//	var cfg config.ServiceConfig
//	if err := config.LoadConfig("apiprobe", &cfg); err != nil { ... }
//	cfg.ApplyDefaults()
//	if err := cfg.Validate(); err != nil { ... }
//
// Environment variables override file values using the APIGUARD_ prefix with
// underscore-separated paths (e.g., APIGUARD_CLIENT_BASE_URL,
// APIGUARD_CLIENT_RATE_LIMIT_MAX_REQUESTS).
package config
