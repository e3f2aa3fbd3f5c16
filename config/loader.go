package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables that override file values.
const EnvPrefix = "APIGUARD"

// FileSystem abstracts file lookups so tests can fake them.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// RealFileSystem implements FileSystem using actual file operations.
type RealFileSystem struct{}

func (RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadEnv loads a .env file without overriding variables already set.
func (RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// ResolvedFiles contains the resolved config and env file paths.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// Resolve finds the config and env files of a program. Explicit paths win
// over the search.
func Resolve(fs FileSystem, name string, lc LoaderConfig) ResolvedFiles {
	files := ResolvedFiles{ConfigFile: lc.ConfigFile, EnvFile: lc.EnvFile}
	if files.ConfigFile == "" {
		files.ConfigFile = firstExisting(fs, configCandidates(name))
	}
	if files.EnvFile == "" {
		files.EnvFile = firstExisting(fs, envCandidates(name))
	}
	return files
}

func configCandidates(name string) []string {
	var paths []string
	for _, ext := range []string{"yml", "yaml", "json", "toml"} {
		paths = append(paths,
			fmt.Sprintf("./cmd/%s/config.%s", name, ext),
			fmt.Sprintf("./config/%s.%s", name, ext),
			fmt.Sprintf("./%s.%s", name, ext),
		)
	}
	return append(paths, "./config/config.yml", "./config.yml")
}

func envCandidates(name string) []string {
	return []string{
		fmt.Sprintf("./cmd/%s/.env", name),
		fmt.Sprintf("./.env.%s", name),
		"./.env",
	}
}

func firstExisting(fs FileSystem, paths []string) string {
	for _, p := range paths {
		if fs.Exists(p) {
			return p
		}
	}
	return ""
}

// LoaderConfig holds dependencies and optional file overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string // Direct config file path (optional)
	EnvFile    string // Direct env file path (optional)
}

// LoaderOption is a functional option for LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// LoadConfig loads configuration for the named program into cfg.
//
// Precedence, lowest first: registered defaults, config file, .env file,
// process environment. A missing config file is not an error.
func LoadConfig(name string, cfg any, opts ...LoaderOption) error {
	lc := LoaderConfig{FileSystem: RealFileSystem{}}
	for _, opt := range opts {
		opt(&lc)
	}
	files := Resolve(lc.FileSystem, name, lc)

	if files.EnvFile != "" {
		if err := lc.FileSystem.LoadEnv(files.EnvFile); err != nil {
			return fmt.Errorf("loading env file %s: %w", files.EnvFile, err)
		}
	}

	v := NewViper()
	if files.ConfigFile != "" {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %s: %w", files.ConfigFile, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config for %s: %w", name, err)
	}
	return nil
}

// NewViper returns a Viper instance with the ServiceConfig defaults
// registered and environment overrides enabled. Only registered keys are
// picked up from the environment by Unmarshal.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("name", "apiguard")
	v.SetDefault("environment", "development")
	v.SetDefault("version", "")
	v.SetDefault("debug", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.no_color", false)
	v.SetDefault("logging.timestamp", true)
	v.SetDefault("logging.caller", false)
	v.SetDefault("logging.service_name", "")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4318")
	v.SetDefault("tracing.insecure", true)
	v.SetDefault("tracing.sample_rate", 1.0)

	v.SetDefault("client.base_url", "")
	v.SetDefault("client.timeout", DefaultTimeout)
	v.SetDefault("client.max_retries", DefaultMaxRetries)
	v.SetDefault("client.retry_delay", DefaultRetryDelay)
	v.SetDefault("client.backoff_multiplier", DefaultBackoffMultiplier)
	v.SetDefault("client.rate_limit.window", DefaultRateWindow)
	v.SetDefault("client.rate_limit.max_requests", DefaultRateMaxRequests)
	v.SetDefault("client.mask_fields", []string{})
	v.SetDefault("client.logging_enabled", true)
	v.SetDefault("client.remote_logging_endpoint", "")
	v.SetDefault("client.max_concurrent", 0)
	v.SetDefault("client.user_agent", "")
	v.SetDefault("client.credential.backend", CredentialMemory)
	v.SetDefault("client.credential.redis_addr", "")
	v.SetDefault("client.credential.redis_password", "")
	v.SetDefault("client.credential.redis_db", 0)
	v.SetDefault("client.credential.key", DefaultCredentialKey)
	v.SetDefault("client.credential.ttl", 0)
	v.SetDefault("client.credential.file_path", "")
	v.SetDefault("client.credential.encryption_key", "")
}
