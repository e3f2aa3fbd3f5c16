package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type fakeFS struct {
	files  map[string]bool
	loaded []string
}

func (f *fakeFS) Exists(path string) bool { return f.files[path] }

func (f *fakeFS) LoadEnv(path string) error {
	f.loaded = append(f.loaded, path)
	return nil
}

func TestResolve_SearchOrder(t *testing.T) {
	fs := &fakeFS{files: map[string]bool{
		"./config/apiprobe.yaml": true,
		"./config.yml":           true,
		"./.env":                 true,
	}}
	files := Resolve(fs, "apiprobe", LoaderConfig{})
	if files.ConfigFile != "./config/apiprobe.yaml" {
		t.Errorf("expected ./config/apiprobe.yaml, got %s", files.ConfigFile)
	}
	if files.EnvFile != "./.env" {
		t.Errorf("expected ./.env, got %s", files.EnvFile)
	}
}

func TestResolve_ExplicitWins(t *testing.T) {
	fs := &fakeFS{files: map[string]bool{"./config.yml": true}}
	files := Resolve(fs, "apiprobe", LoaderConfig{ConfigFile: "/etc/x.yml", EnvFile: "/etc/x.env"})
	if files.ConfigFile != "/etc/x.yml" || files.EnvFile != "/etc/x.env" {
		t.Errorf("expected explicit paths, got %+v", files)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	var cfg ServiceConfig
	if err := LoadConfig("none", &cfg, WithFileSystem(&fakeFS{})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c := cfg.Client
	if c.Timeout != DefaultTimeout {
		t.Errorf("expected timeout %v, got %v", DefaultTimeout, c.Timeout)
	}
	if c.MaxRetries != 3 || c.RetryDelay != time.Second || c.BackoffMultiplier != 2 {
		t.Errorf("unexpected retry defaults: %+v", c)
	}
	if c.RateLimit.Window != time.Minute || c.RateLimit.MaxRequests != 100 {
		t.Errorf("unexpected rate limit defaults: %+v", c.RateLimit)
	}
	if !c.LoggingEnabled {
		t.Error("expected logging enabled by default")
	}
	if c.Credential.Backend != CredentialMemory {
		t.Errorf("expected memory backend, got %s", c.Credential.Backend)
	}
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	yml := `
name: apiprobe
environment: staging
client:
  base_url: https://api.example.com
  timeout: 5s
  max_retries: 2
  retry_delay: 250ms
  rate_limit:
    window: 30s
    max_requests: 10
  mask_fields: [password, otp]
  headers:
    x-tenant: acme
`
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("APIGUARD_CLIENT_MAX_RETRIES", "5")
	t.Setenv("APIGUARD_CLIENT_RATE_LIMIT_MAX_REQUESTS", "7")

	var cfg ServiceConfig
	if err := LoadConfig("apiprobe", &cfg, WithConfigFile(path), WithFileSystem(&fakeFS{})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Name != "apiprobe" || cfg.Environment != "staging" {
		t.Errorf("unexpected service fields: %s/%s", cfg.Name, cfg.Environment)
	}
	c := cfg.Client
	if c.BaseURL != "https://api.example.com" {
		t.Errorf("expected base url, got %s", c.BaseURL)
	}
	if c.Timeout != 5*time.Second || c.RetryDelay != 250*time.Millisecond {
		t.Errorf("unexpected durations: %v %v", c.Timeout, c.RetryDelay)
	}
	if c.MaxRetries != 5 {
		t.Errorf("expected env override 5, got %d", c.MaxRetries)
	}
	if c.RateLimit.Window != 30*time.Second || c.RateLimit.MaxRequests != 7 {
		t.Errorf("unexpected rate limit: %+v", c.RateLimit)
	}
	if len(c.MaskFields) != 2 || c.MaskFields[1] != "otp" {
		t.Errorf("unexpected mask fields: %v", c.MaskFields)
	}
	if c.Headers["x-tenant"] != "acme" {
		t.Errorf("expected header x-tenant, got %v", c.Headers)
	}
}

func TestLoadConfig_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("APIGUARD_CLIENT_BASE_URL=https://env.example.com\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("APIGUARD_CLIENT_BASE_URL") })

	var cfg ServiceConfig
	if err := LoadConfig("apiprobe", &cfg, WithEnvFile(envPath)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Client.BaseURL != "https://env.example.com" {
		t.Errorf("expected base url from .env, got %s", cfg.Client.BaseURL)
	}
}

func TestLoadConfig_BadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(path, []byte("client: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	var cfg ServiceConfig
	if err := LoadConfig("apiprobe", &cfg, WithConfigFile(path), WithFileSystem(&fakeFS{})); err == nil {
		t.Error("expected error for malformed config file")
	}
}

func TestClientConfig_ApplyDefaults(t *testing.T) {
	var c ClientConfig
	c.ApplyDefaults()
	if c.Timeout != DefaultTimeout {
		t.Errorf("unexpected defaults: %+v", c)
	}
	if c.MaxRetries != 0 || c.RetryDelay != 0 {
		t.Errorf("expected explicit zero retries and delay kept, got %d/%v", c.MaxRetries, c.RetryDelay)
	}
	if c.BackoffMultiplier != DefaultBackoffMultiplier {
		t.Errorf("expected multiplier 2, got %v", c.BackoffMultiplier)
	}
	if c.LoggingEnabled {
		t.Error("ApplyDefaults should not flip booleans")
	}
	if !DefaultClientConfig().LoggingEnabled {
		t.Error("expected DefaultClientConfig to enable logging")
	}
}

func TestDefaultClientConfig_RetryDefaults(t *testing.T) {
	c := DefaultClientConfig()
	if c.MaxRetries != DefaultMaxRetries {
		t.Errorf("expected %d retries, got %d", DefaultMaxRetries, c.MaxRetries)
	}
	if c.RetryDelay != DefaultRetryDelay {
		t.Errorf("expected delay %v, got %v", DefaultRetryDelay, c.RetryDelay)
	}

	c.RetryDelay = 0
	c.ApplyDefaults()
	if c.RetryDelay != 0 {
		t.Errorf("expected zero delay to survive ApplyDefaults, got %v", c.RetryDelay)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("zero delay should validate: %v", err)
	}
}

func TestClientConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ClientConfig)
		wantErr string
	}{
		{"defaults", func(*ClientConfig) {}, ""},
		{"bad url", func(c *ClientConfig) { c.BaseURL = "not a url" }, "base_url must be a valid URL"},
		{"too many retries", func(c *ClientConfig) { c.MaxRetries = 11 }, "max_retries must be at most 10"},
		{"low multiplier", func(c *ClientConfig) { c.BackoffMultiplier = 0.5 }, "backoff_multiplier must be at least 1"},
		{"zero window", func(c *ClientConfig) { c.RateLimit.Window = 0 }, "rate_limit.window must be greater than 0"},
		{"bad backend", func(c *ClientConfig) { c.Credential.Backend = "etcd" }, "credential.backend must be one of"},
		{"redis without addr", func(c *ClientConfig) { c.Credential.Backend = CredentialRedis }, "credential.redis_addr is required"},
		{"file without key", func(c *ClientConfig) {
			c.Credential.Backend = CredentialFile
			c.Credential.FilePath = "/tmp/token"
		}, "credential.encryption_key is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultClientConfig()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestServiceConfig_ApplyDefaultsAndValidate(t *testing.T) {
	cfg := ServiceConfig{Name: "apiprobe"}
	cfg.ApplyDefaults()
	if cfg.Environment != "development" || !cfg.Debug {
		t.Errorf("expected development with debug, got %s/%v", cfg.Environment, cfg.Debug)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug log level, got %s", cfg.Logging.Level)
	}
	if cfg.Logging.ServiceName != "apiprobe" || cfg.Tracing.ServiceName != "apiprobe" {
		t.Error("expected service name propagated to logging and tracing")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}

	cfg.Name = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing name")
	}

	bad := ServiceConfig{Name: "x", Environment: "qa"}
	bad.ApplyDefaults()
	if err := bad.Validate(); err == nil || !strings.Contains(err.Error(), "Environment") {
		t.Errorf("expected environment error, got %v", err)
	}
}
