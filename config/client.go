package config

import (
	"fmt"
	"time"
)

// Credential store backends.
const (
	CredentialMemory = "memory"
	CredentialRedis  = "redis"
	CredentialFile   = "file"
)

// ClientConfig is the configuration surface of an API client.
type ClientConfig struct {
	// BaseURL is prepended to every request path.
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"omitempty,url"`
	// Timeout is the transport deadline of one attempt.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`
	// MaxRetries is the retry budget after the first attempt.
	MaxRetries int `yaml:"max_retries" mapstructure:"max_retries" validate:"gte=0,lte=10"`
	// RetryDelay is the wait before the first retry.
	RetryDelay time.Duration `yaml:"retry_delay" mapstructure:"retry_delay" validate:"gte=0"`
	// BackoffMultiplier scales RetryDelay for each further retry.
	BackoffMultiplier float64 `yaml:"backoff_multiplier" mapstructure:"backoff_multiplier" validate:"gte=1"`
	// RateLimit is the shared client-side request window.
	RateLimit RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
	// MaskFields are redacted from every log line and telemetry emission.
	MaskFields []string `yaml:"mask_fields" mapstructure:"mask_fields"`
	// LoggingEnabled turns local request logging on or off.
	LoggingEnabled bool `yaml:"logging_enabled" mapstructure:"logging_enabled"`
	// RemoteLoggingEndpoint receives failure reports when set.
	RemoteLoggingEndpoint string `yaml:"remote_logging_endpoint" mapstructure:"remote_logging_endpoint" validate:"omitempty,url"`
	// Headers are sent with every request.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`
	// MaxConcurrent caps in-flight requests. 0 disables the cap.
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent" validate:"gte=0"`
	// UserAgent overrides the default User-Agent header.
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`
	// Credential selects where the bearer token is stored.
	Credential CredentialConfig `yaml:"credential" mapstructure:"credential"`
}

// RateLimitConfig configures the client-side request window.
type RateLimitConfig struct {
	Window      time.Duration `yaml:"window" mapstructure:"window" validate:"gt=0"`
	MaxRequests int           `yaml:"max_requests" mapstructure:"max_requests" validate:"gt=0"`
}

// CredentialConfig configures the credential store backend.
type CredentialConfig struct {
	Backend       string        `yaml:"backend" mapstructure:"backend" validate:"oneof=memory redis file"`
	RedisAddr     string        `yaml:"redis_addr" mapstructure:"redis_addr" validate:"required_if=Backend redis"`
	RedisPassword string        `yaml:"redis_password" mapstructure:"redis_password"`
	RedisDB       int           `yaml:"redis_db" mapstructure:"redis_db" validate:"gte=0"`
	Key           string        `yaml:"key" mapstructure:"key"`
	TTL           time.Duration `yaml:"ttl" mapstructure:"ttl" validate:"gte=0"`
	FilePath      string        `yaml:"file_path" mapstructure:"file_path" validate:"required_if=Backend file"`
	EncryptionKey string        `yaml:"encryption_key" mapstructure:"encryption_key" validate:"required_if=Backend file"`
}

// Defaults of the client configuration surface.
const (
	DefaultTimeout           = 10 * time.Second
	DefaultMaxRetries        = 3
	DefaultRetryDelay        = time.Second
	DefaultBackoffMultiplier = 2.0
	DefaultRateWindow        = time.Minute
	DefaultRateMaxRequests   = 100
	DefaultCredentialKey     = "apiguard:token"
)

// DefaultClientConfig returns a configuration with every default applied and
// logging enabled.
func DefaultClientConfig() ClientConfig {
	cfg := ClientConfig{
		MaxRetries:     DefaultMaxRetries,
		RetryDelay:     DefaultRetryDelay,
		LoggingEnabled: true,
	}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills in zero-value fields with defaults. MaxRetries,
// RetryDelay and booleans are left alone since zero is a valid setting for
// them; start from DefaultClientConfig to get their defaults.
func (c *ClientConfig) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.BackoffMultiplier <= 0 {
		c.BackoffMultiplier = DefaultBackoffMultiplier
	}
	if c.RateLimit.Window <= 0 {
		c.RateLimit.Window = DefaultRateWindow
	}
	if c.RateLimit.MaxRequests <= 0 {
		c.RateLimit.MaxRequests = DefaultRateMaxRequests
	}
	if c.Credential.Backend == "" {
		c.Credential.Backend = CredentialMemory
	}
	if c.Credential.Key == "" {
		c.Credential.Key = DefaultCredentialKey
	}
}

// Validate checks the configuration against its struct tags.
func (c *ClientConfig) Validate() error {
	if err := validateStruct(c); err != nil {
		return fmt.Errorf("client: %w", err)
	}
	return nil
}
