package config

import (
	"fmt"

	"github.com/kbukum/apiguard/logger"
	"github.com/kbukum/apiguard/observability"
)

// ServiceConfig is the top-level configuration of a program embedding an
// API client.
//
// Example:
//
//	type MyConfig struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Feature FeatureConfig `yaml:"feature" mapstructure:"feature"`
//	}
type ServiceConfig struct {
	Name        string                     `yaml:"name" mapstructure:"name" validate:"required"`
	Environment string                     `yaml:"environment" mapstructure:"environment" validate:"oneof=development staging production"`
	Version     string                     `yaml:"version" mapstructure:"version"`
	Debug       bool                       `yaml:"debug" mapstructure:"debug"`
	Logging     logger.Config              `yaml:"logging" mapstructure:"logging"`
	Tracing     observability.TracerConfig `yaml:"tracing" mapstructure:"tracing"`
	Client      ClientConfig               `yaml:"client" mapstructure:"client"`
}

// GetServiceConfig returns the base ServiceConfig.
func (c *ServiceConfig) GetServiceConfig() *ServiceConfig {
	return c
}

// ApplyDefaults applies default values to the configuration.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	if c.Logging.ServiceName == "" && c.Name != "" {
		c.Logging.ServiceName = c.Name
	}
	if c.Debug && c.Logging.Level == "" {
		c.Logging.Level = "debug"
	}
	c.Logging.ApplyDefaults()
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = c.Name
	}
	if c.Tracing.Environment == "" {
		c.Tracing.Environment = c.Environment
	}
	c.Client.ApplyDefaults()
}

// Validate validates the configuration.
func (c *ServiceConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("config.name is required")
	}
	if err := validateStruct(struct {
		Name        string `validate:"required"`
		Environment string `validate:"oneof=development staging production"`
	}{c.Name, c.Environment}); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	if err := c.Client.Validate(); err != nil {
		return fmt.Errorf("config.%w", err)
	}
	return nil
}
