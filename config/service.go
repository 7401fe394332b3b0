package config

import (
	"fmt"

	"github.com/kbukum/tilefilter/logger"
)

// ServiceConfig contains the fields every tilefilter binary needs.
// Binaries extend it by embedding:
//
//	type AppConfig struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Filter filter.Config `yaml:"filter" mapstructure:"filter"`
//	}
type ServiceConfig struct {
	Name    string        `yaml:"name" mapstructure:"name"`
	Version string        `yaml:"version" mapstructure:"version"`
	Logging logger.Config `yaml:"logging" mapstructure:"logging"`
}

// GetServiceConfig returns the base ServiceConfig.
func (c *ServiceConfig) GetServiceConfig() *ServiceConfig {
	return c
}

// ApplyDefaults applies default values to the base configuration.
// Embedding structs should call c.ServiceConfig.ApplyDefaults() first.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "tilefilter"
	}
	c.Logging.ApplyDefaults()
}

// Validate validates the base configuration fields.
func (c *ServiceConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("config.name is required")
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	return nil
}
