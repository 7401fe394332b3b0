package main

import (
	"github.com/kbukum/tilefilter/config"
	"github.com/kbukum/tilefilter/filter"
	"github.com/kbukum/tilefilter/observability"
	"github.com/kbukum/tilefilter/runner"
	"github.com/kbukum/tilefilter/validation"
	"github.com/kbukum/tilefilter/version"
)

// AppConfig is the full tilefilter configuration.
type AppConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Filter        filter.Config        `yaml:"filter" mapstructure:"filter"`
	Run           runner.Config        `yaml:"run" mapstructure:"run"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// ApplyDefaults sets defaults on every section.
func (c *AppConfig) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	if c.Version == "" {
		c.Version = version.Get().Short()
	}
	c.Filter.ApplyDefaults()
	c.Run.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

// Validate checks every section.
func (c *AppConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Filter.Validate(); err != nil {
		return err
	}
	if err := c.Run.Validate(); err != nil {
		return err
	}
	return validation.Validate(&c.Observability)
}
