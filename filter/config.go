package filter

import (
	"github.com/kbukum/tilefilter/process"
	"github.com/kbukum/tilefilter/resilience"
	"github.com/kbukum/tilefilter/validation"
)

// Config selects the filter command and how it is run.
type Config struct {
	// Command is passed unchanged to Shell with -c.
	Command string `yaml:"command" mapstructure:"command" validate:"required"`
	// Shell runs Command. Defaults to sh.
	Shell string `yaml:"shell" mapstructure:"shell"`
	// StrictExit turns a non-zero exit status into an error.
	StrictExit bool `yaml:"strict_exit" mapstructure:"strict_exit"`
	// InheritStderr passes the filter's stderr through to ours.
	InheritStderr bool `yaml:"inherit_stderr" mapstructure:"inherit_stderr"`
	// ExportTileEnv sets TILE_Z, TILE_X, TILE_Y and TILE_LAYER for the filter.
	ExportTileEnv bool `yaml:"export_tile_env" mapstructure:"export_tile_env"`
	// Retry applies when creating pipes or forking fails for lack of
	// process slots, memory or descriptors. Off unless max_attempts > 1.
	Retry resilience.RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Shell == "" {
		c.Shell = process.DefaultShell
	}
	c.Retry.ApplyDefaults()
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}
