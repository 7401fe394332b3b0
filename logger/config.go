package logger

import (
	"fmt"
	"slices"
)

// Config selects level, format and destination of log output.
type Config struct {
	Level     string `yaml:"level" mapstructure:"level"`
	Format    string `yaml:"format" mapstructure:"format"`
	Output    string `yaml:"output" mapstructure:"output"`
	NoColor   bool   `yaml:"no_color" mapstructure:"no_color"`
	Timestamp bool   `yaml:"timestamp" mapstructure:"timestamp"`
	Caller    bool   `yaml:"caller" mapstructure:"caller"`
}

// ApplyDefaults logs info-level console output to stderr. Stdout is never
// the default since a filter pipeline may be reading it.
func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "console"
	}
	if c.Output == "" {
		c.Output = "stderr"
	}
	c.Timestamp = true
}

var allowed = []struct {
	field  string
	values []string
	get    func(*Config) string
}{
	{"level", []string{"trace", "debug", "info", "warn", "error", "fatal"}, func(c *Config) string { return c.Level }},
	{"format", []string{"json", "console", "pretty"}, func(c *Config) string { return c.Format }},
	{"output", []string{"stdout", "stderr"}, func(c *Config) string { return c.Output }},
}

// Validate checks every option against its allowed values.
func (c *Config) Validate() error {
	for _, a := range allowed {
		if v := a.get(c); !slices.Contains(a.values, v) {
			return fmt.Errorf("logging.%s must be one of %v (got: %s)", a.field, a.values, v)
		}
	}
	return nil
}
