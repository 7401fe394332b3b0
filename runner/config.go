package runner

import (
	"path/filepath"
	"runtime"

	"github.com/kbukum/tilefilter/errors"
	"github.com/kbukum/tilefilter/validation"
)

// Error policies.
const (
	OnErrorAbort = "abort"
	OnErrorSkip  = "skip"
)

// Config describes one batch run.
type Config struct {
	// Input is a tile directory or an .mbtiles file.
	Input string `yaml:"input" mapstructure:"input" validate:"required"`
	// Output is a tile directory or an .mbtiles file.
	Output string `yaml:"output" mapstructure:"output" validate:"required"`
	// Workers is how many tiles are filtered at once. Defaults to GOMAXPROCS.
	Workers int `yaml:"workers" mapstructure:"workers" validate:"min=0"`
	// OnError is abort or skip.
	OnError string `yaml:"on_error" mapstructure:"on_error" validate:"oneof=abort skip"`
	// Layers limits filtering to these layer names; other layers pass
	// through. Empty means every layer.
	Layers []string `yaml:"layers" mapstructure:"layers"`
	// Zooms limits the run to these zoom levels. Empty means every zoom.
	Zooms []uint32 `yaml:"zooms" mapstructure:"zooms"`
	// Gzip compresses output tiles.
	Gzip bool `yaml:"gzip" mapstructure:"gzip"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Workers == 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.OnError == "" {
		c.OnError = OnErrorAbort
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	in, errIn := filepath.Abs(c.Input)
	out, errOut := filepath.Abs(c.Output)
	if errIn == nil && errOut == nil && in == out {
		return errors.Config("output", "output must differ from input")
	}
	return nil
}
