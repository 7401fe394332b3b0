package observability

import (
	"context"
	stderrors "errors"
)

// Config enables OTLP export for the process.
type Config struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure   bool    `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate" validate:"min=0,max=1"`
}

// ApplyDefaults fills in a local collector endpoint.
func (c *Config) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
}

// Setup installs tracer and meter providers when cfg.Enabled and returns a
// function that flushes and shuts them down. When disabled the returned
// function is a no-op.
func Setup(ctx context.Context, cfg Config, serviceName, serviceVersion string) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}
	cfg.ApplyDefaults()

	tc := DefaultTracerConfig(serviceName)
	tc.ServiceVersion = serviceVersion
	tc.Endpoint = cfg.Endpoint
	tc.Insecure = cfg.Insecure
	tc.SampleRate = cfg.SampleRate
	tp, err := InitTracer(ctx, tc)
	if err != nil {
		return nil, err
	}

	mc := DefaultMeterConfig(serviceName)
	mc.ServiceVersion = serviceVersion
	mc.Endpoint = cfg.Endpoint
	mc.Insecure = cfg.Insecure
	mp, err := InitMeter(ctx, &mc)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}

	return func(ctx context.Context) error {
		return stderrors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}
