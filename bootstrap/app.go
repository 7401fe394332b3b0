package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kbukum/tilefilter/logger"
)

// App holds a typed configuration and runs one task under it.
type App[C Config] struct {
	Name    string
	Version string
	Cfg     C
	Logger  *logger.Logger
	Summary *Summary

	gracefulTimeout time.Duration
	onStart         []Hook
	onStop          []Hook
}

// Option adjusts an App before it is returned by NewApp.
type Option func(*settings)

type settings struct {
	logger     *logger.Logger
	summaryOut io.Writer
}

// WithLogger replaces the logger built from the config's logging section.
func WithLogger(l *logger.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithSummaryOutput sets where the run summary is printed. Default stderr.
func WithSummaryOutput(w io.Writer) Option {
	return func(s *settings) { s.summaryOut = w }
}

// NewApp applies defaults to cfg, validates it and initializes the global
// logger from its Logging section.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	base := cfg.GetServiceConfig()

	set := settings{summaryOut: os.Stderr}
	for _, opt := range opts {
		opt(&set)
	}
	if set.logger == nil {
		logger.Init(&base.Logging)
		set.logger = logger.Default()
	}

	app := &App[C]{
		Name:            base.Name,
		Version:         base.Version,
		Cfg:             cfg,
		Logger:          set.logger,
		Summary:         NewSummary(base.Name, base.Version),
		gracefulTimeout: 15 * time.Second,
	}
	app.Summary.out = set.summaryOut
	return app, nil
}

// RunTask runs start hooks, then task, then stop hooks and prints the
// summary. The task's context is canceled on SIGINT or SIGTERM. The task
// error wins over a stop hook error.
func (a *App[C]) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	start := time.Now()
	a.Logger.Info("Starting", logger.Fields("name", a.Name, "version", a.Version))

	if err := runHooks(ctx, a.onStart); err != nil {
		return fmt.Errorf("onStart hook failed: %w", err)
	}

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			a.Logger.Info("Received signal, canceling task", logger.Fields("signal", sig.String()))
			cancel()
		case <-taskCtx.Done():
		}
	}()

	taskErr := task(taskCtx)
	a.Summary.SetDuration(time.Since(start))

	stopErr := a.stop()
	a.Summary.Display(taskErr)
	if taskErr != nil {
		return taskErr
	}
	return stopErr
}

func (a *App[C]) stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	if err := runHooks(ctx, a.onStop); err != nil {
		a.Logger.Error("OnStop hook error", logger.Fields(logger.FieldError, err.Error()))
		return err
	}
	return nil
}
