package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/tilefilter/config"
	"github.com/kbukum/tilefilter/logger"
)

type testConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Workers              int
}

func (c *testConfig) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	if c.Workers == 0 {
		c.Workers = 2
	}
}

func (c *testConfig) Validate() error {
	if c.Workers < 0 {
		return errors.New("workers must not be negative")
	}
	return c.ServiceConfig.Validate()
}

func newTestApp(t *testing.T, cfg *testConfig) (*App[*testConfig], *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	app, err := NewApp(cfg,
		WithLogger(logger.NewWithWriter(&logger.Config{Level: "error", Format: "json"}, "test", &bytes.Buffer{})),
		WithSummaryOutput(&out),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return app, &out
}

func TestNewAppAppliesDefaults(t *testing.T) {
	app, _ := newTestApp(t, &testConfig{})
	if app.Name != "tilefilter" {
		t.Errorf("expected default name, got %q", app.Name)
	}
	if app.Cfg.Workers != 2 {
		t.Errorf("expected workers default 2, got %d", app.Cfg.Workers)
	}
}

func TestNewAppValidation(t *testing.T) {
	_, err := NewApp(&testConfig{Workers: -1})
	if err == nil || !strings.Contains(err.Error(), "config validation") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRunTaskLifecycle(t *testing.T) {
	app, out := newTestApp(t, &testConfig{})
	var order []string
	app.OnStart(func(context.Context) error { order = append(order, "start"); return nil })
	app.OnStop(func(context.Context) error { order = append(order, "stop"); return nil })

	err := app.RunTask(context.Background(), func(context.Context) error {
		order = append(order, "task")
		app.Summary.Setting("input", "tiles/")
		app.Summary.Count("filtered", 3)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.Join(order, ","); got != "start,task,stop" {
		t.Fatalf("unexpected order %s", got)
	}
	for _, want := range []string{"finished", "input: tiles/", "filtered: 3"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("summary missing %q:\n%s", want, out.String())
		}
	}
}

func TestRunTaskErrorStillStops(t *testing.T) {
	app, out := newTestApp(t, &testConfig{})
	stopped := false
	app.OnStop(func(context.Context) error { stopped = true; return errors.New("stop failed") })

	boom := errors.New("boom")
	err := app.RunTask(context.Background(), func(context.Context) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected task error to win, got %v", err)
	}
	if !stopped {
		t.Fatal("expected stop hooks to run")
	}
	if !strings.Contains(out.String(), "failed") {
		t.Fatalf("expected failure summary, got:\n%s", out.String())
	}
}

func TestRunTaskStartHookAborts(t *testing.T) {
	app, _ := newTestApp(t, &testConfig{})
	app.OnStart(func(context.Context) error { return errors.New("no") })
	ran := false
	err := app.RunTask(context.Background(), func(context.Context) error { ran = true; return nil })
	if err == nil || ran {
		t.Fatalf("expected start hook to abort, err=%v ran=%v", err, ran)
	}
}

func TestRunTaskContextCanceled(t *testing.T) {
	app, _ := newTestApp(t, &testConfig{})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := app.RunTask(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestSummaryUpsert(t *testing.T) {
	var out bytes.Buffer
	s := NewSummary("tilefilter", "dev")
	s.out = &out
	s.Count("read", 1)
	s.Count("read", 5)
	s.Display(nil)
	if strings.Count(out.String(), "read:") != 1 || !strings.Contains(out.String(), "read: 5") {
		t.Fatalf("expected a single updated counter:\n%s", out.String())
	}
}
