package filter

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb/encoding/mvt"
	"golang.org/x/sync/errgroup"

	"github.com/kbukum/tilefilter/errors"
	"github.com/kbukum/tilefilter/logger"
	"github.com/kbukum/tilefilter/observability"
	"github.com/kbukum/tilefilter/process"
	"github.com/kbukum/tilefilter/resilience"
	"github.com/kbukum/tilefilter/tile"
)

// Filter runs tile layers through one configured command.
// It is safe for concurrent use; every call spawns its own process.
type Filter struct {
	cfg     Config
	log     *logger.Logger
	metrics *observability.Metrics
	stderr  io.Writer
}

// Option configures a Filter.
type Option func(*Filter)

// WithLogger sets the logger. Defaults to the "filter" logger from the registry.
func WithLogger(l *logger.Logger) Option {
	return func(f *Filter) { f.log = l }
}

// WithMetrics records invocation metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(f *Filter) { f.metrics = m }
}

// WithStderr sends the filter's stderr to w regardless of InheritStderr.
func WithStderr(w io.Writer) Option {
	return func(f *Filter) { f.stderr = w }
}

// New returns a Filter for cfg.
func New(cfg Config, opts ...Option) (*Filter, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	f := &Filter{cfg: cfg}
	if cfg.InheritStderr {
		f.stderr = os.Stderr
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.log == nil {
		f.log = logger.Get("filter")
	}
	return f, nil
}

// Layer pipes layer through the filter command and returns the layer built
// from its output. layer must not be nil and is not modified. On error no partial
// layer is returned; the error is an *errors.AppError.
func (f *Filter) Layer(ctx context.Context, layer *mvt.Layer, addr tile.Address) (*mvt.Layer, error) {
	id := uuid.NewString()
	op := observability.NewOperation(observability.SpanFilterLayer, id, f.metrics)
	op.Layer = layer.Name
	op.Tile = addr.String()
	ctx, span := op.Start(logger.ContextWithInvocationID(ctx, id))

	log := f.log.WithContext(ctx).With(
		logger.TileFields(addr.Z, addr.X, addr.Y),
		logger.Fields(logger.FieldLayer, layer.Name),
	)
	log.Debug("filter started", logger.Fields(logger.FieldFeaturesIn, len(layer.Features)))

	out, st, err := f.run(ctx, layer, addr, log)

	var code string
	if appErr, ok := errors.AsAppError(err); ok {
		code = string(appErr.Code)
	}
	op.End(ctx, span, code, err)
	if f.metrics != nil {
		f.metrics.RecordFeatures(ctx, layer.Name, len(layer.Features), st.features, st.skipped)
	}

	if err != nil {
		if appErr, ok := errors.AsAppError(err); ok && appErr.Kind() == errors.KindProtocol {
			// Same two lines the filter author needs to find the bad output.
			log.Error(fmt.Sprintf("Filter output:%d: %s", appErr.Line, appErr.Message),
				logger.Fields(logger.FieldCode, code, logger.FieldLine, appErr.Line))
			if appErr.Context != "" {
				log.Error("In JSON object "+appErr.Context, logger.Fields(logger.FieldContext, appErr.Context))
			}
		}
		return nil, err
	}

	log.Debug("filter finished", logger.MergeWithDuration(logger.Fields(
		logger.FieldFeaturesIn, len(layer.Features),
		logger.FieldFeaturesOut, st.features,
		"skipped", st.skipped,
	), op.Duration()))
	return out, nil
}

func (f *Filter) run(ctx context.Context, layer *mvt.Layer, addr tile.Address, log *logger.Logger) (*mvt.Layer, readStats, error) {
	toR, toW, err := f.pipe(ctx, log)
	if err != nil {
		return nil, readStats{}, errors.Resource("pipe", "to-filter pipe", err)
	}
	fromR, fromW, err := f.pipe(ctx, log)
	if err != nil {
		toR.Close()
		toW.Close()
		return nil, readStats{}, errors.Resource("pipe", "from-filter pipe", err)
	}

	cmd := process.Shell(f.cfg.Shell, f.cfg.Command)
	cmd.Stdin = toR
	cmd.Stdout = fromW
	cmd.Stderr = f.stderr
	if f.cfg.ExportTileEnv {
		cmd.Env = append(addr.Env(), "TILE_LAYER="+layer.Name)
	}

	proc, spawnErr := resilience.Retry(ctx, f.cfg.Retry, func() (*process.Process, error) {
		return process.Spawn(ctx, cmd)
	}, resilience.RetryIf(resilience.Transient), resilience.OnRetry(retryLogger(log, "spawn")))
	// The child has its own copies of these; ours must go or EOF never
	// arrives on either pipe.
	closeErr := closeBoth(toR, fromW)
	if spawnErr != nil {
		toW.Close()
		fromR.Close()
		return nil, readStats{}, errors.Resource("spawn", f.cfg.Command, spawnErr)
	}
	if closeErr != nil {
		toW.Close()
		fromR.Close()
		_ = proc.Kill()
		_, _ = proc.Wait()
		return nil, readStats{}, errors.Resource("close", "child pipe ends", closeErr)
	}
	log.Debug("filter spawned", logger.Fields("pid", proc.Pid()))

	var writer errgroup.Group
	writer.Go(func() error {
		return writeLayer(toW, layer, addr)
	})

	out, st, readErr := readLayer(fromR, layer, addr)
	if readErr != nil {
		// Stop the filter so a blocked writer sees EPIPE instead of
		// waiting for a reader that is gone.
		fromR.Close()
		_ = proc.Kill()
	} else if err := fromR.Close(); err != nil {
		readErr = errors.Resource("close", "from-filter pipe", err)
	}

	result, waitErr := proc.Wait()
	joinErr := writer.Wait()

	switch {
	case readErr != nil:
		return nil, st, readErr
	case waitErr != nil:
		return nil, st, errors.Resource("wait", f.cfg.Command, waitErr)
	case joinErr != nil:
		return nil, st, joinErr
	case ctx.Err() != nil:
		return nil, st, errors.Resource("exec", "filter canceled", ctx.Err())
	}

	if !result.Success() {
		if f.cfg.StrictExit {
			return nil, st, errors.Resource("exec", fmt.Sprintf("filter exited with status %d", result.ExitCode), nil).
				WithDetail("exit_code", result.ExitCode)
		}
		log.Warn("filter exited with non-zero status", logger.Fields(logger.FieldExitCode, result.ExitCode))
	}
	return out, st, nil
}

type pipePair struct{ r, w *os.File }

func (f *Filter) pipe(ctx context.Context, log *logger.Logger) (*os.File, *os.File, error) {
	p, err := resilience.Retry(ctx, f.cfg.Retry, func() (pipePair, error) {
		r, w, err := os.Pipe()
		return pipePair{r, w}, err
	}, resilience.RetryIf(resilience.Transient), resilience.OnRetry(retryLogger(log, "pipe")))
	return p.r, p.w, err
}

func retryLogger(log *logger.Logger, op string) func(int, error, time.Duration) {
	return func(attempt int, err error, backoff time.Duration) {
		log.Warn("retrying "+op, logger.Fields("attempt", attempt, logger.FieldError, err.Error(), "backoff", backoff.String()))
	}
}

func closeBoth(a, b *os.File) error {
	errA := a.Close()
	errB := b.Close()
	if errA != nil {
		return errA
	}
	return errB
}
