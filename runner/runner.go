package runner

import (
	"context"
	"slices"
	"sync/atomic"

	"github.com/paulmach/orb/encoding/mvt"

	"github.com/kbukum/tilefilter/errors"
	"github.com/kbukum/tilefilter/logger"
	"github.com/kbukum/tilefilter/observability"
	"github.com/kbukum/tilefilter/pipeline"
	"github.com/kbukum/tilefilter/tile"
	"github.com/kbukum/tilefilter/tilestore"
)

// LayerFilter transforms one layer of a tile. *filter.Filter implements it.
type LayerFilter interface {
	Layer(ctx context.Context, layer *mvt.Layer, addr tile.Address) (*mvt.Layer, error)
}

// Stats counts what a run did with the tiles it read.
type Stats struct {
	Read     int64
	Filtered int64
	Copied   int64
	Skipped  int64
}

// Runner drives tiles from a Source through a LayerFilter into a Sink.
type Runner struct {
	cfg     Config
	filter  LayerFilter
	log     *logger.Logger
	metrics *observability.Metrics

	read, filtered, copied, skipped atomic.Int64
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger. Defaults to the "runner" logger from the registry.
func WithLogger(l *logger.Logger) Option {
	return func(r *Runner) { r.log = l }
}

// WithMetrics records per-tile metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// New returns a Runner for cfg using f on every selected layer.
func New(cfg Config, f LayerFilter, opts ...Option) (*Runner, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Runner{cfg: cfg, filter: f}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logger.Get("runner")
	}
	return r, nil
}

type outcome struct {
	tile    tilestore.Tile
	status  string
	skipped bool
}

const (
	statusFiltered = "filtered"
	statusCopied   = "copied"
	statusSkipped  = "skipped"
)

// Run processes every tile of src into sink. Under the abort policy the
// first failing tile ends the run with its error; under skip the run only
// fails on store errors. Metadata is copied when both stores carry it.
func (r *Runner) Run(ctx context.Context, src tilestore.Source, sink tilestore.Sink) (Stats, error) {
	if err := r.copyMetadata(ctx, src, sink); err != nil {
		return r.Stats(), err
	}

	tiles := pipeline.FromFunc(src.Tiles)
	wanted := pipeline.Filter(tiles, r.wantZoom)
	done := pipeline.Parallel(wanted, r.cfg.Workers, r.processTile)
	recorded := pipeline.Tap(done, r.record)
	kept := pipeline.Filter(recorded, func(o outcome) bool { return !o.skipped })

	err := pipeline.Drain(kept, func(ctx context.Context, o outcome) error {
		return sink.Put(ctx, o.tile)
	}).Run(ctx)
	if err == nil {
		err = ctx.Err()
	}
	return r.Stats(), err
}

// Stats returns the counters so far.
func (r *Runner) Stats() Stats {
	return Stats{
		Read:     r.read.Load(),
		Filtered: r.filtered.Load(),
		Copied:   r.copied.Load(),
		Skipped:  r.skipped.Load(),
	}
}

func (r *Runner) wantZoom(t tilestore.Tile) bool {
	return len(r.cfg.Zooms) == 0 || slices.Contains(r.cfg.Zooms, t.Address.Z)
}

func (r *Runner) wantLayer(name string) bool {
	return len(r.cfg.Layers) == 0 || slices.Contains(r.cfg.Layers, name)
}

func (r *Runner) processTile(ctx context.Context, t tilestore.Tile) (outcome, error) {
	r.read.Add(1)
	ctx, span := observability.StartSpan(ctx, observability.SpanTile)
	defer span.End()

	out, err := r.filterTile(ctx, t)
	if err == nil {
		return out, nil
	}
	observability.SetSpanError(ctx, err)
	if r.cfg.OnError == OnErrorSkip && ctx.Err() == nil {
		fields := logger.MergeWithError(logger.TileFields(t.Address.Z, t.Address.X, t.Address.Y), err)
		if appErr, ok := errors.AsAppError(err); ok {
			fields[logger.FieldCode] = string(appErr.Code)
		}
		r.log.Warn("skipping tile", fields)
		return outcome{tile: t, status: statusSkipped, skipped: true}, nil
	}
	return outcome{}, err
}

func (r *Runner) filterTile(ctx context.Context, t tilestore.Tile) (outcome, error) {
	layers, err := tile.Decode(t.Data)
	if err != nil {
		return outcome{}, errors.New(errors.ErrCodeInvalidTile, "undecodable tile "+t.Address.String()).WithCause(err)
	}

	touched := false
	for i, layer := range layers {
		if !r.wantLayer(layer.Name) {
			continue
		}
		filtered, err := r.filter.Layer(ctx, layer, t.Address)
		if err != nil {
			return outcome{}, err
		}
		layers[i] = filtered
		touched = true
	}
	if !touched {
		return outcome{tile: t, status: statusCopied}, nil
	}

	data, err := tile.Encode(layers, r.cfg.Gzip)
	if err != nil {
		return outcome{}, errors.New(errors.ErrCodeInvalidTile, "unencodable tile "+t.Address.String()).WithCause(err)
	}
	return outcome{tile: tilestore.Tile{Address: t.Address, Data: data}, status: statusFiltered}, nil
}

func (r *Runner) record(ctx context.Context, o outcome) error {
	switch o.status {
	case statusFiltered:
		r.filtered.Add(1)
	case statusCopied:
		r.copied.Add(1)
	case statusSkipped:
		r.skipped.Add(1)
	}
	if r.metrics != nil {
		r.metrics.RecordTile(ctx, o.status)
	}
	fields := logger.TileFields(o.tile.Address.Z, o.tile.Address.X, o.tile.Address.Y)
	fields["status"] = o.status
	r.log.Debug("tile done", fields)
	return nil
}

func (r *Runner) copyMetadata(ctx context.Context, src tilestore.Source, sink tilestore.Sink) error {
	mr, ok := src.(tilestore.MetadataReader)
	if !ok {
		return nil
	}
	mw, ok := sink.(tilestore.MetadataWriter)
	if !ok {
		return nil
	}
	meta, err := mr.Metadata(ctx)
	if err != nil {
		return err
	}
	if len(meta) == 0 {
		return nil
	}
	return mw.SetMetadata(ctx, meta)
}
