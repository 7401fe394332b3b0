package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Operation tracks one traced, measured unit of work such as a filter
// invocation.
type Operation struct {
	Name      string
	ID        string
	Layer     string
	Tile      string
	StartTime time.Time
	Metrics   *Metrics
}

// NewOperation creates an operation starting now.
// If metrics is nil, metric recording is silently skipped.
func NewOperation(name, id string, metrics *Metrics) *Operation {
	return &Operation{
		Name:      name,
		ID:        id,
		StartTime: time.Now(),
		Metrics:   metrics,
	}
}

type operationKey struct{}

// WithOperation stores an Operation in the context.
func WithOperation(ctx context.Context, op *Operation) context.Context {
	return context.WithValue(ctx, operationKey{}, op)
}

// OperationFromContext retrieves the Operation from context, or nil.
func OperationFromContext(ctx context.Context) *Operation {
	if op, ok := ctx.Value(operationKey{}).(*Operation); ok {
		return op
	}
	return nil
}

// Start starts a span named after the operation and records the start metric.
func (op *Operation) Start(ctx context.Context) (context.Context, trace.Span) {
	ctx, span := StartSpan(ctx, op.Name)
	span.SetAttributes(
		attribute.String(AttrOperation, op.Name),
		attribute.String(AttrInvocationID, op.ID),
	)
	if op.Layer != "" {
		span.SetAttributes(attribute.String(AttrLayer, op.Layer))
	}
	if op.Tile != "" {
		span.SetAttributes(attribute.String(AttrTile, op.Tile))
	}
	if op.Metrics != nil {
		op.Metrics.RecordStart(ctx)
	}
	return WithOperation(ctx, op), span
}

// End ends the span and records the end metric. code is the error code
// when err is non-nil.
func (op *Operation) End(ctx context.Context, span trace.Span, code string, err error) {
	duration := time.Since(op.StartTime)
	status := "ok"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetAttributes(attribute.String(AttrErrorCode, code))
	}
	span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int64(AttrDurationMs, duration.Milliseconds()),
	)
	span.End()

	if op.Metrics != nil {
		op.Metrics.RecordEnd(ctx, op.Layer, status, duration)
		if err != nil {
			op.Metrics.RecordError(ctx, code, op.Layer)
		}
	}
}

// Duration returns the elapsed time since the operation started.
func (op *Operation) Duration() time.Duration {
	return time.Since(op.StartTime)
}
