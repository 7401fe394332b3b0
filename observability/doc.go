// Package observability provides OpenTelemetry tracing and metrics for
// filter invocations.
//
// Exporters are only installed by Setup when enabled; otherwise the global
// noop providers stay in place and recording costs nothing.
//
//	shutdown, err := observability.Setup(ctx, cfg, "tilefilter", version.GetShortVersion())
//	defer shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("tilefilter"))
//	op := observability.NewOperation("filter.layer", id, metrics)
//	ctx, span := op.Start(ctx)
//	defer op.End(ctx, span, result, err)
package observability
