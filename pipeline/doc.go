// Package pipeline provides the pull-based stages the batch runner strings
// tiles through.
//
// Pipelines are lazy: nothing runs until Drain or Collect pulls values, and
// each stage pulls from the previous one on demand, so a slow sink holds back
// the tile source without explicit flow control.
//
//	src := pipeline.From(store.Tiles(ctx))
//	wanted := pipeline.Filter(src, inZoomRange)
//	done := pipeline.Parallel(wanted, workers, filterTile)
//	err := pipeline.Drain(done, sink.Put).Run(ctx)
package pipeline
