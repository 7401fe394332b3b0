// Package runner filters every tile of a tile store into another store.
//
// Tiles are decoded, each selected layer is sent through the filter, and
// the re-encoded tile is written to the sink. Tiles are processed
// concurrently; the layers of one tile run one after another. What happens
// when a tile fails is decided by the error policy: abort stops the run and
// returns the error, skip logs it and leaves the tile out of the output.
package runner
