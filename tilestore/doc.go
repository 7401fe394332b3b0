// Package tilestore reads and writes encoded vector tiles.
//
// Two layouts are supported: a directory tree of z/x/y.pbf files (Dir) and
// an MBTiles SQLite database (MBTiles). Both serve as a Source to iterate
// and a Sink to write. Tile data is passed through as stored, gzipped or
// not; decoding is the caller's concern.
package tilestore
