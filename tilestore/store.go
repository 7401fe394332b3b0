package tilestore

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/kbukum/tilefilter/pipeline"
	"github.com/kbukum/tilefilter/tile"
)

// Tile is one encoded tile and its XYZ address.
type Tile struct {
	Address tile.Address
	Data    []byte
}

// Source iterates the tiles of a store.
type Source interface {
	// Tiles returns an iterator over every tile. The iterator must be closed.
	Tiles(ctx context.Context) pipeline.Iterator[Tile]
	Close() error
}

// Sink stores tiles. Put may overwrite an existing tile.
type Sink interface {
	Put(ctx context.Context, t Tile) error
	Close() error
}

// MetadataReader is implemented by stores that carry tileset metadata.
type MetadataReader interface {
	Metadata(ctx context.Context) (map[string]string, error)
}

// MetadataWriter is implemented by stores that can record tileset metadata.
type MetadataWriter interface {
	SetMetadata(ctx context.Context, meta map[string]string) error
}

// IsMBTiles reports whether path names an MBTiles file.
func IsMBTiles(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".mbtiles")
}

// OpenSource opens path as an MBTiles file or a tile directory.
func OpenSource(path string) (Source, error) {
	if IsMBTiles(path) {
		return OpenMBTiles(path)
	}
	return OpenDir(path)
}

// CreateSink creates or opens path for writing as an MBTiles file or a tile
// directory.
func CreateSink(path string) (Sink, error) {
	if IsMBTiles(path) {
		return CreateMBTiles(path)
	}
	return CreateDir(path)
}
