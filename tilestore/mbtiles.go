package tilestore

import (
	"context"
	"database/sql"
	_ "embed"
	"os"

	_ "modernc.org/sqlite"

	"github.com/kbukum/tilefilter/errors"
	"github.com/kbukum/tilefilter/pipeline"
	"github.com/kbukum/tilefilter/tile"
)

// schema.sql creates the metadata and tiles tables of the MBTiles 1.3 layout.
//
//go:embed schema.sql
var schemaSQL string

// MBTiles is a tileset in an MBTiles SQLite file. Rows are stored in TMS
// order and converted to XYZ addresses at the boundary.
type MBTiles struct {
	path string
	db   *sql.DB
}

// OpenMBTiles opens an existing MBTiles file.
func OpenMBTiles(path string) (*MBTiles, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Resource("store", "open "+path, err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Resource("store", "open "+path, err)
	}
	return &MBTiles{path: path, db: db}, nil
}

// CreateMBTiles opens path for writing, creating the file and schema if
// needed.
func CreateMBTiles(path string) (*MBTiles, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Resource("store", "open "+path, err)
	}
	// One connection keeps writes serialized.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, errors.Resource("store", "create schema in "+path, err)
	}
	return &MBTiles{path: path, db: db}, nil
}

func (m *MBTiles) String() string { return m.path }

// Tiles yields every tile ordered by zoom, column and row.
func (m *MBTiles) Tiles(ctx context.Context) pipeline.Iterator[Tile] {
	rows, err := m.db.QueryContext(ctx,
		`SELECT zoom_level, tile_column, tile_row, tile_data FROM tiles ORDER BY zoom_level, tile_column, tile_row`)
	if err != nil {
		return &mbtilesIter{err: errors.Resource("store", "query "+m.path, err)}
	}
	return &mbtilesIter{rows: rows, path: m.path}
}

// Put inserts or replaces a tile.
func (m *MBTiles) Put(ctx context.Context, t Tile) error {
	tms := t.Address.FlipY()
	_, err := m.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO tiles (zoom_level, tile_column, tile_row, tile_data) VALUES (?, ?, ?, ?)`,
		tms.Z, tms.X, tms.Y, t.Data)
	if err != nil {
		return errors.Resource("store", "insert "+t.Address.String()+" into "+m.path, err)
	}
	return nil
}

// Metadata returns the metadata table.
func (m *MBTiles) Metadata(ctx context.Context) (map[string]string, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT name, value FROM metadata`)
	if err != nil {
		return nil, errors.Resource("store", "read metadata of "+m.path, err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var name, value sql.NullString
		if err := rows.Scan(&name, &value); err != nil {
			return nil, errors.Resource("store", "read metadata of "+m.path, err)
		}
		meta[name.String] = value.String
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Resource("store", "read metadata of "+m.path, err)
	}
	return meta, nil
}

// SetMetadata replaces the given metadata entries in one transaction.
func (m *MBTiles) SetMetadata(ctx context.Context, meta map[string]string) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Resource("store", "write metadata of "+m.path, err)
	}
	for name, value := range meta {
		if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO metadata (name, value) VALUES (?, ?)`, name, value); err != nil {
			_ = tx.Rollback()
			return errors.Resource("store", "write metadata of "+m.path, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Resource("store", "write metadata of "+m.path, err)
	}
	return nil
}

// Close closes the database.
func (m *MBTiles) Close() error {
	if err := m.db.Close(); err != nil {
		return errors.Resource("store", "close "+m.path, err)
	}
	return nil
}

type mbtilesIter struct {
	rows *sql.Rows
	path string
	err  error
}

func (it *mbtilesIter) Next(ctx context.Context) (Tile, bool, error) {
	if it.err != nil {
		return Tile{}, false, it.err
	}
	if err := ctx.Err(); err != nil {
		return Tile{}, false, err
	}
	if !it.rows.Next() {
		if err := it.rows.Err(); err != nil {
			return Tile{}, false, errors.Resource("store", "read "+it.path, err)
		}
		return Tile{}, false, nil
	}
	var z, x, y uint32
	var data []byte
	if err := it.rows.Scan(&z, &x, &y, &data); err != nil {
		return Tile{}, false, errors.Resource("store", "read "+it.path, err)
	}
	return Tile{Address: tile.NewAddress(z, x, y).FlipY(), Data: data}, true, nil
}

func (it *mbtilesIter) Close() error {
	if it.rows == nil {
		return nil
	}
	return it.rows.Close()
}
