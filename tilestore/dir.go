package tilestore

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/kbukum/tilefilter/errors"
	"github.com/kbukum/tilefilter/pipeline"
	"github.com/kbukum/tilefilter/tile"
)

var tileExts = []string{".pbf", ".mvt"}

// Dir is a z/x/y.pbf directory tree.
type Dir struct {
	root string
}

// OpenDir opens an existing tile directory for reading.
func OpenDir(root string) (*Dir, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.Resource("store", "open "+root, err)
	}
	if !info.IsDir() {
		return nil, errors.Resource("store", root+" is not a directory", nil)
	}
	return &Dir{root: root}, nil
}

// CreateDir creates root if needed and opens it for writing.
func CreateDir(root string) (*Dir, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Resource("store", "create "+root, err)
	}
	return &Dir{root: root}, nil
}

func (d *Dir) String() string { return d.root }

// Path returns the file a tile is stored at.
func (d *Dir) Path(a tile.Address) string {
	return filepath.Join(d.root,
		strconv.FormatUint(uint64(a.Z), 10),
		strconv.FormatUint(uint64(a.X), 10),
		strconv.FormatUint(uint64(a.Y), 10)+".pbf")
}

// Tiles walks the tree and yields tiles in z/x/y order. Files not named
// like tiles are ignored.
func (d *Dir) Tiles(ctx context.Context) pipeline.Iterator[Tile] {
	it := &dirIter{}
	it.err = filepath.WalkDir(d.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return ctx.Err()
		}
		rel, err := filepath.Rel(d.root, path)
		if err != nil {
			return err
		}
		if addr, ok := parseTilePath(rel); ok {
			it.files = append(it.files, dirFile{addr: addr, path: path})
		}
		return nil
	})
	if it.err != nil {
		it.err = errors.Resource("store", "walk "+d.root, it.err)
	}
	sort.Slice(it.files, func(i, j int) bool {
		a, b := it.files[i].addr, it.files[j].addr
		if a.Z != b.Z {
			return a.Z < b.Z
		}
		if a.X != b.X {
			return a.X < b.X
		}
		return a.Y < b.Y
	})
	return it
}

// Put writes the tile through a temporary file so readers never see a
// partial tile.
func (d *Dir) Put(_ context.Context, t Tile) error {
	path := d.Path(t.Address)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Resource("store", "create "+filepath.Dir(path), err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tile-*")
	if err != nil {
		return errors.Resource("store", "write "+path, err)
	}
	if _, err := tmp.Write(t.Data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Resource("store", "write "+path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Resource("store", "write "+path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return errors.Resource("store", "write "+path, err)
	}
	return nil
}

// Close is a no-op.
func (d *Dir) Close() error { return nil }

type dirFile struct {
	addr tile.Address
	path string
}

type dirIter struct {
	files []dirFile
	next  int
	err   error
}

func (it *dirIter) Next(ctx context.Context) (Tile, bool, error) {
	if it.err != nil {
		return Tile{}, false, it.err
	}
	if err := ctx.Err(); err != nil {
		return Tile{}, false, err
	}
	if it.next >= len(it.files) {
		return Tile{}, false, nil
	}
	f := it.files[it.next]
	it.next++
	data, err := os.ReadFile(f.path)
	if err != nil {
		return Tile{}, false, errors.Resource("store", "read "+f.path, err)
	}
	return Tile{Address: f.addr, Data: data}, true, nil
}

func (it *dirIter) Close() error { return nil }

// parseTilePath parses "z/x/y.ext" relative to the store root.
func parseTilePath(rel string) (tile.Address, bool) {
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) != 3 {
		return tile.Address{}, false
	}
	ext := filepath.Ext(parts[2])
	if !validExt(ext) {
		return tile.Address{}, false
	}
	parts[2] = strings.TrimSuffix(parts[2], ext)

	var n [3]uint32
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return tile.Address{}, false
		}
		n[i] = uint32(v)
	}
	addr := tile.NewAddress(n[0], n[1], n[2])
	return addr, addr.Valid()
}

func validExt(ext string) bool {
	for _, e := range tileExts {
		if ext == e {
			return true
		}
	}
	return false
}
