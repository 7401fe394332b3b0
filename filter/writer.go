package filter

import (
	"io"

	"github.com/paulmach/orb/encoding/mvt"

	"github.com/kbukum/tilefilter/errors"
	"github.com/kbukum/tilefilter/tile"
)

// writeLayer serializes layer into w and closes w so the filter sees end of
// input. w is closed on every path.
func writeLayer(w io.WriteCloser, layer *mvt.Layer, addr tile.Address) error {
	if err := tile.WriteGeoJSON(w, layer, addr); err != nil {
		_ = w.Close()
		return errors.Resource("write", "to-filter pipe", err)
	}
	if err := w.Close(); err != nil {
		return errors.Resource("close", "to-filter pipe", err)
	}
	return nil
}
