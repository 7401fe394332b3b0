package tile

import (
	"bufio"
	"fmt"
	"io"

	json "github.com/goccy/go-json"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/mvt"
	"github.com/paulmach/orb/geojson"
)

// WriteGeoJSON writes every feature of layer to w as a GeoJSON Feature
// object, one per line, with coordinates projected from addr's tile space to
// WGS84. The layer itself is not modified.
func WriteGeoJSON(w io.Writer, layer *mvt.Layer, addr Address) error {
	projected := CloneLayer(layer)
	projected.ProjectToWGS84(addr.MapTile())

	bw := bufio.NewWriter(w)
	for i, f := range projected.Features {
		data, err := json.Marshal(f)
		if err != nil {
			return fmt.Errorf("tile: encode feature %d of layer %q: %w", i, layer.Name, err)
		}
		if _, err := bw.Write(data); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// CloneLayer deep-copies the layer's features so projections on the copy
// leave the original untouched.
func CloneLayer(layer *mvt.Layer) *mvt.Layer {
	out := &mvt.Layer{
		Name:     layer.Name,
		Version:  layer.Version,
		Extent:   layer.Extent,
		Features: make([]*geojson.Feature, 0, len(layer.Features)),
	}
	for _, f := range layer.Features {
		c := &geojson.Feature{
			ID:         f.ID,
			Type:       f.Type,
			Properties: f.Properties.Clone(),
		}
		if f.Geometry != nil {
			c.Geometry = orb.Clone(f.Geometry)
		}
		out.Features = append(out.Features, c)
	}
	return out
}
