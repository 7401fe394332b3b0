package tile

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/mvt"
	"github.com/paulmach/orb/geojson"
)

// GeometryTypes lists the GeoJSON geometry types a vector tile can hold.
var GeometryTypes = []string{
	orb.Point{}.GeoJSONType(),
	orb.MultiPoint{}.GeoJSONType(),
	orb.LineString{}.GeoJSONType(),
	orb.MultiLineString{}.GeoJSONType(),
	orb.Polygon{}.GeoJSONType(),
	orb.MultiPolygon{}.GeoJSONType(),
}

// SupportedGeometry reports whether a GeoJSON geometry type can be stored in a tile layer.
func SupportedGeometry(geometryType string) bool {
	for _, t := range GeometryTypes {
		if t == geometryType {
			return true
		}
	}
	return false
}

// Builder accumulates WGS84 features into a layer shaped like a template.
type Builder struct {
	layer *mvt.Layer
	addr  Address
}

// NewBuilder starts an empty layer with template's name, version and extent.
func NewBuilder(template *mvt.Layer, addr Address) *Builder {
	extent := template.Extent
	if extent == 0 {
		extent = mvt.DefaultExtent
	}
	return &Builder{
		layer: &mvt.Layer{
			Name:    template.Name,
			Version: template.Version,
			Extent:  extent,
		},
		addr: addr,
	}
}

// Add appends a feature whose geometry is in WGS84.
func (b *Builder) Add(f *geojson.Feature) {
	if f.Properties == nil {
		f.Properties = geojson.Properties{}
	}
	b.layer.Features = append(b.layer.Features, f)
}

// Len returns the number of features added so far.
func (b *Builder) Len() int {
	return len(b.layer.Features)
}

// Layer projects the accumulated features to tile coordinates and returns
// the layer. The builder must not be used afterwards.
func (b *Builder) Layer() *mvt.Layer {
	b.layer.ProjectToTile(b.addr.MapTile())
	return b.layer
}
