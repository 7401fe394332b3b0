// Package tile holds the tile model used by the filter stage: tile
// addresses, Mapbox vector tile layers (github.com/paulmach/orb/encoding/mvt)
// and their GeoJSON serialization.
//
// Layers are kept in tile coordinates. WriteGeoJSON projects a copy to
// WGS84 before writing, and Builder projects reconstructed features back.
package tile
