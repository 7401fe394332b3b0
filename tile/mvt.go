package tile

import (
	"bytes"
	"fmt"

	"github.com/paulmach/orb/encoding/mvt"
)

var gzipMagic = []byte{0x1f, 0x8b}

// IsGzipped reports whether data starts with the gzip magic number.
func IsGzipped(data []byte) bool {
	return bytes.HasPrefix(data, gzipMagic)
}

// Decode parses an encoded vector tile, gzipped or not. Geometries stay in
// tile coordinates.
func Decode(data []byte) (mvt.Layers, error) {
	var (
		layers mvt.Layers
		err    error
	)
	if IsGzipped(data) {
		layers, err = mvt.UnmarshalGzipped(data)
	} else {
		layers, err = mvt.Unmarshal(data)
	}
	if err != nil {
		return nil, fmt.Errorf("tile: decode vector tile: %w", err)
	}
	return layers, nil
}

// Encode serializes layers, gzipping when gzipped is true.
func Encode(layers mvt.Layers, gzipped bool) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if gzipped {
		data, err = mvt.MarshalGzipped(layers)
	} else {
		data, err = mvt.Marshal(layers)
	}
	if err != nil {
		return nil, fmt.Errorf("tile: encode vector tile: %w", err)
	}
	return data, nil
}
