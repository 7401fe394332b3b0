package tile

import (
	"fmt"
	"strconv"

	"github.com/paulmach/orb/maptile"
)

// Address identifies a tile within the pyramid.
type Address struct {
	Z uint32
	X uint32
	Y uint32
}

// NewAddress returns the address z/x/y.
func NewAddress(z, x, y uint32) Address {
	return Address{Z: z, X: x, Y: y}
}

// FromMapTile converts an orb maptile.
func FromMapTile(t maptile.Tile) Address {
	return Address{Z: uint32(t.Z), X: t.X, Y: t.Y}
}

// MapTile converts the address to an orb maptile.
func (a Address) MapTile() maptile.Tile {
	return maptile.New(a.X, a.Y, maptile.Zoom(a.Z))
}

// Valid reports whether x and y are inside the pyramid at zoom z.
func (a Address) Valid() bool {
	if a.Z > 32 {
		return false
	}
	n := uint64(1) << a.Z
	return uint64(a.X) < n && uint64(a.Y) < n
}

// FlipY converts between XYZ and TMS row numbering.
func (a Address) FlipY() Address {
	a.Y = uint32((uint64(1) << a.Z) - 1 - uint64(a.Y))
	return a
}

// Env returns the address as TILE_Z/TILE_X/TILE_Y environment entries.
func (a Address) Env() []string {
	return []string{
		"TILE_Z=" + strconv.FormatUint(uint64(a.Z), 10),
		"TILE_X=" + strconv.FormatUint(uint64(a.X), 10),
		"TILE_Y=" + strconv.FormatUint(uint64(a.Y), 10),
	}
}

func (a Address) String() string {
	return fmt.Sprintf("%d/%d/%d", a.Z, a.X, a.Y)
}
