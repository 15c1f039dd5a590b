package entity

import (
	"math"

	"github.com/paulmach/orb"
)

const (
	MosaicJSONVersion = "0.0.3"
	ManifestVersion   = "1.0.0"
)

// Bounds is [minLon, minLat, maxLon, maxLat] in WGS84 degrees.
type Bounds [4]float64

// WorldBounds is returned for tiles without a known footprint.
var WorldBounds = Bounds{-180, -90, 180, 90}

func (b Bounds) Valid() bool {
	for _, v := range b {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return b[0] <= b[2] && b[1] <= b[3]
}

func (b Bounds) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b[0], b[1]},
		Max: orb.Point{b[2], b[3]},
	}
}

func BoundsFromOrb(b orb.Bound) Bounds {
	return Bounds{b.Min.X(), b.Min.Y(), b.Max.X(), b.Max.Y()}
}

type TileEntry struct {
	URL     string `json:"url"`
	Bounds  Bounds `json:"bounds"`
	MinZoom int    `json:"minzoom"`
	MaxZoom int    `json:"maxzoom"`
}

// Manifest is a MosaicJSON document.
type Manifest struct {
	SchemaVersion string               `json:"mosaicjson"`
	Version       string               `json:"version"`
	MinZoom       int                  `json:"minzoom"`
	MaxZoom       int                  `json:"maxzoom"`
	Bounds        Bounds               `json:"bounds"`
	Tiles         map[string]TileEntry `json:"tiles"`
}

// TileIDs returns the manifest's tile ids in no particular order.
func (m *Manifest) TileIDs() []string {
	ids := make([]string, 0, len(m.Tiles))
	for id := range m.Tiles {
		ids = append(ids, id)
	}
	return ids
}
