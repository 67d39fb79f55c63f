package landcover

import (
	"math"

	"github.com/peterstace/simplefeatures/geom"
)

// defaultSegments is the polygon approximation used for circular buffers.
// A 64-gon underestimates disk area by under 0.2%.
const defaultSegments = 64

// bufferPolygon approximates a disk of radius r centered at (x, y) as a
// regular polygon with the given number of segments. Coordinates are in the
// layer's projected reference system, so r is in layer units (meters for any
// CORINE-style dataset).
func bufferPolygon(x, y, r float64, segments int) geom.Polygon {
	if segments < 8 {
		segments = defaultSegments
	}

	coords := make([]float64, 0, (segments+1)*2)
	for i := 0; i < segments; i++ {
		theta := 2 * math.Pi * float64(i) / float64(segments)
		coords = append(coords, x+r*math.Cos(theta), y+r*math.Sin(theta))
	}
	// Close the ring on the exact starting coordinate.
	coords = append(coords, coords[0], coords[1])

	ring := geom.NewLineString(geom.NewSequence(coords, geom.DimXY))
	return geom.NewPolygon([]geom.LineString{ring})
}
