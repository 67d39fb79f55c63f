// Package landcover implements buffer-composition extraction against
// historical land-cover map vintages: vintage resolution, vector layer
// loading, circular-buffer intersection, per-category area aggregation and
// hierarchical level aggregation.
package landcover

import (
	"github.com/peterstace/simplefeatures/geom"
	"github.com/rotisserie/eris"
)

// SRIDWGS84 is the default reference system for point input.
const SRIDWGS84 = 4326

// Feature is one land-cover polygon with its hierarchical category code.
type Feature struct {
	Geom geom.Geometry
	Code string

	// Cached bounds, used to build the spatial index without walking
	// coordinates again.
	bboxMin [2]float64
	bboxMax [2]float64
}

// Layer is a fully loaded land-cover vector layer for one vintage.
type Layer struct {
	Vintage  int
	SRID     int
	Features []Feature
}

// newFeature builds a Feature from a geometry and code. ok is false for
// empty geometries, which carry no area and are not indexable.
func newFeature(g geom.Geometry, code string) (Feature, bool) {
	min, max, ok := boundingBox(g)
	if !ok {
		return Feature{}, false
	}
	return Feature{Geom: g, Code: code, bboxMin: min, bboxMax: max}, true
}

// decodeWKB parses WKB into a geometry. When strict parsing rejects the
// input, it re-parses without validation and self-unions the result, which
// re-nodes rings and drops invalid structure (the standard fix pass).
func decodeWKB(data []byte) (geom.Geometry, error) {
	g, err := geom.UnmarshalWKB(data)
	if err == nil {
		return g, nil
	}

	raw, rawErr := geom.UnmarshalWKB(data, geom.NoValidate{})
	if rawErr != nil {
		return geom.Geometry{}, eris.Wrap(err, "landcover: parse WKB")
	}
	fixed, fixErr := geom.Union(raw, geom.Geometry{})
	if fixErr != nil {
		return geom.Geometry{}, eris.Wrap(fixErr, "landcover: repair geometry")
	}
	return fixed, nil
}

// boundingBox computes axis-aligned bounds over all coordinates of g.
// ok is false when g is empty.
func boundingBox(g geom.Geometry) (min, max [2]float64, ok bool) {
	seq := g.DumpCoordinates()
	n := seq.Length()
	if n == 0 {
		return min, max, false
	}

	first := seq.GetXY(0)
	min = [2]float64{first.X, first.Y}
	max = min
	for i := 1; i < n; i++ {
		xy := seq.GetXY(i)
		if xy.X < min[0] {
			min[0] = xy.X
		}
		if xy.X > max[0] {
			max[0] = xy.X
		}
		if xy.Y < min[1] {
			min[1] = xy.Y
		}
		if xy.Y > max[1] {
			max[1] = xy.Y
		}
	}
	return min, max, true
}
