package landcover

import (
	"strings"
	"unicode/utf8"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
)

// loadShapefile reads a CORINE-style shapefile into a Layer. Records whose
// geometry cannot be decoded or repaired are skipped and counted; attribute
// text is transcoded from Latin-1 when it is not already valid UTF-8.
func loadShapefile(path string, year int, opts LoaderOptions) (*Layer, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "landcover: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	codeIdx := -1
	for i, f := range reader.Fields() {
		name := strings.TrimRight(f.String(), "\x00")
		if matchesCodeField(name, opts.CodeField) {
			codeIdx = i
			break
		}
	}
	if codeIdx < 0 {
		return nil, eris.Errorf("landcover: no category code attribute in %s", path)
	}

	var features []Feature
	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()

		poly, ok := shape.(*shp.Polygon)
		if !ok {
			skipped++
			continue
		}
		g := polygonToMultiPolygon(poly)
		if g == nil {
			skipped++
			continue
		}
		data, encErr := wkb.Marshal(g, wkb.NDR)
		if encErr != nil {
			skipped++
			continue
		}
		sfg, decErr := decodeWKB(data)
		if decErr != nil {
			skipped++
			continue
		}

		code := decodeAttribute(reader.Attribute(codeIdx))
		if feat, ok := newFeature(sfg, code); ok {
			features = append(features, feat)
		} else {
			skipped++
		}
	}

	if skipped > 0 {
		zap.L().Debug("landcover: skipped shapefile records",
			zap.String("file", path),
			zap.Int("skipped", skipped),
		)
	}

	return &Layer{Vintage: year, SRID: opts.SRID, Features: features}, nil
}

// polygonToMultiPolygon converts a shapefile Polygon to a geom.MultiPolygon,
// assigning rings to polygons by winding: shapefile outer rings wind
// clockwise (negative signed area in math orientation), holes wind the other
// way and attach to the preceding outer ring.
func polygonToMultiPolygon(p *shp.Polygon) geom.T {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	var polys []*geom.Polygon
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}
		ring := geom.NewLinearRingFlat(geom.XY, flat)

		if signedArea(flat) <= 0 || len(polys) == 0 {
			poly := geom.NewPolygon(geom.XY)
			if err := poly.Push(ring); err != nil {
				zap.L().Debug("landcover: skipping malformed outer ring", zap.Int32("part", i), zap.Error(err))
				continue
			}
			polys = append(polys, poly)
			continue
		}

		if err := polys[len(polys)-1].Push(ring); err != nil {
			zap.L().Debug("landcover: skipping malformed hole ring", zap.Int32("part", i), zap.Error(err))
		}
	}
	if len(polys) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY)
	for _, poly := range polys {
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("landcover: skipping malformed polygon part", zap.Error(err))
		}
	}
	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

// signedArea computes the shoelace sum over flat XY pairs. Positive for
// counter-clockwise rings.
func signedArea(flat []float64) float64 {
	n := len(flat) / 2
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += flat[2*i]*flat[2*j+1] - flat[2*j]*flat[2*i+1]
	}
	return sum / 2
}

// decodeAttribute trims DBF padding and transcodes Latin-1 attribute text.
// Padding mixes NULs and blanks in either order, so both are trimmed as one
// cutset.
func decodeAttribute(s string) string {
	s = strings.Trim(s, " \x00\t\r\n")
	if utf8.ValidString(s) {
		return s
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().String(s)
	if err != nil {
		return s
	}
	return decoded
}
