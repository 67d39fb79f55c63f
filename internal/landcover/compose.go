package landcover

import (
	"context"

	"github.com/peterstace/simplefeatures/geom"
	"github.com/rotisserie/eris"
	"github.com/tidwall/rtree"
	"go.uber.org/zap"
)

// ComposeOptions configures a single-layer composition pass.
type ComposeOptions struct {
	RadiusMeters float64
	Segments     int // 0 uses defaultSegments
	PointsSRID   int // 0 uses SRIDWGS84
}

// ExtractCompositions computes, for each point, the proportional composition
// of land-cover categories within a circular buffer against one layer.
//
// Points are reprojected from their source system into the layer's, buffers
// are built in layer units, and candidate polygons come from an R-tree
// bounding-box prefilter rather than an all-pairs scan. Output has exactly
// one row per input point; points whose buffer intersects nothing produce an
// all-zero row rather than an error, and 0/0 normalization is defined as 0.
func ExtractCompositions(ctx context.Context, points []Point, layer *Layer, repro Reprojector, opts ComposeOptions) (*Table, error) {
	if opts.RadiusMeters <= 0 {
		return nil, eris.Errorf("landcover: buffer radius must be positive, got %g", opts.RadiusMeters)
	}
	pointsSRID := opts.PointsSRID
	if pointsSRID == 0 {
		pointsSRID = SRIDWGS84
	}

	tf, err := repro.NewTransform(pointsSRID, layer.SRID)
	if err != nil {
		return nil, err
	}

	var index rtree.RTreeG[int]
	for i := range layer.Features {
		index.Insert(layer.Features[i].bboxMin, layer.Features[i].bboxMax, i)
	}

	r := opts.RadiusMeters
	codeSet := make(map[string]struct{})
	rows := make([]Row, 0, len(points))
	degenerate := 0

	for _, p := range points {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "landcover: extraction interrupted")
		}

		x, y, err := tf.Transform(p.Lon, p.Lat)
		if err != nil {
			return nil, eris.Wrapf(err, "landcover: reproject point %s", p.ID)
		}
		buffer := bufferPolygon(x, y, r, opts.Segments).AsGeometry()

		areas := make(map[string]float64)
		var intersectErr error
		index.Search(
			[2]float64{x - r, y - r},
			[2]float64{x + r, y + r},
			func(_, _ [2]float64, i int) bool {
				feat := &layer.Features[i]
				overlap, err := geom.Intersection(buffer, feat.Geom)
				if err != nil {
					intersectErr = eris.Wrapf(err, "landcover: intersect point %s with category %s", p.ID, feat.Code)
					return false
				}
				if a := overlap.Area(); a > 0 {
					areas[feat.Code] += a
				}
				return true
			},
		)
		if intersectErr != nil {
			return nil, intersectErr
		}

		var bufferArea float64
		for _, a := range areas {
			bufferArea += a
		}

		shares := make(map[string]float64, len(areas))
		if bufferArea > 0 {
			for code, a := range areas {
				shares[code] = a / bufferArea
				codeSet[code] = struct{}{}
			}
		} else {
			degenerate++
		}

		rows = append(rows, Row{
			PointID:    p.ID,
			Vintage:    layer.Vintage,
			BufferArea: bufferArea,
			Shares:     shares,
		})
	}

	if degenerate > 0 {
		zap.L().Debug("landcover: buffers with empty intersection",
			zap.Int("vintage", layer.Vintage),
			zap.Int("points", degenerate),
		)
	}

	return &Table{Codes: sortCodes(codeSet), Rows: rows}, nil
}
