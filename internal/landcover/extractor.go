package landcover

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ExtractOptions configures a full multi-vintage extraction.
type ExtractOptions struct {
	RadiusMeters float64
	Segments     int
	PointsSRID   int
	// Vintage pins every point to one dataset year. Zero selects each
	// point's vintage automatically from its sampling year.
	Vintage int
}

// Extractor orchestrates the full pipeline: partition points by vintage,
// load each vintage's layer, run the buffer compositor per partition, and
// union the partial tables into one.
type Extractor struct {
	catalog       *Catalog
	repro         Reprojector
	loaderOpts    LoaderOptions
	maxConcurrent int

	// load is swappable so orchestration can be tested against synthetic
	// layers without dataset files on disk.
	load func(root string, year int, opts LoaderOptions) (*Layer, error)
}

// NewExtractor builds an Extractor over an established vintage catalog.
func NewExtractor(catalog *Catalog, repro Reprojector, loaderOpts LoaderOptions, maxConcurrent int) *Extractor {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Extractor{
		catalog:       catalog,
		repro:         repro,
		loaderOpts:    loaderOpts,
		maxConcurrent: maxConcurrent,
		load:          LoadVintage,
	}
}

// FullCompositions computes buffer compositions for all points across
// whatever vintages they resolve to. Partitions run concurrently up to the
// configured limit; each worker owns its partition's points and layer, and
// results are unioned only after every partition completes. Category
// columns absent from one partition's output read as zero in the merged
// table, and final column order is ascending numeric code order.
func (e *Extractor) FullCompositions(ctx context.Context, points []Point, opts ExtractOptions) (*Table, error) {
	partitions, err := e.partition(points, opts.Vintage)
	if err != nil {
		return nil, err
	}

	years := make([]int, 0, len(partitions))
	for year := range partitions {
		years = append(years, year)
	}
	sort.Ints(years)

	zap.L().Info("landcover: extraction started",
		zap.Int("points", len(points)),
		zap.Ints("vintages", years),
		zap.Float64("radius_m", opts.RadiusMeters),
	)

	results := make([]*Table, len(years))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxConcurrent)
	for i, year := range years {
		g.Go(func() error {
			layer, err := e.load(e.catalog.Root, year, e.loaderOpts)
			if err != nil {
				return err
			}
			t, err := ExtractCompositions(gCtx, partitions[year], layer, e.repro, ComposeOptions{
				RadiusMeters: opts.RadiusMeters,
				Segments:     opts.Segments,
				PointsSRID:   opts.PointsSRID,
			})
			if err != nil {
				return err
			}
			results[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := &Table{}
	for _, t := range results {
		merged.Merge(t)
	}
	return merged, nil
}

// partition groups points by their resolved vintage. A fixed vintage is
// validated against the catalog; automatic selection requires every point
// to carry a sampling year.
func (e *Extractor) partition(points []Point, fixed int) (map[int][]Point, error) {
	partitions := make(map[int][]Point)

	if fixed != 0 {
		if err := CheckVintage(fixed, e.catalog.Years); err != nil {
			return nil, err
		}
		if len(points) > 0 {
			partitions[fixed] = points
		}
		return partitions, nil
	}

	for _, p := range points {
		if p.Year == 0 {
			return nil, eris.Errorf("landcover: point %s has no sampling year; a year column is required for automatic vintage selection", p.ID)
		}
		year, err := e.catalog.Resolve(p.Year)
		if err != nil {
			return nil, err
		}
		partitions[year] = append(partitions[year], p)
	}
	return partitions, nil
}
