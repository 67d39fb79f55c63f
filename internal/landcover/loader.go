package landcover

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Dataset file formats.
const (
	FormatGeoPackage = "geopackage"
	FormatShapefile  = "shapefile"
)

// LoaderOptions configures vintage loading.
type LoaderOptions struct {
	// SRID assumed for shapefile vintages; geopackages carry their own.
	SRID int
	// CodeField overrides category-code attribute detection. Empty selects
	// the first attribute whose name contains "code", case-insensitively.
	CodeField string
}

// DetectFormat inspects a vintage directory and returns its dataset format
// and file path. A geopackage takes precedence; otherwise a CORINE-style
// CLC*.shp shapefile is expected. Zero or multiple candidates fail with a
// descriptive error rather than a silent first-match pick.
func DetectFormat(root string, year int) (format string, path string, err error) {
	dir := filepath.Join(root, strconv.Itoa(year))
	if _, statErr := os.Stat(dir); statErr != nil {
		return "", "", eris.Wrapf(statErr, "landcover: vintage directory for %d", year)
	}

	gpkgs, globErr := filepath.Glob(filepath.Join(dir, "*.gpkg"))
	if globErr != nil {
		return "", "", eris.Wrapf(globErr, "landcover: scan %s", dir)
	}
	if len(gpkgs) > 1 {
		return "", "", eris.Errorf("landcover: vintage %d has %d geopackage files in %s, expected one", year, len(gpkgs), dir)
	}
	if len(gpkgs) == 1 {
		return FormatGeoPackage, gpkgs[0], nil
	}

	shps, globErr := filepath.Glob(filepath.Join(dir, "CLC*.shp"))
	if globErr != nil {
		return "", "", eris.Wrapf(globErr, "landcover: scan %s", dir)
	}
	switch len(shps) {
	case 0:
		return "", "", eris.Errorf("landcover: no *.gpkg or CLC*.shp dataset for vintage %d in %s", year, dir)
	case 1:
		return FormatShapefile, shps[0], nil
	default:
		return "", "", eris.Errorf("landcover: vintage %d has %d CLC*.shp files in %s, expected one", year, len(shps), dir)
	}
}

// LoadVintage locates and fully loads the vector layer for one vintage.
// The whole layer is held in memory for the duration of the extraction.
func LoadVintage(root string, year int, opts LoaderOptions) (*Layer, error) {
	format, path, err := DetectFormat(root, year)
	if err != nil {
		return nil, err
	}

	var layer *Layer
	switch format {
	case FormatGeoPackage:
		layer, err = loadGeoPackage(path, year, opts)
	case FormatShapefile:
		layer, err = loadShapefile(path, year, opts)
	}
	if err != nil {
		return nil, err
	}

	zap.L().Info("landcover: vintage loaded",
		zap.Int("vintage", year),
		zap.String("format", format),
		zap.String("file", filepath.Base(path)),
		zap.Int("features", len(layer.Features)),
		zap.Int("srid", layer.SRID),
	)
	return layer, nil
}

// matchesCodeField reports whether an attribute name holds the category
// code. CORINE vintages name it Code_12, CODE_18, code_90 and so on.
func matchesCodeField(name, explicit string) bool {
	if explicit != "" {
		return strings.EqualFold(name, explicit)
	}
	return strings.Contains(strings.ToLower(name), "code")
}
