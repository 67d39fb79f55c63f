package landcover

import (
	"os"
	"sort"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Catalog is the set of dataset vintages available under a root directory.
// It is established once at startup and read-only afterwards.
type Catalog struct {
	Root  string
	Years []int // ascending
}

// DiscoverVintages scans root for subdirectories whose names parse as years.
// An empty result is a configuration error: extraction cannot proceed
// without at least one vintage.
func DiscoverVintages(root string) (*Catalog, error) {
	if root == "" {
		return nil, eris.New("landcover: dataset root is not configured")
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, eris.Wrapf(err, "landcover: read dataset root %s", root)
	}

	var years []int
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		year, convErr := strconv.Atoi(e.Name())
		if convErr != nil {
			zap.L().Debug("landcover: skipping non-vintage directory",
				zap.String("name", e.Name()),
			)
			continue
		}
		years = append(years, year)
	}
	if len(years) == 0 {
		return nil, eris.Errorf("landcover: no vintage subdirectories under %s", root)
	}

	sort.Ints(years)
	return &Catalog{Root: root, Years: years}, nil
}

// ResolveVintage selects the greatest available year strictly less than the
// sampling year. When the sampling year predates or equals the earliest
// vintage, it clamps to the earliest available year.
func ResolveVintage(samplingYear int, available []int) (int, error) {
	if len(available) == 0 {
		return 0, eris.New("landcover: no vintage years available")
	}

	best := 0
	found := false
	min := available[0]
	for _, y := range available {
		if y < min {
			min = y
		}
		if y < samplingYear && (!found || y > best) {
			best = y
			found = true
		}
	}
	if !found {
		return min, nil
	}
	return best, nil
}

// CheckVintage fails unless year is one of the available vintages.
func CheckVintage(year int, available []int) error {
	for _, y := range available {
		if y == year {
			return nil
		}
	}
	return eris.Errorf("landcover: invalid vintage %d, available: %v", year, available)
}

// Resolve applies ResolveVintage against the catalog's years.
func (c *Catalog) Resolve(samplingYear int) (int, error) {
	return ResolveVintage(samplingYear, c.Years)
}
