package landcover

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixtureExtractor returns an Extractor whose loader serves synthetic
// layers: vintage 2012 is all arable land (211), vintage 2018 all
// discontinuous urban fabric (112).
func fixtureExtractor(t *testing.T) (*Extractor, *sync.Map) {
	t.Helper()

	cover := "POLYGON((-10000 -10000,10000 -10000,10000 10000,-10000 10000,-10000 -10000))"
	layers := map[int]*Layer{
		2012: {Vintage: 2012, SRID: SRIDWGS84, Features: []Feature{wktFeature(t, cover, "211")}},
		2018: {Vintage: 2018, SRID: SRIDWGS84, Features: []Feature{wktFeature(t, cover, "112")}},
	}

	loaded := &sync.Map{}
	ex := NewExtractor(
		&Catalog{Root: "unused", Years: []int{2012, 2018}},
		NewProjReprojector(),
		LoaderOptions{SRID: SRIDWGS84},
		2,
	)
	ex.load = func(root string, year int, opts LoaderOptions) (*Layer, error) {
		loaded.Store(year, true)
		return layers[year], nil
	}
	return ex, loaded
}

func extractOpts(vintage int) ExtractOptions {
	return ExtractOptions{RadiusMeters: 100, PointsSRID: SRIDWGS84, Vintage: vintage}
}

func TestFullCompositions_AutoVintage(t *testing.T) {
	ex, loaded := fixtureExtractor(t)
	points := []Point{
		{ID: "a", Lon: 0, Lat: 0, Year: 2013},  // resolves to 2012
		{ID: "b", Lon: 50, Lat: 0, Year: 2019}, // resolves to 2018
	}

	table, err := ex.FullCompositions(context.Background(), points, extractOpts(0))
	require.NoError(t, err)

	// Union of both vintages' category sets, ascending numeric order.
	assert.Equal(t, []string{"112", "211"}, table.Codes)
	require.Len(t, table.Rows, 2)

	byID := make(map[string]Row, 2)
	for _, row := range table.Rows {
		byID[row.PointID] = row
	}
	assert.Equal(t, 2012, byID["a"].Vintage)
	assert.InDelta(t, 1.0, byID["a"].Share("211"), 1e-9)
	assert.Equal(t, 0.0, byID["a"].Share("112"))
	assert.Equal(t, 2018, byID["b"].Vintage)
	assert.InDelta(t, 1.0, byID["b"].Share("112"), 1e-9)
	assert.Equal(t, 0.0, byID["b"].Share("211"))

	_, ok := loaded.Load(2012)
	assert.True(t, ok)
	_, ok = loaded.Load(2018)
	assert.True(t, ok)
}

func TestFullCompositions_FixedVintage(t *testing.T) {
	ex, loaded := fixtureExtractor(t)
	points := []Point{
		{ID: "a", Lon: 0, Lat: 0, Year: 2013},
		{ID: "b", Lon: 50, Lat: 0, Year: 2019},
	}

	table, err := ex.FullCompositions(context.Background(), points, extractOpts(2018))
	require.NoError(t, err)

	assert.Equal(t, []string{"112"}, table.Codes)
	for _, row := range table.Rows {
		assert.Equal(t, 2018, row.Vintage)
		assert.InDelta(t, 1.0, row.Share("112"), 1e-9)
	}

	_, ok := loaded.Load(2012)
	assert.False(t, ok)
}

func TestFullCompositions_FixedVintageValidated(t *testing.T) {
	ex, _ := fixtureExtractor(t)

	_, err := ex.FullCompositions(context.Background(), []Point{{ID: "a"}}, extractOpts(2010))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid vintage 2010")
}

func TestFullCompositions_AutoRequiresYear(t *testing.T) {
	ex, loaded := fixtureExtractor(t)

	_, err := ex.FullCompositions(context.Background(), []Point{{ID: "noyear", Lon: 0, Lat: 0}}, extractOpts(0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sampling year")

	// Validation fails before any dataset I/O.
	_, ok := loaded.Load(2012)
	assert.False(t, ok)
	_, ok = loaded.Load(2018)
	assert.False(t, ok)
}

func TestFullCompositions_NoPoints(t *testing.T) {
	ex, _ := fixtureExtractor(t)

	table, err := ex.FullCompositions(context.Background(), nil, extractOpts(0))
	require.NoError(t, err)
	assert.Empty(t, table.Rows)
	assert.Empty(t, table.Codes)
}
