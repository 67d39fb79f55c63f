package landcover

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vintageDir(t *testing.T, root string, year int, files ...string) string {
	t.Helper()
	dir := filepath.Join(root, strconv.Itoa(year))
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, name := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	return dir
}

func TestDetectFormat_GeoPackage(t *testing.T) {
	root := t.TempDir()
	vintageDir(t, root, 2018, "u2018_clc2018_v2020.gpkg")

	format, path, err := DetectFormat(root, 2018)
	require.NoError(t, err)
	assert.Equal(t, FormatGeoPackage, format)
	assert.Equal(t, "u2018_clc2018_v2020.gpkg", filepath.Base(path))
}

func TestDetectFormat_Shapefile(t *testing.T) {
	root := t.TempDir()
	vintageDir(t, root, 2012, "CLC12_AT.shp", "CLC12_AT.dbf", "CLC12_AT.shx")

	format, path, err := DetectFormat(root, 2012)
	require.NoError(t, err)
	assert.Equal(t, FormatShapefile, format)
	assert.Equal(t, "CLC12_AT.shp", filepath.Base(path))
}

func TestDetectFormat_GeoPackagePrecedence(t *testing.T) {
	root := t.TempDir()
	vintageDir(t, root, 2018, "clc.gpkg", "CLC18_AT.shp")

	format, _, err := DetectFormat(root, 2018)
	require.NoError(t, err)
	assert.Equal(t, FormatGeoPackage, format)
}

func TestDetectFormat_NoDataset(t *testing.T) {
	root := t.TempDir()
	vintageDir(t, root, 2006, "readme.txt")

	_, _, err := DetectFormat(root, 2006)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no *.gpkg or CLC*.shp dataset")
}

func TestDetectFormat_AmbiguousGeoPackage(t *testing.T) {
	root := t.TempDir()
	vintageDir(t, root, 2018, "a.gpkg", "b.gpkg")

	_, _, err := DetectFormat(root, 2018)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected one")
}

func TestDetectFormat_AmbiguousShapefile(t *testing.T) {
	root := t.TempDir()
	vintageDir(t, root, 2012, "CLC12_AT.shp", "CLC12_DE.shp")

	_, _, err := DetectFormat(root, 2012)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected one")
}

func TestDetectFormat_MissingVintageDir(t *testing.T) {
	_, _, err := DetectFormat(t.TempDir(), 1990)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vintage directory")
}

func TestMatchesCodeField(t *testing.T) {
	assert.True(t, matchesCodeField("Code_18", ""))
	assert.True(t, matchesCodeField("CODE_12", ""))
	assert.True(t, matchesCodeField("code", ""))
	assert.False(t, matchesCodeField("area_ha", ""))

	assert.True(t, matchesCodeField("clc_class", "CLC_CLASS"))
	assert.False(t, matchesCodeField("Code_18", "clc_class"))
}
