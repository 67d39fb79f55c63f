package landcover

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortCodes_NumericAscending(t *testing.T) {
	set := map[string]struct{}{
		"231": {}, "112": {}, "511": {}, "21": {}, "3": {},
	}
	assert.Equal(t, []string{"3", "21", "112", "231", "511"}, sortCodes(set))
}

func TestSortCodes_NonNumericLast(t *testing.T) {
	set := map[string]struct{}{"999": {}, "UNK": {}, "111": {}}
	assert.Equal(t, []string{"111", "999", "UNK"}, sortCodes(set))
}

func TestTableMerge_UnionsColumns(t *testing.T) {
	a := &Table{
		Codes: []string{"211"},
		Rows: []Row{
			{PointID: "p1", Vintage: 2012, BufferArea: 10, Shares: map[string]float64{"211": 1}},
		},
	}
	b := &Table{
		Codes: []string{"112", "523"},
		Rows: []Row{
			{PointID: "p2", Vintage: 2018, BufferArea: 20, Shares: map[string]float64{"112": 0.25, "523": 0.75}},
		},
	}

	a.Merge(b)

	assert.Equal(t, []string{"112", "211", "523"}, a.Codes)
	require.Len(t, a.Rows, 2)

	// Columns absent from a row's own vintage read as zero.
	assert.Equal(t, 1.0, a.Rows[0].Share("211"))
	assert.Equal(t, 0.0, a.Rows[0].Share("112"))
	assert.Equal(t, 0.0, a.Rows[1].Share("211"))
	assert.Equal(t, 0.75, a.Rows[1].Share("523"))
}

func TestTableWriteCSV(t *testing.T) {
	table := &Table{
		Codes: []string{"112", "231"},
		Rows: []Row{
			{PointID: "p1", Vintage: 2012, BufferArea: 100, Shares: map[string]float64{"112": 0.6, "231": 0.4}},
			{PointID: "p2", Vintage: 2012, BufferArea: 0, Shares: map[string]float64{}},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, table.WriteCSV(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "point_id,vintage,buffer_area,112,231", lines[0])
	assert.Equal(t, "p1,2012,100,0.6,0.4", lines[1])
	assert.Equal(t, "p2,2012,0,0,0", lines[2])
}

func TestReadCSV_RoundTrip(t *testing.T) {
	orig := &Table{
		Codes: []string{"112", "231"},
		Rows: []Row{
			{PointID: "p1", Vintage: 2012, BufferArea: 100, Shares: map[string]float64{"112": 0.6, "231": 0.4}},
			{PointID: "p2", Vintage: 2018, BufferArea: 0, Shares: map[string]float64{}},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, orig.WriteCSV(&buf))

	got, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, orig.Codes, got.Codes)
	require.Len(t, got.Rows, 2)
	assert.Equal(t, "p1", got.Rows[0].PointID)
	assert.Equal(t, 2012, got.Rows[0].Vintage)
	assert.Equal(t, 100.0, got.Rows[0].BufferArea)
	assert.Equal(t, 0.6, got.Rows[0].Share("112"))
	assert.Equal(t, 0.0, got.Rows[1].Share("231"))
}

func TestReadCSV_MissingPointID(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("id,112\nx,1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "point_id")
}
