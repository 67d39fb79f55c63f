package landcover

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func level3Fixture() *Table {
	return &Table{
		Codes: []string{"112", "211", "231", "311", "312"},
		Rows: []Row{
			{PointID: "p1", Vintage: 2012, BufferArea: 100, Shares: map[string]float64{
				"112": 0.1, "211": 0.2, "231": 0.3, "311": 0.25, "312": 0.15,
			}},
			{PointID: "p2", Vintage: 2012, BufferArea: 0, Shares: map[string]float64{}},
		},
	}
}

func TestAggregateToLevel_Level2(t *testing.T) {
	out, err := AggregateToLevel(level3Fixture(), 2)
	require.NoError(t, err)

	assert.Equal(t, []string{"11", "21", "23", "31"}, out.Codes)
	row := out.Rows[0]
	assert.InDelta(t, 0.1, row.Share("11"), 1e-12)
	assert.InDelta(t, 0.2, row.Share("21"), 1e-12)
	assert.InDelta(t, 0.3, row.Share("23"), 1e-12)
	assert.InDelta(t, 0.4, row.Share("31"), 1e-12)
}

func TestAggregateToLevel_Level1(t *testing.T) {
	out, err := AggregateToLevel(level3Fixture(), 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2", "3"}, out.Codes)
	row := out.Rows[0]
	assert.InDelta(t, 0.1, row.Share("1"), 1e-12)
	assert.InDelta(t, 0.5, row.Share("2"), 1e-12)
	assert.InDelta(t, 0.4, row.Share("3"), 1e-12)
}

func TestAggregateToLevel_AreaConserving(t *testing.T) {
	in := level3Fixture()
	out, err := AggregateToLevel(in, 1)
	require.NoError(t, err)

	for i, row := range out.Rows {
		var sumIn, sumOut float64
		for _, v := range in.Rows[i].Shares {
			sumIn += v
		}
		for _, v := range row.Shares {
			sumOut += v
		}
		assert.InDelta(t, sumIn, sumOut, 1e-9)
	}
}

func TestAggregateToLevel_Idempotent(t *testing.T) {
	once, err := AggregateToLevel(level3Fixture(), 1)
	require.NoError(t, err)
	twice, err := AggregateToLevel(once, 1)
	require.NoError(t, err)

	assert.Equal(t, once.Codes, twice.Codes)
	assert.Equal(t, once.Rows, twice.Rows)
}

func TestAggregateToLevel_PreservesBookkeeping(t *testing.T) {
	out, err := AggregateToLevel(level3Fixture(), 2)
	require.NoError(t, err)

	assert.Equal(t, "p1", out.Rows[0].PointID)
	assert.Equal(t, 2012, out.Rows[0].Vintage)
	assert.Equal(t, 100.0, out.Rows[0].BufferArea)
	assert.Equal(t, 0.0, out.Rows[1].BufferArea)
	assert.Empty(t, out.Rows[1].Shares)
}

func TestAggregateToLevel_InvalidLevel(t *testing.T) {
	for _, level := range []int{0, 3, -1} {
		_, err := AggregateToLevel(level3Fixture(), level)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "aggregation level")
	}
}

func TestAggregateToLevel_InputUntouched(t *testing.T) {
	in := level3Fixture()
	_, err := AggregateToLevel(in, 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"112", "211", "231", "311", "312"}, in.Codes)
	assert.Equal(t, 0.1, in.Rows[0].Share("112"))
}
