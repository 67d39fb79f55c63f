package landcover

import (
	"github.com/rotisserie/eris"
)

// AggregateToLevel re-expresses a composition table at a coarser level of
// the category hierarchy by truncating codes to the leading level digits and
// summing grouped columns row-wise. Level must be 1 or 2. Codes already at
// or below the target resolution pass through unchanged, so aggregation is
// idempotent. Non-category columns are preserved and the input table is not
// modified.
func AggregateToLevel(t *Table, level int) (*Table, error) {
	if level != 1 && level != 2 {
		return nil, eris.Errorf("landcover: aggregation level must be 1 or 2, got %d", level)
	}

	mapping := make(map[string]string, len(t.Codes))
	set := make(map[string]struct{}, len(t.Codes))
	for _, code := range t.Codes {
		coarse := code
		if len(code) > level {
			coarse = code[:level]
		}
		mapping[code] = coarse
		set[coarse] = struct{}{}
	}

	out := &Table{Codes: sortCodes(set), Rows: make([]Row, 0, len(t.Rows))}
	for _, row := range t.Rows {
		shares := make(map[string]float64, len(set))
		for code, v := range row.Shares {
			coarse, ok := mapping[code]
			if !ok {
				// Row carries a code absent from the column set; keep the
				// value under its own truncation.
				coarse = code
				if len(code) > level {
					coarse = code[:level]
				}
			}
			shares[coarse] += v
		}
		out.Rows = append(out.Rows, Row{
			PointID:    row.PointID,
			Vintage:    row.Vintage,
			BufferArea: row.BufferArea,
			Shares:     shares,
		})
	}
	return out, nil
}
