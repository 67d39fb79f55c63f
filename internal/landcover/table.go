package landcover

import (
	"encoding/csv"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Table is a composition result: one row per point, one column per category
// code observed in the run. Codes missing from a row's Shares map read as
// zero, so unioning tables with disjoint category sets needs no backfill.
type Table struct {
	Codes []string // ascending numeric order
	Rows  []Row
}

// Row is the composition of a single point's buffer. Shares holds the
// fraction of buffer area per category code, each in [0,1]; BufferArea is
// the summed intersected area used for normalization. A point whose buffer
// intersected nothing has BufferArea 0 and an empty Shares map.
type Row struct {
	PointID    string
	Vintage    int
	BufferArea float64
	Shares     map[string]float64
}

// Share returns the proportion for a category code, zero when absent.
func (r Row) Share(code string) float64 {
	return r.Shares[code]
}

// Merge appends other's rows and unions its category columns. Point IDs are
// expected to be disjoint between the two tables.
func (t *Table) Merge(other *Table) {
	set := make(map[string]struct{}, len(t.Codes)+len(other.Codes))
	for _, c := range t.Codes {
		set[c] = struct{}{}
	}
	for _, c := range other.Codes {
		set[c] = struct{}{}
	}
	t.Codes = sortCodes(set)
	t.Rows = append(t.Rows, other.Rows...)
}

// sortCodes orders category codes ascending by numeric value. Non-numeric
// codes sort after all numeric ones, lexically.
func sortCodes(set map[string]struct{}) []string {
	codes := make([]string, 0, len(set))
	for c := range set {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool {
		a, aErr := strconv.Atoi(codes[i])
		b, bErr := strconv.Atoi(codes[j])
		switch {
		case aErr == nil && bErr == nil:
			return a < b
		case aErr == nil:
			return true
		case bErr == nil:
			return false
		default:
			return codes[i] < codes[j]
		}
	})
	return codes
}

// WriteCSV writes the table with id and bookkeeping columns first, then
// category columns in the table's code order.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	header := append([]string{"point_id", "vintage", "buffer_area"}, t.Codes...)
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "landcover: write CSV header")
	}

	record := make([]string, len(header))
	for _, row := range t.Rows {
		record[0] = row.PointID
		record[1] = strconv.Itoa(row.Vintage)
		record[2] = strconv.FormatFloat(row.BufferArea, 'g', -1, 64)
		for i, code := range t.Codes {
			record[3+i] = strconv.FormatFloat(row.Share(code), 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return eris.Wrapf(err, "landcover: write CSV row for point %s", row.PointID)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "landcover: flush CSV")
	}
	return nil
}

// ReadCSV parses a composition table previously written by WriteCSV. The
// vintage and buffer_area columns are optional; every other non-point_id
// column is treated as a category column.
func ReadCSV(r io.Reader) (*Table, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "landcover: read composition CSV")
	}
	if len(records) == 0 {
		return nil, eris.New("landcover: composition CSV is empty")
	}

	header := records[0]
	idCol, vintageCol, areaCol := -1, -1, -1
	codeCols := make(map[int]string)
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "point_id":
			idCol = i
		case "vintage":
			vintageCol = i
		case "buffer_area":
			areaCol = i
		default:
			codeCols[i] = strings.TrimSpace(h)
		}
	}
	if idCol < 0 {
		return nil, eris.New(`landcover: composition CSV missing "point_id" column`)
	}

	set := make(map[string]struct{}, len(codeCols))
	for _, code := range codeCols {
		set[code] = struct{}{}
	}

	t := &Table{Codes: sortCodes(set)}
	for i, record := range records[1:] {
		if len(record) != len(header) {
			return nil, eris.Errorf("landcover: composition CSV row %d has %d fields, expected %d", i+2, len(record), len(header))
		}

		row := Row{PointID: record[idCol], Shares: make(map[string]float64, len(codeCols))}
		if vintageCol >= 0 {
			if row.Vintage, err = strconv.Atoi(record[vintageCol]); err != nil {
				return nil, eris.Wrapf(err, "landcover: parse vintage at row %d", i+2)
			}
		}
		if areaCol >= 0 {
			if row.BufferArea, err = strconv.ParseFloat(record[areaCol], 64); err != nil {
				return nil, eris.Wrapf(err, "landcover: parse buffer_area at row %d", i+2)
			}
		}
		for col, code := range codeCols {
			v, parseErr := strconv.ParseFloat(record[col], 64)
			if parseErr != nil {
				return nil, eris.Wrapf(parseErr, "landcover: parse share %q at row %d", code, i+2)
			}
			if v != 0 {
				row.Shares[code] = v
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}
