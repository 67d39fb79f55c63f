package landcover

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/terralab/landcover-cli/internal/fetcher"
)

// Point is one sample location. Year is the sampling year used for
// automatic vintage selection; zero means the input carried none.
type Point struct {
	ID   string
	Lon  float64
	Lat  float64
	Year int
}

// ReadPoints loads a point table from a CSV or XLSX file. The table must
// carry point_id, longitude and latitude columns (case-insensitive); a year
// column is optional.
func ReadPoints(path string) ([]Point, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readPointsCSV(path)
	case ".xlsx":
		header, rows, err := fetcher.ReadXLSX(path)
		if err != nil {
			return nil, err
		}
		return parsePointRows(header, rows)
	default:
		return nil, eris.Errorf("landcover: unsupported point table format %q", filepath.Ext(path))
	}
}

func readPointsCSV(path string) ([]Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "landcover: open point table %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "landcover: read point table %s", path)
	}
	if len(records) == 0 {
		return nil, eris.Errorf("landcover: point table %s is empty", path)
	}
	return parsePointRows(records[0], records[1:])
}

// parsePointRows validates required columns and converts raw rows to points.
func parsePointRows(header []string, rows [][]string) ([]Point, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}

	for _, required := range []string{"point_id", "longitude", "latitude"} {
		if _, ok := cols[required]; !ok {
			return nil, eris.Errorf("landcover: point table missing required column %q", required)
		}
	}
	idCol := cols["point_id"]
	lonCol := cols["longitude"]
	latCol := cols["latitude"]
	yearCol, hasYear := cols["year"]

	seen := make(map[string]struct{}, len(rows))
	points := make([]Point, 0, len(rows))
	for i, row := range rows {
		line := i + 2 // 1-based, after header
		if maxCol(idCol, lonCol, latCol) >= len(row) {
			return nil, eris.Errorf("landcover: point table row %d has %d fields", line, len(row))
		}

		id := strings.TrimSpace(row[idCol])
		if id == "" {
			return nil, eris.Errorf("landcover: point table row %d has empty point_id", line)
		}
		if _, dup := seen[id]; dup {
			return nil, eris.Errorf("landcover: duplicate point_id %q at row %d", id, line)
		}
		seen[id] = struct{}{}

		lon, err := strconv.ParseFloat(strings.TrimSpace(row[lonCol]), 64)
		if err != nil {
			return nil, eris.Wrapf(err, "landcover: parse longitude at row %d", line)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(row[latCol]), 64)
		if err != nil {
			return nil, eris.Wrapf(err, "landcover: parse latitude at row %d", line)
		}

		var year int
		if hasYear && yearCol < len(row) {
			raw := strings.TrimSpace(row[yearCol])
			if raw != "" {
				year, err = strconv.Atoi(raw)
				if err != nil {
					return nil, eris.Wrapf(err, "landcover: parse year at row %d", line)
				}
			}
		}

		points = append(points, Point{ID: id, Lon: lon, Lat: lat, Year: year})
	}
	return points, nil
}

func maxCol(cols ...int) int {
	m := cols[0]
	for _, c := range cols[1:] {
		if c > m {
			m = c
		}
	}
	return m
}
