package landcover

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// loadGeoPackage reads the single feature table of a GeoPackage into a
// Layer. A GeoPackage is a SQLite database; feature geometry arrives as a
// GPKG binary blob wrapping standard WKB.
func loadGeoPackage(path string, year int, opts LoaderOptions) (*Layer, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, eris.Wrapf(err, "landcover: open geopackage %s", path)
	}
	defer db.Close()

	table, geomCol, srid, err := featureTable(db, path)
	if err != nil {
		return nil, err
	}
	if srid <= 0 {
		srid = opts.SRID
	}

	codeCol, err := codeColumn(db, table, opts.CodeField)
	if err != nil {
		return nil, eris.Wrapf(err, "landcover: geopackage %s", path)
	}

	query := fmt.Sprintf("SELECT %q, %q FROM %q", geomCol, codeCol, table)
	rows, err := db.Query(query)
	if err != nil {
		return nil, eris.Wrapf(err, "landcover: read features from %s", path)
	}
	defer rows.Close()

	var features []Feature
	var skipped int
	for rows.Next() {
		var blob []byte
		var code sql.NullString
		if err := rows.Scan(&blob, &code); err != nil {
			return nil, eris.Wrapf(err, "landcover: scan feature row in %s", path)
		}

		payload, err := splitGPKGBlob(blob)
		if err != nil {
			skipped++
			continue
		}
		g, err := decodeWKB(payload)
		if err != nil {
			skipped++
			continue
		}
		codeStr := strings.TrimSpace(code.String)
		if min, max, ok := gpkgEnvelope(blob); ok {
			features = append(features, Feature{Geom: g, Code: codeStr, bboxMin: min, bboxMax: max})
		} else if feat, ok := newFeature(g, codeStr); ok {
			features = append(features, feat)
		} else {
			skipped++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "landcover: iterate features in %s", path)
	}

	if skipped > 0 {
		zap.L().Debug("landcover: skipped geopackage records",
			zap.String("file", path),
			zap.Int("skipped", skipped),
		)
	}

	return &Layer{Vintage: year, SRID: srid, Features: features}, nil
}

// featureTable discovers the single features entry in gpkg_contents along
// with its geometry column and SRID.
func featureTable(db *sql.DB, path string) (table, geomCol string, srid int, err error) {
	rows, err := db.Query(`
		SELECT c.table_name, g.column_name, c.srs_id
		FROM gpkg_contents c
		JOIN gpkg_geometry_columns g ON g.table_name = c.table_name
		WHERE c.data_type = 'features'
	`)
	if err != nil {
		return "", "", 0, eris.Wrapf(err, "landcover: query gpkg_contents in %s", path)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var t, g string
		var s int
		if err := rows.Scan(&t, &g, &s); err != nil {
			return "", "", 0, eris.Wrapf(err, "landcover: scan gpkg_contents in %s", path)
		}
		count++
		if count == 1 {
			table, geomCol, srid = t, g, s
		}
	}
	if err := rows.Err(); err != nil {
		return "", "", 0, eris.Wrapf(err, "landcover: iterate gpkg_contents in %s", path)
	}

	switch count {
	case 0:
		return "", "", 0, eris.Errorf("landcover: no feature table in geopackage %s", path)
	case 1:
		return table, geomCol, srid, nil
	default:
		return "", "", 0, eris.Errorf("landcover: geopackage %s has %d feature tables, expected one", path, count)
	}
}

// codeColumn finds the category-code column of a feature table.
func codeColumn(db *sql.DB, table, explicit string) (string, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return "", eris.Wrapf(err, "table info for %s", table)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid     int
			name    string
			colType string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return "", eris.Wrapf(err, "scan table info for %s", table)
		}
		if matchesCodeField(name, explicit) {
			return name, nil
		}
	}
	if err := rows.Err(); err != nil {
		return "", eris.Wrapf(err, "iterate table info for %s", table)
	}
	return "", eris.Errorf("no category code column in table %s", table)
}

// splitGPKGBlob strips the GeoPackage binary header and returns the WKB
// payload. Header layout: "GP" magic, version, flags, 4-byte SRID, then an
// optional envelope whose size is encoded in the flags.
func splitGPKGBlob(b []byte) ([]byte, error) {
	if len(b) < 8 || b[0] != 'G' || b[1] != 'P' {
		return nil, eris.New("landcover: not a GeoPackage geometry blob")
	}

	flags := b[3]
	var envDoubles int
	switch (flags >> 1) & 0x7 {
	case 0:
		envDoubles = 0
	case 1:
		envDoubles = 4
	case 2, 3:
		envDoubles = 6
	case 4:
		envDoubles = 8
	default:
		return nil, eris.Errorf("landcover: invalid GeoPackage envelope indicator %d", (flags>>1)&0x7)
	}

	headerLen := 8 + envDoubles*8
	if len(b) < headerLen+5 {
		return nil, eris.New("landcover: truncated GeoPackage geometry blob")
	}
	return b[headerLen:], nil
}

// gpkgEnvelope reads the envelope doubles from a blob header, when present,
// saving a coordinate walk over the decoded geometry.
func gpkgEnvelope(b []byte) (min, max [2]float64, ok bool) {
	if len(b) < 8 || b[0] != 'G' || b[1] != 'P' {
		return min, max, false
	}
	flags := b[3]
	if (flags>>1)&0x7 == 0 {
		return min, max, false
	}
	if len(b) < 8+4*8 {
		return min, max, false
	}

	var order binary.ByteOrder = binary.BigEndian
	if flags&0x1 == 1 {
		order = binary.LittleEndian
	}
	read := func(i int) float64 {
		return math.Float64frombits(order.Uint64(b[8+i*8:]))
	}
	// Envelope order is minx, maxx, miny, maxy.
	return [2]float64{read(0), read(2)}, [2]float64{read(1), read(3)}, true
}
