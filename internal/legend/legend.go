// Package legend provides the CORINE land-cover nomenclature at all three
// hierarchy levels.
package legend

import (
	_ "embed"
	"sort"
	"strconv"
	"sync"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed legend.yaml
var legendYAML []byte

// Entry is one nomenclature row.
type Entry struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

var (
	once    sync.Once
	labels  map[string]string
	loadErr error
)

func load() (map[string]string, error) {
	once.Do(func() {
		labels = make(map[string]string)
		loadErr = yaml.Unmarshal(legendYAML, &labels)
		if loadErr != nil {
			loadErr = eris.Wrap(loadErr, "legend: parse embedded nomenclature")
		}
	})
	return labels, loadErr
}

// Label returns the nomenclature label for a category code at any level.
func Label(code string) (string, bool) {
	m, err := load()
	if err != nil {
		return "", false
	}
	label, ok := m[code]
	return label, ok
}

// Entries lists all codes at one hierarchy level (1, 2 or 3), ordered by
// numeric code.
func Entries(level int) ([]Entry, error) {
	if level < 1 || level > 3 {
		return nil, eris.Errorf("legend: level must be 1, 2 or 3, got %d", level)
	}
	m, err := load()
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for code, label := range m {
		if len(code) == level {
			entries = append(entries, Entry{Code: code, Label: label})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		a, _ := strconv.Atoi(entries[i].Code)
		b, _ := strconv.Atoi(entries[j].Code)
		return a < b
	})
	return entries, nil
}
