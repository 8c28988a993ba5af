package dataset

import (
	"fmt"
	"strings"
)

// namedColumn matches a canonical name to a column index in a csv file
type namedColumn struct {
	index int
	key   string
}

// ColumnMap matches the name and index of columns
type ColumnMap struct {
	entries []namedColumn
}

// NewColumnMap finds the index of every named column in the header row.
// Empty names are skipped.
func NewColumnMap(namedColumns []string, header []string) (ColumnMap, error) {
	inverse := make(map[string]int, len(header))
	for idx, name := range header {
		inverse[strings.TrimSpace(name)] = idx
	}

	entries := make([]namedColumn, 0, len(namedColumns))
	for _, name := range namedColumns {
		if name == "" {
			continue
		}
		idx, ok := inverse[name]
		if !ok {
			return ColumnMap{}, fmt.Errorf("no such column %q", name)
		}
		entries = append(entries, namedColumn{idx, name})
	}
	return ColumnMap{entries: entries}, nil
}

// CreateValueMap creates an empty map suitable for matching values to
// column names
func (m ColumnMap) CreateValueMap() map[string]string {
	return make(map[string]string, len(m.entries))
}

// UpdateMap populates valueMap with the values of one record
func (m ColumnMap) UpdateMap(record []string, valueMap map[string]string) error {
	for _, column := range m.entries {
		if column.index >= len(record) {
			return fmt.Errorf("record has %d fields, column %q is at %d", len(record), column.key, column.index)
		}
		valueMap[column.key] = strings.TrimSpace(record[column.index])
	}
	return nil
}
