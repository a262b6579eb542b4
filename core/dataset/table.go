package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/kilianp07/podplan/core/model"
)

// table is a header-addressed CSV file held in memory.
type table struct {
	path   string
	header map[string]int
	rows   [][]string
}

func readTable(path string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", model.ErrMissingInput, path)
		}
		return nil, fmt.Errorf("%w: open %s: %v", model.ErrMissingInput, path, err)
	}
	defer func() { _ = f.Close() }()
	return parseTable(path, f)
}

func parseTable(path string, r io.Reader) (*table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", model.ErrData, path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s has no header", model.ErrMissingInput, path)
	}
	t := &table{path: path, header: make(map[string]int), rows: records[1:]}
	for i, h := range records[0] {
		h = strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")
		t.header[strings.ToLower(h)] = i
	}
	return t, nil
}

// column returns the index of the first matching column name.
func (t *table) column(names ...string) (int, bool) {
	for _, n := range names {
		if n == "" {
			continue
		}
		if i, ok := t.header[strings.ToLower(n)]; ok {
			return i, true
		}
	}
	return 0, false
}

func (t *table) require(name string) (int, error) {
	i, ok := t.column(name)
	if !ok {
		return 0, fmt.Errorf("%w: column %s not found in %s", model.ErrMissingInput, name, t.path)
	}
	return i, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseNumber parses a numeric cell. ok is false for empty, non-numeric and
// non-finite values.
func parseNumber(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// parseID parses an identifier written either as "12" or "12.0".
func parseID(s string) (int, bool) {
	v, ok := parseNumber(s)
	if !ok || v != math.Trunc(v) {
		return 0, false
	}
	return int(v), true
}
