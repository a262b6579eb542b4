package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/kilianp07/podplan/core/model"
)

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func formatInt(v int) string { return strconv.Itoa(v) }

// writeCSV writes header and rows to path, replacing any existing file.
func writeCSV(path string, header []string, rows func(emit func(...string) error) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrIO, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %v", model.ErrIO, cerr)
		}
	}()
	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("%w: %v", model.ErrIO, err)
	}
	if err := rows(func(rec ...string) error { return cw.Write(rec) }); err != nil {
		return fmt.Errorf("%w: %v", model.ErrIO, err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%w: %v", model.ErrIO, err)
	}
	return nil
}

// readCSV reads a header-led table and returns the column index of each
// requested field.
func readCSV(path string, fields ...string) ([][]string, []int, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("%w: %s", model.ErrMissingInput, path)
		}
		return nil, nil, fmt.Errorf("%w: %v", model.ErrIO, err)
	}
	defer func() { _ = f.Close() }()
	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", model.ErrData, path, err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%w: %s: empty file", model.ErrData, path)
	}
	idx := make([]int, len(fields))
	for k, name := range fields {
		idx[k] = -1
		for c, h := range records[0] {
			if h == name {
				idx[k] = c
				break
			}
		}
		if idx[k] < 0 {
			return nil, nil, fmt.Errorf("%w: %s: missing column %q", model.ErrData, path, name)
		}
	}
	return records[1:], idx, nil
}

func field(path string, row []string, c int, line int) (string, error) {
	if c >= len(row) {
		return "", fmt.Errorf("%w: %s line %d: short row", model.ErrData, path, line)
	}
	return row[c], nil
}

func floatField(path string, row []string, c int, line int) (float64, error) {
	s, err := field(path, row, c, line)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s line %d: %v", model.ErrData, path, line, err)
	}
	return v, nil
}

func intField(path string, row []string, c int, line int) (int, error) {
	v, err := floatField(path, row, c, line)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}
