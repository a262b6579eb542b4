package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/kilianp07/podplan/core/model"
)

// ResultsHeader is the header of the results log.
var ResultsHeader = []string{"Scenario_Combination", "Objective_Value", "Optimality_Gap"}

// ResultSink receives one row per solved subset.
type ResultSink interface {
	Append(row model.ResultRow) error
}

// ResultsLog is the append-only CSV results table of a batch.
type ResultsLog struct {
	mu   sync.Mutex
	path string
	f    *os.File
	w    *csv.Writer
}

// CreateResultsLog truncates path and writes the header.
func CreateResultsLog(path string) (*ResultsLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrIO, err)
	}
	l := &ResultsLog{path: path, f: f, w: csv.NewWriter(f)}
	if err := l.write(ResultsHeader); err != nil {
		_ = f.Close()
		return nil, err
	}
	return l, nil
}

// Path returns the log location.
func (l *ResultsLog) Path() string { return l.path }

// Append writes one row and flushes it.
func (l *ResultsLog) Append(row model.ResultRow) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.write([]string{row.Subset.Key(), row.ObjectiveString(), formatFloat(row.Gap)})
}

func (l *ResultsLog) write(rec []string) error {
	if err := l.w.Write(rec); err != nil {
		return fmt.Errorf("%w: %v", model.ErrIO, err)
	}
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		return fmt.Errorf("%w: %v", model.ErrIO, err)
	}
	return nil
}

// Close closes the underlying file.
func (l *ResultsLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}

// LoggedResult is one parsed row of a results log.
type LoggedResult struct {
	Subset model.Subset
	// Objective is nil for "N/A".
	Objective *float64
	Gap       float64
}

// ReadResultsLog parses a results log written by ResultsLog.
func ReadResultsLog(path string) ([]LoggedResult, error) {
	rows, idx, err := readCSV(path, ResultsHeader...)
	if err != nil {
		return nil, err
	}
	out := make([]LoggedResult, 0, len(rows))
	for n, row := range rows {
		key, err := field(path, row, idx[0], n+2)
		if err != nil {
			return nil, err
		}
		s, err := model.ParseSubset(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", model.ErrData, path, n+2, err)
		}
		r := LoggedResult{Subset: s}
		obj, err := field(path, row, idx[1], n+2)
		if err != nil {
			return nil, err
		}
		if obj != "N/A" {
			v, err := strconv.ParseFloat(obj, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s line %d: %v", model.ErrData, path, n+2, err)
			}
			r.Objective = &v
		}
		if r.Gap, err = floatField(path, row, idx[2], n+2); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Tee fans rows out to several sinks. Every sink is attempted; errors are
// joined.
type Tee []ResultSink

func (t Tee) Append(row model.ResultRow) error {
	var errs []error
	for _, s := range t {
		if err := s.Append(row); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
