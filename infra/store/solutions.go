package store

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/kilianp07/podplan/core/aggregate"
	"github.com/kilianp07/podplan/core/model"
)

// Solutions persists and reads the y, R and x tables of subset solves.
type Solutions struct {
	Naming Naming
}

// Persist writes the y, R and x tables of sol. The first failure aborts
// the remaining tables.
func (s Solutions) Persist(sol model.Solution) error {
	if err := WriteY(s.Naming.SolutionPath(TableY, sol.Subset), sol.Open); err != nil {
		return err
	}
	if err := WriteR(s.Naming.SolutionPath(TableR, sol.Subset), sol.Capacity); err != nil {
		return err
	}
	return WriteX(s.Naming.SolutionPath(TableX, sol.Subset), sol.Assign)
}

// WriteY writes {POD, y_value}.
func WriteY(path string, vals []model.PODValue) error {
	return writePODValues(path, "y_value", vals)
}

// WriteR writes {POD, R_value}.
func WriteR(path string, vals []model.PODValue) error {
	return writePODValues(path, "R_value", vals)
}

func writePODValues(path, col string, vals []model.PODValue) error {
	return writeCSV(path, []string{"POD", col}, func(emit func(...string) error) error {
		for _, v := range vals {
			if err := emit(formatInt(int(v.POD)), formatFloat(v.Value)); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteX writes {Scenario, Demand_Node, POD, x_value}.
func WriteX(path string, vals []model.Assignment) error {
	return writeCSV(path, []string{"Scenario", "Demand_Node", "POD", "x_value"}, func(emit func(...string) error) error {
		for _, a := range vals {
			if err := emit(formatInt(int(a.Scenario)), formatInt(int(a.Node)), formatInt(int(a.POD)), formatFloat(a.Value)); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReadY reads a y table.
func ReadY(path string) ([]model.PODValue, error) { return readPODValues(path, "y_value") }

// ReadR reads an R table.
func ReadR(path string) ([]model.PODValue, error) { return readPODValues(path, "R_value") }

func readPODValues(path, col string) ([]model.PODValue, error) {
	rows, idx, err := readCSV(path, "POD", col)
	if err != nil {
		return nil, err
	}
	out := make([]model.PODValue, 0, len(rows))
	for n, row := range rows {
		pod, err := intField(path, row, idx[0], n+2)
		if err != nil {
			return nil, err
		}
		v, err := floatField(path, row, idx[1], n+2)
		if err != nil {
			return nil, err
		}
		out = append(out, model.PODValue{POD: model.PODID(pod), Value: v})
	}
	return out, nil
}

// ReadX reads an x table.
func ReadX(path string) ([]model.Assignment, error) {
	rows, idx, err := readCSV(path, "Scenario", "Demand_Node", "POD", "x_value")
	if err != nil {
		return nil, err
	}
	out := make([]model.Assignment, 0, len(rows))
	for n, row := range rows {
		var ids [3]int
		for k := range ids {
			if ids[k], err = intField(path, row, idx[k], n+2); err != nil {
				return nil, err
			}
		}
		v, err := floatField(path, row, idx[3], n+2)
		if err != nil {
			return nil, err
		}
		out = append(out, model.Assignment{
			Scenario: model.ScenarioID(ids[0]),
			Node:     model.NodeID(ids[1]),
			POD:      model.PODID(ids[2]),
			Value:    v,
		})
	}
	return out, nil
}

// TableReader reads persisted tables from disk for aggregation.
type TableReader struct{}

func (TableReader) ReadY(path string) ([]model.PODValue, error)   { return ReadY(path) }
func (TableReader) ReadR(path string) ([]model.PODValue, error)   { return ReadR(path) }
func (TableReader) ReadX(path string) ([]model.Assignment, error) { return ReadX(path) }

// Discover lists every persisted y, R and x table matching n.
func (n Naming) Discover() (aggregate.Files, error) {
	var files aggregate.Files
	for _, t := range []struct {
		table Table
		dst   *[]string
	}{{TableY, &files.Y}, {TableR, &files.R}, {TableX, &files.X}} {
		matches, err := filepath.Glob(n.SolutionGlob(t.table))
		if err != nil {
			return files, fmt.Errorf("%w: %v", model.ErrConfig, err)
		}
		sort.Strings(matches)
		*t.dst = matches
	}
	return files, nil
}
