package store

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kilianp07/podplan/core/model"
)

// Table names one of the persisted per-subset solution tables.
type Table string

const (
	TableY Table = "y"
	TableR Table = "R"
	TableX Table = "x"
)

// Naming derives output file names from the method and district.
type Naming struct {
	Dir      string
	Method   string
	District string
}

func (n Naming) district() string { return strings.ToLower(n.District) }

func (n Naming) dir() string {
	if n.Dir == "" {
		return "."
	}
	return n.Dir
}

// SolutionPath is {method}_{district}_{table}_solution_scenarios_{key}.csv.
func (n Naming) SolutionPath(t Table, s model.Subset) string {
	return filepath.Join(n.dir(), fmt.Sprintf("%s_%s_%s_solution_scenarios_%s.csv", n.Method, n.district(), t, s.Key()))
}

// SolutionGlob matches every persisted table t.
func (n Naming) SolutionGlob(t Table) string {
	return filepath.Join(n.dir(), fmt.Sprintf("%s_%s_%s_solution_scenarios_*.csv", n.Method, n.district(), t))
}

// ResultsLogPath is {method_lower}_solution_gaps_{district}_{n}c{k}.csv.
func (n Naming) ResultsLogPath(scenarios, k int) string {
	return filepath.Join(n.dir(), fmt.Sprintf("%s_solution_gaps_%s_%dc%d.csv", strings.ToLower(n.Method), n.district(), scenarios, k))
}

// ModelPath is the LP dump of one subset model.
func (n Naming) ModelPath(s model.Subset) string {
	return filepath.Join(n.dir(), fmt.Sprintf("%s_%s_model_scenarios_%s.lp", n.Method, n.district(), s.Key()))
}
