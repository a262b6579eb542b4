package model

import (
	"math"
	"strconv"
	"time"
)

// PODValue is a per-POD solution value (y or R).
type PODValue struct {
	POD   PODID
	Value float64
}

// ScenarioPODValue is a per-scenario, per-POD solution value (r or beta).
type ScenarioPODValue struct {
	Scenario ScenarioID
	POD      PODID
	Value    float64
}

// Assignment is the value of x(s,i,j).
type Assignment struct {
	Scenario ScenarioID
	Node     NodeID
	POD      PODID
	Value    float64
}

// Solution is the persisted outcome of one subset solve. It is never
// mutated after extraction.
type Solution struct {
	Subset    Subset
	Status    string
	Objective float64
	Gap       float64
	Duration  time.Duration

	Open      []PODValue
	Capacity  []PODValue
	Delivered []ScenarioPODValue
	Slack     []ScenarioPODValue
	Assign    []Assignment
}

// OpenCount counts PODs whose open indicator rounds to one.
func (s Solution) OpenCount() int {
	n := 0
	for _, v := range s.Open {
		if math.Round(v.Value) == 1 {
			n++
		}
	}
	return n
}

// ResultRow is one line of the results log.
type ResultRow struct {
	Subset Subset
	// Objective is nil when no objective value is available ("N/A").
	Objective *float64
	Gap       float64
	Status    string
	Duration  time.Duration
}

// ObjectiveString renders the objective column of the results log.
func (r ResultRow) ObjectiveString() string {
	if r.Objective == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*r.Objective, 'f', -1, 64)
}

// RowFromSolution builds the results log entry for a solved subset.
func RowFromSolution(sol Solution) ResultRow {
	row := ResultRow{Subset: sol.Subset, Gap: sol.Gap, Status: sol.Status, Duration: sol.Duration}
	if !math.IsNaN(sol.Objective) && !math.IsInf(sol.Objective, 0) {
		obj := sol.Objective
		row.Objective = &obj
	}
	return row
}
