package events

import (
	"math"
	"time"

	"github.com/kilianp07/podplan/core/model"
)

// Phase is the lifecycle step a SubsetEvent reports.
type Phase string

const (
	PhaseStarted Phase = "started"
	PhaseSolved  Phase = "solved"
	PhaseSkipped Phase = "skipped"
	PhaseFailed  Phase = "failed"
)

// SubsetEvent is published for each state change of a subset solve.
type SubsetEvent struct {
	BatchID string
	Index   int
	Subset  model.Subset
	Phase   Phase
	// Status is the solver status once the solve has run.
	Status    string
	Objective float64
	Gap       float64
	Duration  time.Duration
	Err       error
	Time      time.Time
}

// HasObjective reports whether Objective carries a finite value.
func (e SubsetEvent) HasObjective() bool {
	return !math.IsNaN(e.Objective) && !math.IsInf(e.Objective, 0)
}

// BatchEvent is published when a batch starts and when it completes.
type BatchEvent struct {
	BatchID   string
	Method    string
	District  string
	Total     int
	Completed int
	Solved    int
	Skipped   int
	Failed    int
	Done      bool
	Time      time.Time
}
