package explorer

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/kilianp07/podplan/core/metrics"
	"github.com/kilianp07/podplan/core/model"
)

// Outcome is what happened to one subset.
type Outcome struct {
	Index   int
	Subset  model.Subset
	Outcome metrics.Outcome
	Status  string
	// Objective is NaN when the subset produced no solution.
	Objective float64
	Gap       float64
	Duration  time.Duration
	// Logged reports whether a results row was written.
	Logged bool
	Err    error
}

// Report summarises a batch. Outcomes are in enumeration order.
type Report struct {
	BatchID  string
	Total    int
	Outcomes []Outcome
	Solved   int
	Skipped  int
	Failed   int

	mu   sync.Mutex
	errs []error
}

func newOutcome(idx int, s model.Subset) Outcome {
	return Outcome{Index: idx, Subset: s, Objective: math.NaN()}
}

func (r *Report) count(o Outcome) {
	switch o.Outcome {
	case metrics.OutcomeSolved:
		r.Solved++
	case metrics.OutcomeSkipped:
		r.Skipped++
	default:
		r.Failed++
	}
}

func (r *Report) addErr(err error) {
	r.mu.Lock()
	r.errs = append(r.errs, err)
	r.mu.Unlock()
}

// Err joins the persistence errors met during the batch.
func (r *Report) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return errors.Join(r.errs...)
}
