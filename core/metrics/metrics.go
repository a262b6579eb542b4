package metrics

import "time"

// Outcome classifies how a subset ended.
type Outcome string

const (
	OutcomeSolved  Outcome = "solved"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// SubsetResult is the observable outcome of one subset solve.
type SubsetResult struct {
	BatchID  string
	Method   string
	District string
	Subset   string
	Outcome  Outcome
	Status   string
	// Objective is NaN when the solve produced no objective.
	Objective float64
	Gap       float64
	Duration  time.Duration
	Time      time.Time
}

// MetricsSink records subset outcomes for observability purposes.
type MetricsSink interface {
	RecordSubsetResult(res SubsetResult) error
}

// BatchProgress is a snapshot of a running batch.
type BatchProgress struct {
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

// Fraction returns the completed share of the batch.
func (p BatchProgress) Fraction() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Completed) / float64(p.Total)
}

// BatchProgressRecorder records batch progress snapshots.
type BatchProgressRecorder interface {
	RecordBatchProgress(p BatchProgress) error
}

// AggregateSummary describes one aggregation run.
type AggregateSummary struct {
	Method   string
	District string
	Files    int
	Skipped  int
	TopPODs  int
	Time     time.Time
}

// AggregateRecorder records aggregation runs.
type AggregateRecorder interface {
	RecordAggregate(s AggregateSummary) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordSubsetResult(SubsetResult) error   { return nil }
func (NopSink) RecordBatchProgress(BatchProgress) error { return nil }
func (NopSink) RecordAggregate(AggregateSummary) error  { return nil }
