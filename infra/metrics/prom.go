package metrics

import (
	"errors"
	"math"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/podplan/core/metrics"
)

// PromSink records subset solves in Prometheus metrics.
type PromSink struct {
	subsets   *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	objective *prometheus.GaugeVec
	gap       *prometheus.GaugeVec
	progress  *prometheus.GaugeVec
	files     *prometheus.GaugeVec
}

// NewPromSink registers the solve metrics on the default Prometheus
// registerer. The HTTP endpoint is served separately by StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.subsets, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "podplan_subsets_total",
		Help: "Scenario subsets processed, by outcome",
	}, []string{"method", "district", "outcome", "status"})); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "podplan_solve_duration_seconds",
		Help:    "Wall-clock time spent in the MILP solver per subset",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
	}, []string{"method", "district", "outcome"})); err != nil {
		return nil, err
	}
	if s.objective, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "podplan_last_objective",
		Help: "Objective value of the most recently solved subset",
	}, []string{"method", "district"})); err != nil {
		return nil, err
	}
	if s.gap, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "podplan_last_optimality_gap",
		Help: "Relative optimality gap of the most recently solved subset",
	}, []string{"method", "district"})); err != nil {
		return nil, err
	}
	if s.progress, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "podplan_batch_progress_ratio",
		Help: "Completed share of the running batch",
	}, []string{"method", "district"})); err != nil {
		return nil, err
	}
	if s.files, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "podplan_aggregate_files",
		Help: "Solution tables seen by the last aggregation, by state",
	}, []string{"method", "district", "state"})); err != nil {
		return nil, err
	}
	return s, nil
}

// register adds c to reg, reusing an identical collector registered
// earlier.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordSubsetResult counts the subset and records its solve metrics.
func (s *PromSink) RecordSubsetResult(r coremetrics.SubsetResult) error {
	s.subsets.WithLabelValues(r.Method, r.District, string(r.Outcome), r.Status).Inc()
	if r.Outcome == coremetrics.OutcomeSkipped {
		return nil
	}
	s.duration.WithLabelValues(r.Method, r.District, string(r.Outcome)).Observe(r.Duration.Seconds())
	if r.Outcome == coremetrics.OutcomeSolved {
		if !math.IsNaN(r.Objective) && !math.IsInf(r.Objective, 0) {
			s.objective.WithLabelValues(r.Method, r.District).Set(r.Objective)
		}
		s.gap.WithLabelValues(r.Method, r.District).Set(r.Gap)
	}
	return nil
}

// RecordBatchProgress sets the progress gauge.
func (s *PromSink) RecordBatchProgress(p coremetrics.BatchProgress) error {
	s.progress.WithLabelValues(p.Method, p.District).Set(p.Fraction())
	return nil
}

// RecordAggregate sets the file gauges of an aggregation run.
func (s *PromSink) RecordAggregate(a coremetrics.AggregateSummary) error {
	s.files.WithLabelValues(a.Method, a.District, "read").Set(float64(a.Files))
	s.files.WithLabelValues(a.Method, a.District, "skipped").Set(float64(a.Skipped))
	return nil
}
