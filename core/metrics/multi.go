package metrics

import "errors"

// MultiSink fans records out to several sinks. Optional recorder
// interfaces are forwarded only to sinks that implement them.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordSubsetResult forwards to every sink and joins their errors.
func (m *MultiSink) RecordSubsetResult(res SubsetResult) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordSubsetResult(res); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordBatchProgress forwards progress snapshots.
func (m *MultiSink) RecordBatchProgress(p BatchProgress) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(BatchProgressRecorder); ok {
			if err := rec.RecordBatchProgress(p); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// RecordAggregate forwards aggregation summaries.
func (m *MultiSink) RecordAggregate(s AggregateSummary) error {
	var errs []error
	for _, sink := range m.Sinks {
		if rec, ok := sink.(AggregateRecorder); ok {
			if err := rec.RecordAggregate(s); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
