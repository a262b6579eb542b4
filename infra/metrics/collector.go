package metrics

import (
	"context"

	"github.com/kilianp07/podplan/core/events"
	coremetrics "github.com/kilianp07/podplan/core/metrics"
	"github.com/kilianp07/podplan/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for
// batch and subset events. It stops when the context is canceled or the
// bus is closed; the returned channel is closed once it has.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		batches := make(map[string]events.BatchEvent)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				switch e := ev.(type) {
				case events.BatchEvent:
					batches[e.BatchID] = e
					if r, ok := sink.(coremetrics.BatchProgressRecorder); ok {
						_ = r.RecordBatchProgress(coremetrics.BatchProgress(e))
					}
				case events.SubsetEvent:
					outcome, ok := outcomes[e.Phase]
					if !ok {
						continue
					}
					b := batches[e.BatchID]
					_ = sink.RecordSubsetResult(coremetrics.SubsetResult{
						BatchID:   e.BatchID,
						Method:    b.Method,
						District:  b.District,
						Subset:    e.Subset.Key(),
						Outcome:   outcome,
						Status:    e.Status,
						Objective: e.Objective,
						Gap:       e.Gap,
						Duration:  e.Duration,
						Time:      e.Time,
					})
				}
			}
		}
	}()
	return done
}

var outcomes = map[events.Phase]coremetrics.Outcome{
	events.PhaseSolved:  coremetrics.OutcomeSolved,
	events.PhaseSkipped: coremetrics.OutcomeSkipped,
	events.PhaseFailed:  coremetrics.OutcomeFailed,
}
