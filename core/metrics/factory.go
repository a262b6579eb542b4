package metrics

import (
	"fmt"

	"github.com/kilianp07/podplan/core/factory"
	"github.com/kilianp07/podplan/core/model"
)

var sinkRegistry = factory.NewRegistry[MetricsSink]()

// RegisterMetricsSink adds a metrics sink factory identified by name.
func RegisterMetricsSink(name string, f factory.Factory[MetricsSink]) error {
	return sinkRegistry.Register(name, f)
}

// SinkTypes lists the registered sink names.
func SinkTypes() []string { return sinkRegistry.Names() }

// NewMetricsSink builds the configured sinks. No configuration yields a
// NopSink and several yield a MultiSink in configuration order. A sink
// that cannot be built is a configuration error; sinks already built are
// released first.
func NewMetricsSink(cfgs []factory.ModuleConfig) (MetricsSink, error) {
	if len(cfgs) == 0 {
		return NopSink{}, nil
	}
	sinks := make([]MetricsSink, 0, len(cfgs))
	for i, c := range cfgs {
		s, err := sinkRegistry.Create(c)
		if err != nil {
			for _, built := range sinks {
				release(built)
			}
			return nil, fmt.Errorf("%w: metrics.sinks[%d] (%s): %v", model.ErrConfig, i, c.Type, err)
		}
		sinks = append(sinks, s)
	}
	if len(sinks) == 1 {
		return sinks[0], nil
	}
	return NewMultiSink(sinks...), nil
}

func release(s MetricsSink) {
	switch c := s.(type) {
	case interface{ Close() }:
		c.Close()
	case interface{ Close() error }:
		_ = c.Close()
	case interface{ Disconnect() }:
		c.Disconnect()
	}
}
