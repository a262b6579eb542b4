package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/podplan/core/factory"
	coremetrics "github.com/kilianp07/podplan/core/metrics"
)

// InfluxConfig is the conf block of an "influx" sink.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
	// Strict fails sink creation when the health check does not pass
	// instead of falling back to a NopSink.
	Strict bool `json:"strict"`
}

func (c InfluxConfig) Validate() error {
	var errs []error
	if c.URL == "" {
		errs = append(errs, errors.New("influx url is required"))
	}
	if c.Bucket == "" {
		errs = append(errs, errors.New("influx bucket is required"))
	}
	return errors.Join(errs...)
}

// init registers the built-in sinks: nop, prometheus and influx.
func init() {
	_ = coremetrics.RegisterMetricsSink("nop", func(map[string]any) (coremetrics.MetricsSink, error) {
		return coremetrics.NopSink{}, nil
	})

	_ = coremetrics.RegisterMetricsSink("prometheus", func(map[string]any) (coremetrics.MetricsSink, error) {
		return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
	})

	_ = coremetrics.RegisterMetricsSink("influx", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c InfluxConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if err := c.Validate(); err != nil {
			return nil, err
		}
		if c.Strict {
			sink := NewInfluxSink(c.URL, c.Token, c.Org, c.Bucket)
			if err := sink.Ping(); err != nil {
				sink.Close()
				return nil, err
			}
			return sink, nil
		}
		return NewInfluxSinkWithFallback(c.URL, c.Token, c.Org, c.Bucket), nil
	})
}
