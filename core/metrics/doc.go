// Package metrics defines the sinks that observe a subset batch. Sinks such
// as the Prometheus, InfluxDB and MQTT implementations record per-subset
// outcomes and batch progress and can be combined with NewMultiSink. The
// factory helpers return a MultiSink automatically when several sinks are
// configured.
package metrics
