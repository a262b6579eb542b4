// Package mqtt publishes batch progress and subset outcomes to an MQTT
// broker.
package mqtt

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/podplan/core/factory"
	coremetrics "github.com/kilianp07/podplan/core/metrics"
	coremon "github.com/kilianp07/podplan/core/monitoring"
	"github.com/kilianp07/podplan/infra/logger"
)

func init() {
	_ = coremetrics.RegisterMetricsSink("mqtt", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		n, err := NewNotifier(c)
		if err != nil {
			return nil, err
		}
		return n, nil
	})
}

// Notifier implements the metrics recorders by publishing JSON messages on
// {prefix}/{method}/{district}/{subsets|progress|aggregate}.
type Notifier struct {
	cli        pahoClient
	prefix     string
	qos        byte
	retain     bool
	maxRetries int
	backoff    time.Duration
	logger     logger.Logger
}

// NewNotifier connects to the broker.
func NewNotifier(cfg Config) (*Notifier, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt_notifier")
	opts.OnConnect = func(paho.Client) { log.Infof("MQTT connected") }
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	n := &Notifier{
		prefix:     cfg.TopicPrefix,
		qos:        cfg.QoS,
		retain:     cfg.Retain,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		logger:     log,
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	n.cli = c
	return n, nil
}

// Topic returns the topic of kind for a method and district.
func (n *Notifier) Topic(method, district, kind string) string {
	return strings.Join([]string{n.prefix, method, strings.ToLower(district), kind}, "/")
}

type subsetMessage struct {
	BatchID    string   `json:"batch_id"`
	Subset     string   `json:"subset"`
	Outcome    string   `json:"outcome"`
	Status     string   `json:"status,omitempty"`
	Objective  *float64 `json:"objective"`
	Gap        float64  `json:"gap"`
	DurationMS int64    `json:"duration_ms"`
	Timestamp  int64    `json:"timestamp"`
}

type progressMessage struct {
	BatchID   string  `json:"batch_id"`
	Total     int     `json:"total"`
	Completed int     `json:"completed"`
	Solved    int     `json:"solved"`
	Skipped   int     `json:"skipped"`
	Failed    int     `json:"failed"`
	Fraction  float64 `json:"fraction"`
	Done      bool    `json:"done"`
	Timestamp int64   `json:"timestamp"`
}

type aggregateMessage struct {
	Files     int   `json:"files"`
	Skipped   int   `json:"skipped"`
	TopPODs   int   `json:"top_pods"`
	Timestamp int64 `json:"timestamp"`
}

// RecordSubsetResult publishes one subset outcome. The objective is null
// when the subset produced none.
func (n *Notifier) RecordSubsetResult(r coremetrics.SubsetResult) error {
	msg := subsetMessage{
		BatchID:    r.BatchID,
		Subset:     r.Subset,
		Outcome:    string(r.Outcome),
		Status:     r.Status,
		Gap:        r.Gap,
		DurationMS: r.Duration.Milliseconds(),
		Timestamp:  r.Time.UnixMilli(),
	}
	if !math.IsNaN(r.Objective) && !math.IsInf(r.Objective, 0) {
		obj := r.Objective
		msg.Objective = &obj
	}
	return n.publish(n.Topic(r.Method, r.District, "subsets"), msg, map[string]string{"subset": r.Subset})
}

// RecordBatchProgress publishes a progress snapshot.
func (n *Notifier) RecordBatchProgress(p coremetrics.BatchProgress) error {
	return n.publish(n.Topic(p.Method, p.District, "progress"), progressMessage{
		BatchID:   p.BatchID,
		Total:     p.Total,
		Completed: p.Completed,
		Solved:    p.Solved,
		Skipped:   p.Skipped,
		Failed:    p.Failed,
		Fraction:  p.Fraction(),
		Done:      p.Done,
		Timestamp: p.Time.UnixMilli(),
	}, map[string]string{"batch_id": p.BatchID})
}

// RecordAggregate publishes an aggregation summary.
func (n *Notifier) RecordAggregate(a coremetrics.AggregateSummary) error {
	return n.publish(n.Topic(a.Method, a.District, "aggregate"), aggregateMessage{
		Files:     a.Files,
		Skipped:   a.Skipped,
		TopPODs:   a.TopPODs,
		Timestamp: a.Time.UnixMilli(),
	}, nil)
}

func (n *Notifier) publish(topic string, v any, tags map[string]string) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var publishErr error
	for attempt := 0; attempt <= n.maxRetries; attempt++ {
		token := n.cli.Publish(topic, n.qos, n.retain, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			n.logger.Debugf("published %s", topic)
			return nil
		}
		n.logger.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		time.Sleep(n.backoff * time.Duration(1<<attempt))
	}
	all := map[string]string{"module": "mqtt", "topic": topic}
	for k, v := range tags {
		all[k] = v
	}
	coremon.CaptureException(publishErr, all)
	return publishErr
}

// Disconnect gracefully closes the MQTT connection.
func (n *Notifier) Disconnect() {
	if n.cli != nil && n.cli.IsConnected() {
		n.cli.Disconnect(250)
	}
}
