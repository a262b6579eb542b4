package mqtt

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/podplan/core/factory"
	coremetrics "github.com/kilianp07/podplan/core/metrics"
	coremon "github.com/kilianp07/podplan/core/monitoring"
)

type recordMonitor struct {
	err  error
	tags map[string]string
}

func (r *recordMonitor) CaptureException(err error, tags map[string]string) {
	r.err = err
	r.tags = tags
}
func (r *recordMonitor) Recover()            {}
func (r *recordMonitor) Flush(time.Duration) {}

func TestRecordSubsetResultPublishes(t *testing.T) {
	mc := useMock(t, &mockClient{})
	n, err := NewNotifier(Config{Broker: "tcp://localhost:1883", ClientID: "id", QoS: 1, Retain: true})
	require.NoError(t, err)

	now := time.UnixMilli(1700000000000)
	require.NoError(t, n.RecordSubsetResult(coremetrics.SubsetResult{
		BatchID: "b1", Method: "LHS", District: "Kadikoy", Subset: "1_2",
		Outcome: coremetrics.OutcomeSolved, Status: "optimal",
		Objective: 4.5, Gap: 0.001, Duration: 1500 * time.Millisecond, Time: now,
	}))
	require.NoError(t, n.RecordSubsetResult(coremetrics.SubsetResult{
		BatchID: "b1", Method: "LHS", District: "Kadikoy", Subset: "1_3",
		Outcome: coremetrics.OutcomeFailed, Objective: math.NaN(), Time: now,
	}))

	require.Len(t, mc.published, 2)
	first := mc.published[0]
	assert.Equal(t, "podplan/LHS/kadikoy/subsets", first.topic)
	assert.Equal(t, byte(1), first.qos)
	assert.True(t, first.retained)
	assert.JSONEq(t, `{"batch_id":"b1","subset":"1_2","outcome":"solved","status":"optimal","objective":4.5,"gap":0.001,"duration_ms":1500,"timestamp":1700000000000}`, string(first.payload))

	var second map[string]any
	require.NoError(t, json.Unmarshal(mc.published[1].payload, &second))
	assert.Nil(t, second["objective"])
	assert.Equal(t, "failed", second["outcome"])
}

func TestRecordProgressAndAggregate(t *testing.T) {
	mc := useMock(t, &mockClient{})
	n, err := NewNotifier(Config{Broker: "tcp://localhost:1883", TopicPrefix: "ops/podplan/"})
	require.NoError(t, err)

	require.NoError(t, n.RecordBatchProgress(coremetrics.BatchProgress{BatchID: "b1", Method: "MC", District: "D", Total: 4, Completed: 2, Solved: 2}))
	require.NoError(t, n.RecordAggregate(coremetrics.AggregateSummary{Method: "MC", District: "D", Files: 12, TopPODs: 100}))

	require.Len(t, mc.published, 2)
	assert.Equal(t, "ops/podplan/MC/d/progress", mc.published[0].topic)
	var p progressMessage
	require.NoError(t, json.Unmarshal(mc.published[0].payload, &p))
	assert.Equal(t, 0.5, p.Fraction)
	assert.Equal(t, "ops/podplan/MC/d/aggregate", mc.published[1].topic)
}

func TestRetryLogic(t *testing.T) {
	mc := useMock(t, &mockClient{publishErrs: []error{errors.New("net fail"), nil}})
	n, err := NewNotifier(Config{Broker: "tcp://localhost:1883", ClientID: "id", MaxRetries: 1, BackoffMS: 1})
	require.NoError(t, err)
	require.NoError(t, n.RecordAggregate(coremetrics.AggregateSummary{Method: "LHS", District: "d"}))
	if len(mc.published) != 2 {
		t.Fatalf("expected retries")
	}
}

func TestPublishErrorCaptured(t *testing.T) {
	fail := errors.New("net fail")
	useMock(t, &mockClient{publishErrs: []error{fail, fail}})
	mon := &recordMonitor{}
	coremon.Init(mon)
	defer coremon.Init(nil)

	n, err := NewNotifier(Config{Broker: "tcp://localhost:1883", ClientID: "id", MaxRetries: 1, BackoffMS: 1})
	require.NoError(t, err)
	err = n.RecordSubsetResult(coremetrics.SubsetResult{Method: "LHS", District: "d", Subset: "2_3", Objective: 1})
	if !errors.Is(err, fail) {
		t.Fatalf("expected publish error, got %v", err)
	}
	if mon.err == nil {
		t.Fatalf("error not captured")
	}
	if mon.tags["subset"] != "2_3" || mon.tags["module"] != "mqtt" {
		t.Fatalf("tags not set: %v", mon.tags)
	}
}

func TestConnectError(t *testing.T) {
	useMock(t, &mockClient{connectErr: errors.New("refused")})
	_, err := NewNotifier(Config{Broker: "tcp://localhost:1883"})
	assert.EqualError(t, err, "refused")
}

func TestRegisteredAsMetricsSink(t *testing.T) {
	mc := useMock(t, &mockClient{})
	sink, err := coremetrics.NewMetricsSink([]factory.ModuleConfig{{
		Type: "mqtt",
		Conf: map[string]any{"broker": "tcp://localhost:1883", "qos": 2, "topic_prefix": "x"},
	}})
	require.NoError(t, err)
	require.NoError(t, sink.RecordSubsetResult(coremetrics.SubsetResult{Method: "LHS", District: "d", Subset: "1"}))
	require.Len(t, mc.published, 1)
	assert.Equal(t, "x/LHS/d/subsets", mc.published[0].topic)
	assert.Equal(t, byte(2), mc.published[0].qos)
}

func TestConfigDefaultsAndValidate(t *testing.T) {
	var c Config
	c.SetDefaults()
	assert.Equal(t, DefaultTopicPrefix, c.TopicPrefix)
	assert.True(t, strings.HasPrefix(c.ClientID, "podplan-"))
	assert.Equal(t, 3, c.MaxRetries)
	assert.ErrorContains(t, c.Validate(), "broker is required")

	c = Config{Broker: "tcp://localhost:1883", QoS: 3}
	assert.ErrorContains(t, c.Validate(), "qos")
	_, err := NewNotifier(c)
	assert.Error(t, err)
}
