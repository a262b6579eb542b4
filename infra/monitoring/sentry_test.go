package monitoring

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/podplan/core/model"
	coremon "github.com/kilianp07/podplan/core/monitoring"
)

func TestNewSentryMonitorWithoutDSN(t *testing.T) {
	m, err := NewSentryMonitor(SentryConfig{})
	require.NoError(t, err)
	assert.IsType(t, coremon.NopMonitor{}, m)
}

func TestSentryMonitorTagsEvents(t *testing.T) {
	var (
		mu   sync.Mutex
		sent []*sentry.Event
	)
	orig := sentryInit
	sentryInit = func(opts sentry.ClientOptions) error {
		opts.BeforeSend = func(ev *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			mu.Lock()
			sent = append(sent, ev)
			mu.Unlock()
			return nil
		}
		return orig(opts)
	}
	t.Cleanup(func() { sentryInit = orig })

	m, err := NewSentryMonitor(SentryConfig{DSN: "https://public@example.com/1", Environment: "test"})
	require.NoError(t, err)
	m.CaptureException(fmt.Errorf("%w: disk full", model.ErrIO), map[string]string{"subset": "1_2", "stage": "persist"})
	m.CaptureException(nil, nil)
	m.Flush(time.Second)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, sent, 1)
	assert.Equal(t, "1_2", sent[0].Tags["subset"])
	assert.Equal(t, "persist", sent[0].Tags["stage"])
	assert.Equal(t, "io", sent[0].Tags["error_kind"])
	assert.Equal(t, []string{"io", "persist"}, sent[0].Fingerprint)
	assert.Equal(t, "test", sent[0].Environment)
}

func TestErrorKind(t *testing.T) {
	cases := map[error]string{
		fmt.Errorf("%w: bad", model.ErrConfig):        "config",
		fmt.Errorf("%w: gone", model.ErrMissingInput): "missing_input",
		fmt.Errorf("%w: nan", model.ErrData):          "data",
		fmt.Errorf("%w: infeasible", model.ErrSolver): "solver",
		errors.New("plain"):                           "unknown",
	}
	for err, want := range cases {
		assert.Equal(t, want, errorKind(err), err.Error())
	}
}

func TestSentryConfigValidate(t *testing.T) {
	assert.NoError(t, SentryConfig{TracesSampleRate: 0.2}.Validate())
	assert.Error(t, SentryConfig{TracesSampleRate: 2}.Validate())
}
