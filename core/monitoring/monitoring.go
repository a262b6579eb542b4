package monitoring

import (
	"time"

	"github.com/kilianp07/podplan/core/model"
)

// Monitor defines methods used for error reporting.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	Recover()
	Flush(timeout time.Duration)
}

type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Recover()                                  {}
func (NopMonitor) Flush(time.Duration)                       {}

var current Monitor = NopMonitor{}

// Init sets the global monitor implementation. A nil monitor restores the
// no-op default.
func Init(m Monitor) {
	if m == nil {
		m = NopMonitor{}
	}
	current = m
}

// CaptureException records the error with optional tags.
func CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	current.CaptureException(err, tags)
}

// CaptureSubset records an error raised while processing one subset,
// tagged with the subset key and the failing stage.
func CaptureSubset(err error, subset model.Subset, stage string) {
	CaptureException(err, map[string]string{"subset": subset.Key(), "stage": stage})
}

// Recover captures panics in goroutines.
func Recover() { current.Recover() }

// Flush flushes buffered events.
func Flush(d time.Duration) { current.Flush(d) }
