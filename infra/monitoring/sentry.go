package monitoring

import (
	"errors"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/kilianp07/podplan/core/model"
	coremon "github.com/kilianp07/podplan/core/monitoring"
)

// SentryConfig defines settings for Sentry error monitoring.
type SentryConfig struct {
	DSN              string  `json:"dsn"`
	Environment      string  `json:"environment"`
	TracesSampleRate float64 `json:"traces_sample_rate"`
	Release          string  `json:"release"`
}

// Validate rejects sample rates outside [0,1].
func (c SentryConfig) Validate() error {
	if c.TracesSampleRate < 0 || c.TracesSampleRate > 1 {
		return fmt.Errorf("sentry: traces_sample_rate must be within [0,1], got %g", c.TracesSampleRate)
	}
	return nil
}

var sentryInit = sentry.Init

// NewSentryMonitor initializes Sentry using the provided configuration and
// returns a Monitor implementation. An empty DSN yields the no-op monitor.
func NewSentryMonitor(cfg SentryConfig) (coremon.Monitor, error) {
	if cfg.DSN == "" {
		return coremon.NopMonitor{}, nil
	}
	err := sentryInit(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		TracesSampleRate: cfg.TracesSampleRate,
		Release:          cfg.Release,
	})
	if err != nil {
		return nil, err
	}
	return &sentryMonitor{}, nil
}

type sentryMonitor struct{}

// errorKind names the sentinel class of err, or "unknown".
func errorKind(err error) string {
	switch {
	case errors.Is(err, model.ErrConfig):
		return "config"
	case errors.Is(err, model.ErrMissingInput):
		return "missing_input"
	case errors.Is(err, model.ErrData):
		return "data"
	case errors.Is(err, model.ErrSolver):
		return "solver"
	case errors.Is(err, model.ErrIO):
		return "io"
	}
	return "unknown"
}

// CaptureException tags the event with the error kind and groups events
// by kind and stage, so one failing stage across many subsets is a single
// issue.
func (s *sentryMonitor) CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	kind := errorKind(err)
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("error_kind", kind)
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		fp := []string{kind}
		if stage, ok := tags["stage"]; ok {
			fp = append(fp, stage)
		}
		scope.SetFingerprint(fp)
		sentry.CaptureException(err)
	})
}

func (s *sentryMonitor) Recover() {
	if r := recover(); r != nil {
		sentry.CurrentHub().Recover(r)
		sentry.Flush(2 * time.Second)
		panic(r)
	}
}

func (s *sentryMonitor) Flush(timeout time.Duration) { sentry.Flush(timeout) }
