// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package rpc

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records procedure calls.
type Metrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the procedure collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rpc_calls_total",
			Help: "Number of procedure calls by procedure and result code.",
		}, []string{"procedure", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rpc_call_duration_seconds",
			Help:    "Procedure call latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"procedure"}),
	}
	if reg != nil {
		reg.MustRegister(m.calls, m.duration)
	}
	return m
}

func (m *Metrics) observe(procedure string, code Code, elapsed time.Duration) {
	if code == "" {
		code = "OK"
	}
	m.calls.WithLabelValues(procedure, string(code)).Inc()
	m.duration.WithLabelValues(procedure).Observe(elapsed.Seconds())
}
