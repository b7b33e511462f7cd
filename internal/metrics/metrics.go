// Package metrics defines the Prometheus collectors exported by the server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Finalization triggers.
const (
	TriggerDeadline = "deadline"
	TriggerOwner    = "owner"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	RPCRequests      *prometheus.CounterVec
	RPCDuration      *prometheus.HistogramVec
	Finalizations    *prometheus.CounterVec
	Votes            *prometheus.CounterVec
	EventsCreated    prometheus.Counter
	RemindersSent    *prometheus.CounterVec
	NotifierFailures prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RPCRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hangout",
			Name:      "rpc_requests_total",
			Help:      "RPC calls by procedure and result code.",
		}, []string{"procedure", "code"}),
		RPCDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hangout",
			Name:      "rpc_duration_seconds",
			Help:      "RPC handling latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure"}),
		Finalizations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hangout",
			Name:      "event_finalizations_total",
			Help:      "POLLING to FINAL transitions by trigger.",
		}, []string{"trigger"}),
		Votes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hangout",
			Name:      "votes_total",
			Help:      "Accepted votes by category.",
		}, []string{"category"}),
		EventsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hangout",
			Name:      "events_created_total",
			Help:      "Events created.",
		}),
		RemindersSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hangout",
			Name:      "reminders_sent_total",
			Help:      "Reminder emails sent by kind (h3, h1).",
		}, []string{"kind"}),
		NotifierFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hangout",
			Name:      "notifier_failures_total",
			Help:      "Failed outbound notifications (email or chat).",
		}),
	}
	reg.MustRegister(
		m.RPCRequests, m.RPCDuration, m.Finalizations, m.Votes,
		m.EventsCreated, m.RemindersSent, m.NotifierFailures,
	)
	return m
}

// NewRegistry returns a registry with the Go runtime and process collectors
// plus the server collectors.
func NewRegistry() (*prometheus.Registry, *Metrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, New(reg)
}

func (m *Metrics) Finalized(trigger string) {
	if m == nil {
		return
	}
	m.Finalizations.WithLabelValues(trigger).Inc()
}

func (m *Metrics) Voted(category string) {
	if m == nil {
		return
	}
	m.Votes.WithLabelValues(category).Inc()
}

func (m *Metrics) EventCreated() {
	if m == nil {
		return
	}
	m.EventsCreated.Inc()
}

func (m *Metrics) ReminderSent(kind string) {
	if m == nil {
		return
	}
	m.RemindersSent.WithLabelValues(kind).Inc()
}

func (m *Metrics) NotifierFailed() {
	if m == nil {
		return
	}
	m.NotifierFailures.Inc()
}

// ObserveRPC records one finished call.
func (m *Metrics) ObserveRPC(procedure, code string, seconds float64) {
	if m == nil {
		return
	}
	m.RPCRequests.WithLabelValues(procedure, code).Inc()
	m.RPCDuration.WithLabelValues(procedure).Observe(seconds)
}
