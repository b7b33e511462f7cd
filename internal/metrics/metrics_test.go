package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Finalized(TriggerDeadline)
	m.Finalized(TriggerOwner)
	m.Finalized(TriggerOwner)
	m.Voted("DATE")
	m.ObserveRPC("/hangout.v1.EventService/CastVote", "ok", 0.01)

	if got := testutil.ToFloat64(m.Finalizations.WithLabelValues(TriggerOwner)); got != 2 {
		t.Errorf("owner finalizations = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Votes.WithLabelValues("DATE")); got != 1 {
		t.Errorf("date votes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.RPCRequests.WithLabelValues("/hangout.v1.EventService/CastVote", "ok")); got != 1 {
		t.Errorf("rpc requests = %v, want 1", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Finalized(TriggerOwner)
	m.Voted("LOCATION")
	m.EventCreated()
	m.ReminderSent("h1")
	m.NotifierFailed()
	m.ObserveRPC("x", "ok", 1)
}

func TestNewRegistry(t *testing.T) {
	reg, m := NewRegistry()
	m.EventCreated()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "hangout_events_created_total" {
			found = true
		}
	}
	if !found {
		t.Error("hangout_events_created_total not gathered")
	}
}
