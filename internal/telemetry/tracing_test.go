package telemetry

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestSetupTracingDisabled(t *testing.T) {
	shutdown, err := SetupTracing(context.Background(), "")
	if err != nil {
		t.Fatalf("SetupTracing: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestRecordItemTransition(t *testing.T) {
	RecordItemTransition("SOLD")

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != ServiceName+"_item_transitions_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "to" && l.GetValue() == "SOLD" && m.GetCounter().GetValue() >= 1 {
					return
				}
			}
		}
	}
	t.Error("expected SOLD transition to be counted")
}
