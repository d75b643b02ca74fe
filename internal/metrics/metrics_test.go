package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewPipelineRegisters(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPipeline("ifcgeom", reg)

	p.ElementsProcessed.WithLabelValues("ok").Add(3)
	p.ElementsProcessed.WithLabelValues("process_failed").Inc()
	p.BatchesEmitted.WithLabelValues("simple").Inc()
	p.CSGOperations.Inc()
	p.VoidsSkipped.WithLabelValues("over_budget").Inc()

	if got := testutil.ToFloat64(p.ElementsProcessed.WithLabelValues("ok")); got != 3 {
		t.Errorf("elements ok = %g, want 3", got)
	}
	if got := testutil.ToFloat64(p.CSGOperations); got != 1 {
		t.Errorf("csg operations = %g, want 1", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	if len(families) == 0 {
		t.Error("no metric families registered")
	}
}

func TestNopDoesNotPanic(t *testing.T) {
	p := Nop()
	p.ElementsProcessed.WithLabelValues("ok").Inc()
	p.VoidsCut.Inc()
}
