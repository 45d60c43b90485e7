package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewWithRegistry(reg)

	r.RecordEvaluation("rule", 0.7)
	r.RecordEvaluation("rule", 0.2)
	r.RecordEvaluation("empty", 0)
	r.RecordArchiveSize(3)
	r.RecordBestFitness(0.7)
	r.RecordError("export")

	if got := testutil.ToFloat64(r.evaluations.WithLabelValues("rule")); got != 2 {
		t.Fatalf("rule evaluations = %v", got)
	}
	if got := testutil.ToFloat64(r.evaluations.WithLabelValues("empty")); got != 1 {
		t.Fatalf("empty evaluations = %v", got)
	}
	if got := testutil.ToFloat64(r.archiveSize); got != 3 {
		t.Fatalf("archive size = %v", got)
	}
	if got := testutil.ToFloat64(r.bestFitness); got != 0.7 {
		t.Fatalf("best = %v", got)
	}
	if n := testutil.CollectAndCount(r.fitness); n != 1 {
		t.Fatalf("fitness histogram collected %d series", n)
	}
}

func TestRegistriesAreIndependent(t *testing.T) {
	_ = NewWithRegistry(prometheus.NewRegistry())
	_ = NewWithRegistry(prometheus.NewRegistry())
}
