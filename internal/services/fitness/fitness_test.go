package fitness

import (
	"errors"
	"math"
	"testing"
	"time"

	"ARMTS/internal/domain/models"
	"ARMTS/internal/services/encoding"
	"ARMTS/internal/services/evaluation"
	"ARMTS/internal/services/store"
)

type recorded struct {
	rule       *models.Rule
	fitness    float64
	start, end time.Time
}

type fakeRecorder struct{ calls []recorded }

func (f *fakeRecorder) Record(rule *models.Rule, _ models.MetricResult, fitness float64, start, end time.Time) (models.ArchiveEntry, bool) {
	f.calls = append(f.calls, recorded{rule, fitness, start, end})
	return models.ArchiveEntry{}, true
}

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*encoding.Decoder, *evaluation.Evaluator) {
	t.Helper()
	md, err := models.NewMetadata([]models.Feature{
		{Name: "A", Kind: models.KindNumerical, Min: 0, Max: 10},
		{Name: "B", Kind: models.KindNumerical, Min: 0, Max: 10},
	})
	if err != nil {
		t.Fatal(err)
	}
	rows := make([]models.Transaction, 10)
	for i := range rows {
		rows[i] = models.Transaction{Timestamp: t0.Add(time.Duration(i) * time.Hour), Values: []float64{float64(i), float64(9 - i)}}
	}
	st, err := store.New(rows)
	if err != nil {
		t.Fatal(err)
	}
	return encoding.NewDecoder(md, encoding.DefaultConfig()), evaluation.New(md, st)
}

// vector for A,B: A[0..2] B[3..5] perm[6,7] split 8 interval 9
func vector(selA, selB float64) []float64 {
	return []float64{0, 0.5, selA, 0, 1, selB, 0.9, 0.1, 0, 0}
}

func TestCombine(t *testing.T) {
	m := models.MetricResult{Support: 0.4, Confidence: 0.8, Inclusion: 1, Amplitude: 0.5}
	tests := []struct {
		w    Weights
		want float64
	}{
		{DefaultWeights(), (0.4 + 0.8 + 1 + 0.5) / 4},
		{Weights{Alpha: 1}, 0.4},
		{Weights{Beta: 2}, 0.8},
		{Weights{Delta: 1}, 0.5},
		{Weights{Alpha: 1, Gamma: 3}, (0.4 + 3) / 4},
	}
	for _, tt := range tests {
		if got := Combine(m, tt.w); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("Combine(%+v) = %v, want %v", tt.w, got, tt.want)
		}
	}
}

func TestWeightsValidate(t *testing.T) {
	bad := []Weights{
		{},
		{Alpha: -1, Beta: 2},
		{Alpha: math.NaN()},
		{Alpha: math.Inf(1)},
	}
	for _, w := range bad {
		err := w.Validate()
		if !errors.Is(err, ErrConfiguration) {
			t.Errorf("%+v: err = %v", w, err)
		}
	}
	if err := (Weights{Gamma: 0.1}).Validate(); err != nil {
		t.Errorf("single positive weight rejected: %v", err)
	}
}

func TestNewRejectsConfiguration(t *testing.T) {
	dec, ev := setup(t)
	if _, err := New(dec, ev, Weights{}, models.IntervalFixed); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("zero weights: %v", err)
	}
	if _, err := New(dec, ev, DefaultWeights(), "weekly"); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("bad mode: %v", err)
	}
	if _, err := New(dec, ev, DefaultWeights(), models.IntervalFixed, WithEmptyFitness(0.1)); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("positive sentinel: %v", err)
	}
}

func TestEvaluateRule(t *testing.T) {
	dec, ev := setup(t)
	rec := &fakeRecorder{}
	fn, err := New(dec, ev, DefaultWeights(), models.IntervalFixed, WithRecorder(rec))
	if err != nil {
		t.Fatal(err)
	}
	if fn.Dimension() != 10 {
		t.Fatalf("dimension = %d", fn.Dimension())
	}

	res, err := fn.Score(vector(0.9, 0.9))
	if err != nil {
		t.Fatal(err)
	}
	if res.Empty() {
		t.Fatalf("expected a rule")
	}
	// A in [0,5] matches rows 0..5; B in [0,10] always: support 0.6, confidence 1,
	// inclusion 1, amplitude (0.5+1)/2
	want := (0.6 + 1 + 1 + (1 - 0.75)) / 4
	if math.Abs(res.Fitness-want) > 1e-9 {
		t.Fatalf("fitness = %v, want %v (%+v)", res.Fitness, want, res.Metrics)
	}
	if len(rec.calls) != 1 || rec.calls[0].fitness != res.Fitness {
		t.Fatalf("recorder calls = %+v", rec.calls)
	}
	if !rec.calls[0].start.Equal(t0) || !rec.calls[0].end.Equal(t0.Add(9*time.Hour)) {
		t.Fatalf("scope = %v..%v", rec.calls[0].start, rec.calls[0].end)
	}
}

func TestEvaluateEmptySentinel(t *testing.T) {
	dec, ev := setup(t)
	for _, sentinel := range []float64{0, -1} {
		rec := &fakeRecorder{}
		fn, err := New(dec, ev, DefaultWeights(), models.IntervalFixed, WithEmptyFitness(sentinel), WithRecorder(rec))
		if err != nil {
			t.Fatal(err)
		}
		got, err := fn.Evaluate(vector(0.1, 0.2))
		if err != nil {
			t.Fatalf("empty decode raised: %v", err)
		}
		if got != sentinel {
			t.Fatalf("fitness = %v, want sentinel %v", got, sentinel)
		}
		if len(rec.calls) != 0 {
			t.Fatalf("empty rule was recorded")
		}
	}
}

func TestEvaluateInvalidVector(t *testing.T) {
	dec, ev := setup(t)
	fn, err := New(dec, ev, DefaultWeights(), models.IntervalFixed)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fn.Evaluate([]float64{0.5}); !errors.Is(err, encoding.ErrInvalidEncoding) {
		t.Fatalf("err = %v", err)
	}
	v := vector(0.9, 0.9)
	v[3] = 2
	if _, err := fn.Evaluate(v); !errors.Is(err, encoding.ErrInvalidEncoding) {
		t.Fatalf("err = %v", err)
	}
}
