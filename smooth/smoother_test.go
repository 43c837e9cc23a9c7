package smooth

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-eqfit/grid"
)

func testFreqs() []float64 {
	return grid.Generate(grid.DefaultFMin, grid.DefaultFMax, grid.DefaultStep)
}

func TestSmoothenRejectsNaN(t *testing.T) {
	freqs := testFreqs()
	s, err := New(freqs, DefaultConfig)
	if err != nil {
		t.Fatal(err)
	}
	x := make([]float64, len(freqs))
	x[len(x)/2] = math.NaN()
	if _, err := s.Smoothen(x); err == nil {
		t.Fatal("expected error for NaN input")
	}
}

func TestSmoothenPreservesLength(t *testing.T) {
	freqs := testFreqs()
	s, err := New(freqs, DefaultConfig)
	if err != nil {
		t.Fatal(err)
	}
	x := make([]float64, len(freqs))
	for i := range x {
		x[i] = math.Sin(float64(i))
	}
	out, err := s.Smoothen(x)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != len(freqs) {
		t.Fatalf("len(out) = %d, want %d", len(out), len(freqs))
	}
}

func TestSmoothenConstantInputIsUnchanged(t *testing.T) {
	freqs := testFreqs()
	s, err := New(freqs, DefaultConfig)
	if err != nil {
		t.Fatal(err)
	}
	x := make([]float64, len(freqs))
	for i := range x {
		x[i] = 3.5
	}
	out, err := s.Smoothen(x)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range out {
		if diff := v - 3.5; diff < -1e-6 || diff > 1e-6 {
			t.Fatalf("index %d: got %v want 3.5", i, v)
		}
	}
}

func TestSmoothenSmoothsNoise(t *testing.T) {
	freqs := testFreqs()
	s, err := New(freqs, DefaultConfig)
	if err != nil {
		t.Fatal(err)
	}
	x := make([]float64, len(freqs))
	for i := range x {
		if i%2 == 0 {
			x[i] = 1
		} else {
			x[i] = -1
		}
	}
	out, err := s.Smoothen(x)
	if err != nil {
		t.Fatal(err)
	}

	rawVariance, smoothedVariance := 0.0, 0.0
	for i := 1; i < len(x); i++ {
		rawVariance += (x[i] - x[i-1]) * (x[i] - x[i-1])
		smoothedVariance += (out[i] - out[i-1]) * (out[i] - out[i-1])
	}
	if smoothedVariance >= rawVariance {
		t.Fatalf("smoothing did not reduce point-to-point variance: raw=%v smoothed=%v", rawVariance, smoothedVariance)
	}
}

func TestNewRejectsInvalidBand(t *testing.T) {
	freqs := testFreqs()
	cfg := DefaultConfig
	cfg.TrebleFLower = 10000
	cfg.TrebleFUpper = 100
	if _, err := New(freqs, cfg); err == nil {
		t.Fatal("expected error for inverted treble band")
	}
}
