package biquadopt

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-eqfit/grid"
)

func testFreqs() []float64 {
	return grid.Generate(grid.DefaultFMin, grid.DefaultFMax, grid.DefaultStep)
}

func TestMagnitudeZeroGainIsFlat(t *testing.T) {
	f := Filter{Fc: 1000, Q: 1, GainDB: 0}
	for _, freq := range []float64{100, 1000, 5000} {
		if d := math.Abs(f.MagnitudeDB(freq, DefaultSampleRate)); d > 1e-6 {
			t.Fatalf("zero-gain filter magnitude at %v Hz = %v dB, want ~0", freq, d)
		}
	}
}

func TestMagnitudePeaksAtCenterFrequency(t *testing.T) {
	f := Filter{Fc: 1000, Q: 2, GainDB: 6}
	atFc := f.MagnitudeDB(1000, DefaultSampleRate)
	if d := atFc - 6; d < -0.05 || d > 0.05 {
		t.Fatalf("magnitude at fc = %v, want ~6 dB", atFc)
	}
	away := f.MagnitudeDB(100, DefaultSampleRate)
	if away >= atFc {
		t.Fatalf("magnitude away from fc (%v) should be less than at fc (%v)", away, atFc)
	}
}

// S5 — optimizer convergence: a synthetic target equal to the response of
// three known peaking biquads, fit with max_filters = 5, should achieve
// RMSE < 0.5 dB within budget.
func TestFitConvergesOnSyntheticTarget(t *testing.T) {
	freqs := testFreqs()
	truth := []Filter{
		{Fc: 200, Q: 1.2, GainDB: 4},
		{Fc: 1500, Q: 2.0, GainDB: -3},
		{Fc: 6000, Q: 0.9, GainDB: 5},
	}
	target := CascadeCurve(truth, freqs, DefaultSampleRate)

	initial := []Filter{
		{Fc: 180, Q: 1, GainDB: 3},
		{Fc: 1400, Q: 1, GainDB: -2},
		{Fc: 5800, Q: 1, GainDB: 4},
		{Fc: 400, Q: 1, GainDB: 0.2},
		{Fc: 9000, Q: 1, GainDB: 0.2},
	}

	result, err := Fit(freqs, target, initial, DefaultSampleRate)
	if err != nil {
		t.Fatal(err)
	}
	if result.RMSE >= 0.5 {
		t.Fatalf("RMSE = %v, want < 0.5 dB", result.RMSE)
	}
}

// Invariant 10: post-prune filters satisfy |gain| > 0.1 dB and Q > 0.
func TestFitPostProcessingInvariants(t *testing.T) {
	freqs := testFreqs()
	truth := []Filter{{Fc: 1000, Q: 1.5, GainDB: 5}}
	target := CascadeCurve(truth, freqs, DefaultSampleRate)

	initial := []Filter{
		{Fc: 1000, Q: 1, GainDB: 4},
		{Fc: 300, Q: 1, GainDB: 0.01}, // expected to be dropped
	}
	result, err := Fit(freqs, target, initial, DefaultSampleRate)
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range result.Filters {
		if math.Abs(f.GainDB) <= 0.1 {
			t.Fatalf("filter %+v has |gain| <= 0.1 dB, should have been dropped", f)
		}
		if f.Q <= 0 {
			t.Fatalf("filter %+v has Q <= 0", f)
		}
	}
}

func TestFitRejectsLengthMismatch(t *testing.T) {
	if _, err := Fit([]float64{20, 100}, []float64{0}, []Filter{{Fc: 100, Q: 1, GainDB: 1}}, DefaultSampleRate); err == nil {
		t.Fatal("expected length mismatch error")
	}
}

func TestFitWithNoFiltersReturnsZeroCurve(t *testing.T) {
	freqs := testFreqs()
	target := make([]float64, len(freqs))
	result, err := Fit(freqs, target, nil, DefaultSampleRate)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Filters) != 0 {
		t.Fatalf("got %d filters, want 0", len(result.Filters))
	}
	if result.RMSE != 0 {
		t.Fatalf("RMSE = %v, want 0", result.RMSE)
	}
}

func TestVerifyCascadeSpectrumMatchesAnalytic(t *testing.T) {
	filters := []Filter{{Fc: 1000, Q: 1.5, GainDB: 6}}
	maxDiff, err := VerifyCascadeSpectrum(filters, DefaultSampleRate, 8192)
	if err != nil {
		t.Fatal(err)
	}
	if maxDiff > 1.0 {
		t.Fatalf("FFT-vs-analytic max discrepancy = %v dB, want < 1.0", maxDiff)
	}
}
