package peakinit

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-eqfit/grid"
)

func testFreqs() []float64 {
	return grid.Generate(grid.DefaultFMin, grid.DefaultFMax, grid.DefaultStep)
}

func gaussianBump(freqs []float64, fc, gain, widthOctaves float64) []float64 {
	out := make([]float64, len(freqs))
	logFc := math.Log10(fc)
	for i, f := range freqs {
		d := (math.Log10(f) - logFc) / (widthOctaves * math.Log10(2))
		out[i] = gain * math.Exp(-d*d)
	}
	return out
}

func addCurves(curves ...[]float64) []float64 {
	out := make([]float64, len(curves[0]))
	for _, c := range curves {
		for i, v := range c {
			out[i] += v
		}
	}
	return out
}

// S4 — peak initialization: a target with peaks at 120 Hz (+4 dB) and
// 3 kHz (-3 dB) and a lowest detected peak at 120 Hz should prepend
// candidates at 20 Hz and 60 Hz and return at least four candidates before
// reduction.
func TestInitializeSubBassSeeding(t *testing.T) {
	freqs := testFreqs()
	eq := addCurves(
		gaussianBump(freqs, 120, 4, 0.3),
		gaussianBump(freqs, 3000, -3, 0.3),
	)

	candidates, err := Initialize(freqs, eq, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) < 4 {
		t.Fatalf("got %d candidates, want >= 4", len(candidates))
	}
	if candidates[0].Fc != 20 {
		t.Fatalf("first candidate fc = %v, want 20 (sub-bass seed)", candidates[0].Fc)
	}
	if candidates[1].Fc != 60 {
		t.Fatalf("second candidate fc = %v, want 60 (sub-bass seed)", candidates[1].Fc)
	}
}

func TestInitializeReducesToMaxFilters(t *testing.T) {
	freqs := testFreqs()
	eq := addCurves(
		gaussianBump(freqs, 120, 4, 0.3),
		gaussianBump(freqs, 500, 2, 0.2),
		gaussianBump(freqs, 1200, -2, 0.2),
		gaussianBump(freqs, 3000, -3, 0.3),
		gaussianBump(freqs, 8000, 1.5, 0.2),
	)

	candidates, err := Initialize(freqs, eq, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) > 3 {
		t.Fatalf("got %d candidates, want <= 3", len(candidates))
	}
}

// Regression test: merging two distinct-gain candidates must average each
// candidate's own gain, never re-reading one candidate's gain for both
// sides of the pair.
func TestMergeCandidatesUsesBothDistinctGains(t *testing.T) {
	freqs := testFreqs()
	a := Candidate{Fc: 1000, Gain: 2.0}
	b := Candidate{Fc: 4000, Gain: 6.0}

	merged := mergeCandidates(freqs, a, b)

	wantGain := (a.Gain + b.Gain) / 2
	if diff := merged.Gain - wantGain; diff < -1e-9 || diff > 1e-9 {
		t.Fatalf("merged gain = %v, want %v (mean of %v and %v)", merged.Gain, wantGain, a.Gain, b.Gain)
	}
	if merged.Gain == a.Gain || merged.Gain == b.Gain {
		t.Fatalf("merged gain %v should differ from both inputs when they differ", merged.Gain)
	}

	wantFc := math.Sqrt(a.Fc * b.Fc)
	if diff := merged.Fc - wantFc; diff < -wantFc*0.02 || diff > wantFc*0.02 {
		t.Fatalf("merged fc = %v, want ~%v (geometric mean, grid-snapped)", merged.Fc, wantFc)
	}
}

func TestInitializeEmptyWhenFlat(t *testing.T) {
	freqs := testFreqs()
	eq := make([]float64, len(freqs))

	candidates, err := Initialize(freqs, eq, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 0 {
		t.Fatalf("got %d candidates for a flat curve, want 0", len(candidates))
	}
}
