package grid

import "testing"

func TestGenerateBounds(t *testing.T) {
	g := Generate(DefaultFMin, DefaultFMax, DefaultStep)
	if len(g) == 0 {
		t.Fatal("expected non-empty grid")
	}
	if g[0] != DefaultFMin {
		t.Fatalf("first element = %v, want %v", g[0], DefaultFMin)
	}
	if g[len(g)-1] != DefaultFMax {
		t.Fatalf("last element = %v, want %v", g[len(g)-1], DefaultFMax)
	}
	// 695 geometric steps span 20 Hz to 20 kHz at 1% each; integer rounding
	// collapses neighbours below ~100 Hz, leaving 613 distinct frequencies.
	if len(g) < 600 || len(g) > 620 {
		t.Fatalf("len(g) = %d, want between 600 and 620", len(g))
	}
}

func TestGenerateMonotonic(t *testing.T) {
	g := Generate(DefaultFMin, DefaultFMax, DefaultStep)
	for i := 1; i < len(g); i++ {
		if g[i] <= g[i-1] {
			t.Fatalf("grid not strictly increasing at %d: %v <= %v", i, g[i], g[i-1])
		}
	}
}

func TestInterpolateIdentityOnOwnGrid(t *testing.T) {
	freqs := []float64{20, 100, 1000, 10000, 20000}
	values := []float64{1, -2, 0.5, 3, -1}

	it, err := NewInterpolator(freqs, values, 1)
	if err != nil {
		t.Fatal(err)
	}
	got := it.EvalAll(freqs)
	for i := range values {
		if diff := got[i] - values[i]; diff < -1e-9 || diff > 1e-9 {
			t.Fatalf("index %d: got %v want %v", i, got[i], values[i])
		}
	}
}

func TestInterpolateLinearMidpoint(t *testing.T) {
	it, err := NewInterpolator([]float64{100, 10000}, []float64{0, 2}, 1)
	if err != nil {
		t.Fatal(err)
	}
	// log10(1000) is the midpoint between log10(100)=2 and log10(10000)=4.
	got := it.Eval(1000)
	if diff := got - 1.0; diff < -1e-9 || diff > 1e-9 {
		t.Fatalf("got %v want 1.0", got)
	}
}

func TestQuadraticSplineInterpolatesKnots(t *testing.T) {
	freqs := []float64{20, 100, 500, 2000, 10000}
	values := []float64{0, 2, -1, 3, 0}

	it, err := NewInterpolator(freqs, values, 2)
	if err != nil {
		t.Fatal(err)
	}
	got := it.EvalAll(freqs)
	for i := range values {
		if diff := got[i] - values[i]; diff < -1e-9 || diff > 1e-9 {
			t.Fatalf("index %d: got %v want %v", i, got[i], values[i])
		}
	}
}

func TestWindowSizeIsOdd(t *testing.T) {
	g := Generate(DefaultFMin, DefaultFMax, DefaultStep)
	for _, oct := range []float64{1.0 / 12, 1.0 / 7, 1.0 / 5, 1} {
		w := WindowSizeFromOctaves(g, oct)
		if w%2 == 0 {
			t.Fatalf("window size for %v octaves = %d, want odd", oct, w)
		}
		if w < 1 {
			t.Fatalf("window size for %v octaves = %d, want >= 1", oct, w)
		}
	}
}
