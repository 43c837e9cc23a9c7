// Package grid generates the canonical log-spaced frequency axis used to
// align every channel in a response.Buffer, and provides log-domain
// interpolation for resampling measurements onto that axis.
package grid

import (
	"math"
	"sort"
)

// Default bounds and step for the canonical grid: ~600 points spanning
// 20 Hz to 20 kHz.
const (
	DefaultFMin = 20.0
	DefaultFMax = 20000.0
	DefaultStep = 1.01

	// anchorHz is the frequency the grid always contains; generation walks
	// down from min(anchorHz, fMax) to fMin and up from the same point to
	// fMax, so the grid is symmetric in log space around it.
	anchorHz = 20000.0
)

// Generate produces a strictly increasing, integer-rounded frequency grid
// spanning [fMin, fMax] by geometric stepping anchored at 20 kHz: walking
// down from min(20000, fMax) to fMin and up from the same point to fMax,
// so the grid is symmetric in log space around the anchor.
func Generate(fMin, fMax, step float64) []float64 {
	if fMin <= 0 || fMax <= fMin || step <= 1 {
		return nil
	}

	seen := make(map[int]struct{})
	var out []int

	add := func(f float64) {
		r := int(math.Round(f))
		if _, ok := seen[r]; !ok {
			seen[r] = struct{}{}
			out = append(out, r)
		}
	}

	start := math.Min(anchorHz, fMax)

	for f := start; f > fMin; f /= step {
		add(f)
	}

	for f := start; f < fMax; f *= step {
		add(f)
	}

	sort.Ints(out)

	freqs := make([]float64, len(out))
	for i, v := range out {
		freqs[i] = float64(v)
	}
	return freqs
}

// AverageLogStep returns the geometric-mean ratio between consecutive grid
// points, used by window-size calculations (smooth, gaincurve).
func AverageLogStep(freqs []float64) float64 {
	if len(freqs) < 2 {
		return 1
	}

	// The product of consecutive ratios telescopes to last/first.
	n := len(freqs) - 1
	return math.Pow(freqs[n]/freqs[0], 1/float64(n))
}

// WindowSizeFromOctaves converts a window width given in octaves into an
// odd number of grid indices, using the grid's average geometric step.
func WindowSizeFromOctaves(freqs []float64, octaves float64) int {
	stepSize := AverageLogStep(freqs)
	k := math.Pow(2, octaves)
	w := math.Log(k) / math.Log(stepSize)
	n := int(math.Round(w))
	if n%2 == 0 {
		n++
	}
	if n < 1 {
		n = 1
	}
	return n
}
