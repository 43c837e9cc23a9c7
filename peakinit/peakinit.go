// Package peakinit detects candidate parametric-EQ peaks in an
// equalization curve and reduces them to a target count, seeding the
// biquad optimizer.
package peakinit

import (
	"math"
	"sort"

	"github.com/cwbudde/algo-eqfit/grid"
	"github.com/cwbudde/algo-eqfit/smooth"
)

const (
	smoothOctaves    = 1.0 / 7
	smoothIterations = 1000

	initialPruneDB  = 0.1
	reprune1DB      = 0.2
	reprune2DB      = 0.33
	mergeRMSLimitDB = 0.3

	subBassLowFHz  = 20
	subBassMidFHz  = 60
	subBassHighHz  = 80
	subBassMidOnly = 40
)

// Candidate is a seed peak: a frequency and an initial gain, to be handed
// to the biquad optimizer as a starting point.
type Candidate struct {
	Fc   float64
	Gain float64
}

// Initialize detects peaks in equalization (sampled at freqs), applies
// sub-bass seeding, and — if maxFilters > 0 — reduces the candidate set to
// at most maxFilters entries via pruning and pairwise merging.
func Initialize(freqs, equalization []float64, maxFilters int) ([]Candidate, error) {
	smoothed := smooth.RunSingleBand(freqs, equalization, smoothOctaves, smoothIterations)

	idx := unionSorted(
		localMaxima(clipPositive(smoothed)),
		localMaxima(clipNegative(smoothed)),
	)

	candidates := pruneByThreshold(freqs, smoothed, idx, initialPruneDB)
	candidates = seedSubBass(freqs, smoothed, candidates)

	if maxFilters <= 0 || len(candidates) <= maxFilters {
		return candidates, nil
	}

	candidates = repruneToFit(freqs, smoothed, candidates, maxFilters)
	candidates = mergeToFit(freqs, smoothed, candidates, maxFilters)
	if len(candidates) > maxFilters {
		candidates = keepLargestGain(candidates, maxFilters)
	}
	return candidates, nil
}

func clipPositive(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		if v > 0 {
			out[i] = v
		}
	}
	return out
}

func clipNegative(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		if v < 0 {
			out[i] = -v
		}
	}
	return out
}

// localMaxima returns interior indices where x is strictly greater than
// both neighbours and positive.
func localMaxima(x []float64) []int {
	var idx []int
	for i := 1; i < len(x)-1; i++ {
		if x[i] > x[i-1] && x[i] > x[i+1] && x[i] > 0 {
			idx = append(idx, i)
		}
	}
	return idx
}

func unionSorted(a, b []int) []int {
	seen := make(map[int]struct{}, len(a)+len(b))
	for _, i := range a {
		seen[i] = struct{}{}
	}
	for _, i := range b {
		seen[i] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for i := range seen {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

func pruneByThreshold(freqs, smoothed []float64, idx []int, thresholdDB float64) []Candidate {
	var out []Candidate
	for _, i := range idx {
		if math.Abs(smoothed[i]) > thresholdDB {
			out = append(out, Candidate{Fc: freqs[i], Gain: smoothed[i]})
		}
	}
	return out
}

// seedSubBass prepends fixed low-frequency candidates when the lowest
// detected candidate sits well above the sub-bass region.
func seedSubBass(freqs, smoothed []float64, candidates []Candidate) []Candidate {
	if len(candidates) == 0 {
		return candidates
	}
	lowest := candidates[0].Fc
	for _, c := range candidates {
		if c.Fc < lowest {
			lowest = c.Fc
		}
	}

	valueAt := func(f float64) float64 {
		it, err := grid.NewInterpolator(freqs, smoothed, 1)
		if err != nil {
			return 0
		}
		return it.Eval(f)
	}

	var seeds []Candidate
	switch {
	case lowest > subBassHighHz:
		seeds = []Candidate{
			{Fc: subBassLowFHz, Gain: valueAt(subBassLowFHz)},
			{Fc: subBassMidFHz, Gain: valueAt(subBassMidFHz)},
		}
	case lowest > subBassMidOnly:
		seeds = []Candidate{
			{Fc: subBassLowFHz, Gain: valueAt(subBassLowFHz)},
		}
	}
	if len(seeds) == 0 {
		return candidates
	}
	return append(seeds, candidates...)
}

func repruneToFit(freqs, smoothed []float64, candidates []Candidate, maxFilters int) []Candidate {
	if len(candidates) <= maxFilters {
		return candidates
	}
	pruned := repruneCandidates(candidates, reprune1DB)
	if len(pruned) <= maxFilters {
		return pruned
	}
	pruned = repruneCandidates(candidates, reprune2DB)
	return pruned
}

func repruneCandidates(candidates []Candidate, thresholdDB float64) []Candidate {
	var out []Candidate
	for _, c := range candidates {
		if math.Abs(c.Gain) > thresholdDB {
			out = append(out, c)
		}
	}
	return out
}

// mergeToFit repeatedly merges the adjacent same-sign pair whose
// linear-in-log interpolation error against smoothed has the smallest RMS,
// provided that RMS is below mergeRMSLimitDB, until the candidate count
// fits maxFilters or no qualifying pair remains.
func mergeToFit(freqs, smoothed []float64, candidates []Candidate, maxFilters int) []Candidate {
	for len(candidates) > maxFilters {
		bestI, bestRMS := -1, math.Inf(1)
		for i := 0; i < len(candidates)-1; i++ {
			a, b := candidates[i], candidates[i+1]
			if sign(a.Gain) != sign(b.Gain) {
				continue
			}
			rms := mergeRMS(freqs, smoothed, a, b)
			if rms < bestRMS {
				bestRMS, bestI = rms, i
			}
		}
		if bestI < 0 || bestRMS >= mergeRMSLimitDB {
			break
		}

		merged := mergeCandidates(freqs, candidates[bestI], candidates[bestI+1])
		next := make([]Candidate, 0, len(candidates)-1)
		next = append(next, candidates[:bestI]...)
		next = append(next, merged)
		next = append(next, candidates[bestI+2:]...)
		candidates = next
	}
	return candidates
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// mergeRMS computes the RMS error between smoothed and the linear-in-log
// interpolation between a and b, evaluated at every grid point spanning
// [a.Fc, b.Fc].
func mergeRMS(freqs, smoothed []float64, a, b Candidate) float64 {
	lo, hi := nearestIndex(freqs, a.Fc), nearestIndex(freqs, b.Fc)
	if lo > hi {
		lo, hi = hi, lo
	}
	if lo == hi {
		return 0
	}

	logLo, logHi := math.Log10(a.Fc), math.Log10(b.Fc)
	sum, n := 0.0, 0
	for i := lo; i <= hi; i++ {
		t := (math.Log10(freqs[i]) - logLo) / (logHi - logLo)
		interp := a.Gain + t*(b.Gain-a.Gain)
		d := interp - smoothed[i]
		sum += d * d
		n++
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(n))
}

// mergeCandidates combines a and b into one filter at the geometric mean of
// their center frequencies (snapped to the nearest grid frequency) and the
// arithmetic mean of their gains.
func mergeCandidates(freqs []float64, a, b Candidate) Candidate {
	fc := math.Sqrt(a.Fc * b.Fc)
	idx := nearestIndex(freqs, fc)
	return Candidate{Fc: freqs[idx], Gain: (a.Gain + b.Gain) / 2}
}

func nearestIndex(freqs []float64, f float64) int {
	best, bestDiff := 0, math.Inf(1)
	for i, v := range freqs {
		if d := math.Abs(v - f); d < bestDiff {
			best, bestDiff = i, d
		}
	}
	return best
}

func keepLargestGain(candidates []Candidate, maxFilters int) []Candidate {
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool {
		return math.Abs(sorted[i].Gain) > math.Abs(sorted[j].Gain)
	})
	kept := sorted[:maxFilters]
	sort.Slice(kept, func(i, j int) bool { return kept[i].Fc < kept[j].Fc })
	return kept
}
