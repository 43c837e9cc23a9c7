// Package gaincurve derives an equalization (gain) curve from an error
// signal, applying sigmoid-weighted max-gain/gain-k policies across a
// treble transition band, clipping against the max-gain envelope, and
// smoothing the resulting clipping kinks with a quadratic spline.
package gaincurve

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-eqfit/grid"
	"github.com/cwbudde/algo-eqfit/sigmoid"
)

// ErrLengthMismatch is returned when freqs and the error curve disagree in
// length.
var ErrLengthMismatch = errors.New("gaincurve: frequency/value slice length mismatch")

// kinkWindowOctaves is the width, in octaves, of the region marked doomed
// around each clipping kink before respline.
const kinkWindowOctaves = 1.0 / 12

// Config holds the max-gain and gain-k sigmoid parameters.
type Config struct {
	MaxGainDB       float64
	TrebleMaxGainDB float64
	TrebleGainK     float64
	TrebleFLower    float64
	TrebleFUpper    float64

	// SmoothKinks enables the clipping-kink respline pass.
	SmoothKinks bool
}

// Builder derives equalization curves for a fixed frequency grid.
type Builder struct {
	cfg        Config
	maxGainCrv sigmoid.Crossover
	gainKCrv   sigmoid.Crossover
}

// New constructs a Builder for the given configuration.
func New(cfg Config) (*Builder, error) {
	maxGainCrv, err := sigmoid.New(cfg.TrebleFLower, cfg.TrebleFUpper, cfg.MaxGainDB, cfg.TrebleMaxGainDB)
	if err != nil {
		return nil, err
	}
	gainKCrv, err := sigmoid.New(cfg.TrebleFLower, cfg.TrebleFUpper, 1.0, cfg.TrebleGainK)
	if err != nil {
		return nil, err
	}
	return &Builder{cfg: cfg, maxGainCrv: maxGainCrv, gainKCrv: gainKCrv}, nil
}

// MaxGain returns the per-frequency max-gain envelope.
func (b *Builder) MaxGain(freqs []float64) []float64 {
	return b.maxGainCrv.Curve(freqs)
}

// Result holds the equalization curve and its derived products.
type Result struct {
	Equalization      []float64
	EqualizedRaw      []float64
	EqualizedSmoothed []float64
}

// Build derives the equalization curve from errorSmoothed (or error,
// if unsmoothed), clips it to the max-gain envelope, optionally smooths
// clipping kinks, and computes equalized_raw (always) and
// equalized_smoothed (only if smoothed is non-nil).
func (b *Builder) Build(freqs, errorCurve, raw, smoothed []float64) (Result, error) {
	n := len(freqs)
	if len(errorCurve) != n {
		return Result{}, fmt.Errorf("%w: freqs=%d error=%d", ErrLengthMismatch, n, len(errorCurve))
	}
	if len(raw) != n {
		return Result{}, fmt.Errorf("%w: freqs=%d raw=%d", ErrLengthMismatch, n, len(raw))
	}

	maxGain := b.maxGainCrv.Curve(freqs)
	gainK := b.gainKCrv.Curve(freqs)

	clipped := make([]float64, n)
	wasClipped := make([]bool, n)
	for i := range freqs {
		proposed := -errorCurve[i] * gainK[i]
		if proposed > maxGain[i] {
			clipped[i] = maxGain[i]
			wasClipped[i] = true
		} else {
			clipped[i] = proposed
		}
	}

	if b.cfg.SmoothKinks {
		clipped = smoothKinks(freqs, clipped, wasClipped)
		// The respline can overshoot the envelope between knots; the
		// clipping invariant still has to hold afterwards.
		for i := range clipped {
			if clipped[i] > maxGain[i] {
				clipped[i] = maxGain[i]
			}
		}
	}

	result := Result{Equalization: clipped}
	result.EqualizedRaw = addAligned(raw, clipped)
	if smoothed != nil {
		if len(smoothed) != n {
			return Result{}, fmt.Errorf("%w: freqs=%d smoothed=%d", ErrLengthMismatch, n, len(smoothed))
		}
		result.EqualizedSmoothed = addAligned(smoothed, clipped)
	}
	return result, nil
}

func addAligned(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] + b[i]
	}
	return out
}

// kinkIndices returns the indices where clipped transitions between clipped
// and unclipped relative to the previous sample. A transition at index 0 is
// discarded (there is no previous sample to compare against).
func kinkIndices(wasClipped []bool) []int {
	var kinks []int
	for i := 1; i < len(wasClipped); i++ {
		if wasClipped[i] != wasClipped[i-1] {
			kinks = append(kinks, i)
		}
	}
	return kinks
}

// smoothKinks marks a window around every clipping kink as doomed, then
// refits a quadratic spline in log10(frequency) over the surviving points
// and resamples it at every original frequency.
func smoothKinks(freqs, clipped []float64, wasClipped []bool) []float64 {
	n := len(freqs)
	kinks := kinkIndices(wasClipped)
	if len(kinks) == 0 {
		return clipped
	}

	window := grid.WindowSizeFromOctaves(freqs, kinkWindowOctaves)
	half := (window - 1) / 2

	doomed := make([]bool, n)
	for _, k := range kinks {
		lo := k - half
		if lo < 0 {
			lo = 0
		}
		hi := k + half
		if hi > n-1 {
			hi = n - 1
		}
		for i := lo; i <= hi; i++ {
			doomed[i] = true
		}
	}
	// Never doom the last two indices of the grid.
	if n >= 1 {
		doomed[n-1] = false
	}
	if n >= 2 {
		doomed[n-2] = false
	}

	var survivingFreqs, survivingValues []float64
	for i := 0; i < n; i++ {
		if !doomed[i] {
			survivingFreqs = append(survivingFreqs, freqs[i])
			survivingValues = append(survivingValues, clipped[i])
		}
	}
	if len(survivingFreqs) < 3 {
		return clipped
	}

	it, err := grid.NewInterpolator(survivingFreqs, survivingValues, 2)
	if err != nil {
		return clipped
	}
	return it.EvalAll(freqs)
}
