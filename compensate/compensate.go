// Package compensate builds a target equalization curve from a
// compensation measurement plus bass-boost and tilt tone shaping, and
// supports standalone centering and calibration.
package compensate

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-eqfit/grid"
	"github.com/cwbudde/algo-eqfit/sigmoid"
	"github.com/cwbudde/algo-eqfit/smooth"
)

const (
	// centerAnchorHz is the reference frequency the center operation
	// subtracts.
	centerAnchorHz = 1000.0

	// tiltAnchorHz is the tilt curve's pivot frequency,
	// fMin*sqrt(fMax/fMin) = 20*sqrt(1000) ~= 632.5 Hz. Deliberately NOT
	// the same anchor as centerAnchorHz: tilt pivots near 632 Hz while
	// centering pivots at 1 kHz.
	tiltAnchorHz = 20 * tiltAnchorRootFactor

	tiltAnchorRootFactor = 31.622776601683793 // sqrt(1000)

	compSmoothOctaves    = 1.0 / 5
	compSmoothIterations = 100

	bassBoostFLower = 60.0
	bassBoostFUpper = 200.0
)

// ErrLengthMismatch is returned when two curves sampled on the same grid do
// not have the same length.
var ErrLengthMismatch = errors.New("compensate: frequency/value slice length mismatch")

// ValueAt returns the order-1 (linear-in-log10) interpolated value of
// values (sampled at freqs) at frequency f.
func ValueAt(freqs, values []float64, f float64) (float64, error) {
	it, err := grid.NewInterpolator(freqs, values, 1)
	if err != nil {
		return 0, err
	}
	return it.Eval(f), nil
}

// Center subtracts the interpolated value at 1 kHz from x.
func Center(freqs, x []float64) ([]float64, error) {
	v, err := ValueAt(freqs, x, centerAnchorHz)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(x))
	for i, y := range x {
		out[i] = y - v
	}
	return out, nil
}

// Calibrate subtracts a calibration measurement from raw, elementwise.
func Calibrate(raw, calibration []float64) ([]float64, error) {
	if len(raw) != len(calibration) {
		return nil, fmt.Errorf("%w: raw=%d calibration=%d", ErrLengthMismatch, len(raw), len(calibration))
	}
	out := make([]float64, len(raw))
	for i := range raw {
		out[i] = raw[i] - calibration[i]
	}
	return out, nil
}

// BassBoostCurve returns sigmoid(60, 200, a_lo=bassBoostDB, a_hi=0) over freqs.
func BassBoostCurve(freqs []float64, bassBoostDB float64) ([]float64, error) {
	c, err := sigmoid.New(bassBoostFLower, bassBoostFUpper, bassBoostDB, 0)
	if err != nil {
		return nil, err
	}
	return c.Curve(freqs), nil
}

// TiltCurve returns log2(f/tiltAnchorHz)*tiltDBPerOctave over freqs.
func TiltCurve(freqs []float64, tiltDBPerOctave float64) []float64 {
	out := make([]float64, len(freqs))
	for i, f := range freqs {
		out[i] = math.Log2(f/tiltAnchorHz) * tiltDBPerOctave
	}
	return out
}

// Config holds the tone-shaping parameters applied on top of a compensation
// measurement to build a target curve.
type Config struct {
	BassBoostDB     float64
	TiltDBPerOctave float64
}

// Compensator builds target curves from compensation measurements.
type Compensator struct {
	cfg Config
}

// New builds a Compensator with the given tone-shaping configuration.
func New(cfg Config) *Compensator {
	return &Compensator{cfg: cfg}
}

// Target smooths compensationRaw aggressively (window 1/5 octave, 100
// iterations, single band), centers the result at 1 kHz, and adds the
// bass-boost and tilt curves.
func (c *Compensator) Target(freqs, compensationRaw []float64) ([]float64, error) {
	if len(freqs) != len(compensationRaw) {
		return nil, fmt.Errorf("%w: freqs=%d compensation=%d", ErrLengthMismatch, len(freqs), len(compensationRaw))
	}

	smoothed := smooth.RunSingleBand(freqs, compensationRaw, compSmoothOctaves, compSmoothIterations)

	centered, err := Center(freqs, smoothed)
	if err != nil {
		return nil, err
	}

	bassBoost, err := BassBoostCurve(freqs, c.cfg.BassBoostDB)
	if err != nil {
		return nil, err
	}
	tilt := TiltCurve(freqs, c.cfg.TiltDBPerOctave)

	target := make([]float64, len(freqs))
	for i := range target {
		target[i] = centered[i] + bassBoost[i] + tilt[i]
	}
	return target, nil
}

// Error returns raw - target, elementwise.
func Error(raw, target []float64) ([]float64, error) {
	if len(raw) != len(target) {
		return nil, fmt.Errorf("%w: raw=%d target=%d", ErrLengthMismatch, len(raw), len(target))
	}
	out := make([]float64, len(raw))
	for i := range raw {
		out[i] = raw[i] - target[i]
	}
	return out, nil
}
