// Package sigmoid implements the logistic crossover used throughout the
// equalization pipeline to blend "normal" and "treble" parameters across a
// frequency transition band.
package sigmoid

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-eqfit/internal/fastmath"
)

// ErrInvalidBand is returned when the upper bound of a transition band is
// not strictly greater than the lower bound.
var ErrInvalidBand = errors.New("sigmoid: upper bound must be greater than lower bound")

// Crossover blends aLo and aHi across the transition band [fLower, fUpper]
// using a logistic function centered at the geometric mean of the band.
//
// At(fLower) is close to aLo and At(fUpper) is close to aHi; the transition
// is centered (in log10 space) at sqrt(fUpper/fLower)*fLower with a slope
// scaled to a quarter of the band's upper half-range.
type Crossover struct {
	logCenter float64
	halfRange float64
	aLo, aHi  float64
}

// New builds a Crossover for the transition band [fLower, fUpper] with
// endpoint values aLo (at fLower) and aHi (at fUpper).
func New(fLower, fUpper, aLo, aHi float64) (Crossover, error) {
	if fUpper <= fLower {
		return Crossover{}, fmt.Errorf("%w: lower=%v upper=%v", ErrInvalidBand, fLower, fUpper)
	}

	fCenter := math.Sqrt(fUpper/fLower) * fLower
	logCenter := math.Log10(fCenter)
	halfRange := math.Log10(fUpper) - logCenter

	return Crossover{
		logCenter: logCenter,
		halfRange: halfRange,
		aLo:       aLo,
		aHi:       aHi,
	}, nil
}

// Weight returns k(f) in [0,1], the treble-ward blend weight at frequency f.
func (c Crossover) Weight(f float64) float64 {
	x := (math.Log10(f) - c.logCenter) / (c.halfRange / 4)
	return logistic(x)
}

// At evaluates the blended curve a_lo + k(f)*(a_hi-a_lo) at frequency f.
func (c Crossover) At(f float64) float64 {
	k := c.Weight(f)
	return c.aLo + k*(c.aHi-c.aLo)
}

// Curve evaluates At for every frequency in freqs.
func (c Crossover) Curve(freqs []float64) []float64 {
	out := make([]float64, len(freqs))
	for i, f := range freqs {
		out[i] = c.At(f)
	}
	return out
}

// logistic computes the standard logistic function 1/(1+e^-x).
func logistic(x float64) float64 {
	return 1 / (1 + fastmath.Exp(-x))
}
