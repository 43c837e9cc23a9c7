//go:build fastmath

// Package fastmath provides the exponential used by sigmoid evaluation; the
// parametric EQ optimizer uses the standard library directly. Build with the
// "fastmath" tag to use approximated implementations; without the tag the
// standard library is used instead (see math.go).
package fastmath

import "github.com/meko-christian/algo-approx"

// Exp computes e^x using a fast approximation.
func Exp(x float64) float64 {
	return approx.FastExp(x)
}
