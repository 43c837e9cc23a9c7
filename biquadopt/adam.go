package biquadopt

import "math"

// Adam hyperparameters: initial learning rate 0.5, multiplicative decay
// 0.9995 per step, standard beta/epsilon defaults.
const (
	initialLearningRate = 0.5
	learningRateDecay   = 0.9995
	adamBeta1           = 0.9
	adamBeta2           = 0.999
	adamEpsilon         = 1e-8
)

// adamState holds the first/second moment estimates for one scalar
// parameter. Each Filter's (Fc, Q, GainDB) gets its own adamState; every
// piece of optimizer state is allocated inside one Fit call and nothing
// survives it, so concurrent Fit calls never share anything.
type adamState struct {
	m, v float64
}

// step returns the parameter update (to be subtracted from the current
// value) for the given gradient at 1-indexed iteration t.
func (s *adamState) step(grad, lr float64, t int) float64 {
	s.m = adamBeta1*s.m + (1-adamBeta1)*grad
	s.v = adamBeta2*s.v + (1-adamBeta2)*grad*grad

	mHat := s.m / (1 - math.Pow(adamBeta1, float64(t)))
	vHat := s.v / (1 - math.Pow(adamBeta2, float64(t)))

	return lr * mHat / (math.Sqrt(vHat) + adamEpsilon)
}
