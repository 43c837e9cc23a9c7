package biquadopt

import (
	"errors"
	"fmt"
	"math"
)

// ErrLengthMismatch is returned when freqs and target disagree in length.
var ErrLengthMismatch = errors.New("biquadopt: frequency/target slice length mismatch")

// Early-stop and budget parameters.
const (
	maxSteps          = 10000
	improveThreshold  = 0.01
	maxBadSteps       = 300
	targetLoss        = 0.1
	gainDropThreshold = 0.1
	minFc             = 1.0
	minQ              = 1e-3
)

// Result holds the optimizer's output: the post-processed filter list
// (negligible-gain filters dropped, Q made positive), the cascade response
// those filters produce, and the RMSE against target.
type Result struct {
	Filters      []Filter
	ParametricEQ []float64
	RMSE         float64
	Converged    bool
}

// Fit tunes len(initial) peaking biquads via Adam gradient descent to match
// target (sampled at freqs) at sample rate fs, seeded from initial.
func Fit(freqs, target []float64, initial []Filter, fs float64) (Result, error) {
	if len(freqs) != len(target) {
		return Result{}, fmt.Errorf("%w: freqs=%d target=%d", ErrLengthMismatch, len(freqs), len(target))
	}
	if len(initial) == 0 {
		return Result{
			ParametricEQ: make([]float64, len(freqs)),
			RMSE:         rmse(target, make([]float64, len(freqs))),
			Converged:    true,
		}, nil
	}

	filters := make([]Filter, len(initial))
	copy(filters, initial)
	for i := range filters {
		if filters[i].Q <= 0 {
			filters[i].Q = 1.0
		}
	}

	fcState := make([]adamState, len(filters))
	qState := make([]adamState, len(filters))
	gainState := make([]adamState, len(filters))

	best := make([]Filter, len(filters))
	copy(best, filters)
	bestLoss := math.Inf(1)
	badSteps := 0
	lr := initialLearningRate
	converged := false

	for step := 1; step <= maxSteps; step++ {
		cascade := CascadeCurve(filters, freqs, fs)
		residual := make([]float64, len(freqs))
		for i := range freqs {
			residual[i] = cascade[i] - target[i]
		}
		loss := meanSquare(residual)

		if loss < bestLoss {
			if bestLoss-loss > improveThreshold {
				badSteps = 0
			} else {
				badSteps++
			}
			bestLoss = loss
			copy(best, filters)
		} else {
			badSteps++
		}

		if bestLoss < targetLoss {
			converged = true
			break
		}
		if badSteps > maxBadSteps {
			break
		}

		n := float64(len(freqs))
		for i := range filters {
			dFc, dQ, dGain := filterGradient(filters[i], freqs, fs)

			var gFc, gQ, gGain float64
			for k := range freqs {
				gFc += 2 * residual[k] * dFc[k]
				gQ += 2 * residual[k] * dQ[k]
				gGain += 2 * residual[k] * dGain[k]
			}
			gFc /= n
			gQ /= n
			gGain /= n

			filters[i].Fc -= fcState[i].step(gFc, lr, step)
			filters[i].Q -= qState[i].step(gQ, lr, step)
			filters[i].GainDB -= gainState[i].step(gGain, lr, step)

			if filters[i].Fc < minFc {
				filters[i].Fc = minFc
			}
			if filters[i].Q < minQ {
				filters[i].Q = minQ
			}
		}

		lr *= learningRateDecay
	}

	cleaned := dropNegligible(best)
	curve := CascadeCurve(cleaned, freqs, fs)
	return Result{
		Filters:      cleaned,
		ParametricEQ: curve,
		RMSE:         rmse(curve, target),
		Converged:    converged,
	}, nil
}

// dropNegligible removes filters with |GainDB| <= gainDropThreshold and
// takes the absolute value of Q for the rest.
func dropNegligible(filters []Filter) []Filter {
	var out []Filter
	for _, f := range filters {
		if math.Abs(f.GainDB) <= gainDropThreshold {
			continue
		}
		f.Q = math.Abs(f.Q)
		out = append(out, f)
	}
	return out
}

func meanSquare(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range x {
		sum += v * v
	}
	return sum / float64(len(x))
}

func rmse(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		d := a[i] - b[i]
		sum += d * d
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(n))
}
