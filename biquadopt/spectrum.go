package biquadopt

import (
	"fmt"
	"math"
	"math/cmplx"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// ImpulseResponse renders the cascade's time-domain impulse response over n
// samples at sample rate fs, by direct-form-I simulation of each biquad in
// series.
func ImpulseResponse(filters []Filter, fs float64, n int) []float64 {
	x := make([]float64, n)
	if n > 0 {
		x[0] = 1
	}
	for _, f := range filters {
		x = applyBiquad(f, fs, x)
	}
	return x
}

func applyBiquad(f Filter, fs float64, x []float64) []float64 {
	b0, b1, b2, a1, a2 := f.coefficients(fs)

	out := make([]float64, len(x))
	var x1, x2, y1, y2 float64
	for i, xi := range x {
		yi := b0*xi + b1*x1 + b2*x2 - a1*y1 - a2*y2
		out[i] = yi
		x2, x1 = x1, xi
		y2, y1 = y1, yi
	}
	return out
}

// VerifyCascadeSpectrum cross-checks the cascade's analytic magnitude
// response (CascadeMagnitudeDB) against the FFT of its impulse response,
// returning the largest absolute discrepancy in dB across the checked
// bins. This is a diagnostic used by tests to validate the closed-form
// magnitude expression against an independent numeric method, not part of
// the optimizer's hot path.
func VerifyCascadeSpectrum(filters []Filter, fs float64, fftSize int) (float64, error) {
	impulse := ImpulseResponse(filters, fs, fftSize)

	in := make([]complex128, fftSize)
	for i, v := range impulse {
		in[i] = complex(v, 0)
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return 0, fmt.Errorf("biquadopt: building fft plan: %w", err)
	}

	out := make([]complex128, fftSize)
	if err := plan.Forward(out, in); err != nil {
		return 0, fmt.Errorf("biquadopt: fft forward: %w", err)
	}

	maxDiff := 0.0
	for k := 1; k < fftSize/2; k++ {
		freq := float64(k) * fs / float64(fftSize)
		fftMagDB := 20 * math.Log10(cmplx.Abs(out[k])+1e-30)
		analyticDB := CascadeMagnitudeDB(filters, freq, fs)
		if d := math.Abs(fftMagDB - analyticDB); d > maxDiff {
			maxDiff = d
		}
	}
	return maxDiff, nil
}
