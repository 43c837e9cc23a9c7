package biquadopt

// Central-difference step sizes for the three tunable parameters. fcEps is
// relative (a fraction of Fc); Q and gain use small absolute steps.
const (
	fcEpsRatio = 1e-4
	qEps       = 1e-4
	gainEpsDB  = 1e-4
)

// filterGradient returns the central-difference partial derivatives of
// filter f's own magnitude curve (evaluated at freqs) with respect to Fc,
// Q, and GainDB.
//
// Central differences have error O(eps^2), which is far below what Adam
// needs here, and avoid hand-deriving the phi form's chain rule through
// (w0, alpha, A, a0d) for three independent variables. The cascade
// magnitude is additive across filters, so the cascade's partial
// derivative with respect to one filter's parameters equals that filter's
// own partial derivative; the other filters never need re-evaluation.
func filterGradient(f Filter, freqs []float64, fs float64) (dFc, dQ, dGain []float64) {
	fcEps := f.Fc * fcEpsRatio
	if fcEps <= 0 {
		fcEps = 1e-6
	}

	dFc = centralDiffCurve(f, freqs, fs, fcEps, func(p *Filter, d float64) { p.Fc += d })
	dQ = centralDiffCurve(f, freqs, fs, qEps, func(p *Filter, d float64) { p.Q += d })
	dGain = centralDiffCurve(f, freqs, fs, gainEpsDB, func(p *Filter, d float64) { p.GainDB += d })
	return dFc, dQ, dGain
}

func centralDiffCurve(f Filter, freqs []float64, fs, eps float64, perturb func(*Filter, float64)) []float64 {
	plus, minus := f, f
	perturb(&plus, eps)
	perturb(&minus, -eps)

	out := make([]float64, len(freqs))
	for i, freq := range freqs {
		out[i] = (plus.MagnitudeDB(freq, fs) - minus.MagnitudeDB(freq, fs)) / (2 * eps)
	}
	return out
}
