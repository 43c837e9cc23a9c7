// Package smooth implements the dual-band iterative Savitzky-Golay filter
// used to smooth raw and error curves, with a sigmoid crossover between a
// "normal" window and a "treble" window across a transition band.
package smooth

import "errors"

// ErrNaNInput is returned when Smoothen is given data containing NaN.
var ErrNaNInput = errors.New("smooth: input contains NaN")

// sgKernel holds the order-2 Savitzky-Golay fit machinery for a fixed odd
// window length: a symmetric kernel for interior points, and an on-demand
// fit for the (window-1)/2 points nearest each edge, where a centered
// window would run off the array. Edge points refit the same-length window
// anchored at the boundary and evaluate the fit at the edge point's own
// offset within it, rather than mirroring or truncating.
type sgKernel struct {
	window int
	half   int
	minv   [3][3]float64
	center []float64
}

// newSGKernel precomputes the order-2 least-squares fit coefficients for a
// window of the given odd length (forced odd if even, minimum 1).
func newSGKernel(window int) *sgKernel {
	if window < 1 {
		window = 1
	}
	if window%2 == 0 {
		window++
	}
	half := (window - 1) / 2

	k := &sgKernel{window: window, half: half}
	if window == 1 {
		k.center = []float64{1}
		return k
	}

	k.minv = quadraticNormalInverse(window)
	k.center = fitCoeffs(k.minv, window, float64(half))
	return k
}

// Apply runs one pass of the kernel over x, handling edges via an on-demand
// boundary-anchored fit.
func (k *sgKernel) Apply(x []float64) []float64 {
	n := len(x)
	out := make([]float64, n)

	if k.window == 1 || n == 0 {
		copy(out, x)
		return out
	}

	if k.window > n {
		minv := quadraticNormalInverse(n)
		for i := 0; i < n; i++ {
			out[i] = dot(fitCoeffs(minv, n, float64(i)), x)
		}
		return out
	}

	for i := 0; i < n; i++ {
		switch {
		case i < k.half:
			// Anchor the window at the start of the array; evaluate at i.
			c := fitCoeffs(k.minv, k.window, float64(i))
			out[i] = dot(c, x[:k.window])
		case i >= n-k.half:
			start := n - k.window
			c := fitCoeffs(k.minv, k.window, float64(i-start))
			out[i] = dot(c, x[start:n])
		default:
			out[i] = dot(k.center, x[i-k.half:i+k.half+1])
		}
	}
	return out
}

func dot(coeffs, x []float64) float64 {
	sum := 0.0
	n := len(coeffs)
	if len(x) < n {
		n = len(x)
	}
	for i := 0; i < n; i++ {
		sum += coeffs[i] * x[i]
	}
	return sum
}

// quadraticNormalInverse returns the inverse of J^T J where J is the
// window x 3 design matrix [1, s, s^2] for s = 0..window-1, for an
// order-2 polynomial least-squares fit.
func quadraticNormalInverse(window int) [3][3]float64 {
	var s1, s2, s3, s4 float64
	n := float64(window)
	for j := 0; j < window; j++ {
		s := float64(j)
		s1 += s
		s2 += s * s
		s3 += s * s * s
		s4 += s * s * s * s
	}

	m := [3][3]float64{
		{n, s1, s2},
		{s1, s2, s3},
		{s2, s3, s4},
	}
	return invert3x3(m)
}

func invert3x3(m [3][3]float64) [3][3]float64 {
	a, b, c := m[0][0], m[0][1], m[0][2]
	d, e, f := m[1][0], m[1][1], m[1][2]
	g, h, i := m[2][0], m[2][1], m[2][2]

	det := a*(e*i-f*h) - b*(d*i-f*g) + c*(d*h-e*g)
	if det == 0 {
		return [3][3]float64{}
	}
	invDet := 1 / det

	return [3][3]float64{
		{(e*i - f*h) * invDet, (c*h - b*i) * invDet, (b*f - c*e) * invDet},
		{(f*g - d*i) * invDet, (a*i - c*g) * invDet, (c*d - a*f) * invDet},
		{(d*h - e*g) * invDet, (b*g - a*h) * invDet, (a*e - b*d) * invDet},
	}
}

// fitCoeffs returns, for a window of the given length, the coefficient
// vector c such that sum_j c[j]*x[j] equals the order-2 least-squares fit
// evaluated at position evalOffset (0-indexed within the window).
func fitCoeffs(minv [3][3]float64, window int, evalOffset float64) []float64 {
	v := [3]float64{1, evalOffset, evalOffset * evalOffset}

	var w [3]float64
	for col := 0; col < 3; col++ {
		w[col] = v[0]*minv[0][col] + v[1]*minv[1][col] + v[2]*minv[2][col]
	}

	c := make([]float64, window)
	for j := 0; j < window; j++ {
		s := float64(j)
		c[j] = w[0] + w[1]*s + w[2]*s*s
	}
	return c
}
