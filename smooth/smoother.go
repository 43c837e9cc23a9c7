package smooth

import (
	"math"

	"github.com/cwbudde/algo-eqfit/grid"
	"github.com/cwbudde/algo-eqfit/sigmoid"
	"github.com/cwbudde/algo-vecmath"
)

// Config holds the dual-band Savitzky-Golay parameters: a "normal"
// window/iteration pair applied everywhere, a "treble" window/iteration
// pair applied above the treble transition band, and the band itself over
// which the two results are blended by a sigmoid crossover. Config is pure
// parameters; Smoother below holds the derived, reusable state.
type Config struct {
	WindowOctaves       float64
	Iterations          int
	TrebleWindowOctaves float64
	TrebleIterations    int
	TrebleFLower        float64
	TrebleFUpper        float64
}

// DefaultConfig holds the default normal/treble smoothing parameters.
var DefaultConfig = Config{
	WindowOctaves:       1.0 / 7,
	Iterations:          10,
	TrebleWindowOctaves: 1.0 / 5,
	TrebleIterations:    100,
	TrebleFLower:        6000,
	TrebleFUpper:        8000,
}

// Smoother applies Config's dual-band Savitzky-Golay filter to curves
// sampled on a fixed frequency grid. The per-band kernels and the crossover
// weight curve are derived once from the grid at construction and reused
// across Smoothen calls.
type Smoother struct {
	cfg       Config
	normal    *sgKernel
	treble    *sgKernel
	weight    []float64
	invWeight []float64
}

// New builds a Smoother for the given grid and configuration.
func New(freqs []float64, cfg Config) (*Smoother, error) {
	crossover, err := sigmoid.New(cfg.TrebleFLower, cfg.TrebleFUpper, 0, 1)
	if err != nil {
		return nil, err
	}

	weight := crossover.Curve(freqs)
	invWeight := make([]float64, len(weight))
	for i, k := range weight {
		invWeight[i] = 1 - k
	}

	return &Smoother{
		cfg:       cfg,
		normal:    newSGKernel(grid.WindowSizeFromOctaves(freqs, cfg.WindowOctaves)),
		treble:    newSGKernel(grid.WindowSizeFromOctaves(freqs, cfg.TrebleWindowOctaves)),
		weight:    weight,
		invWeight: invWeight,
	}, nil
}

// Smoothen runs the normal-band kernel cfg.Iterations times and the
// treble-band kernel cfg.TrebleIterations times over x, then blends the two
// results by the treble crossover weight at each frequency. It rejects any
// input containing NaN. x must be aligned to the grid the Smoother was
// built for.
func (s *Smoother) Smoothen(x []float64) ([]float64, error) {
	for _, v := range x {
		if math.IsNaN(v) {
			return nil, ErrNaNInput
		}
	}

	low := runKernel(s.normal, x, s.cfg.Iterations)
	high := runKernel(s.treble, x, s.cfg.TrebleIterations)

	vecmath.MulBlockInPlace(low, s.invWeight)
	vecmath.MulBlockInPlace(high, s.weight)
	vecmath.AddBlockInPlace(low, high)

	return low, nil
}

// RunSingleBand applies a single-window Savitzky-Golay filter, iterations
// times, with no treble blend. Used where one window is applied repeatedly
// rather than blending two: aggressive compensation smoothing and
// peak-detection pre-smoothing.
func RunSingleBand(freqs, x []float64, octaves float64, iterations int) []float64 {
	window := grid.WindowSizeFromOctaves(freqs, octaves)
	return runKernel(newSGKernel(window), x, iterations)
}

// runKernel applies k to x, iterations times, feeding each pass's output
// into the next (the same coefficient table is reused for every pass).
func runKernel(k *sgKernel, x []float64, iterations int) []float64 {
	if iterations < 1 {
		iterations = 1
	}
	cur := x
	for i := 0; i < iterations; i++ {
		cur = k.Apply(cur)
	}
	out := make([]float64, len(cur))
	copy(out, cur)
	return out
}
