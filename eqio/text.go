package eqio

import (
	"fmt"
	"io"
	"math"

	"github.com/cwbudde/algo-eqfit/biquadopt"
	"github.com/cwbudde/algo-eqfit/grid"
)

// graphicEQFMin, graphicEQFMax and graphicEQStep define the fixed log grid
// a GraphicEQ file is resampled onto, distinct from the pipeline's own
// canonical grid.
const (
	graphicEQFMin = 20.0
	graphicEQFMax = 20000.0
	graphicEQStep = 1.07
)

// WriteGraphicEQ resamples the equalization curve (sampled at freqs) onto
// the fixed GraphicEQ log grid and writes a single
// "GraphicEQ: 10 -84; f1 g1; f2 g2; ..." line. The leading "10 -84" point is
// a fixed sentinel the GraphicEQ format itself requires below its usable
// range.
func WriteGraphicEQ(w io.Writer, freqs, equalization []float64) error {
	it, err := grid.NewInterpolator(freqs, equalization, 2)
	if err != nil {
		return err
	}

	geqGrid := grid.Generate(graphicEQFMin, graphicEQFMax, graphicEQStep)
	values := it.EvalAll(geqGrid)

	if _, err := io.WriteString(w, "GraphicEQ: 10 -84"); err != nil {
		return fmt.Errorf("eqio: writing graphiceq: %w", err)
	}
	for i, f := range geqGrid {
		if _, err := fmt.Fprintf(w, "; %.0f %.1f", f, values[i]); err != nil {
			return fmt.Errorf("eqio: writing graphiceq point: %w", err)
		}
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("eqio: writing graphiceq terminator: %w", err)
	}
	return nil
}

// WriteParametricEQ writes one "Filter <i>: ON PK Fc <fc> Hz Gain <gain> dB
// Q <q>" line per filter, numbered from 1 in the order given (the order the
// optimizer emitted them in).
func WriteParametricEQ(w io.Writer, filters []biquadopt.Filter) error {
	for i, f := range filters {
		fc := math.Round(f.Fc)
		if _, err := fmt.Fprintf(w, "Filter %d: ON PK Fc %.0f Hz Gain %.1f dB Q %.2f\n",
			i+1, fc, f.GainDB, f.Q); err != nil {
			return fmt.Errorf("eqio: writing parametric eq line: %w", err)
		}
	}
	return nil
}
