// Package pipeline orchestrates one measurement through
// interpolate -> (calibrate?) -> center -> (compensate?) -> smoothen ->
// (equalize -> (optimize_parametric_eq)?), gluing the grid/response/
// smooth/compensate/gaincurve/peakinit/biquadopt packages together.
package pipeline

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-eqfit/biquadopt"
	"github.com/cwbudde/algo-eqfit/compensate"
	"github.com/cwbudde/algo-eqfit/gaincurve"
	"github.com/cwbudde/algo-eqfit/grid"
	"github.com/cwbudde/algo-eqfit/peakinit"
	"github.com/cwbudde/algo-eqfit/response"
	"github.com/cwbudde/algo-eqfit/smooth"
)

// Configuration and prerequisite errors are fatal to a measurement;
// ErrNumericNonConvergence is reported as a warning on an
// otherwise-successful Result, never returned as the error.
var (
	ErrInvalidConfiguration  = errors.New("pipeline: invalid configuration")
	ErrMissingPrerequisite   = errors.New("pipeline: missing prerequisite channel")
	ErrDataMissing           = errors.New("pipeline: required data missing")
	ErrNumericNonConvergence = errors.New("pipeline: optimizer did not converge within budget")
)

// Config holds every numeric and behavioral parameter a Coordinator needs:
// the tone-shaping and gain-policy parameters plus the flags enabling
// equalization and parametric-EQ fitting.
type Config struct {
	Grid []float64

	BassBoostDB     float64
	TiltDBPerOctave float64

	Smooth smooth.Config

	MaxGainDB       float64
	TrebleMaxGainDB float64
	TrebleGainK     float64
	TrebleFLower    float64
	TrebleFUpper    float64
	SmoothKinks     bool

	Equalize     bool
	ParametricEQ bool
	MaxFilters   int
	SampleRate   float64
}

// Validate checks the cross-field invariants every caller must satisfy:
// parametric-EQ fitting requires equalization, and the treble transition
// band must not be inverted.
func (c Config) Validate() error {
	if c.ParametricEQ && !c.Equalize {
		return fmt.Errorf("%w: parametric_eq requires equalize", ErrInvalidConfiguration)
	}
	if c.TrebleFUpper <= c.TrebleFLower {
		return fmt.Errorf("%w: treble_f_upper must be greater than treble_f_lower", ErrInvalidConfiguration)
	}
	return nil
}

// Coordinator orchestrates one measurement through the full pipeline,
// constructing its reusable sub-components (Smoother, GainCurveBuilder,
// Compensator) once per Config.
type Coordinator struct {
	cfg         Config
	smoother    *smooth.Smoother
	gainBuilder *gaincurve.Builder
	compensator *compensate.Compensator
}

// New builds a Coordinator, validating cfg first.
func New(cfg Config) (*Coordinator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(cfg.Grid) == 0 {
		return nil, fmt.Errorf("%w: empty frequency grid", ErrDataMissing)
	}

	smoother, err := smooth.New(cfg.Grid, cfg.Smooth)
	if err != nil {
		return nil, err
	}
	gainBuilder, err := gaincurve.New(gaincurve.Config{
		MaxGainDB:       cfg.MaxGainDB,
		TrebleMaxGainDB: cfg.TrebleMaxGainDB,
		TrebleGainK:     cfg.TrebleGainK,
		TrebleFLower:    cfg.TrebleFLower,
		TrebleFUpper:    cfg.TrebleFUpper,
		SmoothKinks:     cfg.SmoothKinks,
	})
	if err != nil {
		return nil, err
	}
	compensator := compensate.New(compensate.Config{
		BassBoostDB:     cfg.BassBoostDB,
		TiltDBPerOctave: cfg.TiltDBPerOctave,
	})

	return &Coordinator{cfg: cfg, smoother: smoother, gainBuilder: gainBuilder, compensator: compensator}, nil
}

// Result reports the final state reached for one measurement.
type Result struct {
	Buffer  *response.Buffer
	Filters []biquadopt.Filter
	RMSE    float64

	// Warning is ErrNumericNonConvergence when the biquad optimizer
	// exhausted its step budget without reaching the target loss; the
	// best-so-far solution is still returned in Filters/Buffer.
	Warning error
}

// Process runs one measurement (sampled at its own, arbitrary freqs) through
// interpolate -> (calibrate?) -> center -> (compensate?) -> smoothen ->
// (equalize -> (optimize_parametric_eq)?). calibration and compensationRaw
// (both sampled at freqs) are optional externally supplied collaborators;
// pass nil to skip the corresponding step.
func (c *Coordinator) Process(freqs, rawValues, calibration, compensationRaw []float64) (Result, error) {
	raw, err := interpolateOnto(freqs, rawValues, c.cfg.Grid)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrDataMissing, err)
	}

	if calibration != nil {
		calOnGrid, err := interpolateOnto(freqs, calibration, c.cfg.Grid)
		if err != nil {
			return Result{}, err
		}
		raw, err = compensate.Calibrate(raw, calOnGrid)
		if err != nil {
			return Result{}, err
		}
	}

	raw, err = compensate.Center(c.cfg.Grid, raw)
	if err != nil {
		return Result{}, err
	}

	buf, err := response.New(c.cfg.Grid)
	if err != nil {
		return Result{}, err
	}
	if err := buf.Set(response.Raw, raw); err != nil {
		return Result{}, err
	}

	if compensationRaw != nil {
		if err := c.applyCompensation(buf, freqs, compensationRaw, raw); err != nil {
			return Result{}, err
		}
	}

	smoothed, err := c.smoother.Smoothen(raw)
	if err != nil {
		return Result{}, err
	}
	if err := buf.Set(response.Smoothed, smoothed); err != nil {
		return Result{}, err
	}

	result := Result{Buffer: buf}
	if !c.cfg.Equalize {
		return result, nil
	}

	if err := c.equalize(buf, raw, smoothed); err != nil {
		return Result{}, err
	}
	result.Buffer = buf
	if !c.cfg.ParametricEQ {
		return result, nil
	}

	return c.optimizeParametricEQ(buf, result)
}

func (c *Coordinator) applyCompensation(buf *response.Buffer, freqs, compensationRaw, raw []float64) error {
	compOnGrid, err := interpolateOnto(freqs, compensationRaw, c.cfg.Grid)
	if err != nil {
		return err
	}
	target, err := c.compensator.Target(c.cfg.Grid, compOnGrid)
	if err != nil {
		return err
	}
	if err := buf.Set(response.Target, target); err != nil {
		return err
	}

	errCurve, err := compensate.Error(raw, target)
	if err != nil {
		return err
	}
	return buf.Set(response.Error, errCurve)
}

func (c *Coordinator) equalize(buf *response.Buffer, raw, smoothed []float64) error {
	errCurve := buf.Get(response.Error)
	if errCurve == nil {
		return fmt.Errorf("%w: equalize requires an error channel", ErrMissingPrerequisite)
	}

	errSmoothed, err := c.smoother.Smoothen(errCurve)
	if err != nil {
		return err
	}
	if err := buf.Set(response.ErrorSmoothed, errSmoothed); err != nil {
		return err
	}

	gc, err := c.gainBuilder.Build(c.cfg.Grid, errSmoothed, raw, smoothed)
	if err != nil {
		return err
	}
	if err := buf.Set(response.Equalization, gc.Equalization); err != nil {
		return err
	}
	if err := buf.Set(response.EqualizedRaw, gc.EqualizedRaw); err != nil {
		return err
	}
	if gc.EqualizedSmoothed != nil {
		if err := buf.Set(response.EqualizedSmoothed, gc.EqualizedSmoothed); err != nil {
			return err
		}
	}
	return nil
}

func (c *Coordinator) optimizeParametricEQ(buf *response.Buffer, result Result) (Result, error) {
	eq := buf.Get(response.Equalization)
	if eq == nil {
		return Result{}, fmt.Errorf("%w: optimize_parametric_eq requires an equalization channel", ErrMissingPrerequisite)
	}

	candidates, err := peakinit.Initialize(c.cfg.Grid, eq, c.cfg.MaxFilters)
	if err != nil {
		return Result{}, err
	}
	seeds := make([]biquadopt.Filter, len(candidates))
	for i, cand := range candidates {
		seeds[i] = biquadopt.Filter{Fc: cand.Fc, Q: 1.0, GainDB: cand.Gain}
	}

	fit, err := biquadopt.Fit(c.cfg.Grid, eq, seeds, c.cfg.SampleRate)
	if err != nil {
		return Result{}, err
	}
	if err := buf.Set(response.ParametricEQ, fit.ParametricEQ); err != nil {
		return Result{}, err
	}

	result.Filters = fit.Filters
	result.RMSE = fit.RMSE
	if !fit.Converged {
		result.Warning = ErrNumericNonConvergence
	}
	return result, nil
}

func interpolateOnto(freqs, values, targetGrid []float64) ([]float64, error) {
	it, err := grid.NewInterpolator(freqs, values, 1)
	if err != nil {
		return nil, err
	}
	return it.EvalAll(targetGrid), nil
}
