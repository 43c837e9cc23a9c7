// Command eqfit fits a parametric equalizer to measured headphone
// frequency-response data.
//
// Usage:
//
//	eqfit -input <dir> -output <dir> [flags]
//
// Every CSV under -input is read, interpolated onto the canonical
// frequency grid, optionally calibrated and compensated, smoothed, and
// (if -equalize is set) turned into an equalization curve and (if
// -parametric-eq is also set) a fitted parametric EQ. Results are written
// under -output, mirroring the input directory structure.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cwbudde/algo-eqfit/eqio"
	"github.com/cwbudde/algo-eqfit/grid"
	"github.com/cwbudde/algo-eqfit/pipeline"
	"github.com/cwbudde/algo-eqfit/response"
	"github.com/cwbudde/algo-eqfit/smooth"
)

// maxConcurrentJobs bounds how many measurements are processed at once.
const maxConcurrentJobs = 8

func main() {
	input := flag.String("input", "", "root directory to recursively read input CSVs from")
	output := flag.String("output", "", "root directory to write results to, mirroring -input's structure")
	calibration := flag.String("calibration", "", "optional calibration CSV path, applied to every input measurement")
	compensation := flag.String("compensation", "", "optional compensation CSV path, applied to every input measurement")
	equalize := flag.Bool("equalize", false, "derive an equalization curve from the compensation error")
	parametricEQ := flag.Bool("parametric-eq", false, "fit a parametric EQ to the equalization curve (requires -equalize)")
	bassBoost := flag.Float64("bass-boost", 0, "bass boost in dB applied below 200 Hz")
	tilt := flag.Float64("tilt", 0, "tilt in dB per octave applied across the whole curve")
	maxGain := flag.Float64("max-gain", 6, "maximum equalization gain in dB below the treble band")
	trebleFLower := flag.Float64("treble-f-lower", 6000, "lower bound of the treble transition band, Hz")
	trebleFUpper := flag.Float64("treble-f-upper", 8000, "upper bound of the treble transition band, Hz")
	trebleMaxGain := flag.Float64("treble-max-gain", 0, "maximum equalization gain in dB at/above the treble band")
	trebleGainK := flag.Float64("treble-gain-k", 1, "gain multiplier applied at/above the treble band")
	maxFilters := flag.Int("max-filters", 0, "maximum number of parametric filters to fit (0 = unbounded)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: eqfit -input <dir> -output <dir> [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Fits a parametric equalizer to measured headphone frequency-response data.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	smoothCfg := smooth.DefaultConfig
	smoothCfg.TrebleFLower = *trebleFLower
	smoothCfg.TrebleFUpper = *trebleFUpper

	cfg := pipeline.Config{
		Grid:            grid.Generate(grid.DefaultFMin, grid.DefaultFMax, grid.DefaultStep),
		BassBoostDB:     *bassBoost,
		TiltDBPerOctave: *tilt,
		Smooth:          smoothCfg,
		MaxGainDB:       *maxGain,
		TrebleMaxGainDB: *trebleMaxGain,
		TrebleGainK:     *trebleGainK,
		TrebleFLower:    *trebleFLower,
		TrebleFUpper:    *trebleFUpper,
		SmoothKinks:     true,
		Equalize:        *equalize,
		ParametricEQ:    *parametricEQ,
		MaxFilters:      *maxFilters,
		SampleRate:      48000,
	}

	if *input == "" || *output == "" {
		fmt.Fprintln(os.Stderr, "error: -input and -output are required")
		flag.Usage()
		os.Exit(2)
	}

	coord, err := pipeline.New(cfg)
	if err != nil {
		reportConfigError(err)
	}

	var calFreqs, calValues []float64
	if *calibration != "" {
		calFreqs, calValues, err = readMeasurement(*calibration)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: reading calibration file: %v\n", err)
			os.Exit(1)
		}
	}
	var compFreqs, compValues []float64
	if *compensation != "" {
		compFreqs, compValues, err = readMeasurement(*compensation)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: reading compensation file: %v\n", err)
			os.Exit(1)
		}
	}

	inputs, err := discoverInputs(*input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: walking input directory: %v\n", err)
		os.Exit(1)
	}

	var (
		wg       sync.WaitGroup
		sem      = make(chan struct{}, maxConcurrentJobs)
		mu       sync.Mutex
		failures []string
	)

	for _, relPath := range inputs {
		relPath := relPath
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			if err := processOne(coord, *input, *output, relPath, calFreqs, calValues, compFreqs, compValues); err != nil {
				mu.Lock()
				failures = append(failures, fmt.Sprintf("%s: %v", relPath, err))
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(failures) > 0 {
		fmt.Fprintln(os.Stderr, "error: one or more measurements failed:")
		for _, f := range failures {
			fmt.Fprintf(os.Stderr, "  %s\n", f)
		}
		os.Exit(1)
	}
}

// reportConfigError exits with status 2 for invalid configuration
// (parametric-eq without equalize, or an inverted treble band) and 1 for
// anything else.
func reportConfigError(err error) {
	if errors.Is(err, pipeline.ErrInvalidConfiguration) {
		fmt.Fprintf(os.Stderr, "error: invalid configuration: %v\n", err)
		os.Exit(2)
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func discoverInputs(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".csv") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	return files, err
}

func readMeasurement(path string) ([]float64, []float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	buf, err := eqio.ReadCSV(f)
	if err != nil {
		return nil, nil, err
	}
	raw := buf.Get(response.Raw)
	if raw == nil {
		return nil, nil, fmt.Errorf("%s: no raw column", path)
	}
	return buf.Frequencies(), raw, nil
}

func processOne(coord *pipeline.Coordinator, inputRoot, outputRoot, relPath string, calFreqs, calValues, compFreqs, compValues []float64) error {
	freqs, raw, err := readMeasurement(filepath.Join(inputRoot, relPath))
	if err != nil {
		return err
	}

	var cal []float64
	if calValues != nil {
		cal, err = interpolateTo(calFreqs, calValues, freqs)
		if err != nil {
			return err
		}
	}
	var comp []float64
	if compValues != nil {
		comp, err = interpolateTo(compFreqs, compValues, freqs)
		if err != nil {
			return err
		}
	}

	result, err := coord.Process(freqs, raw, cal, comp)
	if err != nil {
		return err
	}
	if result.Warning != nil {
		fmt.Fprintf(os.Stderr, "warning: %s: %v\n", relPath, result.Warning)
	}

	outPath := filepath.Join(outputRoot, relPath)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := eqio.WriteCSV(out, result.Buffer); err != nil {
		return err
	}

	if result.Buffer.Has(response.Equalization) {
		geqPath := strings.TrimSuffix(outPath, filepath.Ext(outPath)) + "_graphiceq.txt"
		geq, err := os.Create(geqPath)
		if err != nil {
			return err
		}
		err = eqio.WriteGraphicEQ(geq, result.Buffer.Frequencies(), result.Buffer.Get(response.Equalization))
		geq.Close()
		if err != nil {
			return err
		}
	}

	if len(result.Filters) > 0 {
		peqPath := strings.TrimSuffix(outPath, filepath.Ext(outPath)) + "_parametriceq.txt"
		peq, err := os.Create(peqPath)
		if err != nil {
			return err
		}
		err = eqio.WriteParametricEQ(peq, result.Filters)
		peq.Close()
		if err != nil {
			return err
		}
	}

	return nil
}

// interpolateTo resamples values (sampled at freqs) onto targetFreqs, using
// the same order-1 log-frequency interpolation the pipeline uses
// internally. Calibration and compensation files are read once and
// resampled onto each measurement's own frequency axis before being handed
// to Coordinator.Process, which expects every argument aligned to the
// measurement's freqs.
func interpolateTo(freqs, values, targetFreqs []float64) ([]float64, error) {
	it, err := grid.NewInterpolator(freqs, values, 1)
	if err != nil {
		return nil, err
	}
	return it.EvalAll(targetFreqs), nil
}
