// Package eqio implements the CSV and text-file formats a response.Buffer
// is exchanged through: the measurement CSV round-trip, a GraphicEQ text
// emitter, and a ParametricEQ text emitter. Pure data-in/data-out; no
// business logic lives here.
package eqio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/cwbudde/algo-eqfit/response"
)

// ErrMissingFrequencyColumn is returned when an input CSV has no
// "frequency" header.
var ErrMissingFrequencyColumn = errors.New("eqio: csv has no frequency column")

// column pairs a CSV header name with its response.Buffer channel, in the
// exact order the file schema lists them.
type column struct {
	name string
	ch   response.Channel
}

var columns = []column{
	{"raw", response.Raw},
	{"error", response.Error},
	{"smoothed", response.Smoothed},
	{"error_smoothed", response.ErrorSmoothed},
	{"equalization", response.Equalization},
	{"parametric_eq", response.ParametricEQ},
	{"equalized_raw", response.EqualizedRaw},
	{"equalized_smoothed", response.EqualizedSmoothed},
	{"target", response.Target},
}

// ReadCSV parses a measurement CSV: a header row naming "frequency" plus
// any subset of the known channel columns, in any column order, with rows
// in any order (sorted by frequency ascending on return). Missing numeric
// cells are encoded "NaN".
func ReadCSV(r io.Reader) (*response.Buffer, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("eqio: reading csv header: %w", err)
	}

	freqCol := -1
	colForField := make(map[int]response.Channel)
	for i, name := range header {
		if name == "frequency" {
			freqCol = i
			continue
		}
		for _, c := range columns {
			if c.name == name {
				colForField[i] = c.ch
				break
			}
		}
	}
	if freqCol < 0 {
		return nil, ErrMissingFrequencyColumn
	}

	type row struct {
		freq   float64
		values map[response.Channel]float64
	}
	var rows []row

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("eqio: reading csv row: %w", err)
		}

		f, err := strconv.ParseFloat(rec[freqCol], 64)
		if err != nil {
			return nil, fmt.Errorf("eqio: parsing frequency %q: %w", rec[freqCol], err)
		}
		values := make(map[response.Channel]float64, len(colForField))
		for i, ch := range colForField {
			if i >= len(rec) {
				continue
			}
			v, err := strconv.ParseFloat(rec[i], 64)
			if err != nil {
				return nil, fmt.Errorf("eqio: parsing value %q: %w", rec[i], err)
			}
			values[ch] = v
		}
		rows = append(rows, row{freq: f, values: values})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].freq < rows[j].freq })

	freqs := make([]float64, len(rows))
	for i, r := range rows {
		freqs[i] = r.freq
	}

	buf, err := response.New(freqs)
	if err != nil {
		return nil, err
	}

	// Write channels in dependency order (the response.Channel order) so no
	// Set invalidates a channel already loaded from the file.
	ordered := make([]column, len(columns))
	copy(ordered, columns)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ch < ordered[j].ch })

	for _, c := range ordered {
		present := true
		col := make([]float64, len(rows))
		for i, r := range rows {
			v, ok := r.values[c.ch]
			if !ok || math.IsNaN(v) {
				present = false
				break
			}
			col[i] = v
		}
		if present && len(rows) > 0 {
			if err := buf.Set(c.ch, col); err != nil {
				return nil, err
			}
		}
	}

	return buf, nil
}

// WriteCSV writes buf's frequency grid plus every populated channel, in
// schema order, two decimal places, "NaN" for channels not present on a
// row. Every channel that has been written to buf is written in full for
// every row (the data model keeps channels grid-aligned, so there is no
// partial-row NaN case once a channel is present).
func WriteCSV(w io.Writer, buf *response.Buffer) error {
	cw := csv.NewWriter(w)

	header := []string{"frequency"}
	var present []column
	for _, c := range columns {
		if buf.Has(c.ch) {
			header = append(header, c.name)
			present = append(present, c)
		}
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("eqio: writing csv header: %w", err)
	}

	freqs := buf.Frequencies()
	for i, f := range freqs {
		rec := make([]string, 0, len(header))
		rec = append(rec, formatValue(f))
		for _, c := range present {
			rec = append(rec, formatValue(buf.Get(c.ch)[i]))
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("eqio: writing csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
