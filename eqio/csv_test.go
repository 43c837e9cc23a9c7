package eqio

import (
	"bytes"
	"strings"
	"testing"

	"github.com/cwbudde/algo-eqfit/biquadopt"
	"github.com/cwbudde/algo-eqfit/response"
)

func buildBuffer(t *testing.T) *response.Buffer {
	t.Helper()
	freqs := []float64{20, 200, 2000, 20000}
	buf, err := response.New(freqs)
	if err != nil {
		t.Fatal(err)
	}
	if err := buf.Set(response.Raw, []float64{1.234, -0.5, 0, 2.999}); err != nil {
		t.Fatal(err)
	}
	if err := buf.Set(response.Smoothed, []float64{1.1, -0.4, 0.1, 2.9}); err != nil {
		t.Fatal(err)
	}
	return buf
}

func TestWriteCSVHeaderOrderMatchesSchema(t *testing.T) {
	buf := buildBuffer(t)
	var out bytes.Buffer
	if err := WriteCSV(&out, buf); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if lines[0] != "frequency,raw,smoothed" {
		t.Fatalf("header = %q, want frequency,raw,smoothed", lines[0])
	}
}

func TestCSVRoundTripReproducesPresentChannels(t *testing.T) {
	buf := buildBuffer(t)
	var out bytes.Buffer
	if err := WriteCSV(&out, buf); err != nil {
		t.Fatal(err)
	}

	read, err := ReadCSV(&out)
	if err != nil {
		t.Fatal(err)
	}

	if read.Len() != buf.Len() {
		t.Fatalf("got %d grid points, want %d", read.Len(), buf.Len())
	}
	for i, f := range buf.Frequencies() {
		if read.Frequencies()[i] != f {
			t.Fatalf("frequency[%d] = %v, want %v", i, read.Frequencies()[i], f)
		}
	}

	for _, ch := range []response.Channel{response.Raw, response.Smoothed} {
		got := read.Get(ch)
		want := buf.Get(ch)
		if got == nil {
			t.Fatalf("channel %v missing after round-trip", ch)
		}
		for i := range want {
			wantRounded := roundTo2(want[i])
			if got[i] != wantRounded {
				t.Fatalf("channel %v[%d] = %v, want %v", ch, i, got[i], wantRounded)
			}
		}
	}

	if read.Has(response.Target) {
		t.Fatal("Target should not be present after round-trip of a buffer that never wrote it")
	}
}

func roundTo2(v float64) float64 {
	return float64(int64(v*100+sign(v)*0.5)) / 100
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

func TestReadCSVSortsByFrequencyAscending(t *testing.T) {
	in := "frequency,raw\n200,1.00\n20,2.00\n2000,3.00\n"
	buf, err := ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	freqs := buf.Frequencies()
	for i := 1; i < len(freqs); i++ {
		if freqs[i] <= freqs[i-1] {
			t.Fatalf("frequencies not ascending: %v", freqs)
		}
	}
}

func TestReadCSVRejectsMissingFrequencyColumn(t *testing.T) {
	in := "raw\n1.00\n"
	if _, err := ReadCSV(strings.NewReader(in)); err == nil {
		t.Fatal("expected error for missing frequency column")
	}
}

func TestReadCSVTreatsNaNCellAsChannelAbsent(t *testing.T) {
	in := "frequency,raw\n20,NaN\n200,1.00\n"
	buf, err := ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if buf.Has(response.Raw) {
		t.Fatal("a channel with any NaN cell should not be marked present")
	}
}

func TestWriteGraphicEQFormat(t *testing.T) {
	freqs := []float64{20, 200, 2000, 20000}
	eq := []float64{1, 2, -1, 0}
	var out bytes.Buffer
	if err := WriteGraphicEQ(&out, freqs, eq); err != nil {
		t.Fatal(err)
	}
	line := out.String()
	if !strings.HasPrefix(line, "GraphicEQ: 10 -84; ") {
		t.Fatalf("unexpected prefix: %q", line[:min(40, len(line))])
	}
	if !strings.HasSuffix(line, "\n") {
		t.Fatal("expected trailing newline")
	}
	if n := strings.Count(line, "\n"); n != 1 {
		t.Fatalf("got %d lines, want a single line", n)
	}
}

func TestWriteParametricEQFormat(t *testing.T) {
	filters := []biquadopt.Filter{
		{Fc: 100, Q: 1.41, GainDB: 3.0},
		{Fc: 2500, Q: 0.707, GainDB: -4.25},
	}
	var out bytes.Buffer
	if err := WriteParametricEQ(&out, filters); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0] != "Filter 1: ON PK Fc 100 Hz Gain 3.0 dB Q 1.41" {
		t.Fatalf("line 1 = %q", lines[0])
	}
	if lines[1] != "Filter 2: ON PK Fc 2500 Hz Gain -4.2 dB Q 0.71" {
		// -4.25 is exactly representable in binary; Go's %.1f rounds the
		// genuine tie to even (-4.2, since 2 is even).
		t.Fatalf("line 2 = %q", lines[1])
	}
}
