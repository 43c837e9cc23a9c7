// Package response holds the channels of a single frequency-response
// measurement: named []float64 arrays aligned to a shared frequency grid,
// with a typed dependency graph enforcing reset-on-mutation semantics so a
// write to an upstream channel can never leave stale derived data behind.
package response

import (
	"errors"
	"math"
)

// Channel identifies one named array in a Buffer.
type Channel int

// The nine channels defined by the data model, in dependency order.
const (
	Raw Channel = iota
	Smoothed
	Target
	Error
	ErrorSmoothed
	Equalization
	EqualizedRaw
	EqualizedSmoothed
	ParametricEQ

	numChannels
)

// downstreamOf records, for each channel, the set of channels that must be
// invalidated whenever it is (re)written: the reset-on-mutation contract
// expressed as data instead of boolean flags threaded through every
// mutator.
var downstreamOf = map[Channel][]Channel{
	Raw: {Smoothed, Target, Error, ErrorSmoothed, Equalization, EqualizedRaw, EqualizedSmoothed, ParametricEQ},
	// Writing Smoothed alone (outside of a raw rewrite) only invalidates the
	// channels derived from it, not Target/Error which come from Compensate.
	Smoothed:      {EqualizedSmoothed},
	Target:        {Error, ErrorSmoothed, Equalization, EqualizedRaw, EqualizedSmoothed, ParametricEQ},
	Error:         {ErrorSmoothed, Equalization, EqualizedRaw, EqualizedSmoothed, ParametricEQ},
	ErrorSmoothed: {Equalization, EqualizedRaw, EqualizedSmoothed, ParametricEQ},
	Equalization:  {EqualizedRaw, EqualizedSmoothed, ParametricEQ},
}

// ErrLengthMismatch is returned when a channel write does not match the
// buffer's grid length.
var ErrLengthMismatch = errors.New("response: channel length does not match grid")

// ErrEmptyGrid is returned when a Buffer is constructed over an empty grid.
var ErrEmptyGrid = errors.New("response: frequency grid is empty")

// Buffer is a set of named channels aligned to a shared frequency grid.
type Buffer struct {
	freq     []float64
	channels [numChannels][]float64
}

// New constructs an empty Buffer over the given frequency grid. freq is
// retained, not copied; callers should not mutate it afterwards.
func New(freq []float64) (*Buffer, error) {
	if len(freq) == 0 {
		return nil, ErrEmptyGrid
	}
	return &Buffer{freq: freq}, nil
}

// Frequencies returns the buffer's frequency grid.
func (b *Buffer) Frequencies() []float64 {
	return b.freq
}

// Len returns the number of grid points.
func (b *Buffer) Len() int {
	return len(b.freq)
}

// Has reports whether channel has been written (and not since invalidated).
func (b *Buffer) Has(ch Channel) bool {
	return len(b.channels[ch]) > 0
}

// Get returns channel's data, or nil if not present.
func (b *Buffer) Get(ch Channel) []float64 {
	return b.channels[ch]
}

// Set writes values into channel, validating length, rejecting NaNs, and
// invalidating every channel downstream of ch per the dependency graph.
func (b *Buffer) Set(ch Channel, values []float64) error {
	if len(values) != len(b.freq) {
		return ErrLengthMismatch
	}
	for _, v := range values {
		if math.IsNaN(v) {
			return ErrNaNValue
		}
	}

	b.channels[ch] = values
	for _, d := range downstreamOf[ch] {
		b.channels[d] = nil
	}
	return nil
}

// ErrNaNValue is returned when Set is given a channel containing NaN.
var ErrNaNValue = errors.New("response: channel must not contain NaN")

// Reset clears the listed channels without touching anything downstream of
// them.
func (b *Buffer) Reset(channels ...Channel) {
	for _, ch := range channels {
		b.channels[ch] = nil
	}
}

// Clone returns a deep copy of the buffer, sharing the frequency grid.
func (b *Buffer) Clone() *Buffer {
	out := &Buffer{freq: b.freq}
	for ch := Channel(0); ch < numChannels; ch++ {
		if b.channels[ch] != nil {
			cp := make([]float64, len(b.channels[ch]))
			copy(cp, b.channels[ch])
			out.channels[ch] = cp
		}
	}
	return out
}
