// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"fmt"
)

var errNoFrames = errors.New("analysis: combine needs at least one frame")

// Combine writes the per-bin maximum of frames into dst. Every frame must have
// the same length as dst.
func Combine(dst []float64, frames ...[]float64) error {
	if len(frames) == 0 {
		return errNoFrames
	}
	for i, f := range frames {
		if len(f) != len(dst) {
			return fmt.Errorf("analysis: frame %d has %d bins, want %d", i, len(f), len(dst))
		}
	}

	copy(dst, frames[0])
	for _, f := range frames[1:] {
		for i, v := range f {
			if v > dst[i] {
				dst[i] = v
			}
		}
	}
	return nil
}

// Maximum is the envelope of several providers: each bin holds the loudest
// input. It owns its output buffer so Process does not allocate.
type Maximum struct {
	inputs []Provider
	frames [][]float64
	out    []float64
}

// NewMaximum combines inputs, which must all report the same spectrum size.
func NewMaximum(inputs ...Provider) (*Maximum, error) {
	if len(inputs) == 0 {
		return nil, errNoFrames
	}
	size := inputs[0].SpectrumSize()
	frames := make([][]float64, len(inputs))
	for i, in := range inputs {
		if in.SpectrumSize() != size {
			return nil, fmt.Errorf("analysis: input %d has %d bins, want %d", i, in.SpectrumSize(), size)
		}
		frames[i] = in.Frame()
	}
	m := &Maximum{inputs: inputs, frames: frames, out: make([]float64, size)}
	_ = Combine(m.out, m.frames...)
	return m, nil
}

// Process recomputes the envelope from the inputs' current frames.
func (m *Maximum) Process() {
	for i, in := range m.inputs {
		m.frames[i] = in.Frame()
	}
	// Sizes were checked at construction.
	_ = Combine(m.out, m.frames...)
}

func (m *Maximum) Frame() []float64           { return m.out }
func (m *Maximum) SpectrumSize() int          { return len(m.out) }
func (m *Maximum) BinFrequency(i int) float64 { return m.inputs[0].BinFrequency(i) }
