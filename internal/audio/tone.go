// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"math"
	"strings"
)

const toneAmplitude = 0.5

// ToneSource synthesises one sine per channel for running without hardware.
type ToneSource struct {
	*player
	freqs []float64
	phase []float64
	step  []float64
}

// NewToneSource plays freqs[c % len(freqs)] on channel c. A zero frequency
// is silence.
func NewToneSource(format Format, freqs ...float64) (*ToneSource, error) {
	if err := format.validate(); err != nil {
		return nil, err
	}
	if len(freqs) == 0 {
		return nil, fmt.Errorf("audio: tone source needs at least one frequency")
	}

	t := &ToneSource{
		freqs: make([]float64, format.Channels),
		phase: make([]float64, format.Channels),
		step:  make([]float64, format.Channels),
	}
	for c := range format.Channels {
		f := freqs[c%len(freqs)]
		if f < 0 || f >= format.SampleRate/2 {
			return nil, fmt.Errorf("audio: tone %g Hz outside [0, %g)", f, format.SampleRate/2)
		}
		t.freqs[c] = f
		t.step[c] = 2 * math.Pi * f / format.SampleRate
	}
	t.player = newPlayer("tone source", format, t.fill)
	return t, nil
}

func (t *ToneSource) fill(block []float32) int {
	channels := len(t.phase)
	frames := len(block) / channels
	for i := range frames {
		for c := range channels {
			if t.step[c] != 0 {
				block[i*channels+c] = float32(toneAmplitude * math.Sin(t.phase[c]))
			}
			t.phase[c] += t.step[c]
			if t.phase[c] >= 2*math.Pi {
				t.phase[c] -= 2 * math.Pi
			}
		}
	}
	return frames
}

func (t *ToneSource) Format() Format         { return t.format }
func (t *ToneSource) Start(r Receiver) error { return t.start(r) }
func (t *ToneSource) Stop() error            { return t.halt() }
func (t *ToneSource) Done() <-chan struct{}  { return nil }

func (t *ToneSource) Describe() string {
	parts := make([]string, len(t.freqs))
	for i, f := range t.freqs {
		parts[i] = fmt.Sprintf("%g Hz", f)
	}
	return "tone source (" + strings.Join(parts, ", ") + ")"
}
