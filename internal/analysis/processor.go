// SPDX-License-Identifier: MIT
package analysis

// Provider is anything that exposes a decibel spectrum for display. Frame
// returns the provider's own buffer; it is overwritten on the next Process and
// must not be modified by the caller.
type Provider interface {
	Frame() []float64
	SpectrumSize() int
	BinFrequency(bin int) float64
}

var (
	_ Provider = (*Analyzer)(nil)
	_ Provider = (*Maximum)(nil)
)
