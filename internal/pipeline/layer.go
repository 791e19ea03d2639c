// SPDX-License-Identifier: MIT
package pipeline

import (
	"fmt"

	"scope/internal/analysis"
	"scope/internal/spectrum"
)

// Style tells a renderer how to draw a layer.
type Style struct {
	Color     string  // #rrggbb
	Alpha     float64 // 0..1
	Thickness float64 // stroke width in pixels; ignored when Filled
	Filled    bool    // fill to the bottom edge instead of stroking
}

// Layer is one curve on the display: a spectrum source and its curve.
type Layer struct {
	name   string
	style  Style
	source analysis.Provider
	curve  *spectrum.Spectrum
}

func newLayer(name string, style Style, source analysis.Provider, cfg spectrum.Config) (*Layer, error) {
	curve, err := spectrum.New(source, cfg)
	if err != nil {
		return nil, fmt.Errorf("pipeline: layer %s: %w", name, err)
	}
	return &Layer{name: name, style: style, source: source, curve: curve}, nil
}

func (l *Layer) update() { l.curve.Update(l.source.Frame()) }

// Name identifies the layer, e.g. "left" or "envelope".
func (l *Layer) Name() string { return l.name }

// Style returns the drawing hints for the layer.
func (l *Layer) Style() Style { return l.style }

// Spectrum returns the renderer-facing curve.
func (l *Layer) Spectrum() *spectrum.Spectrum { return l.curve }

// Source returns the decibel spectrum the layer is drawn from.
func (l *Layer) Source() analysis.Provider { return l.source }

// channelName labels channel ch of a stream with channels channels.
func channelName(ch, channels int) string {
	switch {
	case channels == 1:
		return "mono"
	case channels == 2 && ch == 0:
		return "left"
	case channels == 2 && ch == 1:
		return "right"
	default:
		return fmt.Sprintf("ch%d", ch+1)
	}
}

// Palette for channel layers, cycled when there are more channels.
var channelColors = []string{"#f0c674", "#8abeb7", "#b294bb", "#cc6666", "#81a2be", "#de935f"}

const envelopeColor = "#3c3d3b"
