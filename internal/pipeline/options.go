// SPDX-License-Identifier: MIT
package pipeline

import (
	"fmt"

	"scope/internal/analysis"
	"scope/internal/config"
)

// Ballistics are the attack and release rates of one layer.
type Ballistics struct {
	Attack  float64
	Release float64
}

// Options is everything New needs to assemble a pipeline.
type Options struct {
	Channels      int
	SampleRate    float64
	RingFrames    int
	TransformSize int
	Window        analysis.WindowFunc
	FloorDB       float64
	Normalize     bool

	FreqLow         float64
	FreqHigh        float64
	ChunkPixelWidth float64
	Resolution      int
	RangeTop        float64
	RangeSpan       float64
	Thickness       float64

	Channel  Ballistics // per-channel curves
	Envelope Ballistics // combined maximum layer

	Display Display
}

// OptionsFromConfig maps the application configuration onto pipeline options.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	window, err := analysis.ParseWindowFunc(cfg.Analysis.FFTWindow)
	if err != nil {
		return Options{}, fmt.Errorf("pipeline: %w", err)
	}
	return Options{
		Channels:        cfg.Audio.Channels,
		SampleRate:      cfg.Audio.SampleRate,
		RingFrames:      cfg.Audio.RingFrames,
		TransformSize:   cfg.Analysis.FFTSize,
		Window:          window,
		FloorDB:         cfg.Analysis.FloorDB,
		Normalize:       cfg.Analysis.Normalize,
		FreqLow:         cfg.Display.FreqLow,
		FreqHigh:        cfg.Display.FreqHigh,
		ChunkPixelWidth: cfg.Display.ChunkPixelWidth,
		Resolution:      cfg.Display.Resolution,
		RangeTop:        cfg.Display.RangeTop,
		RangeSpan:       cfg.Display.RangeSpan,
		Thickness:       cfg.Display.Thickness,
		Channel:         Ballistics(cfg.Smoothing.Channel),
		Envelope:        Ballistics(cfg.Smoothing.Envelope),
		Display:         Display{Width: cfg.Display.Width, Height: cfg.Display.Height},
	}, nil
}
