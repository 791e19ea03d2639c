// SPDX-License-Identifier: MIT
/*
Package pipeline wires capture, analysis and curve generation together.

The capture backend calls Receive on its own thread; the render loop calls
Update once per display frame and then reads each layer's curve. Everything
between the two runs synchronously inside Update. The only state shared with
other goroutines besides the capture ring is the Snapshot.
*/
package pipeline

import (
	"fmt"
	"time"

	"scope/internal/analysis"
	"scope/internal/audio"
	"scope/internal/ingress"
	applog "scope/internal/log"
	"scope/internal/spectrum"
)

// Display is the drawable area in pixels.
type Display struct {
	Width  int
	Height int
}

// Validate rejects empty displays.
func (d Display) Validate() error {
	if d.Width < 1 || d.Height < 1 {
		return fmt.Errorf("pipeline: display %dx%d must be at least 1x1", d.Width, d.Height)
	}
	return nil
}

// Stats summarises pipeline activity for status lines and logs.
type Stats struct {
	Ingress  ingress.Stats
	Updates  uint64 // calls to Update
	Analyses uint64 // Updates that produced a new spectrum
	Display  Display
}

// Pipeline turns captured audio into display curves.
type Pipeline struct {
	opts      Options
	ingress   *ingress.Ingress
	analyzers []*analysis.Analyzer
	envelope  *analysis.Maximum
	layers    []*Layer
	display   Display
	snapshot  Snapshot

	updates  uint64
	analyses uint64
}

var _ audio.Receiver = (*Pipeline)(nil)

// New builds a pipeline and lays it out for opts.Display. A stream with more
// than one channel gets one layer per channel followed by a filled envelope
// layer of their per-bin maximum.
func New(opts Options) (*Pipeline, error) {
	in, err := ingress.New(opts.Channels, opts.RingFrames, opts.TransformSize)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	rng, err := analysis.NewRangeMapper(opts.RangeTop, opts.RangeSpan)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	p := &Pipeline{opts: opts, ingress: in}

	curve := func(b Ballistics) spectrum.Config {
		return spectrum.Config{
			FreqLow:         opts.FreqLow,
			FreqHigh:        opts.FreqHigh,
			ChunkPixelWidth: opts.ChunkPixelWidth,
			Resolution:      opts.Resolution,
			Attack:          b.Attack,
			Release:         b.Release,
			FloorDB:         opts.FloorDB,
			Range:           rng,
		}
	}

	providers := make([]analysis.Provider, opts.Channels)
	var channelLayers []*Layer
	for ch := range opts.Channels {
		a, err := analysis.NewAnalyzer(analysis.Options{
			TransformSize: opts.TransformSize,
			Channel:       ch,
			SampleRate:    opts.SampleRate,
			Window:        opts.Window,
			FloorDB:       opts.FloorDB,
			Normalize:     opts.Normalize,
		})
		if err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
		p.analyzers = append(p.analyzers, a)
		providers[ch] = a

		style := Style{
			Color:     channelColors[ch%len(channelColors)],
			Alpha:     0.8,
			Thickness: opts.Thickness,
		}
		l, err := newLayer(channelName(ch, opts.Channels), style, a, curve(opts.Channel))
		if err != nil {
			return nil, err
		}
		channelLayers = append(channelLayers, l)
	}

	// The envelope is drawn first so the channel strokes sit on top of it.
	if opts.Channels > 1 {
		p.envelope, err = analysis.NewMaximum(providers...)
		if err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
		style := Style{Color: envelopeColor, Alpha: 1, Filled: true}
		l, err := newLayer("envelope", style, p.envelope, curve(opts.Envelope))
		if err != nil {
			return nil, err
		}
		p.layers = append(p.layers, l)
	}
	p.layers = append(p.layers, channelLayers...)

	if err := p.Resize(opts.Display); err != nil {
		return nil, err
	}

	applog.Infof("Pipeline: %d channels, transform %d (%d bins), %d layers, ring %d frames",
		opts.Channels, opts.TransformSize, opts.TransformSize/2+1, len(p.layers), in.Stats().Capacity)
	return p, nil
}

// Receive implements audio.Receiver. It runs on the capture thread and only
// copies into the ring.
func (p *Pipeline) Receive(frames []float32, count int) {
	p.ingress.Push(frames, count)
}

// Resize rebuilds every layer for a new display size. Render context only;
// call it before the next Update whenever the display changes.
func (p *Pipeline) Resize(d Display) error {
	if err := d.Validate(); err != nil {
		return err
	}
	for _, l := range p.layers {
		if err := l.curve.SetDisplaySize(d.Width, d.Height); err != nil {
			return fmt.Errorf("pipeline: layer %s: %w", l.name, err)
		}
	}
	p.display = d
	applog.Debugf("Pipeline: resized to %dx%d, %d chunks per layer", d.Width, d.Height, p.layers[0].curve.NumChunks())
	return nil
}

// Update advances one display frame: drain captured audio, re-analyse when
// new samples arrived, then advance every layer's curve and publish a
// snapshot. It reports whether a new spectrum was computed.
func (p *Pipeline) Update() bool {
	p.updates++

	analysed := false
	if p.ingress.Drain() > 0 {
		history := p.ingress.History()
		for _, a := range p.analyzers {
			if a.Process(history) {
				analysed = true
			}
		}
		if analysed && p.envelope != nil {
			p.envelope.Process()
		}
	}
	if analysed {
		p.analyses++
	}

	for _, l := range p.layers {
		l.update()
	}
	p.snapshot.store(p.updates, time.Now(), p.display, p.layers)
	return analysed
}

// Layers returns the layers in drawing order.
func (p *Pipeline) Layers() []*Layer { return p.layers }

// Layer returns the layer called name, or nil.
func (p *Pipeline) Layer(name string) *Layer {
	for _, l := range p.layers {
		if l.name == name {
			return l
		}
	}
	return nil
}

// Snapshot returns the cross-goroutine view of the latest frame.
func (p *Pipeline) Snapshot() *Snapshot { return &p.snapshot }

// Display returns the current display size.
func (p *Pipeline) Display() Display { return p.display }

// Options returns the options the pipeline was built with.
func (p *Pipeline) Options() Options { return p.opts }

// Stats returns counters for status output. Render context only.
func (p *Pipeline) Stats() Stats {
	return Stats{
		Ingress:  p.ingress.Stats(),
		Updates:  p.updates,
		Analyses: p.analyses,
		Display:  p.display,
	}
}
