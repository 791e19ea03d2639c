// SPDX-License-Identifier: MIT
/*
Package spectrum turns a decibel spectrum into a display curve.

A Spectrum is one display layer. Each frame it aggregates bins into log-spaced
chunks, smooths the chunks with attack/release ballistics and interpolates a
Catmull-Rom curve through them. All plot coordinates are clip space: x runs
from -1 at the low frequency to 1 at the high frequency and y is the range
mapped level. The angle is the curve's tangent in the same space.
*/
package spectrum

import (
	"fmt"

	"scope/internal/analysis"
)

// Bins describes the frequency layout of the frames a Spectrum consumes.
type Bins interface {
	SpectrumSize() int
	BinFrequency(bin int) float64
}

// Config holds the per-layer curve parameters.
type Config struct {
	FreqLow         float64
	FreqHigh        float64
	ChunkPixelWidth float64
	Resolution      int
	Attack          float64
	Release         float64
	FloorDB         float64
	Range           analysis.RangeMapper
}

// Spectrum is the renderer-facing curve of one layer.
type Spectrum struct {
	cfg      Config
	size     int
	chunker  *Chunker
	smoother *Smoother
	interp   *Interpolator

	clipX  []float64 // chunk x in clip space
	mapped []float64 // smoothed chunk values in clip space
	width  int
	height int
}

// New creates a layer for frames laid out like bins. The curve is empty until
// SetDisplaySize is called.
func New(bins Bins, cfg Config) (*Spectrum, error) {
	size := bins.SpectrumSize()
	freqs := make([]float64, size)
	for i := range freqs {
		freqs[i] = bins.BinFrequency(i)
	}

	chunker, err := NewChunker(freqs, cfg.FreqLow, cfg.FreqHigh, cfg.ChunkPixelWidth, cfg.FloorDB)
	if err != nil {
		return nil, err
	}
	smoother, err := NewSmoother(cfg.Attack, cfg.Release)
	if err != nil {
		return nil, err
	}
	interp, err := NewInterpolator(cfg.Resolution)
	if err != nil {
		return nil, err
	}
	if cfg.Range == (analysis.RangeMapper{}) {
		return nil, fmt.Errorf("spectrum: display range is not set")
	}

	return &Spectrum{
		cfg:      cfg,
		size:     size,
		chunker:  chunker,
		smoother: smoother,
		interp:   interp,
		clipX:    make([]float64, 0, size),
		mapped:   make([]float64, 0, size),
	}, nil
}

// SetDisplaySize rebuilds the chunk layout for a display of width by height
// pixels and resets smoothing. It must be called before the first Update and
// after every display change.
func (s *Spectrum) SetDisplaySize(width, height int) error {
	if height < 1 {
		return fmt.Errorf("spectrum: display height must be at least 1, got %d", height)
	}
	if err := s.chunker.Rebuild(width); err != nil {
		return err
	}
	s.width, s.height = width, height

	n := s.chunker.NumChunks()
	s.clipX = s.clipX[:n]
	for i, x := range s.chunker.ChunkX() {
		s.clipX[i] = 2*x - 1
	}
	s.mapped = s.mapped[:n]
	s.smoother.Reset(n, s.cfg.FloorDB)
	s.interp.SetX(s.clipX)
	return nil
}

// Update advances the curve by one frame. frame must hold SpectrumSize
// values.
func (s *Spectrum) Update(frame []float64) {
	if len(s.mapped) == 0 {
		return
	}
	s.chunker.Aggregate(frame)
	s.smoother.Update(s.chunker.Instants())
	for i, v := range s.smoother.Values() {
		s.mapped[i] = s.cfg.Range.Map(v)
	}
	s.interp.Update(s.mapped)
}

func (s *Spectrum) PlotX() []float32     { return s.interp.PlotX() }
func (s *Spectrum) PlotY() []float32     { return s.interp.PlotY() }
func (s *Spectrum) PlotAngle() []float32 { return s.interp.PlotAngle() }
func (s *Spectrum) NumPlotPoints() int   { return s.interp.NumPoints() }
func (s *Spectrum) SpectrumSize() int    { return s.size }
func (s *Spectrum) NumChunks() int       { return s.chunker.NumChunks() }

// Chunks exposes the chunk layout.
func (s *Spectrum) Chunks() *Chunker { return s.chunker }

// Smoothed returns the smoothed chunk levels in decibels.
func (s *Spectrum) Smoothed() []float64 { return s.smoother.Values() }

// DisplaySize returns the dimensions passed to the last SetDisplaySize.
func (s *Spectrum) DisplaySize() (width, height int) { return s.width, s.height }
