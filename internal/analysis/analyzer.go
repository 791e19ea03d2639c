// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"

	"scope/internal/ingress"
	applog "scope/internal/log"
	"scope/pkg/bitint"
)

// DefaultFloorDB is the value substituted for silent or near-silent bins.
const DefaultFloorDB = -120.0

// Options configures an Analyzer. TransformSize and Channel are fixed for the
// analyzer's lifetime; a different size needs a new Analyzer.
type Options struct {
	TransformSize int
	Channel       int
	SampleRate    float64
	Window        WindowFunc
	FloorDB       float64
	Normalize     bool
}

// Analyzer turns the newest TransformSize samples of one history channel into
// a decibel magnitude spectrum of TransformSize/2+1 bins.
type Analyzer struct {
	plan       *fourier.FFT
	size       int
	channel    int
	sampleRate float64
	floorDB    float64
	normalize  bool
	runningMax float64

	window  []float64
	input   []float64
	coeffs  []complex128
	decibel []float64
}

// NewAnalyzer validates opts and allocates every buffer the analyzer will use.
func NewAnalyzer(opts Options) (*Analyzer, error) {
	if opts.TransformSize < 2 || !bitint.IsPowerOfTwo(opts.TransformSize) {
		return nil, fmt.Errorf("analysis: transform size must be a power of two >= 2, got %d", opts.TransformSize)
	}
	if opts.SampleRate <= 0 {
		return nil, fmt.Errorf("analysis: sample rate must be positive, got %g", opts.SampleRate)
	}
	if opts.Channel < 0 {
		return nil, fmt.Errorf("analysis: channel must not be negative, got %d", opts.Channel)
	}
	if opts.FloorDB >= 0 {
		return nil, fmt.Errorf("analysis: floor must be below 0 dB, got %g", opts.FloorDB)
	}

	win := make([]float64, opts.TransformSize)
	if err := windowCoefficients(win, opts.Window); err != nil {
		return nil, fmt.Errorf("analysis: %w", err)
	}

	bins := opts.TransformSize/2 + 1
	a := &Analyzer{
		plan:       fourier.NewFFT(opts.TransformSize),
		size:       opts.TransformSize,
		channel:    opts.Channel,
		sampleRate: opts.SampleRate,
		floorDB:    opts.FloorDB,
		normalize:  opts.Normalize,
		runningMax: opts.FloorDB,
		window:     win,
		input:      make([]float64, opts.TransformSize),
		coeffs:     make([]complex128, bins),
		decibel:    make([]float64, bins),
	}
	for i := range a.decibel {
		a.decibel[i] = a.floorDB
	}

	applog.Debugf("Analysis: channel %d analyzer ready (size %d, %d bins, window %v, floor %.1f dB)",
		a.channel, a.size, bins, opts.Window, a.floorDB)
	return a, nil
}

// Process recomputes the spectrum from history. It returns false and leaves
// the previous spectrum untouched while the history holds fewer than
// TransformSize frames.
func (a *Analyzer) Process(history *ingress.History) bool {
	if !history.Filled(a.size) {
		return false
	}
	samples, writePos := history.Channel(a.channel)
	a.load(samples, writePos)

	a.plan.Coefficients(a.coeffs, a.input)
	for i, c := range a.coeffs {
		db := 20 * math.Log10(cmplx.Abs(c))
		if !(db >= a.floorDB) {
			db = a.floorDB
		}
		a.decibel[i] = db
	}

	if a.normalize {
		if peak := floats.Max(a.decibel); peak > a.runningMax {
			a.runningMax = peak
		}
		floats.AddConst(-a.runningMax, a.decibel)
	}
	return true
}

// load windows the newest a.size samples ending just before writePos.
func (a *Analyzer) load(samples []float32, writePos int) {
	n := len(samples)
	idx := writePos - a.size
	if idx < 0 {
		idx += n
	}
	for i := range a.input {
		a.input[i] = float64(samples[idx]) * a.window[i]
		idx++
		if idx == n {
			idx = 0
		}
	}
}

// Frame returns the latest decibel spectrum.
func (a *Analyzer) Frame() []float64 { return a.decibel }

// SpectrumSize returns TransformSize/2+1.
func (a *Analyzer) SpectrumSize() int { return len(a.decibel) }

// TransformSize returns the number of samples per transform.
func (a *Analyzer) TransformSize() int { return a.size }

// Channel returns the history channel this analyzer reads.
func (a *Analyzer) Channel() int { return a.channel }

// FloorDB returns the configured floor.
func (a *Analyzer) FloorDB() float64 { return a.floorDB }

// RunningMax returns the loudest bin seen so far when normalising; it starts
// at the floor.
func (a *Analyzer) RunningMax() float64 { return a.runningMax }

// BinFrequency returns the centre frequency in Hz of bin i.
func (a *Analyzer) BinFrequency(i int) float64 {
	return float64(i) * a.sampleRate / float64(a.size)
}
