// SPDX-License-Identifier: MIT
package pipeline

import (
	"sync"
	"time"
)

// LayerFrame is a copy of one layer's plot arrays.
type LayerFrame struct {
	Name  string
	Style Style
	X     []float32
	Y     []float32
	Angle []float32
}

// Frame is a copy of every layer after one Update.
type Frame struct {
	Seq       uint64
	Timestamp time.Time
	Display   Display
	Layers    []LayerFrame
}

// Snapshot hands the latest frame from the render loop to other goroutines.
// The lock is held only while copying.
type Snapshot struct {
	mu    sync.Mutex
	frame Frame
}

// store copies the layers' current curves. Buffers are reused once they are
// large enough, so steady-state stores do not allocate.
func (s *Snapshot) store(seq uint64, now time.Time, d Display, layers []*Layer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frame.Seq = seq
	s.frame.Timestamp = now
	s.frame.Display = d
	if cap(s.frame.Layers) < len(layers) {
		s.frame.Layers = make([]LayerFrame, len(layers))
	}
	s.frame.Layers = s.frame.Layers[:len(layers)]
	for i, l := range layers {
		dst := &s.frame.Layers[i]
		dst.Name = l.name
		dst.Style = l.style
		curve := l.curve
		dst.X = copyInto(dst.X, curve.PlotX())
		dst.Y = copyInto(dst.Y, curve.PlotY())
		dst.Angle = copyInto(dst.Angle, curve.PlotAngle())
	}
}

// Load copies the latest frame into dst, reusing dst's buffers, and reports
// whether a frame has been stored yet.
func (s *Snapshot) Load(dst *Frame) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frame.Seq == 0 {
		return false
	}
	dst.Seq = s.frame.Seq
	dst.Timestamp = s.frame.Timestamp
	dst.Display = s.frame.Display
	if cap(dst.Layers) < len(s.frame.Layers) {
		dst.Layers = make([]LayerFrame, len(s.frame.Layers))
	}
	dst.Layers = dst.Layers[:len(s.frame.Layers)]
	for i := range s.frame.Layers {
		src, out := &s.frame.Layers[i], &dst.Layers[i]
		out.Name = src.Name
		out.Style = src.Style
		out.X = copyInto(out.X, src.X)
		out.Y = copyInto(out.Y, src.Y)
		out.Angle = copyInto(out.Angle, src.Angle)
	}
	return true
}

// Seq returns the sequence number of the latest stored frame, 0 if none.
func (s *Snapshot) Seq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame.Seq
}

func copyInto(dst, src []float32) []float32 {
	if cap(dst) < len(src) {
		dst = make([]float32, len(src))
	}
	dst = dst[:len(src)]
	copy(dst, src)
	return dst
}
