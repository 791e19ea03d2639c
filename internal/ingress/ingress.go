// SPDX-License-Identifier: MIT
package ingress

import "fmt"

// Ingress pairs the capture ring with the analysis-side history.
type Ingress struct {
	ring    *Ring
	history *History
}

// Stats is a point-in-time view of the ring for logging and status lines.
type Stats struct {
	Capacity int
	Buffered int
	Dropped  uint64
}

// New creates an Ingress for channels interleaved channels with a ring of at
// least ringFrames frames and historyFrames samples of history per channel.
func New(channels, ringFrames, historyFrames int) (*Ingress, error) {
	ring, err := NewRing(ringFrames, channels)
	if err != nil {
		return nil, err
	}
	history, err := NewHistory(channels, historyFrames)
	if err != nil {
		return nil, err
	}
	if ring.Capacity() < historyFrames {
		return nil, fmt.Errorf("ingress: ring capacity %d is smaller than the %d frame history",
			ring.Capacity(), historyFrames)
	}
	return &Ingress{ring: ring, history: history}, nil
}

// Push forwards a capture block to the ring. Capture context only.
func (in *Ingress) Push(frames []float32, count int) { in.ring.Push(frames, count) }

// Drain moves everything captured since the last call into the history and
// returns the frame count. Analysis context only.
func (in *Ingress) Drain() int { return in.ring.Drain(in.history) }

// History returns the rolling per-channel history.
func (in *Ingress) History() *History { return in.history }

// Channels returns the interleaved channel count.
func (in *Ingress) Channels() int { return in.ring.Channels() }

// Stats returns ring occupancy and overflow counters.
func (in *Ingress) Stats() Stats {
	return Stats{
		Capacity: in.ring.Capacity(),
		Buffered: in.ring.Buffered(),
		Dropped:  in.ring.Dropped(),
	}
}
