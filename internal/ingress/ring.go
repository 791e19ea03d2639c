// SPDX-License-Identifier: MIT
/*
Package ingress bridges the capture callback and the analysis loop.

The capture side calls Push from the audio backend's thread; the analysis
side calls Drain once per rendered frame. Each cursor has exactly one writer:

	reserved  written by Push before copying samples in
	written   written by Push after the copy is complete
	read      written by Drain

Push never waits for the reader. When it laps unread data the oldest frames
are lost; Drain notices, advances the read cursor past them and only hands
over frames that were not overwritten while it was copying. Neither side
locks, sleeps or retries.
*/
package ingress

import (
	"fmt"
	"sync/atomic"

	"scope/pkg/bitint"
)

// Ring is a single-producer/single-consumer ring of interleaved float32
// frames with drop-oldest overflow.
type Ring struct {
	data     []float32 // capacity * channels samples
	channels int
	capacity uint64 // frames, power of two
	mask     uint64

	reserved atomic.Uint64 // highest frame index Push may be touching
	written  atomic.Uint64 // frames fully written
	read     atomic.Uint64 // frames consumed or dropped
	dropped  atomic.Uint64 // frames lost to overflow

	scratch []float32 // consumer-owned staging area, same size as data
}

// NewRing allocates a ring holding at least frames frames of channels
// interleaved samples. The capacity is rounded up to a power of two.
func NewRing(frames, channels int) (*Ring, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("ingress: channel count must be positive, got %d", channels)
	}
	if frames <= 0 {
		return nil, fmt.Errorf("ingress: ring size must be positive, got %d", frames)
	}

	capacity := bitint.NextPowerOfTwo(frames)
	return &Ring{
		data:     make([]float32, capacity*channels),
		channels: channels,
		capacity: uint64(capacity),
		mask:     uint64(capacity - 1),
		scratch:  make([]float32, capacity*channels),
	}, nil
}

// Push copies count interleaved frames into the ring. It is called only from
// the capture context, never blocks and never allocates. count is clamped to
// what frames actually holds.
func (r *Ring) Push(frames []float32, count int) {
	if limit := len(frames) / r.channels; count > limit {
		count = limit
	}
	if count <= 0 {
		return
	}

	w := r.written.Load()

	// Only the newest capacity frames of an oversized block can survive.
	if uint64(count) > r.capacity {
		skip := count - int(r.capacity)
		frames = frames[skip*r.channels:]
		w += uint64(skip)
		count = int(r.capacity)
	}

	end := w + uint64(count)
	r.reserved.Store(end)
	r.copyIn(w, frames[:count*r.channels])
	r.written.Store(end)
}

// copyIn writes samples starting at frame index pos, splitting at the wrap.
func (r *Ring) copyIn(pos uint64, samples []float32) {
	start := int(pos&r.mask) * r.channels
	n := copy(r.data[start:], samples)
	if n < len(samples) {
		copy(r.data, samples[n:])
	}
}

// copyOut reads count frames starting at frame index pos into dst.
func (r *Ring) copyOut(dst []float32, pos uint64, count int) {
	start := int(pos&r.mask) * r.channels
	total := count * r.channels
	n := copy(dst[:total], r.data[start:])
	if n < total {
		copy(dst[n:total], r.data)
	}
}

// Drain moves every available frame into history in push order and returns
// how many frames were delivered. It is called only from the analysis
// context. After an overflow the delivered frames are the newest contiguous
// suffix of what was pushed, never more than Capacity frames.
func (r *Ring) Drain(history *History) int {
	w := r.written.Load()
	rp := r.read.Load()
	if w == rp {
		return 0
	}

	// Frames older than one full lap have already been overwritten.
	if w-rp > r.capacity {
		r.dropped.Add(w - r.capacity - rp)
		rp = w - r.capacity
	}

	count := int(w - rp)
	r.copyOut(r.scratch, rp, count)

	// Anything below reserved-capacity may have been overwritten while we
	// were copying; discard it from the front of the staged block.
	start := rp
	if res := r.reserved.Load(); res > r.capacity && res-r.capacity > start {
		start = res - r.capacity
	}
	if start >= w {
		r.dropped.Add(w - rp)
		r.read.Store(w)
		return 0
	}
	if skip := start - rp; skip > 0 {
		r.dropped.Add(skip)
	}

	valid := int(w - start)
	offset := int(start-rp) * r.channels
	history.Append(r.scratch[offset:offset+valid*r.channels], valid)
	r.read.Store(w)
	return valid
}

// Capacity returns the ring size in frames.
func (r *Ring) Capacity() int { return int(r.capacity) }

// Channels returns the number of interleaved channels per frame.
func (r *Ring) Channels() int { return r.channels }

// Buffered returns the number of unread frames, capped at Capacity. Safe
// from any goroutine; the value is a snapshot.
func (r *Ring) Buffered() int {
	n := r.written.Load() - r.read.Load()
	if n > r.capacity {
		n = r.capacity
	}
	return int(n)
}

// Dropped returns the total number of frames lost to overflow.
func (r *Ring) Dropped() uint64 { return r.dropped.Load() }
