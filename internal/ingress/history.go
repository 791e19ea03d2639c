// SPDX-License-Identifier: MIT
package ingress

import "fmt"

// History keeps the most recent samples of every channel in fixed circular
// buffers. It is owned and mutated by the analysis context only.
type History struct {
	channels [][]float32
	size     int
	writePos int    // next slot to write, shared by all channels
	total    uint64 // frames ever appended
}

// NewHistory allocates size samples per channel.
func NewHistory(channels, size int) (*History, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("ingress: channel count must be positive, got %d", channels)
	}
	if size <= 0 {
		return nil, fmt.Errorf("ingress: history size must be positive, got %d", size)
	}

	bufs := make([][]float32, channels)
	for ch := range bufs {
		bufs[ch] = make([]float32, size)
	}
	return &History{channels: bufs, size: size}, nil
}

// Append de-interleaves frames into the per-channel buffers. Only the last
// Size frames of an oversized block are kept.
func (h *History) Append(interleaved []float32, frames int) {
	numCh := len(h.channels)
	if limit := len(interleaved) / numCh; frames > limit {
		frames = limit
	}
	h.total += uint64(frames)

	first := 0
	if frames > h.size {
		first = frames - h.size
	}
	for i := first; i < frames; i++ {
		base := i * numCh
		for ch, buf := range h.channels {
			buf[h.writePos] = interleaved[base+ch]
		}
		h.writePos++
		if h.writePos == h.size {
			h.writePos = 0
		}
	}
}

// Channel returns the backing buffer of channel ch and the index of the slot
// that will be written next. The newest sample is at writePos-1 (mod len).
// Callers must not retain or modify the slice.
func (h *History) Channel(ch int) (samples []float32, writePos int) {
	return h.channels[ch], h.writePos
}

// Latest copies the newest len(dst) samples of channel ch into dst, oldest
// first. len(dst) must not exceed Size.
func (h *History) Latest(ch int, dst []float32) {
	buf := h.channels[ch]
	start := h.writePos - len(dst)
	if start < 0 {
		start += h.size
	}
	n := copy(dst, buf[start:])
	if n < len(dst) {
		copy(dst[n:], buf)
	}
}

// Size returns the per-channel capacity in samples.
func (h *History) Size() int { return h.size }

// NumChannels returns the channel count.
func (h *History) NumChannels() int { return len(h.channels) }

// Total returns how many frames have been appended since construction.
func (h *History) Total() uint64 { return h.total }

// Filled reports whether at least n frames have been appended.
func (h *History) Filled(n int) bool { return h.total >= uint64(n) }
