// SPDX-License-Identifier: MIT
package spectrum

import (
	"fmt"
	"math"

	applog "scope/internal/log"
)

// Unmapped marks a bin that does not contribute to any chunk.
const Unmapped = -1

// Chunker groups linear transform bins into display chunks on a log2
// frequency axis. At low frequencies every bin gets its own chunk; once two
// neighbouring bins land in the same pixel column the chunker switches to
// multi-bin mode and from then on merges every bin of a column into one chunk.
type Chunker struct {
	binFreq    []float64
	logLow     float64
	logRange   float64
	pixelWidth float64
	floor      float64

	width      int
	binToChunk []int
	chunkX     []float64
	instant    []float64
}

// NewChunker prepares a chunker for bins with the given centre frequencies.
// No chunks exist until Rebuild is called with a display width.
func NewChunker(binFreq []float64, freqLow, freqHigh, chunkPixelWidth, floor float64) (*Chunker, error) {
	switch {
	case len(binFreq) == 0:
		return nil, fmt.Errorf("spectrum: chunker needs at least one bin")
	case !(freqLow > 0):
		return nil, fmt.Errorf("spectrum: low frequency must be positive, got %g", freqLow)
	case !(freqHigh > freqLow):
		return nil, fmt.Errorf("spectrum: high frequency %g must exceed low frequency %g", freqHigh, freqLow)
	case !(chunkPixelWidth > 0):
		return nil, fmt.Errorf("spectrum: chunk pixel width must be positive, got %g", chunkPixelWidth)
	}

	n := len(binFreq)
	freqs := make([]float64, n)
	copy(freqs, binFreq)
	return &Chunker{
		binFreq:    freqs,
		logLow:     math.Log2(freqLow),
		logRange:   math.Log2(freqHigh) - math.Log2(freqLow),
		pixelWidth: chunkPixelWidth,
		floor:      floor,
		binToChunk: make([]int, n),
		chunkX:     make([]float64, 0, n),
		instant:    make([]float64, 0, n),
	}, nil
}

// Position maps a frequency onto the display axis: 0 at the low frequency,
// 1 at the high frequency.
func (c *Chunker) Position(freq float64) float64 {
	return (math.Log2(freq) - c.logLow) / c.logRange
}

// Rebuild recomputes the bin to chunk map and the chunk positions for a
// display width in pixels. Instantaneous values are reset to the floor.
func (c *Chunker) Rebuild(width int) error {
	if width < 1 {
		return fmt.Errorf("spectrum: display width must be at least 1, got %d", width)
	}
	c.width = width
	c.chunkX = c.chunkX[:0]

	var (
		multi       bool
		firstChunk  int
		firstOffset int
		lastNominal int
		haveLast    bool
	)
	for bin, freq := range c.binFreq {
		pos := c.Position(freq)
		// DC has no place on a log axis.
		if freq <= 0 || pos > 1 || math.IsNaN(pos) {
			c.binToChunk[bin] = Unmapped
			continue
		}

		nominal := int(math.Floor(pos * float64(width) / c.pixelWidth))
		if multi {
			c.binToChunk[bin] = firstChunk + nominal - firstOffset
			if nominal != lastNominal {
				c.chunkX = append(c.chunkX, pos)
			}
		} else {
			// The bin that triggers multi-bin mode keeps a chunk of its own
			// even though it shares a column with its predecessor.
			chunk := len(c.chunkX)
			c.binToChunk[bin] = chunk
			c.chunkX = append(c.chunkX, pos)
			if haveLast && nominal == lastNominal {
				multi = true
				firstChunk = chunk
				firstOffset = nominal
			}
		}
		lastNominal = nominal
		haveLast = true
	}

	numChunks := len(c.chunkX)
	var orphaned int
	for bin, chunk := range c.binToChunk {
		if chunk >= numChunks {
			c.binToChunk[bin] = Unmapped
			orphaned++
		}
	}
	if orphaned > 0 {
		applog.Debugf("Spectrum: %d bins fell past the last chunk at width %d", orphaned, width)
	}

	c.instant = c.instant[:numChunks]
	c.resetInstants()
	return nil
}

func (c *Chunker) resetInstants() {
	for i := range c.instant {
		c.instant[i] = c.floor
	}
}

// Aggregate sets every chunk's instantaneous value to the loudest of its
// bins. frame must hold one value per bin.
func (c *Chunker) Aggregate(frame []float64) {
	c.resetInstants()
	for bin, chunk := range c.binToChunk {
		if chunk < 0 {
			continue
		}
		if v := frame[bin]; v > c.instant[chunk] {
			c.instant[chunk] = v
		}
	}
}

// ChunkX returns the axis position of every chunk, strictly increasing.
func (c *Chunker) ChunkX() []float64 { return c.chunkX }

// Instants returns the values computed by the last Aggregate.
func (c *Chunker) Instants() []float64 { return c.instant }

// BinToChunk returns the chunk index of every bin, or Unmapped.
func (c *Chunker) BinToChunk() []int { return c.binToChunk }

func (c *Chunker) NumChunks() int { return len(c.chunkX) }
func (c *Chunker) NumBins() int   { return len(c.binFreq) }
func (c *Chunker) Width() int     { return c.width }
