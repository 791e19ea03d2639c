// SPDX-License-Identifier: MIT
package analysis

import "fmt"

// RangeMapper maps decibels linearly onto [-1, 1] display coordinates with
// top at 1 and bottom at -1. Values outside the range are not clamped.
type RangeMapper struct {
	top    float64
	bottom float64
}

// NewRangeMapper returns a mapper covering [top-span, top].
func NewRangeMapper(top, span float64) (RangeMapper, error) {
	if !(span > 0) {
		return RangeMapper{}, fmt.Errorf("analysis: range span must be positive, got %g", span)
	}
	return RangeMapper{top: top, bottom: top - span}, nil
}

// Map converts one decibel value.
func (m RangeMapper) Map(db float64) float64 {
	return 2*(db-m.bottom)/(m.top-m.bottom) - 1
}

// MapInto converts src into dst; len(dst) must be at least len(src).
func (m RangeMapper) MapInto(dst []float32, src []float64) {
	for i, v := range src {
		dst[i] = float32(m.Map(v))
	}
}

func (m RangeMapper) Top() float64    { return m.top }
func (m RangeMapper) Bottom() float64 { return m.bottom }
