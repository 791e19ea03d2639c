// SPDX-License-Identifier: MIT
/*
Package geometry converts plot curves into triangle-strip vertex arrays.

Both builders emit two vertices per plot point, four float32 values in all:

	x0 y0 x1 y1

so that consecutive pairs form the quads of a strip. Indices returns the
matching element list for renderers that draw indexed triangles.
*/
package geometry

import "math"

// Stroke emits a band of thickness pixels centred on the curve. Each point is
// offset perpendicular to its tangent angle; width and height convert pixels
// into clip-space units. dst is reused when it has enough capacity.
func Stroke(dst []float32, x, y, angle []float32, thickness float64, width, height int) []float32 {
	n := min(len(x), len(y), len(angle))
	dst = grow(dst, 4*n)
	if width < 1 || height < 1 {
		width, height = 1, 1
	}

	for i := range n {
		sin, cos := math.Sincos(float64(angle[i]))
		tx := float32(sin * thickness / float64(width) * 0.5)
		ty := float32(cos * thickness / float64(height) * 0.5)
		dst[4*i+0] = x[i] - tx
		dst[4*i+1] = y[i] + ty
		dst[4*i+2] = x[i] + tx
		dst[4*i+3] = y[i] - ty
	}
	return dst
}

// Fill emits the area between the curve and the bottom edge of clip space.
func Fill(dst []float32, x, y []float32) []float32 {
	n := min(len(x), len(y))
	dst = grow(dst, 4*n)
	for i := range n {
		dst[4*i+0] = x[i]
		dst[4*i+1] = y[i]
		dst[4*i+2] = x[i]
		dst[4*i+3] = -1
	}
	return dst
}

// Indices returns the two triangles per segment for a strip of points
// vertex pairs.
func Indices(dst []uint32, points int) []uint32 {
	segments := max(points-1, 0)
	if cap(dst) < 6*segments {
		dst = make([]uint32, 6*segments)
	}
	dst = dst[:6*segments]
	for i := range segments {
		v := uint32(2 * i)
		dst[6*i+0] = v
		dst[6*i+1] = v + 1
		dst[6*i+2] = v + 2
		dst[6*i+3] = v + 1
		dst[6*i+4] = v + 2
		dst[6*i+5] = v + 3
	}
	return dst
}

func grow(s []float32, n int) []float32 {
	if cap(s) < n {
		return make([]float32, n)
	}
	return s[:n]
}
