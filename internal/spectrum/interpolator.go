// SPDX-License-Identifier: MIT
package spectrum

import (
	"fmt"
	"math"
)

// CatmullRom evaluates the uniform Catmull-Rom segment between y1 and y2 at
// t in [0, 1).
func CatmullRom(t, y0, y1, y2, y3 float64) float64 {
	return ((-y0+3*y1-3*y2+y3)*t*t*t +
		(2*y0-5*y1+4*y2-y3)*t*t +
		(-y0+y2)*t +
		2*y1) * 0.5
}

// CatmullRomDerivative is d/dt of CatmullRom.
func CatmullRomDerivative(t, y0, y1, y2, y3 float64) float64 {
	return (3*(-y0+3*y1-3*y2+y3)*t*t +
		2*(2*y0-5*y1+4*y2-y3)*t +
		(-y0 + y2)) * 0.5
}

// Interpolator expands per-chunk values into a smooth curve with resolution
// points per chunk. X is fixed between rebuilds; Y and the tangent angle are
// regenerated on every Update.
type Interpolator struct {
	resolution int
	xs         []float64
	plotX      []float32
	plotY      []float32
	angle      []float32
}

func NewInterpolator(resolution int) (*Interpolator, error) {
	if resolution < 1 {
		return nil, fmt.Errorf("spectrum: interpolation resolution must be at least 1, got %d", resolution)
	}
	return &Interpolator{resolution: resolution}, nil
}

// neighbours returns the four chunks around output point i, clamped at the
// ends, and the local parameter t.
func (p *Interpolator) neighbours(i int) (t0, t1, t2, t3 int, t float64) {
	last := len(p.xs) - 1
	t1 = i / p.resolution
	t0 = max(t1-1, 0)
	t2 = min(t1+1, last)
	t3 = min(t1+2, last)
	t = float64(i%p.resolution) / float64(p.resolution)
	return
}

// SetX installs the chunk x positions and recomputes the plot x values.
func (p *Interpolator) SetX(xs []float64) {
	n := len(xs) * p.resolution
	p.xs = append(p.xs[:0], xs...)
	p.plotX = resize(p.plotX, n)
	p.plotY = resize(p.plotY, n)
	p.angle = resize(p.angle, n)

	for i := range n {
		t0, t1, t2, t3, t := p.neighbours(i)
		p.plotX[i] = float32(CatmullRom(t, p.xs[t0], p.xs[t1], p.xs[t2], p.xs[t3]))
	}
}

// Update interpolates ys, one value per chunk, into the plot y values and
// tangent angles.
func (p *Interpolator) Update(ys []float64) {
	xs := p.xs
	for i := range p.plotY {
		t0, t1, t2, t3, t := p.neighbours(i)
		y0, y1, y2, y3 := ys[t0], ys[t1], ys[t2], ys[t3]
		p.plotY[i] = float32(CatmullRom(t, y0, y1, y2, y3))
		dy := CatmullRomDerivative(t, y0, y1, y2, y3)
		dx := CatmullRomDerivative(t, xs[t0], xs[t1], xs[t2], xs[t3])
		p.angle[i] = float32(math.Atan2(dy, dx))
	}
}

func (p *Interpolator) PlotX() []float32     { return p.plotX }
func (p *Interpolator) PlotY() []float32     { return p.plotY }
func (p *Interpolator) PlotAngle() []float32 { return p.angle }
func (p *Interpolator) NumPoints() int       { return len(p.plotX) }
func (p *Interpolator) Resolution() int      { return p.resolution }

func resize(s []float32, n int) []float32 {
	if cap(s) < n {
		return make([]float32, n)
	}
	s = s[:n]
	clear(s)
	return s
}
