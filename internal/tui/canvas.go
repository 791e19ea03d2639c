// SPDX-License-Identifier: MIT
package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Braille cells hold a 2x4 grid of dots.
const (
	dotsX = 2
	dotsY = 4
)

// brailleBits[y][x] is the bit for the dot in column x, row y of a cell.
var brailleBits = [dotsY][dotsX]uint8{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// Canvas rasterises clip-space curves onto terminal cells using braille
// dots. Each cell is coloured by the last layer that drew into it.
type Canvas struct {
	cols, rows int
	dots       []uint8
	owner      []int8
	sb         strings.Builder
}

// NewCanvas returns a canvas of cols x rows cells.
func NewCanvas(cols, rows int) *Canvas {
	c := &Canvas{}
	c.Resize(cols, rows)
	return c
}

// Resize changes the cell grid and clears it.
func (c *Canvas) Resize(cols, rows int) {
	c.cols, c.rows = max(cols, 1), max(rows, 1)
	n := c.cols * c.rows
	if cap(c.dots) < n {
		c.dots = make([]uint8, n)
		c.owner = make([]int8, n)
	}
	c.dots = c.dots[:n]
	c.owner = c.owner[:n]
	c.Clear()
}

// Clear removes every dot.
func (c *Canvas) Clear() {
	for i := range c.dots {
		c.dots[i] = 0
		c.owner[i] = -1
	}
}

// DotSize returns the drawable resolution in dots.
func (c *Canvas) DotSize() (width, height int) { return c.cols * dotsX, c.rows * dotsY }

// Plot draws the polyline through (x[i], y[i]) in clip space, or the area
// under it when filled.
func (c *Canvas) Plot(layer int, x, y []float32, filled bool) {
	n := min(len(x), len(y))
	if n == 0 {
		return
	}
	px, py := c.toDots(x[0], y[0])
	if n == 1 {
		c.mark(layer, px, py, filled)
		return
	}
	for i := 1; i < n; i++ {
		qx, qy := c.toDots(x[i], y[i])
		c.line(layer, px, py, qx, qy, filled)
		px, py = qx, qy
	}
}

func (c *Canvas) toDots(x, y float32) (int, int) {
	w, h := c.DotSize()
	dx := int((x + 1) / 2 * float32(w-1))
	dy := int((1 - y) / 2 * float32(h-1))
	return dx, dy
}

// line is a Bresenham walk from (x0,y0) to (x1,y1).
func (c *Canvas) line(layer, x0, y0, x1, y1 int, filled bool) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		c.mark(layer, x0, y0, filled)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) mark(layer, x, y int, filled bool) {
	w, h := c.DotSize()
	if x < 0 || x >= w {
		return
	}
	bottom := y
	if filled {
		bottom = h - 1
	}
	for yy := max(y, 0); yy <= min(bottom, h-1); yy++ {
		cell := (yy/dotsY)*c.cols + x/dotsX
		c.dots[cell] |= brailleBits[yy%dotsY][x%dotsX]
		c.owner[cell] = int8(layer)
	}
}

// Cell returns the braille rune at column col, row row, and the layer that
// owns it (-1 for an empty cell).
func (c *Canvas) Cell(col, row int) (rune, int) {
	i := row*c.cols + col
	if c.dots[i] == 0 {
		return ' ', -1
	}
	return 0x2800 + rune(c.dots[i]), int(c.owner[i])
}

// Render returns the canvas as rows joined by newlines, colouring each run
// of cells by its layer style.
func (c *Canvas) Render(styles []lipgloss.Style) string {
	c.sb.Reset()
	var run []rune
	flush := func(layer int) {
		if len(run) == 0 {
			return
		}
		if layer >= 0 && layer < len(styles) {
			c.sb.WriteString(styles[layer].Render(string(run)))
		} else {
			c.sb.WriteString(string(run))
		}
		run = run[:0]
	}

	for row := range c.rows {
		if row > 0 {
			c.sb.WriteByte('\n')
		}
		current := -1
		for col := range c.cols {
			r, layer := c.Cell(col, row)
			if layer != current && r != ' ' {
				flush(current)
				current = layer
			}
			run = append(run, r)
		}
		flush(current)
	}
	return c.sb.String()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
