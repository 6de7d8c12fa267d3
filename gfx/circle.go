// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gfx

import "github.com/GermanBionicSystems/oled/image1bit"

// DrawCircle draws a circle of radius r centered on (x0, y0) with the
// midpoint algorithm. Points outside of the canvas are dropped.
func (c *Canvas) DrawCircle(x0, y0, r int, col image1bit.Bit) {
	c.SetPixel(x0, y0+r, col)
	c.SetPixel(x0, y0-r, col)
	c.SetPixel(x0+r, y0, col)
	c.SetPixel(x0-r, y0, col)

	m := newMidpoint(r)
	for m.next() {
		x, y := m.x, m.y
		c.SetPixel(x0+x, y0+y, col)
		c.SetPixel(x0-x, y0+y, col)
		c.SetPixel(x0+x, y0-y, col)
		c.SetPixel(x0-x, y0-y, col)

		c.SetPixel(x0+y, y0+x, col)
		c.SetPixel(x0-y, y0+x, col)
		c.SetPixel(x0+y, y0-x, col)
		c.SetPixel(x0-y, y0-x, col)
	}
}

// DrawFilledCircle fills a disc of radius r centered on (x0, y0) with
// horizontal spans. Spans are clamped to the canvas like DrawLine.
func (c *Canvas) DrawFilledCircle(x0, y0, r int, col image1bit.Bit) {
	c.SetPixel(x0, y0+r, col)
	c.SetPixel(x0, y0-r, col)
	c.SetPixel(x0+r, y0, col)
	c.SetPixel(x0-r, y0, col)
	c.DrawLine(x0-r, y0, x0+r, y0, col)

	m := newMidpoint(r)
	for m.next() {
		x, y := m.x, m.y
		c.DrawLine(x0-x, y0+y, x0+x, y0+y, col)
		c.DrawLine(x0+x, y0-y, x0-x, y0-y, col)

		c.DrawLine(x0+y, y0+x, x0-y, y0+x, col)
		c.DrawLine(x0+y, y0-x, x0-y, y0-x, col)
	}
}

// midpoint walks the first octant of a circle, from (0, r) while x < y.
type midpoint struct {
	f, ddFx, ddFy int
	x, y          int
}

func newMidpoint(r int) midpoint {
	return midpoint{f: 1 - r, ddFx: 1, ddFy: -2 * r, y: r}
}

// next advances to the next point. It returns false once the octant is done.
func (m *midpoint) next() bool {
	if m.x >= m.y {
		return false
	}
	if m.f >= 0 {
		m.y--
		m.ddFy += 2
		m.f += m.ddFy
	}
	m.x++
	m.ddFx += 2
	m.f += m.ddFx
	return true
}
