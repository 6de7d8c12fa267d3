// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gfx

import "github.com/GermanBionicSystems/oled/image1bit"

// DrawLine draws a line from (x0, y0) to (x1, y1), both ends included.
//
// Endpoints are first clamped to the canvas.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int, col image1bit.Bit) {
	x0, x1 = clamp(x0, c.w-1), clamp(x1, c.w-1)
	y0, y1 = clamp(y0, c.h-1), clamp(y1, c.h-1)

	dx, sx := abs(x1-x0), sign(x0, x1)
	dy, sy := abs(y1-y0), sign(y0, y1)

	// Axis aligned lines are plotted directly.
	if dx == 0 || dy == 0 {
		if y1 < y0 {
			y0, y1 = y1, y0
		}
		if x1 < x0 {
			x0, x1 = x1, x0
		}
		for y := y0; y <= y1; y++ {
			for x := x0; x <= x1; x++ {
				c.SetPixel(x, y, col)
			}
		}
		return
	}

	err := -dy / 2
	if dx > dy {
		err = dx / 2
	}
	for {
		c.SetPixel(x0, y0, col)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := err
		if e2 > -dx {
			err -= dy
			x0 += sx
		}
		if e2 < dy {
			err += dx
			y0 += sy
		}
	}
}

// DrawRectangle draws the outline of the rectangle spanning (x, y) to
// (x+w, y+h), both corners included.
//
// Nothing is drawn if (x, y) is outside of the canvas or w or h is negative.
// w and h are reduced so the rectangle ends at the canvas edge.
func (c *Canvas) DrawRectangle(x, y, w, h int, col image1bit.Bit) {
	w, h, ok := c.fitRect(x, y, w, h)
	if !ok {
		return
	}
	c.DrawLine(x, y, x+w, y, col)
	c.DrawLine(x, y+h, x+w, y+h, col)
	c.DrawLine(x, y, x, y+h, col)
	c.DrawLine(x+w, y, x+w, y+h, col)
}

// DrawFilledRectangle fills the rectangle spanning (x, y) to (x+w, y+h), both
// corners included. Bounds are handled like DrawRectangle.
func (c *Canvas) DrawFilledRectangle(x, y, w, h int, col image1bit.Bit) {
	w, h, ok := c.fitRect(x, y, w, h)
	if !ok {
		return
	}
	for i := 0; i <= h; i++ {
		c.DrawLine(x, y+i, x+w, y+i, col)
	}
}

func (c *Canvas) fitRect(x, y, w, h int) (int, int, bool) {
	if x < 0 || y < 0 || x >= c.w || y >= c.h || w < 0 || h < 0 {
		return 0, 0, false
	}
	if x+w >= c.w {
		w = c.w - x
	}
	if y+h >= c.h {
		h = c.h - y
	}
	return w, h, true
}

// DrawTriangle draws the outline of a triangle.
func (c *Canvas) DrawTriangle(x1, y1, x2, y2, x3, y3 int, col image1bit.Bit) {
	c.DrawLine(x1, y1, x2, y2, col)
	c.DrawLine(x2, y2, x3, y3, col)
	c.DrawLine(x3, y3, x1, y1, col)
}

// DrawFilledTriangle fills a triangle by walking the edge from (x1, y1) to
// (x2, y2) and drawing a line from every step to (x3, y3).
func (c *Canvas) DrawFilledTriangle(x1, y1, x2, y2, x3, y3 int, col image1bit.Bit) {
	deltax, deltay := abs(x2-x1), abs(y2-y1)
	xinc1, xinc2 := 1, 1
	if x2 < x1 {
		xinc1, xinc2 = -1, -1
	}
	yinc1, yinc2 := 1, 1
	if y2 < y1 {
		yinc1, yinc2 = -1, -1
	}

	var den, num, numadd, numpixels int
	if deltax >= deltay {
		xinc1, yinc2 = 0, 0
		den, num, numadd, numpixels = deltax, deltax/2, deltay, deltax
	} else {
		xinc2, yinc1 = 0, 0
		den, num, numadd, numpixels = deltay, deltay/2, deltax, deltay
	}

	x, y := x1, y1
	for i := 0; i <= numpixels; i++ {
		c.DrawLine(x, y, x3, y3, col)
		num += numadd
		if num >= den {
			num -= den
			x += xinc1
			y += yinc1
		}
		x += xinc2
		y += yinc2
	}
}

func clamp(v, hi int) int {
	if v < 0 {
		return 0
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(from, to int) int {
	if from < to {
		return 1
	}
	return -1
}
