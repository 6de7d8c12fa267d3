// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gfx

import (
	"fmt"
	"image"

	"github.com/GermanBionicSystems/oled/image1bit"
)

// Colors of a monochrome panel.
const (
	Black = image1bit.Off
	White = image1bit.On
)

// Canvas is a framebuffer with a text cursor and a software inversion flag.
type Canvas struct {
	buf      *image1bit.VerticalLSB
	w, h     int
	inverted bool
	cursor   image.Point
}

// New returns a black w x h canvas.
func New(w, h int) *Canvas {
	return &Canvas{
		buf: image1bit.NewVerticalLSB(image.Rect(0, 0, w, h)),
		w:   w,
		h:   h,
	}
}

func (c *Canvas) String() string {
	return fmt.Sprintf("gfx.Canvas{%dx%d, inverted: %t, cursor: %s}", c.w, c.h, c.inverted, c.cursor)
}

// Bounds returns the canvas rectangle. Min is always {0, 0}.
func (c *Canvas) Bounds() image.Rectangle {
	return c.buf.Rect
}

// Image returns the framebuffer backing the canvas.
func (c *Canvas) Image() *image1bit.VerticalLSB {
	return c.buf
}

// Inverted reports whether software inversion is enabled.
func (c *Canvas) Inverted() bool {
	return c.inverted
}

// SetPixel sets pixel (x, y) to col. Pixels outside of the canvas are
// ignored.
func (c *Canvas) SetPixel(x, y int, col image1bit.Bit) {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return
	}
	if c.inverted {
		col = !col
	}
	offset := x + (y/8)*c.w
	if col {
		c.buf.Pix[offset] |= 1 << byte(y%8)
	} else {
		c.buf.Pix[offset] &^= 1 << byte(y%8)
	}
}

// Pixel returns the bit stored for pixel (x, y), as sent to the panel.
func (c *Canvas) Pixel(x, y int) image1bit.Bit {
	return c.buf.BitAt(x, y)
}

// Fill sets every pixel to col.
func (c *Canvas) Fill(col image1bit.Bit) {
	if c.inverted {
		col = !col
	}
	c.buf.Fill(col)
}

// ToggleInvert flips the inversion flag and inverts the current content.
func (c *Canvas) ToggleInvert() {
	c.inverted = !c.inverted
	c.buf.Invert()
}

// GotoXY moves the text cursor.
func (c *Canvas) GotoXY(x, y int) {
	c.cursor = image.Pt(x, y)
}

// Cursor returns the text cursor.
func (c *Canvas) Cursor() image.Point {
	return c.cursor
}
