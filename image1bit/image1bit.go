// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package image1bit

import (
	"image"
	"image/color"
	"image/draw"
)

// Bit implements a 1 bit color.
type Bit bool

// Possible bitness.
const (
	On  = Bit(true)
	Off = Bit(false)
)

// RGBA returns either all white or all black.
//
// Technically the monochrome display could be colored but this information is
// unavailable here. To use a colored display, use the 1 bit image as a mask
// for a color.
func (b Bit) RGBA() (uint32, uint32, uint32, uint32) {
	if b {
		return 65535, 65535, 65535, 65535
	}
	return 0, 0, 0, 65535
}

func (b Bit) String() string {
	if b {
		return "On"
	}
	return "Off"
}

// Inverse returns the complement of b.
func (b Bit) Inverse() Bit {
	return !b
}

// BitModel is the color Model for 1 bit color.
var BitModel = color.ModelFunc(convert)

// VerticalLSB is a 1 bit vertical page-major image.
//
// Stride is the number of bytes of one page, which is the width of the
// image. Pix holds ceil(height/8) pages.
type VerticalLSB struct {
	Pix    []byte
	Stride int
	Rect   image.Rectangle
}

// NewVerticalLSB returns an initialized VerticalLSB instance, all bits Off.
func NewVerticalLSB(r image.Rectangle) *VerticalLSB {
	w := r.Dx()
	pages := (r.Dy() + 7) / 8
	return &VerticalLSB{Pix: make([]byte, w*pages), Stride: w, Rect: r}
}

// ColorModel implements image.Image.
func (i *VerticalLSB) ColorModel() color.Model {
	return BitModel
}

// Bounds implements image.Image.
func (i *VerticalLSB) Bounds() image.Rectangle {
	return i.Rect
}

// At implements image.Image.
func (i *VerticalLSB) At(x, y int) color.Color {
	return i.BitAt(x, y)
}

// BitAt is the optimized version of At(). Pixels outside Rect read as Off.
func (i *VerticalLSB) BitAt(x, y int) Bit {
	if !(image.Point{x, y}.In(i.Rect)) {
		return Off
	}
	offset, mask := i.PixOffset(x, y)
	return Bit(i.Pix[offset]&mask != 0)
}

// Opaque scans the entire image and reports whether it is fully opaque.
func (i *VerticalLSB) Opaque() bool {
	return true
}

// PixOffset returns the index of the byte holding the pixel at (x, y) and the
// mask selecting its bit.
func (i *VerticalLSB) PixOffset(x, y int) (int, byte) {
	x -= i.Rect.Min.X
	y -= i.Rect.Min.Y
	return x + (y/8)*i.Stride, 1 << byte(y&7)
}

// Set implements draw.Image.
func (i *VerticalLSB) Set(x, y int, c color.Color) {
	i.SetBit(x, y, convertBit(c))
}

// SetBit is the optimized version of Set(). Pixels outside Rect are ignored.
func (i *VerticalLSB) SetBit(x, y int, b Bit) {
	if !(image.Point{x, y}.In(i.Rect)) {
		return
	}
	offset, mask := i.PixOffset(x, y)
	if b {
		i.Pix[offset] |= mask
	} else {
		i.Pix[offset] &^= mask
	}
}

// Fill sets every bit of the image, including the unused tail of a partial
// last page, to b.
func (i *VerticalLSB) Fill(b Bit) {
	v := byte(0)
	if b {
		v = 0xFF
	}
	for j := range i.Pix {
		i.Pix[j] = v
	}
}

// Invert complements every bit of the image.
func (i *VerticalLSB) Invert() {
	for j := range i.Pix {
		i.Pix[j] = ^i.Pix[j]
	}
}

// DrawHLine draws a horizontal line from x0 (inclusive) to x1 (exclusive) on
// row y.
func (i *VerticalLSB) DrawHLine(x0, x1, y int, b Bit) {
	for x := x0; x < x1; x++ {
		i.SetBit(x, y, b)
	}
}

// DrawVLine draws a vertical line from y0 (inclusive) to y1 (exclusive) on
// column x.
func (i *VerticalLSB) DrawVLine(y0, y1, x int, b Bit) {
	for y := y0; y < y1; y++ {
		i.SetBit(x, y, b)
	}
}

// SubImage returns an image representing the portion of the image visible
// through r. The returned value does not share pixels with the original
// image when r does not start on a page boundary.
func (i *VerticalLSB) SubImage(r image.Rectangle) image.Image {
	r = r.Intersect(i.Rect)
	out := NewVerticalLSB(r)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			out.SetBit(x, y, i.BitAt(x, y))
		}
	}
	return out
}

var _ draw.Image = &VerticalLSB{}

func convert(c color.Color) color.Color {
	return convertBit(c)
}

// Any channel at half intensity or more turns the bit on.
func convertBit(c color.Color) Bit {
	switch t := c.(type) {
	case Bit:
		return t
	default:
		r, g, b, _ := c.RGBA()
		return Bit((r | g | b) >= 0x8000)
	}
}
