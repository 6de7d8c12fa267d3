// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bitfont

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// LastChar is the last character rendered by FromFace.
const LastChar = '~'

// Basic7x13 is the 7x13 fixed font of golang.org/x/image/font/basicfont
// converted to a MSBFirst table.
var Basic7x13 = mustFromFace(basicfont.Face7x13, MSBFirst)

// FromFace renders characters FirstChar to LastChar of face into a Font.
//
// The glyph cell is the advance of 'M' by the ascent plus descent of the face.
// Glyphs missing from the face are left blank. Pixels covered at half
// intensity or more are set.
func FromFace(face font.Face, order BitOrder) (*Font, error) {
	adv, ok := face.GlyphAdvance('M')
	if !ok {
		return nil, fmt.Errorf("bitfont: face has no glyph for 'M'")
	}
	m := face.Metrics()
	w := adv.Ceil()
	ascent := m.Ascent.Ceil()
	h := ascent + m.Descent.Ceil()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("bitfont: invalid face cell %dx%d", w, h)
	}
	f := &Font{Width: w, Height: h, Order: order}
	f.Data = make([]byte, 0, (LastChar-FirstChar+1)*f.GlyphSize())
	cell := image.NewGray(image.Rect(0, 0, w, h))
	d := font.Drawer{Dst: cell, Src: image.White, Face: face}
	for ch := rune(FirstChar); ch <= LastChar; ch++ {
		draw.Draw(cell, cell.Bounds(), image.Black, image.Point{}, draw.Src)
		if _, ok := face.GlyphAdvance(ch); ok {
			d.Dot = fixed.P(0, ascent)
			d.DrawString(string(ch))
		}
		f.Data = append(f.Data, f.pack(cell)...)
	}
	return f, nil
}

// FromTrueType parses a TrueType font and renders it at size points (72 DPI,
// so one point is one pixel).
func FromTrueType(ttf []byte, size float64, order BitOrder) (*Font, error) {
	tt, err := truetype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("bitfont: %w", err)
	}
	face := truetype.NewFace(tt, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull})
	defer face.Close()
	return FromFace(face, order)
}

// pack encodes a glyph cell into rows using the font bit order.
func (f *Font) pack(cell *image.Gray) []byte {
	out := make([]byte, f.GlyphSize())
	rb := f.RowBytes()
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			if cell.GrayAt(x, y).Y < 0x80 {
				continue
			}
			k := byte(x % 8)
			if f.Order == MSBFirst {
				out[y*rb+x/8] |= 0x80 >> k
			} else {
				out[y*rb+x/8] |= 1 << k
			}
		}
	}
	return out
}

func mustFromFace(face font.Face, order BitOrder) *Font {
	f, err := FromFace(face, order)
	if err != nil {
		panic(err)
	}
	return f
}
