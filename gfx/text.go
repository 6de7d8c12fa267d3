// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gfx

import (
	"github.com/GermanBionicSystems/oled/bitfont"
	"github.com/GermanBionicSystems/oled/image1bit"
)

// PutChar draws ch at the cursor and advances the cursor by the font width.
//
// Set glyph bits are drawn with col, clear bits with its inverse, so the
// glyph cell is fully repainted.
//
// It returns ch. If the font has no glyph for ch, nothing is drawn, the
// cursor does not move and 0 is returned.
func (c *Canvas) PutChar(ch rune, f *bitfont.Font, col image1bit.Bit) rune {
	g, ok := f.Glyph(ch)
	if !ok {
		return 0
	}
	rb := f.RowBytes()
	for i := 0; i < f.Height; i++ {
		row := g[i*rb : (i+1)*rb]
		for j := 0; j < rb; j++ {
			for k := 0; k < 8 && k < f.Width-j*8; k++ {
				px := col
				if !f.Pixel(row, j*8+k) {
					px = !col
				}
				c.SetPixel(c.cursor.X+j*8+k, c.cursor.Y+i, px)
			}
		}
	}
	c.cursor.X += f.Width
	return ch
}

// PutString draws s rune by rune with PutChar.
//
// It returns 0 once every rune is drawn, or the first rune that could not be
// drawn. Runes after it are not drawn.
func (c *Canvas) PutString(s string, f *bitfont.Font, col image1bit.Bit) rune {
	for _, ch := range s {
		if c.PutChar(ch, f, col) != ch {
			return ch
		}
	}
	return 0
}
