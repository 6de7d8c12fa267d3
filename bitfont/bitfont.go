// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bitfont

import (
	"errors"
	"fmt"
)

// FirstChar is the character code of the first glyph of every font table.
const FirstChar = 32

// BitOrder determines which bit of a row byte is the leftmost pixel.
type BitOrder uint8

// Possible bit orders.
const (
	MSBFirst BitOrder = 0
	LSBFirst BitOrder = 1
)

func (o BitOrder) String() string {
	if o == MSBFirst {
		return "MSBFirst"
	}
	return "LSBFirst"
}

// Font is a monospaced bitmap font.
//
// Any Order value other than MSBFirst reads rows LSB first.
type Font struct {
	Width  int
	Height int
	Order  BitOrder
	// Data holds the glyphs for characters FirstChar and up, each Height rows
	// of RowBytes() bytes.
	Data []byte
}

// RowBytes returns the number of bytes used by one glyph row.
func (f *Font) RowBytes() int {
	return (f.Width + 7) / 8
}

// GlyphSize returns the number of bytes used by one glyph.
func (f *Font) GlyphSize() int {
	return f.Height * f.RowBytes()
}

// Len returns the number of glyphs in the table.
func (f *Font) Len() int {
	if s := f.GlyphSize(); s != 0 {
		return len(f.Data) / s
	}
	return 0
}

// Glyph returns the rows of the glyph for ch.
//
// It returns false if ch is below FirstChar or beyond the end of the table.
func (f *Font) Glyph(ch rune) ([]byte, bool) {
	i := int(ch) - FirstChar
	if i < 0 || i >= f.Len() {
		return nil, false
	}
	s := f.GlyphSize()
	return f.Data[i*s : (i+1)*s], true
}

// Pixel reports whether the pixel at column x of the given glyph row is set.
func (f *Font) Pixel(row []byte, x int) bool {
	b := row[x/8]
	k := uint(x % 8)
	if f.Order == MSBFirst {
		return (b<<k)&0x80 != 0
	}
	return b&(1<<k) != 0
}

// Validate returns an error if the font geometry is unusable.
func (f *Font) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("bitfont: invalid size %dx%d", f.Width, f.Height)
	}
	if len(f.Data) == 0 {
		return errors.New("bitfont: empty glyph table")
	}
	if len(f.Data)%f.GlyphSize() != 0 {
		return fmt.Errorf("bitfont: glyph table length %d is not a multiple of %d", len(f.Data), f.GlyphSize())
	}
	return nil
}

func (f *Font) String() string {
	return fmt.Sprintf("bitfont.Font{%dx%d, %s, %d glyphs}", f.Width, f.Height, f.Order, f.Len())
}
