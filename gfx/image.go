// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gfx

import (
	"github.com/GermanBionicSystems/oled/bitmap"
	"github.com/GermanBionicSystems/oled/image1bit"
)

// DrawImage draws one frame of a bitmap asset with its top-left corner at
// (x, y). Both set and clear pixels are drawn.
//
// Nothing is drawn if the header is incomplete, frame is not in the asset or
// the frame data is truncated.
func (c *Canvas) DrawImage(img []byte, frame, x, y int) {
	h, err := bitmap.ParseHeader(img)
	if err != nil || frame < 0 || frame >= h.Frames {
		return
	}
	start := frame * h.FrameSize
	if len(img) < bitmap.HeaderSize+start+(h.Bits()+7)/8 {
		return
	}
	b := 0
	for i := 0; i < h.Height; i++ {
		for j := 0; j < h.Width; j++ {
			v := img[bitmap.HeaderSize+start+b/8] >> (b % 8) & 1
			c.SetPixel(x+j, y+i, image1bit.Bit(v != 0))
			b++
		}
	}
}

// DrawBitmap draws frame of a parsed asset with its top-left corner at (x, y).
func (c *Canvas) DrawBitmap(img *bitmap.Image, frame, x, y int) {
	if frame < 0 || frame >= img.Frames {
		return
	}
	for i := 0; i < img.Height; i++ {
		for j := 0; j < img.Width; j++ {
			c.SetPixel(x+j, y+i, img.BitAt(frame, j, i))
		}
	}
}
