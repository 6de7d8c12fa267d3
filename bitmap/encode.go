// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bitmap

import (
	"errors"
	"fmt"
	"image"

	"github.com/GermanBionicSystems/oled/image1bit"
	"github.com/fogleman/gg"
)

// Encode packs frames into an asset. All frames must have the size of the
// first one. Colors are converted with image1bit.BitModel.
func Encode(frames []image.Image) ([]byte, error) {
	if len(frames) == 0 {
		return nil, errors.New("bitmap: no frames")
	}
	if len(frames) > MaxFrames {
		return nil, fmt.Errorf("bitmap: too many frames %d", len(frames))
	}
	r := frames[0].Bounds()
	h := Header{Width: r.Dx(), Height: r.Dy(), Frames: len(frames)}
	if h.Width <= 0 || h.Height <= 0 || h.Width > MaxSize || h.Height > MaxSize {
		return nil, fmt.Errorf("bitmap: invalid size %dx%d", h.Width, h.Height)
	}
	h.FrameSize = (h.Bits() + 7) / 8
	if h.FrameSize > MaxFrameSize {
		return nil, fmt.Errorf("bitmap: frame size %d too large", h.FrameSize)
	}
	out := make([]byte, HeaderSize, HeaderSize+h.Frames*h.FrameSize)
	copy(out, h.Bytes())
	for n, f := range frames {
		fr := f.Bounds()
		if fr.Dx() != h.Width || fr.Dy() != h.Height {
			return nil, fmt.Errorf("bitmap: frame %d is %dx%d, want %dx%d", n, fr.Dx(), fr.Dy(), h.Width, h.Height)
		}
		out = append(out, encodeFrame(f, h)...)
	}
	return out, nil
}

func encodeFrame(f image.Image, h Header) []byte {
	buf := make([]byte, h.FrameSize)
	r := f.Bounds()
	b := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if image1bit.BitModel.Convert(f.At(x, y)).(image1bit.Bit) {
				buf[b/8] |= 1 << (b % 8)
			}
			b++
		}
	}
	return buf
}

// Render draws n frames of w x h pixels with paint and encodes them.
//
// Each frame starts cleared to black; paint draws with any gg primitive.
// Anti-aliased edges are thresholded at half intensity.
func Render(w, h, n int, paint func(dc *gg.Context, frame int)) ([]byte, error) {
	if n <= 0 {
		return nil, errors.New("bitmap: no frames")
	}
	frames := make([]image.Image, 0, n)
	for i := 0; i < n; i++ {
		dc := gg.NewContext(w, h)
		dc.SetRGB(0, 0, 0)
		dc.Clear()
		dc.SetRGB(1, 1, 1)
		paint(dc, i)
		frames = append(frames, dc.Image())
	}
	return Encode(frames)
}
