// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bitmap

import (
	"errors"
	"fmt"
	"image"

	"github.com/GermanBionicSystems/oled/image1bit"
)

// HeaderSize is the size of the asset header in bytes.
const HeaderSize = 5

// Limits imposed by the header encoding.
const (
	MaxSize      = 255
	MaxFrames    = 255
	MaxFrameSize = 0xFFFF
)

var (
	// ErrShortHeader is returned when an asset is smaller than its header.
	ErrShortHeader = errors.New("bitmap: asset shorter than header")
	// ErrTruncated is returned when an asset is smaller than its frames.
	ErrTruncated = errors.New("bitmap: truncated frame data")
)

// Header describes an asset.
type Header struct {
	Width     int
	Height    int
	Frames    int
	FrameSize int
}

// ParseHeader decodes the header of an asset.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, ErrShortHeader
	}
	return Header{
		Width:     int(b[0]),
		Height:    int(b[1]),
		Frames:    int(b[2]),
		FrameSize: int(b[3]) | int(b[4])<<8,
	}, nil
}

// Bytes encodes the header.
func (h Header) Bytes() []byte {
	return []byte{byte(h.Width), byte(h.Height), byte(h.Frames), byte(h.FrameSize), byte(h.FrameSize >> 8)}
}

// Bits returns the number of pixels of one frame.
func (h Header) Bits() int {
	return h.Width * h.Height
}

func (h Header) String() string {
	return fmt.Sprintf("bitmap.Header{%dx%d, %d frames of %d bytes}", h.Width, h.Height, h.Frames, h.FrameSize)
}

// Image is a parsed asset. It shares memory with the bytes it was parsed
// from.
type Image struct {
	Header
	data []byte
}

// Parse validates an asset and returns a view over it.
//
// The frame size may be larger than the pixel data requires but not smaller.
func Parse(b []byte) (*Image, error) {
	h, err := ParseHeader(b)
	if err != nil {
		return nil, err
	}
	if need := (h.Bits() + 7) / 8; h.FrameSize < need {
		return nil, fmt.Errorf("bitmap: frame size %d too small for %dx%d", h.FrameSize, h.Width, h.Height)
	}
	if len(b)-HeaderSize < h.Frames*h.FrameSize {
		return nil, ErrTruncated
	}
	return &Image{Header: h, data: b}, nil
}

// Frame returns the raw bytes of frame n, or nil if n is out of range.
func (i *Image) Frame(n int) []byte {
	if n < 0 || n >= i.Frames {
		return nil
	}
	start := HeaderSize + n*i.FrameSize
	return i.data[start : start+i.FrameSize]
}

// BitAt returns pixel (x, y) of frame n. Out of range reads are Off.
func (i *Image) BitAt(n, x, y int) image1bit.Bit {
	f := i.Frame(n)
	if f == nil || x < 0 || y < 0 || x >= i.Width || y >= i.Height {
		return image1bit.Off
	}
	b := y*i.Width + x
	return image1bit.Bit((f[b/8]>>(b%8))&1 != 0)
}

// FrameImage decodes frame n into an image.
func (i *Image) FrameImage(n int) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, i.Width, i.Height))
	for y := 0; y < i.Height; y++ {
		for x := 0; x < i.Width; x++ {
			img.SetBit(x, y, i.BitAt(n, x, y))
		}
	}
	return img
}
