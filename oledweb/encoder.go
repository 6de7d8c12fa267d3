// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package oledweb

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"sync"
)

// pngBufferPool implements png.EncoderBufferPool.
type pngBufferPool sync.Pool

func (p *pngBufferPool) Get() *png.EncoderBuffer {
	buf, _ := (*sync.Pool)(p).Get().(*png.EncoderBuffer)
	return buf
}

func (p *pngBufferPool) Put(buf *png.EncoderBuffer) {
	(*sync.Pool)(p).Put(buf)
}

// Frames are small and change often, speed matters more than size.
var pngEncoder = png.Encoder{
	CompressionLevel: png.BestSpeed,
	BufferPool:       &pngBufferPool{},
}

var jpegOptions = jpeg.Options{Quality: 90}

// bufferPool stores reusable []byte instances.
var bufferPool = sync.Pool{
	New: func() interface{} {
		return []byte(nil)
	},
}

func encode(img *image.Paletted, format ImageFormat) ([]byte, error) {
	buf := bytes.NewBuffer(bufferPool.Get().([]byte)[:0])
	var err error
	switch format {
	case PNG:
		err = pngEncoder.Encode(buf, img)
	case GIF:
		err = gif.Encode(buf, img, &gif.Options{NumColors: len(img.Palette)})
	case JPEG:
		err = jpeg.Encode(buf, img, &jpegOptions)
	default:
		err = fmt.Errorf("unhandled image format %s", format)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
