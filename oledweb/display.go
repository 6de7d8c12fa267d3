// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package oledweb serves the picture of a monochrome display over HTTP.
// Clients get the current picture on connection and a new one on every
// change.
//
// It lets the SSD1306 emulator of package oledterm be watched from a browser,
// which is handier than a terminal for panels taller than a few lines. Wire
// Display.Show as oledterm.Opts.Frame.
//
// The protocol is "MJPEG" (https://en.wikipedia.org/wiki/Motion_JPEG), as used
// by IP cameras. Frames are PNG by default. GIF and JPEG can be selected with
// Options.Format or the "format" URL parameter.
package oledweb

import (
	"image"
	"image/color"
	"net/http"
	"sync"
	"time"

	"github.com/GermanBionicSystems/oled/image1bit"
	"github.com/d2r2/go-logger"
	"golang.org/x/image/colornames"
	"periph.io/x/conn/v3/display"
)

var lg = logger.NewPackageLogger("oledweb", logger.InfoLevel)

// Palette indexes of the served images.
const (
	offIndex = 0
	onIndex  = 1
)

// Options for a Display.
type Options struct {
	// Width and height of the panel, in pixels.
	Width, Height int
	// Scale is the size of a panel pixel in the served images. Defaults to 4.
	Scale int
	// Format is the default image format.
	Format ImageFormat
	// On and Off are the colors of lit and dark pixels. They default to white
	// and black.
	On, Off color.Color
	// KeepAlive resends the current picture when it did not change for this
	// long. Zero disables it.
	KeepAlive time.Duration
}

// Display is a display.Drawer that streams its content to HTTP clients.
type Display struct {
	defaultFormat ImageFormat
	scale         int
	size          image.Rectangle
	keepAlive     time.Duration

	mu       sync.Mutex
	buffer   *image.Paletted
	clients  map[*client]struct{}
	snapshot map[ImageFormat][]byte
}

var _ display.Drawer = (*Display)(nil)
var _ http.Handler = (*Display)(nil)

// New returns a Display showing a dark panel.
func New(opt *Options) *Display {
	scale := opt.Scale
	if scale <= 0 {
		scale = 4
	}
	on, off := opt.On, opt.Off
	if on == nil {
		on = colornames.White
	}
	if off == nil {
		off = colornames.Black
	}
	size := image.Rect(0, 0, opt.Width, opt.Height)
	// The zero value of the pixels is offIndex.
	buffer := image.NewPaletted(image.Rect(0, 0, opt.Width*scale, opt.Height*scale), color.Palette{offIndex: off, onIndex: on})
	return &Display{
		defaultFormat: opt.Format,
		scale:         scale,
		size:          size,
		keepAlive:     opt.KeepAlive,
		buffer:        buffer,
		clients:       map[*client]struct{}{},
		snapshot:      map[ImageFormat][]byte{},
	}
}

// String returns the name of the device.
func (d *Display) String() string {
	return "oledweb"
}

// Halt implements conn.Resource and terminates all running client requests
// asynchronously.
func (d *Display) Halt() error {
	d.mu.Lock()
	d.terminateClientsLocked()
	d.mu.Unlock()
	return nil
}

// ColorModel implements display.Drawer.
func (d *Display) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds implements display.Drawer. It is the panel size, not the size of the
// served images.
func (d *Display) Bounds() image.Rectangle {
	return d.size
}

// Draw implements display.Drawer.
func (d *Display) Draw(dstRect image.Rectangle, src image.Image, srcPts image.Point) error {
	r := dstRect.Intersect(d.size)
	delta := srcPts.Sub(dstRect.Min)
	d.mu.Lock()
	defer d.mu.Unlock()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			idx := uint8(offIndex)
			if image1bit.BitModel.Convert(src.At(x+delta.X, y+delta.Y)).(image1bit.Bit) {
				idx = onIndex
			}
			d.setLocked(x, y, idx)
		}
	}
	d.bufferChangedLocked()
	return nil
}

// Show replaces the whole picture.
func (d *Display) Show(img *image1bit.VerticalLSB) {
	_ = d.Draw(d.size, img, img.Bounds().Min)
}

// setLocked paints the scale x scale block of panel pixel (x, y).
func (d *Display) setLocked(x, y int, idx uint8) {
	for dy := 0; dy < d.scale; dy++ {
		off := d.buffer.PixOffset(x*d.scale, y*d.scale+dy)
		row := d.buffer.Pix[off : off+d.scale]
		for i := range row {
			row[i] = idx
		}
	}
}
