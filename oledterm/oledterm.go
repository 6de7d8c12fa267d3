// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package oledterm

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/GermanBionicSystems/oled/image1bit"
	"github.com/GermanBionicSystems/oled/ssd1306"
	"github.com/d2r2/go-logger"
	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"golang.org/x/image/colornames"
)

var lg = logger.NewPackageLogger("oledterm", logger.InfoLevel)

// Opts represents the options available for the emulator.
type Opts struct {
	// W and H are the panel size in pixels. They default to 128x64.
	W int
	H int
	// Palette defaults to ansi256.Default.
	Palette *ansi256.Palette
	// On is the color of a lit pixel at full contrast. Defaults to white.
	On color.Color
	// Off is the color of a dark pixel. Defaults to black.
	Off color.Color
	// Out receives the rendered frames. Defaults to stdout.
	Out io.Writer
	// Frame, if set, is called with a snapshot of the panel after every
	// rendered frame.
	Frame func(img *image1bit.VerticalLSB)
}

// Addressing modes, as set by command 0x20.
const (
	horizontal = 0
	vertical   = 1
	page       = 2
)

// argCount is the number of argument bytes following each multi byte
// command.
var argCount = map[byte]int{
	0x20: 1, // memory addressing mode
	0x21: 2, // column address
	0x22: 2, // page address
	0x26: 6, // horizontal scroll right
	0x27: 6, // horizontal scroll left
	0x29: 5, // vertical and right scroll
	0x2A: 5, // vertical and left scroll
	0x81: 1, // contrast
	0x8D: 1, // charge pump
	0xA3: 2, // vertical scroll area
	0xA8: 1, // multiplex ratio
	0xD3: 1, // display offset
	0xD5: 1, // clock divide
	0xD9: 1, // pre-charge period
	0xDA: 1, // COM pins
	0xDB: 1, // VCOMH level
}

// Dev is a SSD1306 emulator that renders to a terminal.
//
// It is not safe for concurrent use.
type Dev struct {
	w       io.Writer
	frame   func(img *image1bit.VerticalLSB)
	width   int
	height  int
	palette ansi256.Palette
	on      color.NRGBA
	off     color.NRGBA

	gram    []byte
	pending []byte
	need    int

	mode                 byte
	col, colStart, colEnd int
	pg, pgStart, pgEnd   int
	startLine            int
	mux                  int
	contrast             byte
	displayOn            bool
	chargePump           bool
	allOn                bool
	inverted             bool
	scrolling            bool
	segRemap             bool
	comRemap             bool

	frames int
	buf    bytes.Buffer
}

// New returns an emulated controller in its power on reset state.
func New(opts *Opts) *Dev {
	var o Opts
	if opts != nil {
		o = *opts
	}
	if o.W <= 0 {
		o.W = 128
	}
	if o.H <= 0 {
		o.H = 64
	}
	if o.Palette == nil {
		o.Palette = ansi256.Default
	}
	if o.On == nil {
		o.On = colornames.White
	}
	if o.Off == nil {
		o.Off = colornames.Black
	}
	if o.Out == nil {
		o.Out = colorable.NewColorableStdout()
	}
	return &Dev{
		w:        o.Out,
		frame:    o.Frame,
		width:    o.W,
		height:   o.H,
		palette:  *o.Palette,
		on:       color.NRGBAModel.Convert(o.On).(color.NRGBA),
		off:      color.NRGBAModel.Convert(o.Off).(color.NRGBA),
		gram:     make([]byte, o.W*((o.H+7)/8)),
		colEnd:   o.W - 1,
		pgEnd:    (o.H+7)/8 - 1,
		mode:     page,
		mux:      63,
		contrast: 0x7F,
	}
}

func (d *Dev) String() string {
	return fmt.Sprintf("oledterm(%dx%d)", d.width, d.height)
}

// SendCommand implements ssd1306.Transport.
func (d *Dev) SendCommand(c byte) error {
	if len(d.pending) != 0 {
		d.pending = append(d.pending, c)
		if len(d.pending) <= d.need {
			return nil
		}
		cmd := d.pending
		d.pending = d.pending[:0]
		return d.exec(cmd)
	}
	if n := argCount[c]; n != 0 {
		d.pending = append(d.pending, c)
		d.need = n
		return nil
	}
	return d.exec([]byte{c})
}

// SendData implements ssd1306.Transport. It writes d to the display RAM at
// the current address, then renders a frame.
func (d *Dev) SendData(p []byte) error {
	if len(d.pending) != 0 {
		lg.Warnf("%s: data while command %#02x waits for arguments", d, d.pending[0])
		d.pending = d.pending[:0]
	}
	for _, b := range p {
		// Page mode can address columns past narrow panels.
		if d.col < d.width {
			d.gram[d.pg*d.width+d.col] = b
		}
		d.advance()
	}
	return d.render()
}

// Halt implements conn.Resource. It resets the terminal colors.
func (d *Dev) Halt() error {
	_, err := io.WriteString(d.w, "\n\033[0m")
	return err
}

// GRAM returns a copy of the display RAM, in the controller's page layout.
func (d *Dev) GRAM() []byte {
	return append([]byte(nil), d.gram...)
}

// IsOn reports whether the panel is lit. The charge pump must be enabled and
// the display on.
func (d *Dev) IsOn() bool {
	return d.displayOn && d.chargePump
}

// Inverted reports whether hardware inversion (0xA7) is active.
func (d *Dev) Inverted() bool {
	return d.inverted
}

// Contrast returns the current contrast level.
func (d *Dev) Contrast() byte {
	return d.contrast
}

// Scrolling reports whether a scroll was activated (0x2F) and not stopped
// since. The emulated picture does not move.
func (d *Dev) Scrolling() bool {
	return d.scrolling
}

// StartLine returns the display start line set with 0x40-0x7F.
func (d *Dev) StartLine() int {
	return d.startLine
}

// Frames returns the number of frames rendered so far.
func (d *Dev) Frames() int {
	return d.frames
}

// Pixel reports whether the pixel at (x, y) of the panel is lit, after
// remapping, start line, inversion and power state are applied.
func (d *Dev) Pixel(x, y int) bool {
	if !d.IsOn() || x < 0 || y < 0 || x >= d.width || y >= d.rows() {
		return false
	}
	if d.allOn {
		return true
	}
	// 0xA1 and 0xC8 are the upright orientation of common modules.
	if !d.segRemap {
		x = d.width - 1 - x
	}
	// COM scan is mirrored over the multiplexed rows only.
	if !d.comRemap {
		y = d.rows() - 1 - y
	}
	y = (y + d.startLine) % d.height
	lit := d.gram[(y/8)*d.width+x]&(1<<uint(y%8)) != 0
	return lit != d.inverted
}

// Snapshot returns what the panel currently shows.
func (d *Dev) Snapshot() *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, d.width, d.height))
	for y := 0; y < d.rows(); y++ {
		for x := 0; x < d.width; x++ {
			img.SetBit(x, y, image1bit.Bit(d.Pixel(x, y)))
		}
	}
	return img
}

func (d *Dev) rows() int {
	if d.mux+1 < d.height {
		return d.mux + 1
	}
	return d.height
}

func (d *Dev) exec(cmd []byte) error {
	op := cmd[0]
	switch {
	case op <= 0x0F:
		d.col = d.col&0xF0 | int(op)
	case op <= 0x1F:
		d.col = d.col&0x0F | int(op&0x0F)<<4
	case op == 0x20:
		d.mode = cmd[1] & 3
	case op == 0x21:
		d.colStart = d.clampCol(int(cmd[1] & 0x7F))
		d.colEnd = d.clampCol(int(cmd[2] & 0x7F))
		d.col = d.colStart
	case op == 0x22:
		d.pgStart = d.clampPage(int(cmd[1] & 7))
		d.pgEnd = d.clampPage(int(cmd[2] & 7))
		d.pg = d.pgStart
	case op >= 0x40 && op <= 0x7F:
		d.startLine = int(op & 0x3F)
		return d.refresh()
	case op == 0x2E || op == 0x2F:
		d.scrolling = op == 0x2F
	case op == 0x81:
		d.contrast = cmd[1]
		return d.refresh()
	case op == 0x8D:
		d.chargePump = cmd[1]&0x04 != 0
	case op == 0xA0 || op == 0xA1:
		d.segRemap = op == 0xA1
	case op == 0xA4 || op == 0xA5:
		d.allOn = op == 0xA5
		return d.refresh()
	case op == 0xA6 || op == 0xA7:
		d.inverted = op == 0xA7
		return d.refresh()
	case op == 0xA8:
		d.mux = int(cmd[1] & 0x3F)
	case op == 0xAE || op == 0xAF:
		d.displayOn = op == 0xAF
		return d.refresh()
	case op >= 0xB0 && op <= 0xB7:
		d.pg = d.clampPage(int(op & 7))
	case op == 0xC0 || op == 0xC8:
		d.comRemap = op == 0xC8
	default:
		lg.Debugf("%s: ignoring command %#02x", d, op)
	}
	return nil
}

func (d *Dev) clampCol(c int) int {
	if c >= d.width {
		return d.width - 1
	}
	return c
}

func (d *Dev) clampPage(p int) int {
	if n := len(d.gram) / d.width; p >= n {
		return n - 1
	}
	return p
}

// advance moves the address pointer after a data byte.
func (d *Dev) advance() {
	switch d.mode {
	case horizontal:
		if d.col++; d.col > d.colEnd {
			d.col = d.colStart
			if d.pg++; d.pg > d.pgEnd {
				d.pg = d.pgStart
			}
		}
	case vertical:
		if d.pg++; d.pg > d.pgEnd {
			d.pg = d.pgStart
			if d.col++; d.col > d.colEnd {
				d.col = d.colStart
			}
		}
	default:
		if d.col++; d.col >= d.width {
			d.col = 0
		}
	}
}

// refresh renders again once the first frame was shown.
func (d *Dev) refresh() error {
	if d.frames == 0 {
		return nil
	}
	return d.render()
}

// render draws one terminal line per pixel row, then moves the cursor back
// up so the next frame overwrites this one.
func (d *Dev) render() error {
	d.buf.Reset()
	on := d.litColor()
	for y := 0; y < d.rows(); y++ {
		_, _ = d.buf.WriteString("\r\033[0m")
		for x := 0; x < d.width; x++ {
			c := d.off
			if d.Pixel(x, y) {
				c = on
			}
			_, _ = d.buf.WriteString(d.palette.Block(c))
		}
		_, _ = d.buf.WriteString("\033[0m\n")
	}
	_, _ = fmt.Fprintf(&d.buf, "\033[%dA", d.rows())
	d.frames++
	_, err := d.buf.WriteTo(d.w)
	if d.frame != nil {
		d.frame(d.Snapshot())
	}
	return err
}

// litColor scales the on color with the contrast. Level 0 still shows a
// quarter of the brightness, as a real panel does.
func (d *Dev) litColor() color.NRGBA {
	level := 0x40 + int(d.contrast)*0xBF/0xFF
	scale := func(v uint8) uint8 {
		return uint8(int(v) * level / 0xFF)
	}
	return color.NRGBA{scale(d.on.R), scale(d.on.G), scale(d.on.B), 0xFF}
}

var _ ssd1306.Transport = &Dev{}
var _ fmt.Stringer = &Dev{}
