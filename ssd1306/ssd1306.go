// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1306

// https://cdn-shop.adafruit.com/datasheets/SSD1306.pdf
//
// Page 28 lists all the commands, page 64 has the recommended power up flow.

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"time"

	"github.com/GermanBionicSystems/oled/gfx"
	"github.com/GermanBionicSystems/oled/image1bit"
	"github.com/d2r2/go-logger"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/physic"
)

var lg = logger.NewPackageLogger("ssd1306", logger.InfoLevel)

const (
	_CHARGEPUMP          = 0x8D
	_COLUMNADDR          = 0x21
	_COMSCANDEC          = 0xC8
	_COMSCANINC          = 0xC0
	_DISPLAYALLON_RESUME = 0xA4
	_DISPLAYOFF          = 0xAE
	_DISPLAYON           = 0xAF
	_MEMORYMODE          = 0x20
	_NORMALDISPLAY       = 0xA6
	_PAGEADDR            = 0x22
	_PAGESTARTADDRESS    = 0xB0
	_SEGREMAP            = 0xA0
	_SETCOMPINS          = 0xDA
	_SETCONTRAST         = 0x81
	_SETDISPLAYCLOCKDIV  = 0xD5
	_SETDISPLAYOFFSET    = 0xD3
	_SETHIGHCOLUMN       = 0x10
	_SETLOWCOLUMN        = 0x00
	_SETMULTIPLEX        = 0xA8
	_SETPRECHARGE        = 0xD9
	_SETSEGMENTREMAP     = 0xA1
	_SETSTARTLINE        = 0x40
	_SETVCOMDETECT       = 0xDB
)

const (
	chargePumpOn  = 0x14
	chargePumpOff = 0x10

	_ACTIVATESCROLL   = 0x2F
	_DEACTIVATESCROLL = 0x2E
)

// FrameRate determines scrolling speed.
type FrameRate byte

// Possible frame rates. The value determines the number of refreshes between
// movement. The lower value, the higher speed.
const (
	FrameRate2   FrameRate = 7
	FrameRate3   FrameRate = 4
	FrameRate4   FrameRate = 5
	FrameRate5   FrameRate = 0
	FrameRate25  FrameRate = 6
	FrameRate64  FrameRate = 1
	FrameRate128 FrameRate = 2
	FrameRate256 FrameRate = 3
)

// Orientation is used for scrolling.
type Orientation byte

// Possible orientations for scrolling.
const (
	Left    Orientation = 0x27
	Right   Orientation = 0x26
	UpRight Orientation = 0x29
	UpLeft  Orientation = 0x2A
)

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{
	W:            128,
	H:            64,
	Addr:         0x3C,
	Timeout:      50 * time.Millisecond,
	SPIFreq:      3300 * physic.KiloHertz,
	Contrast:     0x7F,
	StartupDelay: 100 * time.Millisecond,
}

// Opts defines the options for the device.
//
// Zero values are replaced by the matching DefaultOpts field, except for the
// booleans.
type Opts struct {
	W int
	H int
	// The I²C address of the display.
	Addr uint16
	// Timeout bounds every SPI transfer. A negative value waits forever. It is
	// ignored on I²C.
	Timeout time.Duration
	// SPIFreq is the SPI clock. The SSD1306 supports up to 10MHz.
	SPIFreq physic.Frequency
	// Contrast is the initial contrast level.
	Contrast byte
	// Sequential corresponds to the Sequential/Alternative COM pin configuration
	// in the OLED panel hardware. Try toggling this if half the rows appear to be
	// missing on your display. Particularly on 32 pixel height displays.
	Sequential bool
	// MirrorVertical corresponds to the COM remap configuration in the OLED panel
	// hardware. Try toggling this if the display is flipped vertically.
	MirrorVertical bool
	// MirrorHorizontal corresponds to the SEG remap configuration in the OLED panel
	// hardware. Try toggling this if the display is flipped horizontally.
	MirrorHorizontal bool
	// StartupDelay is the wait before the first command when the transport
	// cannot reset the controller.
	StartupDelay time.Duration
}

// withDefaults returns a copy of opts with zero values replaced.
func (o *Opts) withDefaults() Opts {
	if o == nil {
		return DefaultOpts
	}
	out := *o
	if out.W == 0 {
		out.W = DefaultOpts.W
	}
	if out.H == 0 {
		out.H = DefaultOpts.H
	}
	if out.Addr == 0 {
		out.Addr = DefaultOpts.Addr
	}
	if out.Timeout == 0 {
		out.Timeout = DefaultOpts.Timeout
	}
	if out.SPIFreq == 0 {
		out.SPIFreq = DefaultOpts.SPIFreq
	}
	if out.Contrast == 0 {
		out.Contrast = DefaultOpts.Contrast
	}
	if out.StartupDelay == 0 {
		out.StartupDelay = DefaultOpts.StartupDelay
	}
	return out
}

func (o *Opts) validate() error {
	if o.W < 8 || o.W > 128 || o.W&7 != 0 {
		return fmt.Errorf("ssd1306: invalid width %d", o.W)
	}
	if o.H < 8 || o.H > 64 || o.H&7 != 0 {
		return fmt.Errorf("ssd1306: invalid height %d", o.H)
	}
	return nil
}

// State is the lifecycle state of a Dev.
type State int

// Possible states.
const (
	Uninitialized State = iota
	Initializing
	Ready
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "Uninitialized"
	case Initializing:
		return "Initializing"
	case Ready:
		return "Ready"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// New returns a Dev that talks to the controller through t.
//
// It does not communicate with the device, call Init.
func New(t Transport, opts *Opts) (*Dev, error) {
	o := opts.withDefaults()
	if err := o.validate(); err != nil {
		return nil, err
	}
	return &Dev{
		Canvas: gfx.New(o.W, o.H),
		t:      t,
		opts:   o,
		sleep:  time.Sleep,
	}, nil
}

// Dev is an open handle to the display controller.
//
// The drawing methods of the embedded Canvas only modify the framebuffer.
type Dev struct {
	*gfx.Canvas

	t     Transport
	opts  Opts
	state State
	on    bool
	sleep func(time.Duration)
}

func (d *Dev) String() string {
	return fmt.Sprintf("ssd1306.Dev{%s, %s, %s}", d.t, d.Bounds().Max, d.state)
}

// State returns the lifecycle state.
func (d *Dev) State() State {
	return d.state
}

// Initialized reports whether Init completed.
func (d *Dev) Initialized() bool {
	return d.state == Ready
}

// IsOn reports whether the panel was last turned on.
func (d *Dev) IsOn() bool {
	return d.on
}

// Init resets and configures the controller, then clears the screen.
//
// On I²C, or on SPI without a reset pin, it waits Opts.StartupDelay for the
// controller to power up. On failure the Dev goes back to Uninitialized and
// Init can be retried.
func (d *Dev) Init() error {
	d.state = Initializing
	lg.Debugf("%s: initializing", d)
	if err := d.init(); err != nil {
		d.state = Uninitialized
		lg.Errorf("%s: init failed: %v", d, err)
		return err
	}
	d.state = Ready
	lg.Debugf("%s: ready", d)
	return nil
}

func (d *Dev) init() error {
	if r, ok := d.t.(Resetter); ok {
		if err := r.Reset(); err != nil {
			return fmt.Errorf("ssd1306: reset: %w", err)
		}
	} else {
		d.sleep(d.opts.StartupDelay)
	}
	for _, c := range getInitCmd(&d.opts) {
		if err := d.t.SendCommand(c); err != nil {
			return fmt.Errorf("ssd1306: command %#02x: %w", c, err)
		}
	}
	d.on = true
	d.Fill(gfx.Black)
	if err := d.UpdateScreen(); err != nil {
		return err
	}
	d.GotoXY(0, 0)
	return nil
}

func getInitCmd(opts *Opts) []byte {
	// Set COM output scan direction; C0 means normal; C8 means reversed
	comScan := byte(_COMSCANDEC)
	if opts.MirrorVertical {
		comScan = _COMSCANINC
	}
	// See page 40.
	segRemap := byte(_SETSEGMENTREMAP)
	if opts.MirrorHorizontal {
		segRemap = _SEGREMAP
	}
	// See page 40.
	hwLayout := byte(0x02)
	if !opts.Sequential {
		hwLayout |= 0x10
	}

	return []byte{
		_DISPLAYOFF,
		_SETLOWCOLUMN,  // Lower column start address for page addressing mode
		_SETHIGHCOLUMN, // Higher column start address for page addressing mode
		_SETCONTRAST, opts.Contrast,
		_DISPLAYALLON_RESUME, // Output follows GDDRAM content
		_NORMALDISPLAY,       // Inversion is done in software
		_MEMORYMODE, 0x00, // Horizontal addressing mode
		_PAGESTARTADDRESS,
		_PAGEADDR, 0, byte(opts.H/8 - 1),
		_COLUMNADDR, 0, byte(opts.W - 1),
		comScan,
		_SETSTARTLINE, // Start line 0
		segRemap,
		_SETMULTIPLEX, byte(opts.H - 1),
		_SETDISPLAYOFFSET, 0x00,
		_SETCOMPINS, hwLayout,
		_SETDISPLAYCLOCKDIV, 0xF0, // Max oscillator frequency, divide ratio 1
		_SETPRECHARGE, 0x22,
		_SETVCOMDETECT, 0x10, // 0.77 * Vcc
		_CHARGEPUMP, chargePumpOn,
		_DISPLAYON,
	}
}

// UpdateScreen sends the whole framebuffer to the controller.
func (d *Dev) UpdateScreen() error {
	pix := d.Image().Pix
	if err := d.t.SendData(pix); err != nil {
		return fmt.Errorf("ssd1306: update screen: %w", err)
	}
	return nil
}

// On enables the charge pump and turns the panel on.
func (d *Dev) On() error {
	if err := d.sendCommands(_CHARGEPUMP, chargePumpOn, _DISPLAYON); err != nil {
		return err
	}
	d.on = true
	return nil
}

// Off turns the panel off and disables the charge pump. The framebuffer and
// the controller memory are kept.
func (d *Dev) Off() error {
	if err := d.sendCommands(_CHARGEPUMP, chargePumpOff, _DISPLAYOFF); err != nil {
		return err
	}
	d.on = false
	return nil
}

// SetContrast changes the screen contrast.
func (d *Dev) SetContrast(level byte) error {
	return d.sendCommands(_SETCONTRAST, level)
}

// Scroll scrolls an horizontal band.
//
// Only one scrolling operation can happen at a time. The framebuffer is not
// modified, call StopScroll then UpdateScreen to restore the picture.
//
// Both startLine and endLine must be multiples of 8.
//
// Use -1 for endLine to extend to the bottom of the display.
func (d *Dev) Scroll(o Orientation, rate FrameRate, startLine, endLine int) error {
	h := d.opts.H
	if endLine == -1 {
		endLine = h
	}
	if startLine >= endLine {
		return fmt.Errorf("ssd1306: startLine (%d) must be lower than endLine (%d)", startLine, endLine)
	}
	if startLine&7 != 0 || startLine < 0 || startLine >= h {
		return fmt.Errorf("ssd1306: invalid startLine %d", startLine)
	}
	if endLine&7 != 0 || endLine < 0 || endLine > h {
		return fmt.Errorf("ssd1306: invalid endLine %d", endLine)
	}
	startPage := byte(startLine / 8)
	endPage := byte(endLine / 8)
	switch o {
	case Left, Right:
		// page 28
		// <op>, dummy, <start page>, <rate>, <end page>, <dummy>, <dummy>, <ENABLE>
		return d.sendCommands(byte(o), 0x00, startPage, byte(rate), endPage-1, 0x00, 0xFF, _ACTIVATESCROLL)
	case UpRight, UpLeft:
		// page 29
		// <op>, dummy, <start page>, <rate>, <end page>, <offset>, <ENABLE>
		return d.sendCommands(byte(o), 0x00, startPage, byte(rate), endPage-1, 0x01, _ACTIVATESCROLL)
	default:
		return fmt.Errorf("ssd1306: invalid orientation %#02x", byte(o))
	}
}

// StopScroll stops any scrolling previously set.
//
// The controller memory is corrupted by the scroll, UpdateScreen must be
// called afterward.
func (d *Dev) StopScroll() error {
	return d.sendCommands(_DEACTIVATESCROLL)
}

// SetDisplayStartLine causes the display to start from startLine, effectively
// scrolling the screen to that position.
//
// startLine must be between 0 and 63.
func (d *Dev) SetDisplayStartLine(startLine byte) error {
	if startLine > 63 {
		return fmt.Errorf("ssd1306: invalid startLine %d", startLine)
	}
	return d.sendCommands(_SETSTARTLINE | startLine)
}

// Halt implements conn.Resource. It turns the panel off.
func (d *Dev) Halt() error {
	return d.Off()
}

// Close turns the panel off and releases the transport when the Dev owns it,
// as is the case with NewD2R2.
func (d *Dev) Close() error {
	err := d.Off()
	if c, ok := d.t.(io.Closer); ok {
		if err2 := c.Close(); err == nil {
			err = err2
		}
	}
	return err
}

// ColorModel implements display.Drawer.
//
// It is a one bit color model, as implemented by image1bit.Bit.
func (d *Dev) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds implements display.Drawer. Min is guaranteed to be {0, 0}.
func (d *Dev) Bounds() image.Rectangle {
	return d.Canvas.Bounds()
}

// Draw implements display.Drawer.
//
// src is converted with image1bit.BitModel and written through SetPixel, so
// software inversion applies. The whole framebuffer is then sent.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	delta := sp.Sub(r.Min)
	r = r.Intersect(d.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := image1bit.BitModel.Convert(src.At(x+delta.X, y+delta.Y)).(image1bit.Bit)
			d.SetPixel(x, y, c)
		}
	}
	return d.UpdateScreen()
}

// Write replaces the framebuffer with pixels and sends it.
//
// The format is the one of image1bit.VerticalLSB.Pix: horizontal bands of 8
// pixels high, one byte per column, the top row in the least significant bit.
func (d *Dev) Write(pixels []byte) (int, error) {
	pix := d.Image().Pix
	if len(pixels) != len(pix) {
		return 0, fmt.Errorf("ssd1306: invalid pixel stream length; expected %d bytes, got %d bytes", len(pix), len(pixels))
	}
	copy(pix, pixels)
	if err := d.UpdateScreen(); err != nil {
		return 0, err
	}
	return len(pixels), nil
}

func (d *Dev) sendCommands(cmds ...byte) error {
	for _, c := range cmds {
		if err := d.t.SendCommand(c); err != nil {
			return fmt.Errorf("ssd1306: command %#02x: %w", c, err)
		}
	}
	return nil
}

var _ display.Drawer = &Dev{}
