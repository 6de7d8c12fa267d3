// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// oleddemo draws shapes, text and an animation on a SSD1306 display, then
// scrolls it.
//
// The display is reached over I²C with periph (default), over I²C with the
// Linux i2c-dev driver (-d2r2), over SPI (-spi) or emulated. The emulated
// panel is shown in the terminal (-term), in a browser (-http) or both.
package main

import (
	"errors"
	"flag"
	"fmt"
	"image/color"
	"io"
	"math"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/GermanBionicSystems/oled/bitfont"
	"github.com/GermanBionicSystems/oled/bitmap"
	"github.com/GermanBionicSystems/oled/gfx"
	"github.com/GermanBionicSystems/oled/oledterm"
	"github.com/GermanBionicSystems/oled/oledweb"
	"github.com/GermanBionicSystems/oled/ssd1306"
	"github.com/antigloss/go/logger"
	"github.com/fogleman/gg"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

var (
	busName   = flag.String("bus", "", "I²C bus to use")
	addr      = flag.Int("addr", 0x3C, "I²C address of the display")
	d2r2Bus   = flag.Int("d2r2", -1, "use /dev/i2c-N through go-i2c instead of periph")
	spiName   = flag.String("spi", "", "SPI port to use instead of I²C")
	dcName    = flag.String("dc", "GPIO24", "D/C pin, SPI only")
	csName    = flag.String("cs", "", "chip select pin, SPI only; empty when driven by the port")
	rstName   = flag.String("rst", "GPIO25", "reset pin, SPI only; empty when not wired")
	term      = flag.Bool("term", false, "emulate the display in the terminal")
	httpAddr  = flag.String("http", "", "emulate the display and stream it over HTTP on this address, e.g. :8080")
	width     = flag.Int("w", 128, "display width")
	height    = flag.Int("h", 64, "display height")
	seq       = flag.Bool("seq", false, "sequential COM pin layout, needed by most 128x32 panels")
	flip      = flag.Bool("flip", false, "rotate the picture by 180°")
	fontPath  = flag.String("font", "", "TrueType font for the text scene, instead of the built-in 7x13")
	fontSize  = flag.Float64("size", 12, "TrueType font size in points")
	loops     = flag.Int("loops", 1, "number of times the demo runs; 0 loops forever")
	pause     = flag.Duration("pause", 2*time.Second, "time each scene is shown")
	logDir    = flag.String("log", "", "log directory, defaults to ~/.oleddemo/log")
	verbosity = flag.Bool("v", false, "log traces")
)

func main() {
	flag.Parse()
	if *logDir == "" {
		home, _ := os.UserHomeDir()
		*logDir = filepath.Join(home, ".oleddemo", "log")
	}
	if err := initLog(*logDir, *verbosity); err != nil {
		fmt.Fprintf(os.Stderr, "oleddemo: %s.\n", err)
		os.Exit(1)
	}

	if err := mainImpl(); err != nil {
		logger.Error(err.Error())
		fmt.Fprintf(os.Stderr, "oleddemo: %s.\n", err)
		os.Exit(1)
	}
}

// initLog writes the logs to dir, keeping up to 30 files of 10MB.
func initLog(dir string, verbose bool) error {
	level := logger.LogLevelInfo
	if verbose {
		level = logger.LogLevelTrace
	}
	return logger.Init(&logger.Config{
		LogDir:          dir,
		LogFileMaxSize:  10,
		LogFileMaxNum:   30,
		LogFileNumToDel: 2,
		LogLevel:        level,
		LogDest:         logger.LogDestFile,
		Flag:            logger.ControlFlagLogThrough | logger.ControlFlagLogLineNum,
	})
}

func mainImpl() error {
	opts := ssd1306.DefaultOpts
	opts.W = *width
	opts.H = *height
	opts.Addr = uint16(*addr)
	opts.Sequential = *seq
	opts.MirrorVertical = *flip
	opts.MirrorHorizontal = *flip

	dev, closer, err := open(&opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := closer.Close(); err != nil {
			logger.Warnf("close: %s", err)
		}
	}()
	logger.Tracef("Opened %s", dev)
	if err := dev.Init(); err != nil {
		return err
	}

	f := bitfont.Basic7x13
	if *fontPath != "" {
		ttf, err := os.ReadFile(*fontPath)
		if err != nil {
			return err
		}
		if f, err = bitfont.FromTrueType(ttf, *fontSize, bitfont.MSBFirst); err != nil {
			return err
		}
	}
	logger.Tracef("Using font %s", f)

	spinner, err := newSpinner()
	if err != nil {
		return err
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	d := &demo{dev: dev, font: f, spinner: spinner, stop: stop}
	for i := 0; *loops == 0 || i < *loops; i++ {
		if err := d.run(); err != nil {
			if errors.Is(err, errStopped) {
				logger.Trace("Ctrl+C received... Exiting")
				return nil
			}
			return err
		}
	}
	return nil
}

// open connects to the display selected on the command line. The returned
// closer turns the display off and releases the bus.
func open(opts *ssd1306.Opts) (*ssd1306.Dev, io.Closer, error) {
	if *term || *httpAddr != "" {
		return emulate(opts)
	}
	if *d2r2Bus >= 0 {
		dev, err := ssd1306.NewD2R2(*d2r2Bus, opts)
		if err != nil {
			return nil, nil, err
		}
		return dev, dev, nil
	}

	if _, err := host.Init(); err != nil {
		return nil, nil, err
	}
	if *spiName != "" {
		p, err := spireg.Open(*spiName)
		if err != nil {
			return nil, nil, err
		}
		pins := &ssd1306.SPIPins{}
		if pins.DC, err = pin(*dcName); err != nil {
			return nil, nil, errors.Join(err, p.Close())
		}
		if pins.CS, err = pin(*csName); err != nil {
			return nil, nil, errors.Join(err, p.Close())
		}
		if pins.RST, err = pin(*rstName); err != nil {
			return nil, nil, errors.Join(err, p.Close())
		}
		dev, err := ssd1306.NewSPI(p, pins, opts)
		if err != nil {
			return nil, nil, errors.Join(err, p.Close())
		}
		return dev, closers{dev, p}, nil
	}
	b, err := i2creg.Open(*busName)
	if err != nil {
		return nil, nil, err
	}
	dev, err := ssd1306.NewI2C(b, opts)
	if err != nil {
		return nil, nil, errors.Join(err, b.Close())
	}
	return dev, closers{dev, b}, nil
}

// emulate returns a Dev driving the SSD1306 emulator.
func emulate(opts *ssd1306.Opts) (*ssd1306.Dev, io.Closer, error) {
	o := &oledterm.Opts{W: opts.W, H: opts.H}
	if !*term {
		o.Out = io.Discard
	}
	var c closers
	if *httpAddr != "" {
		sink := oledweb.New(&oledweb.Options{Width: opts.W, Height: opts.H, KeepAlive: 5 * time.Second})
		o.Frame = sink.Show
		srv := &http.Server{Addr: *httpAddr, Handler: sink}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Errorf("http: %s", err)
			}
		}()
		logger.Infof("Streaming on http://%s/", *httpAddr)
		c = append(c, haltCloser{sink}, srv)
	}
	t := oledterm.New(o)
	dev, err := ssd1306.New(t, opts)
	if err != nil {
		return nil, nil, err
	}
	// The panel is turned off before its viewers are released.
	c = append(closers{dev, haltCloser{t}}, c...)
	return dev, c, nil
}

// pin returns the named GPIO, or nil for an empty name.
func pin(name string) (gpio.PinOut, error) {
	if name == "" {
		return nil, nil
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("failed to find %s", name)
	}
	return p, nil
}

type closers []io.Closer

func (c closers) Close() error {
	var errs []error
	for _, cl := range c {
		errs = append(errs, cl.Close())
	}
	return errors.Join(errs...)
}

// haltCloser adapts a conn.Resource to io.Closer.
type haltCloser struct {
	r interface{ Halt() error }
}

func (h haltCloser) Close() error {
	return h.r.Halt()
}

// newSpinner renders the animated asset used by the animation scene.
func newSpinner() (*bitmap.Image, error) {
	const size, frames = 24, 12
	b, err := bitmap.Render(size, size, frames, func(dc *gg.Context, frame int) {
		c := float64(size) / 2
		dc.SetColor(color.White)
		dc.SetLineWidth(2)
		dc.DrawCircle(c, c, c-2)
		dc.Stroke()
		a := 2 * math.Pi * float64(frame) / frames
		dc.DrawLine(c, c, c+(c-4)*math.Cos(a), c+(c-4)*math.Sin(a))
		dc.Stroke()
	})
	if err != nil {
		return nil, err
	}
	return bitmap.Parse(b)
}

var errStopped = errors.New("stopped")

type demo struct {
	dev     *ssd1306.Dev
	font    *bitfont.Font
	spinner *bitmap.Image
	stop    <-chan os.Signal
}

func (d *demo) run() error {
	for _, scene := range []struct {
		name string
		fn   func() error
	}{
		{"shapes", d.shapes},
		{"text", d.text},
		{"animation", d.animation},
		{"invert", d.invert},
		{"contrast", d.contrast},
		{"scroll", d.scroll},
	} {
		logger.Infof("Scene: %s", scene.name)
		if err := scene.fn(); err != nil {
			return fmt.Errorf("%s: %w", scene.name, err)
		}
	}
	return nil
}

// show sends the framebuffer and waits for t or a signal.
func (d *demo) show(t time.Duration) error {
	if err := d.dev.UpdateScreen(); err != nil {
		return err
	}
	return d.wait(t)
}

// wait returns after t, or errStopped on a signal.
func (d *demo) wait(t time.Duration) error {
	select {
	case <-d.stop:
		return errStopped
	default:
	}
	select {
	case <-d.stop:
		return errStopped
	case <-time.After(t):
		return nil
	}
}

func (d *demo) shapes() error {
	b := d.dev.Bounds()
	w, h := b.Dx(), b.Dy()
	d.dev.Fill(gfx.Black)
	d.dev.DrawRectangle(0, 0, w, h, gfx.White)
	d.dev.DrawLine(0, 0, w-1, h-1, gfx.White)
	d.dev.DrawLine(0, h-1, w-1, 0, gfx.White)
	d.dev.DrawFilledCircle(w/4, h/2, h/4, gfx.White)
	d.dev.DrawCircle(3*w/4, h/2, h/4, gfx.White)
	d.dev.DrawFilledTriangle(w/2, 4, w/2-h/4, h/2, w/2+h/4, h/2, gfx.White)
	d.dev.DrawFilledRectangle(w/2-4, h-12, 8, 8, gfx.Black)
	return d.show(*pause)
}

func (d *demo) text() error {
	d.dev.Fill(gfx.Black)
	lines := []string{"SSD1306", d.dev.Bounds().Max.String(), time.Now().Format("15:04:05")}
	for i, l := range lines {
		d.dev.GotoXY(2, 2+i*d.font.Height)
		if r := d.dev.PutString(l, d.font, gfx.White); r != 0 {
			logger.Warnf("No glyph for %q", r)
		}
	}
	return d.show(*pause)
}

func (d *demo) animation() error {
	b := d.dev.Bounds()
	x := (b.Dx() - d.spinner.Width) / 2
	y := (b.Dy() - d.spinner.Height) / 2
	d.dev.Fill(gfx.Black)
	for i := 0; i < 3*d.spinner.Frames; i++ {
		d.dev.DrawBitmap(d.spinner, i%d.spinner.Frames, x, y)
		if err := d.show(50 * time.Millisecond); err != nil {
			return err
		}
	}
	return nil
}

func (d *demo) invert() error {
	for i := 0; i < 4; i++ {
		d.dev.ToggleInvert()
		if err := d.show(*pause / 4); err != nil {
			return err
		}
	}
	return nil
}

func (d *demo) contrast() error {
	for _, level := range []byte{0x00, 0x40, 0x80, 0xFF, ssd1306.DefaultOpts.Contrast} {
		if err := d.dev.SetContrast(level); err != nil {
			return err
		}
		if err := d.show(*pause / 4); err != nil {
			return err
		}
	}
	return nil
}

// scroll moves the last picture sideways, then restores it. The controller
// memory must not be written while scrolling.
func (d *demo) scroll() error {
	if err := d.dev.Scroll(ssd1306.Left, ssd1306.FrameRate2, 0, -1); err != nil {
		return err
	}
	if err := d.wait(*pause); err != nil {
		return err
	}
	if err := d.dev.StopScroll(); err != nil {
		return err
	}
	return d.show(0)
}
