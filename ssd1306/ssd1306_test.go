// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1306

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"testing"
	"time"

	"github.com/GermanBionicSystems/oled/gfx"
	"github.com/GermanBionicSystems/oled/image1bit"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

// init128x64 is the initialization sequence for a 128x64 panel with default
// options.
var init128x64 = []byte{
	0xAE,
	0x00, 0x10,
	0x81, 0x7F,
	0xA4,
	0xA6,
	0x20, 0x00,
	0xB0,
	0x22, 0x00, 0x07,
	0x21, 0x00, 0x7F,
	0xC8,
	0x40,
	0xA1,
	0xA8, 0x3F,
	0xD3, 0x00,
	0xDA, 0x12,
	0xD5, 0xF0,
	0xD9, 0x22,
	0xDB, 0x10,
	0x8D, 0x14,
	0xAF,
}

// record is one Transport call.
type record struct {
	cmd  bool
	data []byte
}

func cmds(b ...byte) []record {
	out := make([]record, 0, len(b))
	for _, c := range b {
		out = append(out, record{cmd: true, data: []byte{c}})
	}
	return out
}

// fakeTransport records every call. It fails every call after failAfter calls
// when failAfter is positive.
type fakeTransport struct {
	ops       []record
	failAfter int
	resets    int
}

func (f *fakeTransport) String() string {
	return "fake"
}

func (f *fakeTransport) SendCommand(c byte) error {
	return f.add(record{cmd: true, data: []byte{c}})
}

func (f *fakeTransport) SendData(d []byte) error {
	return f.add(record{data: append([]byte(nil), d...)})
}

func (f *fakeTransport) add(r record) error {
	if f.failAfter > 0 && len(f.ops) >= f.failAfter {
		return errors.New("bus error")
	}
	f.ops = append(f.ops, r)
	return nil
}

// fakeResetter is a fakeTransport wired to the RES line.
type fakeResetter struct {
	fakeTransport
}

func (f *fakeResetter) Reset() error {
	f.resets++
	return nil
}

func newFake(t *testing.T, tr Transport, opts *Opts) (*Dev, *[]time.Duration) {
	d, err := New(tr, opts)
	if err != nil {
		t.Fatal(err)
	}
	var sleeps []time.Duration
	d.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }
	return d, &sleeps
}

func diffRecords(t *testing.T, name string, got, want []record) {
	t.Helper()
	if diff := cmp.Diff(got, want, cmp.AllowUnexported(record{}), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("%s difference (-got +want):\n%s", name, diff)
	}
}

func TestNew_opts(t *testing.T) {
	for _, tc := range []struct {
		name    string
		opts    *Opts
		want    image.Rectangle
		wantErr bool
	}{
		{name: "nil options", want: image.Rect(0, 0, 128, 64)},
		{name: "zero options", opts: &Opts{}, want: image.Rect(0, 0, 128, 64)},
		{name: "128x32", opts: &Opts{W: 128, H: 32}, want: image.Rect(0, 0, 128, 32)},
		{name: "64x48", opts: &Opts{W: 64, H: 48}, want: image.Rect(0, 0, 64, 48)},
		{name: "width too large", opts: &Opts{W: 132, H: 64}, wantErr: true},
		{name: "width not aligned", opts: &Opts{W: 100, H: 64}, wantErr: true},
		{name: "height too large", opts: &Opts{W: 128, H: 128}, wantErr: true},
		{name: "height not aligned", opts: &Opts{W: 128, H: 20}, wantErr: true},
		{name: "negative", opts: &Opts{W: -8, H: 64}, wantErr: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			d, err := New(&fakeTransport{}, tc.opts)
			if (err != nil) != tc.wantErr {
				t.Fatalf("New() = %v; wantErr %t", err, tc.wantErr)
			}
			if err != nil {
				return
			}
			if d.Bounds() != tc.want {
				t.Errorf("Bounds() = %v; want %v", d.Bounds(), tc.want)
			}
			if got, want := len(d.Image().Pix), tc.want.Dx()*tc.want.Dy()/8; got != want {
				t.Errorf("len(Pix) = %d; want %d", got, want)
			}
			if d.State() != Uninitialized || d.Initialized() {
				t.Errorf("State() = %s", d.State())
			}
		})
	}
}

func TestOpts_unchanged(t *testing.T) {
	opts := Opts{W: 128, H: 32}
	if _, err := New(&fakeTransport{}, &opts); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(opts, Opts{W: 128, H: 32}); diff != "" {
		t.Errorf("New() modified the options (-got +want):\n%s", diff)
	}
}

func TestGetInitCmd(t *testing.T) {
	if diff := cmp.Diff(getInitCmd(&DefaultOpts), init128x64); diff != "" {
		t.Errorf("128x64 difference (-got +want):\n%s", diff)
	}

	o := DefaultOpts
	o.H = 32
	o.W = 64
	o.Sequential = true
	o.MirrorVertical = true
	o.MirrorHorizontal = true
	o.Contrast = 0xFF
	want := append([]byte(nil), init128x64...)
	want[4] = 0xFF  // contrast
	want[12] = 0x03 // last page
	want[15] = 0x3F // last column
	want[16] = 0xC0 // COM scan
	want[18] = 0xA0 // segment remap
	want[20] = 0x1F // multiplex
	want[24] = 0x02 // COM pins
	if diff := cmp.Diff(getInitCmd(&o), want); diff != "" {
		t.Errorf("64x32 difference (-got +want):\n%s", diff)
	}
}

func TestInit_I2C(t *testing.T) {
	var ops []i2ctest.IO
	for _, c := range init128x64 {
		ops = append(ops, i2ctest.IO{Addr: 0x3C, W: []byte{i2cCmd, c}})
	}
	ops = append(ops, i2ctest.IO{Addr: 0x3C, W: append([]byte{i2cData}, make([]byte, 1024)...)})
	bus := &i2ctest.Playback{Ops: ops, DontPanic: true}

	d, err := NewI2C(bus, &DefaultOpts)
	if err != nil {
		t.Fatal(err)
	}
	var slept time.Duration
	d.sleep = func(d time.Duration) { slept += d }
	// Garbage left over from a previous session is cleared.
	d.Fill(gfx.White)
	d.GotoXY(10, 10)
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
	if slept != 100*time.Millisecond {
		t.Errorf("slept %s before the first command", slept)
	}
	if d.State() != Ready || !d.Initialized() || !d.IsOn() {
		t.Errorf("State() = %s", d.State())
	}
	if d.Cursor() != (image.Point{}) {
		t.Errorf("Cursor() = %v", d.Cursor())
	}
}

func TestInit_I2CAddress(t *testing.T) {
	bus := &i2ctest.Record{}
	d, err := NewI2C(bus, &Opts{Addr: 0x3D})
	if err != nil {
		t.Fatal(err)
	}
	d.sleep = func(time.Duration) {}
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	if len(bus.Ops) != len(init128x64)+1 {
		t.Fatalf("got %d transactions", len(bus.Ops))
	}
	for _, op := range bus.Ops {
		if op.Addr != 0x3D {
			t.Fatalf("transaction to %#x", op.Addr)
		}
	}
}

func TestInit_reset(t *testing.T) {
	f := &fakeResetter{}
	d, sleeps := newFake(t, f, nil)
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	if f.resets != 1 || len(*sleeps) != 0 {
		t.Errorf("resets=%d sleeps=%v; the reset replaces the startup delay", f.resets, *sleeps)
	}
	want := append(cmds(init128x64...), record{data: make([]byte, 1024)})
	diffRecords(t, "Init()", f.ops, want)
}

func TestInit_inverted(t *testing.T) {
	f := &fakeTransport{}
	d, _ := newFake(t, f, &Opts{W: 8, H: 8})
	d.ToggleInvert()
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	// Clearing honours the software inversion.
	if got := f.ops[len(f.ops)-1].data; !bytes.Equal(got, bytes.Repeat([]byte{0xFF}, 8)) {
		t.Errorf("flushed %v", got)
	}
}

// stateTransport records the Dev state seen by every call.
type stateTransport struct {
	fakeTransport
	dev    *Dev
	states []State
}

func (s *stateTransport) SendCommand(c byte) error {
	s.states = append(s.states, s.dev.State())
	return s.fakeTransport.SendCommand(c)
}

func (s *stateTransport) SendData(d []byte) error {
	s.states = append(s.states, s.dev.State())
	return s.fakeTransport.SendData(d)
}

func TestInit_states(t *testing.T) {
	tr := &stateTransport{}
	d, _ := newFake(t, tr, &Opts{W: 16, H: 8})
	tr.dev = d
	if d.State() != Uninitialized {
		t.Fatalf("State() = %s", d.State())
	}
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	// Every init command and the first flush happen while Initializing.
	want := make([]State, len(getInitCmd(&d.opts))+1)
	for i := range want {
		want[i] = Initializing
	}
	if diff := cmp.Diff(tr.states, want); diff != "" {
		t.Errorf("states difference (-got +want):\n%s", diff)
	}
	if d.State() != Ready || !d.Initialized() {
		t.Errorf("State() = %s", d.State())
	}

	// On and Off leave the state alone.
	tr.states = nil
	if err := d.Off(); err != nil {
		t.Fatal(err)
	}
	if err := d.On(); err != nil {
		t.Fatal(err)
	}
	for _, s := range tr.states {
		if s != Ready {
			t.Fatalf("On()/Off() ran in state %s", s)
		}
	}
	if d.State() != Ready {
		t.Errorf("State() = %s", d.State())
	}
}

func TestInit_failure(t *testing.T) {
	for _, n := range []int{1, 5, len(init128x64)} {
		f := &fakeTransport{failAfter: n}
		d, _ := newFake(t, f, nil)
		if err := d.Init(); err == nil {
			t.Fatalf("failAfter=%d: expected error", n)
		}
		if d.State() != Uninitialized {
			t.Fatalf("failAfter=%d: State() = %s", n, d.State())
		}
		// Retry once the bus recovered.
		f.failAfter = 0
		if err := d.Init(); err != nil {
			t.Fatal(err)
		}
		if d.State() != Ready {
			t.Fatalf("State() = %s", d.State())
		}
	}
}

func TestOnOff(t *testing.T) {
	f := &fakeTransport{}
	d, _ := newFake(t, f, nil)
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	f.ops = nil
	if err := d.Off(); err != nil {
		t.Fatal(err)
	}
	if d.IsOn() {
		t.Error("IsOn() after Off()")
	}
	if err := d.On(); err != nil {
		t.Fatal(err)
	}
	if !d.IsOn() {
		t.Error("IsOn() after On()")
	}
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	diffRecords(t, "Off() On() Halt()", f.ops, cmds(0x8D, 0x10, 0xAE, 0x8D, 0x14, 0xAF, 0x8D, 0x10, 0xAE))
	if d.State() != Ready {
		t.Errorf("On/Off must not change the state, got %s", d.State())
	}
}

func TestOnOff_error(t *testing.T) {
	f := &fakeTransport{failAfter: 1}
	d, _ := newFake(t, f, nil)
	if err := d.On(); err == nil || !strings.Contains(err.Error(), "bus error") {
		t.Fatalf("On() = %v", err)
	}
	if d.IsOn() {
		t.Error("a failed On() must not mark the panel on")
	}
}

func TestSetContrast(t *testing.T) {
	f := &fakeTransport{}
	d, _ := newFake(t, f, nil)
	if err := d.SetContrast(0x20); err != nil {
		t.Fatal(err)
	}
	diffRecords(t, "SetContrast()", f.ops, cmds(0x81, 0x20))
}

func TestScroll(t *testing.T) {
	for _, tc := range []struct {
		name       string
		o          Orientation
		rate       FrameRate
		start, end int
		want       []record
	}{
		{"left, whole screen", Left, FrameRate2, 0, -1, cmds(0x27, 0x00, 0x00, 0x07, 0x07, 0x00, 0xFF, 0x2F)},
		{"right, one page", Right, FrameRate256, 8, 16, cmds(0x26, 0x00, 0x01, 0x03, 0x01, 0x00, 0xFF, 0x2F)},
		{"up right", UpRight, FrameRate5, 8, 32, cmds(0x29, 0x00, 0x01, 0x00, 0x03, 0x01, 0x2F)},
		{"up left", UpLeft, FrameRate25, 0, 64, cmds(0x2A, 0x00, 0x00, 0x06, 0x07, 0x01, 0x2F)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f := &fakeTransport{}
			d, _ := newFake(t, f, nil)
			if err := d.Scroll(tc.o, tc.rate, tc.start, tc.end); err != nil {
				t.Fatal(err)
			}
			diffRecords(t, "Scroll()", f.ops, tc.want)
		})
	}

	f := &fakeTransport{}
	d, _ := newFake(t, f, &Opts{W: 128, H: 32})
	for _, tc := range []struct {
		o          Orientation
		start, end int
	}{
		{Left, 16, 8},
		{Left, 3, 16},
		{Left, -8, 16},
		{Left, 0, 12},
		{Left, 0, 40},
		{Left, 32, -1},
		{Orientation(0x20), 0, 8},
	} {
		if err := d.Scroll(tc.o, FrameRate2, tc.start, tc.end); err == nil {
			t.Errorf("Scroll(%#02x, %d, %d) must fail", byte(tc.o), tc.start, tc.end)
		}
	}
	if len(f.ops) != 0 {
		t.Errorf("invalid scrolls sent %d commands", len(f.ops))
	}

	if err := d.StopScroll(); err != nil {
		t.Fatal(err)
	}
	diffRecords(t, "StopScroll()", f.ops, cmds(0x2E))
}

func TestSetDisplayStartLine(t *testing.T) {
	f := &fakeTransport{}
	d, _ := newFake(t, f, nil)
	if err := d.SetDisplayStartLine(5); err != nil {
		t.Fatal(err)
	}
	if err := d.SetDisplayStartLine(63); err != nil {
		t.Fatal(err)
	}
	if err := d.SetDisplayStartLine(64); err == nil {
		t.Error("expected error")
	}
	diffRecords(t, "SetDisplayStartLine()", f.ops, cmds(0x45, 0x7F))
}

func TestUpdateScreen(t *testing.T) {
	f := &fakeTransport{}
	d, _ := newFake(t, f, &Opts{W: 16, H: 16})
	d.SetPixel(0, 0, gfx.White)
	d.SetPixel(15, 15, gfx.White)
	if err := d.UpdateScreen(); err != nil {
		t.Fatal(err)
	}
	want := make([]byte, 32)
	want[0] = 0x01
	want[31] = 0x80
	diffRecords(t, "UpdateScreen()", f.ops, []record{{data: want}})

	f.failAfter = 1
	if err := d.UpdateScreen(); err == nil {
		t.Fatal("expected error")
	}
}

func TestWrite(t *testing.T) {
	f := &fakeTransport{}
	d, _ := newFake(t, f, &Opts{W: 8, H: 8})
	if _, err := d.Write(make([]byte, 7)); err == nil {
		t.Fatal("expected length error")
	}
	px := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	n, err := d.Write(px)
	if err != nil || n != 8 {
		t.Fatalf("Write() = %d, %v", n, err)
	}
	if !d.Pixel(0, 0) || !d.Pixel(1, 1) {
		t.Error("Write() must replace the framebuffer")
	}
	diffRecords(t, "Write()", f.ops, []record{{data: px}})
}

func TestDraw(t *testing.T) {
	f := &fakeTransport{}
	d, _ := newFake(t, f, &Opts{W: 16, H: 8})
	src := image.NewGray(image.Rect(0, 0, 4, 4))
	src.SetGray(1, 1, color.Gray{Y: 0xFF})
	if err := d.Draw(image.Rect(8, 0, 16, 8), src, image.Pt(1, 1)); err != nil {
		t.Fatal(err)
	}
	// src (1, 1) lands on (8, 0).
	if !d.Pixel(8, 0) {
		t.Error("(8, 0) should be set")
	}
	n := 0
	for _, b := range d.Image().Pix {
		for ; b != 0; b &= b - 1 {
			n++
		}
	}
	if n != 1 {
		t.Errorf("%d pixels set", n)
	}
	if len(f.ops) != 1 {
		t.Errorf("Draw() must flush once, got %d calls", len(f.ops))
	}

	// A rectangle starting off panel keeps the source aligned, as draw.Draw does.
	d.Fill(gfx.Black)
	src = image.NewGray(image.Rect(0, 0, 8, 8))
	src.SetGray(4, 0, color.Gray{Y: 0xFF})
	r := image.Rect(-4, 0, 4, 8)
	if err := d.Draw(r, src, image.Point{}); err != nil {
		t.Fatal(err)
	}
	want := image1bit.NewVerticalLSB(d.Bounds())
	draw.Draw(want, r, src, image.Point{}, draw.Src)
	if diff := cmp.Diff(d.Image().Pix, want.Pix); diff != "" {
		t.Errorf("clipped Draw() difference (-got +want):\n%s", diff)
	}
	if !d.Pixel(0, 0) || d.Pixel(4, 0) {
		t.Error("src (4, 0) must land on (0, 0)")
	}

	// Inversion applies to images too.
	d.ToggleInvert()
	if err := d.Draw(d.Bounds(), &image.Uniform{C: image1bit.Off}, image.Point{}); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(d.Image().Pix, bytes.Repeat([]byte{0xFF}, 16)) {
		t.Errorf("Draw() while inverted = %v", d.Image().Pix)
	}
}

func TestDev_drawing(t *testing.T) {
	f := &fakeTransport{}
	d, _ := newFake(t, f, nil)
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	d.DrawLine(0, 0, 0, 10, gfx.White)
	d.DrawRectangle(20, 20, 10, 10, gfx.White)
	d.DrawFilledCircle(64, 32, 8, gfx.White)
	f.ops = nil
	if err := d.UpdateScreen(); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(f.ops[0].data, d.Image().Pix) {
		t.Fatal("UpdateScreen() must send the framebuffer")
	}
	if f.ops[0].data[0] != 0xFF || f.ops[0].data[128] != 0x07 {
		t.Errorf("vertical line bytes: %#x %#x", f.ops[0].data[0], f.ops[0].data[128])
	}
}

func TestClose(t *testing.T) {
	w := &fakeWriter{}
	d, err := New(&d2r2Transport{w: w, name: "i2c-1(0x3c)"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
	if !w.closed {
		t.Error("Close() must close an owned transport")
	}
	// Transports without Close are left alone.
	d2, _ := newFake(t, &fakeTransport{}, nil)
	if err := d2.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestString(t *testing.T) {
	d, _ := newFake(t, &fakeTransport{}, &Opts{W: 128, H: 32})
	if got, want := d.String(), "ssd1306.Dev{fake, (128,32), Uninitialized}"; got != want {
		t.Errorf("String() = %q; want %q", got, want)
	}
	if got := State(7).String(); got != "State(7)" {
		t.Errorf("String() = %q", got)
	}
	if Initializing.String() != "Initializing" || Ready.String() != "Ready" {
		t.Error("unexpected State names")
	}
}
