// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/GermanBionicSystems/oled/bitmap"
	"github.com/antigloss/go/logger"
	"github.com/google/go-cmp/cmp"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "bitmapconv")
	if err != nil {
		panic(err)
	}
	if err := logger.Init(&logger.Config{LogDir: dir, LogDest: logger.LogDestNone}); err != nil {
		panic(err)
	}
	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

func writePNG(t *testing.T, img image.Image) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "arrow.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func arrow() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, 3, 3))
	for _, p := range []image.Point{{0, 0}, {1, 1}, {0, 2}} {
		img.SetGray(p.X, p.Y, color.Gray{Y: 0xFF})
	}
	return img
}

func TestLoad_png(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arrow.png")
	var buf bytes.Buffer
	if err := png.Encode(&buf, arrow()); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	frames, err := load(path)
	if err != nil {
		t.Fatal(err)
	}
	b, err := bitmap.Encode(frames)
	if err != nil {
		t.Fatal(err)
	}
	// Same bits as hand encoding: (0,0), (1,1) and (0,2) are bits 0, 4 and 6.
	if diff := cmp.Diff(b, []byte{3, 3, 1, 2, 0, 0x51, 0x00}); diff != "" {
		t.Errorf("asset difference (-got +want):\n%s", diff)
	}

	if _, err := load(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("expected error")
	}
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := load(path); err == nil {
		t.Error("expected decode error")
	}
}

func TestGIFFrames(t *testing.T) {
	pal := color.Palette{color.Black, color.White}
	full := image.NewPaletted(image.Rect(0, 0, 4, 4), pal)
	full.SetColorIndex(0, 0, 1)
	// The second frame only updates one pixel.
	delta := image.NewPaletted(image.Rect(2, 2, 3, 3), pal)
	delta.SetColorIndex(2, 2, 1)
	g := &gif.GIF{
		Image:    []*image.Paletted{full, delta},
		Delay:    []int{10, 10},
		Disposal: []byte{gif.DisposalNone, gif.DisposalNone},
		Config:   image.Config{Width: 4, Height: 4},
	}
	frames := gifFrames(g)
	if len(frames) != 2 {
		t.Fatalf("got %d frames", len(frames))
	}
	for _, p := range []image.Point{{0, 0}, {2, 2}} {
		if r, _, _, _ := frames[1].At(p.X, p.Y).RGBA(); r != 0xFFFF {
			t.Errorf("frame 1 at %v = %d", p, r)
		}
	}
	if r, _, _, _ := frames[0].At(2, 2).RGBA(); r != 0 {
		t.Error("frame 0 must not see later frames")
	}
}

func TestScale(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 20, 10))
	for _, tc := range []struct {
		w, h int
		want image.Rectangle
	}{
		{10, 0, image.Rect(0, 0, 10, 5)},
		{0, 20, image.Rect(0, 0, 40, 20)},
		{7, 7, image.Rect(0, 0, 7, 7)},
	} {
		got := scale([]image.Image{src}, tc.w, tc.h)[0].Bounds()
		if got != tc.want {
			t.Errorf("scale(%d, %d) = %v; want %v", tc.w, tc.h, got, tc.want)
		}
	}
}

func TestIdentifier(t *testing.T) {
	for in, want := range map[string]string{
		"logo.png":        "logo",
		"dir/spin-er.gif": "spin_er",
		"8ball.bmp":       "_8ball",
		".png":            "bitmap",
	} {
		if got := identifier(in); got != want {
			t.Errorf("identifier(%q) = %q; want %q", in, got, want)
		}
	}
}

func TestGoSource(t *testing.T) {
	got := goSource("assets", "arrow", []byte{3, 3, 1, 2, 0, 0x51, 0x00})
	want := "// Code generated by bitmapconv. DO NOT EDIT.\n\n" +
		"package assets\n\n" +
		"// arrow is 3x3 pixels, 1 frames.\n" +
		"var arrow = []byte{\n" +
		"\t0x03, 0x03, 0x01, 0x02, 0x00, 0x51, 0x00,\n" +
		"}\n"
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("goSource() difference (-got +want):\n%s", diff)
	}
}

func TestPlay(t *testing.T) {
	b, err := bitmap.Encode([]image.Image{arrow()})
	if err != nil {
		t.Fatal(err)
	}
	img, err := bitmap.Parse(b)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := play(img, &buf); err != nil {
		t.Fatal(err)
	}
	// Init clears the screen, then one frame per bitmap frame.
	if n := strings.Count(buf.String(), "\033[8A"); n != 2 {
		t.Errorf("%d frames rendered; want 2", n)
	}
}

func TestMainImpl_output(t *testing.T) {
	in := writePNG(t, arrow())
	want := []byte{3, 3, 1, 2, 0, 0x51, 0x00}

	var stdout bytes.Buffer
	if err := mainImpl([]string{in}, "", 0, 0, false, "", "", false, &stdout); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(stdout.Bytes(), want); diff != "" {
		t.Errorf("stdout difference (-got +want):\n%s", diff)
	}

	stdout.Reset()
	if err := mainImpl([]string{in}, "", 0, 0, true, "assets", "", false, &stdout); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(stdout.String(), goSource("assets", "arrow", want)); diff != "" {
		t.Errorf("-go difference (-got +want):\n%s", diff)
	}
}

func TestMainImpl_preview(t *testing.T) {
	in := writePNG(t, arrow())

	// The preview and the raw output cannot share stdout.
	var stdout bytes.Buffer
	if err := mainImpl([]string{in}, "", 0, 0, false, "", "", true, &stdout); err == nil {
		t.Fatal("expected error")
	}
	if stdout.Len() != 0 {
		t.Errorf("%d bytes written", stdout.Len())
	}

	out := filepath.Join(t.TempDir(), "arrow.bin")
	if err := mainImpl([]string{in}, out, 0, 0, false, "", "", true, &stdout); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(got, []byte{3, 3, 1, 2, 0, 0x51, 0x00}); diff != "" {
		t.Errorf("file difference (-got +want):\n%s", diff)
	}
	if bytes.Contains(stdout.Bytes(), got) {
		t.Error("the asset must not be written to stdout")
	}
	if !strings.Contains(stdout.String(), "\033[8A") {
		t.Error("the preview must be rendered to stdout")
	}

	// Unwritable output.
	if err := mainImpl([]string{in}, filepath.Join(t.TempDir(), "missing", "a.bin"), 0, 0, false, "", "", false, &stdout); err == nil {
		t.Error("expected error")
	}
}
