// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// bitmapconv converts images to the animated bitmap format drawn by
// gfx.Canvas.DrawImage.
//
// Each input file is one frame, except animated GIFs which contribute all
// their frames. PNG, GIF and BMP are supported.
//
// Usage:
//
//	bitmapconv -o spinner.bin -w 16 -h 16 frame*.png
//	bitmapconv -go -name logo logo.gif > logo.go
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/GermanBionicSystems/oled/bitmap"
	"github.com/GermanBionicSystems/oled/gfx"
	"github.com/GermanBionicSystems/oled/oledterm"
	"github.com/GermanBionicSystems/oled/ssd1306"
	"github.com/antigloss/go/logger"
	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
)

func main() {
	out := flag.String("o", "", "output file, defaults to stdout")
	w := flag.Int("w", 0, "scale frames to this width")
	h := flag.Int("h", 0, "scale frames to this height")
	asGo := flag.Bool("go", false, "emit a Go source file instead of raw bytes")
	pkg := flag.String("pkg", "assets", "package name, with -go")
	name := flag.String("name", "", "variable name, with -go; defaults to the first file name")
	preview := flag.Bool("preview", false, "play the result in the terminal, needs -o")
	logDir := flag.String("log", filepath.Join(os.TempDir(), "bitmapconv"), "log directory")
	flag.Parse()
	if err := logger.Init(&logger.Config{
		LogDir:          *logDir,
		LogFileMaxSize:  10,
		LogFileMaxNum:   10,
		LogFileNumToDel: 2,
		LogLevel:        logger.LogLevelInfo,
		LogDest:         logger.LogDestFile,
		Flag:            logger.ControlFlagLogThrough,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "bitmapconv: %s.\n", err)
		os.Exit(1)
	}

	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "usage: bitmapconv [flags] <image>...\n")
		flag.PrintDefaults()
		os.Exit(2)
	}
	if err := mainImpl(flag.Args(), *out, *w, *h, *asGo, *pkg, *name, *preview, os.Stdout); err != nil {
		logger.Error(err.Error())
		fmt.Fprintf(os.Stderr, "bitmapconv: %s.\n", err)
		os.Exit(1)
	}
}

func mainImpl(files []string, out string, w, h int, asGo bool, pkg, name string, preview bool, stdout io.Writer) error {
	if preview && out == "" {
		return errors.New("-preview requires -o, the preview is written to stdout")
	}
	var frames []image.Image
	for _, f := range files {
		fr, err := load(f)
		if err != nil {
			return err
		}
		logger.Tracef("%s: %d frames", f, len(fr))
		frames = append(frames, fr...)
	}
	if w != 0 || h != 0 {
		frames = scale(frames, w, h)
	}
	b, err := bitmap.Encode(frames)
	if err != nil {
		return err
	}
	img, err := bitmap.Parse(b)
	if err != nil {
		return err
	}
	logger.Infof("Encoded %s", img.Header)

	data := b
	if asGo {
		if name == "" {
			name = identifier(files[0])
		}
		data = []byte(goSource(pkg, name, b))
	}
	if out == "" {
		_, err = stdout.Write(data)
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return err
	}
	if preview {
		return play(img, stdout)
	}
	return nil
}

// load decodes a file into frames. Animated GIF frames are composited, so
// each frame is a full picture.
func load(path string) ([]image.Image, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if g, err := gif.DecodeAll(bytes.NewReader(raw)); err == nil && len(g.Image) > 1 {
		return gifFrames(g), nil
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return []image.Image{img}, nil
}

func gifFrames(g *gif.GIF) []image.Image {
	r := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if r.Empty() {
		r = g.Image[0].Bounds()
	}
	canvas := image.NewRGBA(r)
	out := make([]image.Image, 0, len(g.Image))
	for i, p := range g.Image {
		var prev *image.RGBA
		if i < len(g.Disposal) && g.Disposal[i] == gif.DisposalPrevious {
			prev = image.NewRGBA(r)
			draw.Draw(prev, r, canvas, r.Min, draw.Src)
		}
		draw.Draw(canvas, p.Bounds(), p, p.Bounds().Min, draw.Over)
		frame := image.NewRGBA(r)
		draw.Draw(frame, r, canvas, r.Min, draw.Src)
		out = append(out, frame)
		if i < len(g.Disposal) {
			switch g.Disposal[i] {
			case gif.DisposalBackground:
				draw.Draw(canvas, p.Bounds(), image.Transparent, image.Point{}, draw.Src)
			case gif.DisposalPrevious:
				canvas = prev
			}
		}
	}
	return out
}

// scale resizes every frame. A zero dimension keeps the aspect ratio.
func scale(frames []image.Image, w, h int) []image.Image {
	out := make([]image.Image, len(frames))
	for i, f := range frames {
		b := f.Bounds()
		fw, fh := w, h
		if fw == 0 {
			fw = max(1, b.Dx()*fh/b.Dy())
		}
		if fh == 0 {
			fh = max(1, b.Dy()*fw/b.Dx())
		}
		dst := image.NewRGBA(image.Rect(0, 0, fw, fh))
		xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), f, b, xdraw.Over, nil)
		out[i] = dst
	}
	return out
}

// identifier derives a Go identifier from a file name.
func identifier(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	var b strings.Builder
	for i, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteRune('_')
			}
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "bitmap"
	}
	return b.String()
}

func goSource(pkg, name string, b []byte) string {
	var s strings.Builder
	fmt.Fprintf(&s, "// Code generated by bitmapconv. DO NOT EDIT.\n\npackage %s\n\n", pkg)
	fmt.Fprintf(&s, "// %s is %dx%d pixels, %d frames.\n", name, b[0], b[1], b[2])
	fmt.Fprintf(&s, "var %s = []byte{", name)
	for i, c := range b {
		if i%12 == 0 {
			s.WriteString("\n\t")
		} else {
			s.WriteString(" ")
		}
		fmt.Fprintf(&s, "0x%02X,", c)
	}
	s.WriteString("\n}\n")
	return s.String()
}

// play shows every frame in the terminal emulator.
func play(img *bitmap.Image, w io.Writer) error {
	pw := (img.Width + 7) &^ 7
	ph := (img.Height + 7) &^ 7
	if pw > 128 || ph > 64 {
		return errors.New("too large to preview")
	}
	t := oledterm.New(&oledterm.Opts{W: pw, H: ph, Out: w})
	dev, err := ssd1306.New(t, &ssd1306.Opts{W: pw, H: ph, StartupDelay: time.Millisecond})
	if err != nil {
		return err
	}
	if err := dev.Init(); err != nil {
		return err
	}
	for n := 0; n < img.Frames; n++ {
		dev.Fill(gfx.Black)
		dev.DrawBitmap(img, n, 0, 0)
		if err := dev.UpdateScreen(); err != nil {
			return err
		}
		time.Sleep(100 * time.Millisecond)
	}
	return t.Halt()
}
