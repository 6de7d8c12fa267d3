// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package bitfont holds fixed size bitmap fonts for 1 bit displays.
//
// A Font is a table of glyphs for the printable ASCII range starting at
// character 32 (space). Each glyph is Height rows of RowBytes() bytes. Within a
// row byte, the leftmost pixel is either the most significant bit (MSBFirst)
// or the least significant bit (LSBFirst).
//
// Fonts can be declared literally, or built from any golang.org/x/image
// font.Face, including TrueType files parsed with github.com/golang/freetype.
package bitfont
