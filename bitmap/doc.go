// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package bitmap reads and writes multi-frame 1 bit bitmap assets.
//
// # Format
//
// An asset is a 5 bytes header followed by the frames:
//
//	[0] width in pixels
//	[1] height in pixels
//	[2] number of frames
//	[3] frame size in bytes, low byte
//	[4] frame size in bytes, high byte
//
// Each frame stores width*height pixels row-major, 8 pixels per byte, the
// first pixel in the least significant bit. Rows are not padded: bit b of the
// frame is pixel (b%width, b/width).
package bitmap
