// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package gfx rasterizes shapes, text and bitmaps onto a 1 bit page-major
// framebuffer.
//
// # Out of range coordinates
//
// Drawing never fails. The policy for coordinates outside of the canvas is
// part of each method contract:
//
//   - SetPixel, DrawCircle and DrawImage drop pixels outside of the canvas.
//   - DrawLine saturates each endpoint to the nearest edge before drawing,
//     which changes the slope of lines that leave the canvas.
//   - DrawRectangle and DrawFilledRectangle do nothing when the top-left
//     corner is outside of the canvas and shrink the size to fit otherwise.
//   - DrawImage does nothing for a missing frame or truncated asset.
//
// # Inversion
//
// A Canvas can be inverted in software with ToggleInvert. While inverted,
// every color passed to a drawing method is complemented before it is stored.
//
// A Canvas is not safe for concurrent use.
package gfx
