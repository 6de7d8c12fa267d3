// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package image1bit implements a 1-bit image with the memory layout used by
// monochrome OLED controllers like the SSD1306.
//
// Pixels are stored in horizontal bands of 8 rows called pages. Each byte
// holds one column of a page; the least significant bit is the top row of the
// page. For a W pixels wide image, pixel (x, y) lives in byte x+(y/8)*W at bit
// y%8.
package image1bit
