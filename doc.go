// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package oled is a container for the SSD1306 monochrome OLED driver and its
// drawing, font and asset packages.
//
// Start with package ssd1306 to talk to a panel, gfx for the drawing
// primitives, and oledterm or oledweb to develop without hardware.
package oled
