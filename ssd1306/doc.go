// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ssd1306 controls a monochrome OLED display driven by a SSD1306
// controller.
//
// A Dev owns a framebuffer (see package gfx) that is modified by the drawing
// methods and sent to the controller as a whole by UpdateScreen. Nothing is
// visible on the panel until UpdateScreen is called.
//
// The device can be driven on I²C, or on SPI with 4 wires where a GPIO pin
// selects between commands and data. Changing between protocol is likely done
// through resistor soldering, for boards that support both. The bus is
// abstracted by the Transport interface; NewI2C, NewSPI and NewD2R2 select a
// Transport at construction time.
//
// # Lifecycle
//
// Constructors do not talk to the device. Init resets the controller, sends
// the initialization sequence, clears the panel and moves the Dev to the
// Ready state.
//
// # Concurrency
//
// A Dev is not safe for concurrent use. Callers sharing a Dev must hold a lock
// around every sequence of drawing calls and UpdateScreen, otherwise a flush
// may send a half drawn frame.
//
// # More details
//
// See https://periph.io/device/ssd1306/ for more details about the device.
//
// # Datasheets
//
// https://cdn-shop.adafruit.com/datasheets/SSD1306.pdf
package ssd1306
