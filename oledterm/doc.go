// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package oledterm emulates a SSD1306 controller and shows its display RAM
// in a terminal using ANSI color codes.
//
// A Dev implements ssd1306.Transport, so an ssd1306.Dev can be developed and
// debugged without a panel:
//
//	term := oledterm.New(nil)
//	dev, err := ssd1306.New(term, nil)
//
// The emulator parses the command stream the way the controller does,
// including multi byte commands, the three addressing modes, display on/off,
// inversion, contrast and the segment and COM remapping.
package oledterm
