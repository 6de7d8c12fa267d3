// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1306

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/spi"
)

const (
	i2cCmd  = 0x00 // I²C transaction has stream of command bytes
	i2cData = 0x40 // I²C transaction has stream of data bytes
)

// ErrTimeout is returned when a SPI transfer does not complete within
// Opts.Timeout.
var ErrTimeout = errors.New("ssd1306: spi transfer timed out")

// Transport sends commands and display data to the controller.
type Transport interface {
	String() string
	// SendCommand sends one command byte. Command arguments are sent as
	// commands too.
	SendCommand(c byte) error
	// SendData writes data to the display RAM at the controller's current
	// address.
	SendData(d []byte) error
}

// Resetter is implemented by transports wired to the controller RES pin.
type Resetter interface {
	// Reset pulses the reset line and returns once the controller accepts
	// commands.
	Reset() error
}

// NewI2C returns a Dev object that communicates over I²C to a SSD1306 display
// controller at opts.Addr.
//
// Maximum clock speed is 1/2.5µs = 400KHz.
func NewI2C(b i2c.Bus, opts *Opts) (*Dev, error) {
	o := opts.withDefaults()
	return New(&i2cTransport{c: &i2c.Dev{Bus: b, Addr: o.Addr}}, &o)
}

// i2cTransport prefixes each transaction with the control byte.
type i2cTransport struct {
	c conn.Conn
}

func (t *i2cTransport) String() string {
	return t.c.String()
}

func (t *i2cTransport) SendCommand(c byte) error {
	return t.c.Tx([]byte{i2cCmd, c}, nil)
}

func (t *i2cTransport) SendData(d []byte) error {
	return t.c.Tx(append([]byte{i2cData}, d...), nil)
}

// SPIPins are the GPIO lines used next to the SPI bus.
type SPIPins struct {
	// DC selects between command (Low) and data (High). Required.
	DC gpio.PinOut
	// CS is the chip select, active Low. Leave nil when the SPI port drives
	// the chip select line.
	CS gpio.PinOut
	// RST is the reset line, active Low. Leave nil if it is not wired.
	RST gpio.PinOut
}

// NewSPI returns a Dev object that communicates over 4-wire SPI to a SSD1306
// display controller.
//
// # Wiring
//
// Connect SDA to SPI_MOSI, SCK to SPI_CLK, D/C to pins.DC. CS either goes to
// SPI_CS, or to a GPIO passed as pins.CS. RES goes to pins.RST or is tied
// High.
//
// When pins.RST is set, Init pulses it to reset the controller.
func NewSPI(p spi.Port, pins *SPIPins, opts *Opts) (*Dev, error) {
	if pins == nil || pins.DC == nil || pins.DC == gpio.INVALID {
		return nil, errors.New("ssd1306: a D/C pin is required, 3-wire SPI is not supported")
	}
	o := opts.withDefaults()
	if err := o.validate(); err != nil {
		return nil, err
	}
	if err := pins.DC.Out(gpio.Low); err != nil {
		return nil, err
	}
	for _, pin := range []gpio.PinOut{pins.CS, pins.RST} {
		if pin == nil {
			continue
		}
		if err := pin.Out(gpio.High); err != nil {
			return nil, err
		}
	}
	c, err := p.Connect(o.SPIFreq, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("ssd1306: %w", err)
	}
	t := &spiTransport{c: c, dc: pins.DC, cs: pins.CS, timeout: o.Timeout, sleep: time.Sleep}
	if pins.RST != nil {
		return New(&resetSPITransport{spiTransport: t, rst: pins.RST}, &o)
	}
	return New(t, &o)
}

// spiTransport frames each transfer with the D/C and chip select lines.
type spiTransport struct {
	c       conn.Conn
	dc      gpio.PinOut
	cs      gpio.PinOut
	timeout time.Duration
	sleep   func(time.Duration)
}

func (t *spiTransport) String() string {
	return fmt.Sprintf("%s, %s", t.c, t.dc)
}

func (t *spiTransport) SendCommand(c byte) error {
	eh := errorHandler{t: t}
	eh.out(t.dc, gpio.Low)
	eh.transfer([]byte{c})
	eh.out(t.dc, gpio.High)
	return eh.err
}

func (t *spiTransport) SendData(d []byte) error {
	eh := errorHandler{t: t}
	eh.out(t.dc, gpio.High)
	eh.transfer(d)
	return eh.err
}

// tx runs one transfer, bounded by the timeout.
//
// On timeout the transfer keeps running in the background on a copy of w, so
// the caller may reuse w right away.
func (t *spiTransport) tx(w []byte) error {
	if t.timeout <= 0 {
		return t.c.Tx(w, nil)
	}
	w = append([]byte(nil), w...)
	done := make(chan error, 1)
	go func() {
		done <- t.c.Tx(w, nil)
	}()
	timer := time.NewTimer(t.timeout)
	defer timer.Stop()
	select {
	case err := <-done:
		return err
	case <-timer.C:
		return ErrTimeout
	}
}

// resetSPITransport is a spiTransport with the RES line wired.
type resetSPITransport struct {
	*spiTransport
	rst gpio.PinOut
}

// Reset holds RES Low for 50ms, then High for 50ms.
func (t *resetSPITransport) Reset() error {
	eh := errorHandler{t: t.spiTransport}
	eh.out(t.rst, gpio.Low)
	eh.wait(50 * time.Millisecond)
	eh.out(t.rst, gpio.High)
	eh.wait(50 * time.Millisecond)
	return eh.err
}

// errorHandler is a wrapper for error management. After the first error every
// step is skipped, except releasing the chip select.
type errorHandler struct {
	t   *spiTransport
	err error
}

func (eh *errorHandler) out(p gpio.PinOut, l gpio.Level) {
	if eh.err != nil || p == nil {
		return
	}
	eh.err = p.Out(l)
}

func (eh *errorHandler) wait(d time.Duration) {
	if eh.err != nil {
		return
	}
	eh.t.sleep(d)
}

// transfer selects the chip, sends w and deselects the chip.
func (eh *errorHandler) transfer(w []byte) {
	if eh.err != nil {
		return
	}
	eh.out(eh.t.cs, gpio.Low)
	if eh.err != nil {
		return
	}
	eh.err = eh.t.tx(w)
	if eh.t.cs != nil {
		if err := eh.t.cs.Out(gpio.High); eh.err == nil {
			eh.err = err
		}
	}
}
