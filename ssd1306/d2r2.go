// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1306

import (
	"fmt"

	"github.com/d2r2/go-i2c"
	"github.com/d2r2/go-logger"
)

// NewD2R2 returns a Dev object that communicates over the Linux i2c-dev
// device /dev/i2c-<bus> through github.com/d2r2/go-i2c, without periph host
// drivers.
//
// The returned Dev owns the bus handle, release it with Close.
func NewD2R2(bus int, opts *Opts) (*Dev, error) {
	o := opts.withDefaults()
	if err := o.validate(); err != nil {
		return nil, err
	}
	// go-i2c logs every transfer at debug level.
	_ = logger.ChangePackageLogLevel("i2c", logger.InfoLevel)
	c, err := i2c.NewI2C(uint8(o.Addr), bus)
	if err != nil {
		return nil, fmt.Errorf("ssd1306: %w", err)
	}
	return New(&d2r2Transport{w: c, name: fmt.Sprintf("i2c-%d(%#x)", bus, o.Addr)}, &o)
}

// byteWriter is the part of *i2c.I2C used by d2r2Transport.
type byteWriter interface {
	WriteBytes(buf []byte) (int, error)
	Close() error
}

type d2r2Transport struct {
	w    byteWriter
	name string
}

func (t *d2r2Transport) String() string {
	return t.name
}

func (t *d2r2Transport) SendCommand(c byte) error {
	return t.write([]byte{i2cCmd, c})
}

func (t *d2r2Transport) SendData(d []byte) error {
	return t.write(append([]byte{i2cData}, d...))
}

func (t *d2r2Transport) Close() error {
	return t.w.Close()
}

func (t *d2r2Transport) write(b []byte) error {
	n, err := t.w.WriteBytes(b)
	if err != nil {
		return err
	}
	if n != len(b) {
		return fmt.Errorf("short write: %d of %d bytes", n, len(b))
	}
	return nil
}
