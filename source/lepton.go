// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package source

import (
	"context"
	"fmt"
	"image"
	"io"

	"github.com/maruel/go-uniformity/leptontest"
	"github.com/maruel/go-uniformity/luma"
	"periph.io/x/periph/conn/i2c/i2creg"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/conn/spi/spireg"
	"periph.io/x/periph/devices/lepton"
	"periph.io/x/periph/devices/lepton/image14bit"
	"periph.io/x/periph/host"
)

// Device is the part of a FLIR Lepton used to capture frames.
//
// It is implemented by *lepton.Dev and *leptontest.Lepton.
type Device interface {
	NextFrame(img *lepton.Frame) error
	Bounds() image.Rectangle
}

// Lepton reads 14 bits thermal frames from a Device and reduces them to luma
// with AGC.
type Lepton struct {
	dev     Device
	closers []io.Closer
	frame   lepton.Frame
}

// NewLepton returns a Source reading dev. closers are closed in reverse order
// by Close.
func NewLepton(dev Device, closers ...io.Closer) *Lepton {
	return &Lepton{
		dev:     dev,
		closers: closers,
		frame:   lepton.Frame{Gray14: image14bit.NewGray14(dev.Bounds())},
	}
}

// OpenLepton initializes the host drivers and opens a camera connected on the
// named SPI port and I²C bus. Empty names select the first available ones.
// Zero speeds keep the drivers' defaults.
func OpenLepton(spiName, i2cName string, spiHz, i2cHz int64) (*Lepton, error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	spiPort, err := spireg.Open(spiName)
	if err != nil {
		return nil, err
	}
	if spiHz != 0 {
		if err := spiPort.LimitSpeed(physic.Frequency(spiHz) * physic.Hertz); err != nil {
			spiPort.Close()
			return nil, err
		}
	}
	i2cBus, err := i2creg.Open(i2cName)
	if err != nil {
		spiPort.Close()
		return nil, err
	}
	if i2cHz != 0 {
		if err := i2cBus.SetSpeed(physic.Frequency(i2cHz) * physic.Hertz); err != nil {
			i2cBus.Close()
			spiPort.Close()
			return nil, err
		}
	}
	dev, err := lepton.New(spiPort, i2cBus)
	if err != nil {
		i2cBus.Close()
		spiPort.Close()
		return nil, fmt.Errorf("%w\nIf testing without hardware, use -source synthetic to simulate a camera", err)
	}
	Logf("source: lepton on %s and %s", spiPort, i2cBus)
	return NewLepton(dev, spiPort, i2cBus), nil
}

// NewSynthetic returns a Source producing a simulated unevenly lit scene of
// w×h at fps frames per second. fps <= 0 does not pace frames.
func NewSynthetic(w, h int, fps float64) *Lepton {
	return NewLepton(leptontest.New(image.Rect(0, 0, w, h), period(fps)))
}

// NextFrame implements pipeline.Source.
//
// The capture itself cannot be interrupted: it keeps the SPI bus in sync.
// ctx is checked before each capture.
func (l *Lepton) NextFrame(ctx context.Context, f *luma.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := l.dev.NextFrame(&l.frame); err != nil {
		return err
	}
	AGC(f, l.frame.Gray14)
	return nil
}

// Metadata returns the metadata of the last captured frame.
func (l *Lepton) Metadata() lepton.Metadata {
	return l.frame.Metadata
}

// Close closes the underlying buses.
func (l *Lepton) Close() error {
	var err error
	for i := len(l.closers) - 1; i >= 0; i-- {
		if err1 := l.closers[i].Close(); err == nil {
			err = err1
		}
	}
	return err
}
