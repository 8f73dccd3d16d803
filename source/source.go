// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package source implements the cameras feeding the analysis pipeline.
//
// Every Source writes into the luma.Frame it is given so buffers can be
// recycled by the caller.
package source

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/maruel/go-uniformity/pipeline"
)

// Logf is the package diagnostic logger. It defaults to log.Printf.
var Logf = log.Printf

// Kinds of Source supported by Open.
const (
	KindSynthetic = "synthetic"
	KindLepton    = "lepton"
	KindDir       = "dir"
)

// ErrUnknownKind is returned by Open for an unsupported Options.Kind.
var ErrUnknownKind = errors.New("unknown source")

// Options selects and configures the Source returned by Open.
type Options struct {
	Kind string

	// Synthetic.
	Width  int
	Height int
	FPS    float64

	// Lepton.
	SPI   string
	I2C   string
	SPIHz int64
	I2CHz int64

	// Dir.
	Path string
	Once bool // Stop with io.EOF once the files already present are read.
}

// Open returns the Source described by opts.
func Open(opts Options) (pipeline.Source, error) {
	switch opts.Kind {
	case KindSynthetic:
		w, h := opts.Width, opts.Height
		if w <= 0 || h <= 0 {
			w, h = 640, 480
		}
		return NewSynthetic(w, h, opts.FPS), nil
	case KindLepton:
		l, err := OpenLepton(opts.SPI, opts.I2C, opts.SPIHz, opts.I2CHz)
		if err != nil {
			return nil, err
		}
		return l, nil
	case KindDir:
		d, err := OpenDir(opts.Path, opts.Once)
		if err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownKind, opts.Kind)
	}
}

func period(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}
