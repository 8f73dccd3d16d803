// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package uniformity measures how evenly a scene is lit from a single luma
// frame.
//
// The frame is reduced to a coarse grid, contrast stretched between its 1st
// and 99th percentiles, then every cell is compared to the center cell.
// Everything is relative: doubling the exposure does not change the result.
//
// Analyze is a pure function; it is safe to call concurrently and keeps no
// reference to the frame once it returns.
package uniformity

import (
	"errors"
	"fmt"
	"image"

	"github.com/maruel/go-uniformity/luma"
)

// DefaultGridWidth is the number of grid columns used when none is configured.
const DefaultGridWidth = 160

// ErrInvalidConfig is returned when a Config cannot be used.
var ErrInvalidConfig = errors.New("invalid uniformity config")

// Config is fixed for the lifetime of an analysis stream.
type Config struct {
	GridWidth int // Number of grid columns; the row count follows the frame's aspect ratio.
}

// DefaultConfig returns the configuration used when nothing is specified.
func DefaultConfig() Config {
	return Config{GridWidth: DefaultGridWidth}
}

// Validate returns an error wrapping ErrInvalidConfig if c is unusable.
func (c Config) Validate() error {
	if c.GridWidth <= 0 {
		return fmt.Errorf("%w: grid width %d", ErrInvalidConfig, c.GridWidth)
	}
	return nil
}

// Result is the analysis of one frame. All fields derive from the same frame.
type Result struct {
	Grid       *Grid        // Normalized grid, [0, 1].
	Levels     Levels       // Contrast stretch applied to Grid.
	Metrics    Metrics      //
	Horizontal []float64    // Center row, as ratios to the center; len Grid.Width.
	Vertical   []float64    // Center column, as ratios to the center; len Grid.Height.
	Heatmap    *image.NRGBA // Grid.Width×Grid.Height, semi-transparent.
}

// Analyze runs the whole analysis on f.
//
// It returns an error only if f or cfg is malformed. Degenerate scenes (flat,
// black) produce a result, possibly with non-finite fields.
func Analyze(f *luma.Frame, cfg Config) (*Result, error) {
	g, h, err := Sample(f, cfg)
	if err != nil {
		return nil, err
	}
	return Evaluate(g, h), nil
}

// Sample validates f and reduces it to a grid with its histogram. It is the
// only step that reads the frame; the frame can be recycled as soon as it
// returns.
func Sample(f *luma.Frame, cfg Config) (*Grid, *Histogram, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, nil, err
	}
	h := &Histogram{}
	return sample(f, cfg.GridWidth, h), h, nil
}

// Evaluate normalizes g in place using h and derives the metrics, profiles
// and heatmap.
func Evaluate(g *Grid, h *Histogram) *Result {
	l := LevelsOf(h)
	l.Normalize(g)
	r := ratiosOf(g)
	res := &Result{
		Grid:    g,
		Levels:  l,
		Metrics: computeMetrics(g, r),
		Heatmap: g.Heatmap(),
	}
	res.Horizontal, res.Vertical = profiles(g, r)
	return res
}

// profiles slices the center row and the center column of g.
func profiles(g *Grid, r ratios) ([]float64, []float64) {
	h := make([]float64, g.Width)
	row := g.Height / 2
	for x := range h {
		h[x] = r.of(g.At(x, row))
	}
	v := make([]float64, g.Height)
	col := g.Width / 2
	for y := range v {
		v[y] = r.of(g.At(col, y))
	}
	return h, v
}
