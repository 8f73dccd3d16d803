// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package uniformity

import (
	"math"

	"github.com/maruel/go-uniformity/luma"
)

// Grid is a coarse brightness map of a frame, row major.
//
// Cells are in luma units [0, 255] after Sample and in [0, 1] after
// Normalize.
type Grid struct {
	Width  int
	Height int
	Cells  []float64
}

// At returns the cell at (x, y).
func (g *Grid) At(x, y int) float64 {
	return g.Cells[y*g.Width+x]
}

// Center returns the value of the reference cell (Width/2, Height/2).
func (g *Grid) Center() float64 {
	return g.At(g.Width/2, g.Height/2)
}

// GridHeight returns the number of grid rows for a w×h frame sampled over
// gridW columns, preserving the aspect ratio. It is at least 1.
func GridHeight(w, h, gridW int) int {
	gh := int(math.Round(float64(h) * float64(gridW) / float64(w)))
	if gh < 1 {
		return 1
	}
	return gh
}

// sample reduces f to a gridW-wide grid and fills the histogram of the
// rounded cell values in the same pass.
//
// Each cell averages four samples: the corners of a half-cell box anchored at
// the cell's top-left pixel. It is a cheap approximation of an area average;
// thin features narrower than half a cell may be missed.
//
// f must have been validated.
func sample(f *luma.Frame, gridW int, h *Histogram) *Grid {
	gridH := GridHeight(f.Width, f.Height, gridW)
	g := &Grid{Width: gridW, Height: gridH, Cells: make([]float64, gridW*gridH)}
	stepX := float64(f.Width) / float64(gridW)
	stepY := float64(f.Height) / float64(gridH)

	// Columns are the same for every row; compute their byte offsets once.
	cols := make([]int, 2*gridW)
	for gx := 0; gx < gridW; gx++ {
		cols[2*gx] = tap(stepX*float64(gx), f.Width) * f.PixelStride
		cols[2*gx+1] = tap(stepX*(float64(gx)+0.5), f.Width) * f.PixelStride
	}

	k := 0
	for gy := 0; gy < gridH; gy++ {
		row0 := f.Pix[tap(stepY*float64(gy), f.Height)*f.RowStride:]
		row1 := f.Pix[tap(stepY*(float64(gy)+0.5), f.Height)*f.RowStride:]
		for gx := 0; gx < gridW; gx++ {
			x0, x1 := cols[2*gx], cols[2*gx+1]
			sum := int(row0[x0]) + int(row0[x1]) + int(row1[x0]) + int(row1[x1])
			v := float64(sum) * 0.25
			g.Cells[k] = v
			h.add(v)
			k++
		}
	}
	return g
}

// tap truncates a pixel coordinate and clamps it to [0, n-1].
func tap(c float64, n int) int {
	i := int(c)
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}
