// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package uniformity

import "math"

// Histogram counts grid cells per rounded luma level.
type Histogram struct {
	Buckets [256]int
	Total   int
}

func (h *Histogram) add(v float64) {
	i := int(math.Round(v))
	if i < 0 {
		i = 0
	} else if i > 255 {
		i = 255
	}
	h.Buckets[i]++
	h.Total++
}

// Percentile returns the first level at which the cumulative count reaches
// round(Total*p), the target being clamped to [0, Total-1]. It returns 255 if
// the target is never reached.
func (h *Histogram) Percentile(p float64) int {
	target := int(math.Round(float64(h.Total) * p))
	if target > h.Total-1 {
		target = h.Total - 1
	}
	if target < 0 {
		target = 0
	}
	acc := 0
	for i, n := range h.Buckets {
		acc += n
		if acc >= target {
			return i
		}
	}
	return 255
}

// Levels are the black and white points used to stretch a grid.
type Levels struct {
	Low   float64 `json:"low"`   // 1st percentile, mapped to 0.
	High  float64 `json:"high"`  // 99th percentile, mapped to 1.
	Scale float64 `json:"scale"` // 1/(High-Low), or 1 when the scene is too flat to stretch.
}

// Percentiles used as black and white points.
const (
	LowPercentile  = 0.01
	HighPercentile = 0.99
)

// LevelsOf returns the contrast stretch levels of h.
func LevelsOf(h *Histogram) Levels {
	l := Levels{
		Low:   float64(h.Percentile(LowPercentile)),
		High:  float64(h.Percentile(HighPercentile)),
		Scale: 1,
	}
	if l.High > l.Low+1 {
		l.Scale = 1 / (l.High - l.Low)
	}
	return l
}

// Normalize remaps every cell of g in place to clamp((v-Low)*Scale, 0, 1).
func (l Levels) Normalize(g *Grid) {
	for i, v := range g.Cells {
		v = (v - l.Low) * l.Scale
		if v < 0 {
			v = 0
		} else if v > 1 {
			v = 1
		}
		g.Cells[i] = v
	}
}
