// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package uniformity

import (
	"encoding/json"
	"math"
)

// Epsilon is the smallest center brightness used as a divisor.
const Epsilon = 1e-6

// Metrics are uniformity statistics over all grid cells, each cell expressed
// as a ratio to the center cell.
type Metrics struct {
	Center     float64 // Always 1, the reference.
	Min        float64
	Max        float64
	Mean       float64
	Std        float64
	MinOverMax float64 // NaN when Max is 0, which only a hand-built grid can have; Analyze reports a flat grid as all ones.
}

// MarshalJSON encodes non-finite values as null.
func (m Metrics) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Center     *float64 `json:"center"`
		Min        *float64 `json:"min"`
		Max        *float64 `json:"max"`
		Mean       *float64 `json:"mean"`
		Std        *float64 `json:"std"`
		MinOverMax *float64 `json:"min_over_max"`
	}{finite(m.Center), finite(m.Min), finite(m.Max), finite(m.Mean), finite(m.Std), finite(m.MinOverMax)})
}

// ratios converts normalized cells to ratios against the center cell.
type ratios struct {
	center float64 // Floored at Epsilon.
	flat   bool    // Every cell equals the center.
}

func ratiosOf(g *Grid) ratios {
	c := g.Center()
	r := ratios{center: math.Max(c, Epsilon), flat: true}
	for _, v := range g.Cells {
		if v != c {
			r.flat = false
			break
		}
	}
	return r
}

// of returns v relative to the center. In a perfectly uniform grid every cell
// is the reference itself, including when the whole grid is black.
func (r ratios) of(v float64) float64 {
	if r.flat {
		return 1
	}
	return v / r.center
}

func computeMetrics(g *Grid, r ratios) Metrics {
	mn := math.Inf(1)
	mx := math.Inf(-1)
	s, s2 := 0., 0.
	for _, v := range g.Cells {
		x := r.of(v)
		mn = math.Min(mn, x)
		mx = math.Max(mx, x)
		s += x
		s2 += x * x
	}
	n := float64(len(g.Cells))
	mean := s / n
	m := Metrics{
		Center:     1,
		Min:        mn,
		Max:        mx,
		Mean:       mean,
		Std:        math.Sqrt(math.Max(0, s2/n-mean*mean)),
		MinOverMax: math.NaN(),
	}
	if mx > 0 {
		m.MinOverMax = mn / mx
	}
	return m
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
