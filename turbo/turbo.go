// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package turbo implements a polynomial approximation of the "turbo"
// perceptual colormap.
package turbo

import (
	"image/color"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Alpha is the opacity of the colors returned by At, chosen so the heatmap
// can be composited over a live preview.
const Alpha = 160

// Each channel is c0 + c1*v + ... + c5*v^5, in 0-255 units.
var (
	red   = [6]float64{34.61, 1172.33, -10793.56, 33300.12, -38394.49, 16632.1}
	green = [6]float64{23.31, 557.33, 1225.33, -3574.96, 2794.0, -658.0}
	blue  = [6]float64{27.2, 3211.1, -15327.97, 27814.0, -22569.18, 6838.66}
)

// At returns the color for v. v is clamped to [0, 1].
func At(v float64) color.NRGBA {
	v = clamp01(v)
	return color.NRGBA{
		R: channel(&red, v),
		G: channel(&green, v),
		B: channel(&blue, v),
		A: Alpha,
	}
}

// Ramp returns n colors evenly spaced over [0, 1], n >= 2.
func Ramp(n int) []color.NRGBA {
	if n < 2 {
		n = 2
	}
	out := make([]color.NRGBA, n)
	for i := range out {
		out[i] = At(float64(i) / float64(n-1))
	}
	return out
}

// Hex returns the opaque "#rrggbb" form of the colors of Ramp(n), as expected
// by chart libraries.
func Hex(n int) []string {
	r := Ramp(n)
	out := make([]string, len(r))
	for i, c := range r {
		out[i] = hex(c)
	}
	return out
}

// HexAt returns the opaque "#rrggbb" form of At(v).
func HexAt(v float64) string {
	return hex(At(v))
}

func hex(c color.NRGBA) string {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}.Hex()
}

func channel(c *[6]float64, v float64) uint8 {
	// Horner's method.
	p := c[0] + v*(c[1]+v*(c[2]+v*(c[3]+v*(c[4]+v*c[5]))))
	return uint8(math.Round(255 * clamp01(p/255)))
}

func clamp01(v float64) float64 {
	// NaN compares false with everything and ends up as 0.
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
