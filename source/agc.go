// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package source

import (
	"github.com/maruel/go-uniformity/luma"
	"periph.io/x/periph/devices/lepton/image14bit"
)

// AGC linearly stretches src between its darkest and brightest samples into
// dst, resized to src's bounds. A flat src is written as black.
func AGC(dst *luma.Frame, src *image14bit.Gray14) {
	b := src.Bounds()
	dst.Reset(b.Dx(), b.Dy())
	floor, ceil := minMax(src)
	delta := int(ceil) - int(floor)
	for y := 0; y < b.Dy(); y++ {
		row := dst.Pix[y*dst.RowStride:]
		for x := 0; x < b.Dx(); x++ {
			if delta == 0 {
				row[x] = 0
				continue
			}
			v := int(src.Intensity14At(b.Min.X+x, b.Min.Y+y)-floor) * 255 / delta
			row[x] = uint8(v)
		}
	}
}

func minMax(src *image14bit.Gray14) (image14bit.Intensity14, image14bit.Intensity14) {
	b := src.Bounds()
	lo, hi := image14bit.Intensity14(0x3fff), image14bit.Intensity14(0)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			j := src.Intensity14At(x, y)
			if j > hi {
				hi = j
			}
			if j < lo {
				lo = j
			}
		}
	}
	return lo, hi
}
