// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package uniformity

import (
	"image"

	"github.com/maruel/go-uniformity/turbo"
)

// Heatmap colors every normalized cell of g with the turbo colormap. The image
// has one pixel per cell; scaling for display is up to the caller.
func (g *Grid) Heatmap() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, g.Width, g.Height))
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			c := turbo.At(g.At(x, y))
			i := img.PixOffset(x, y)
			img.Pix[i+0] = c.R
			img.Pix[i+1] = c.G
			img.Pix[i+2] = c.B
			img.Pix[i+3] = c.A
		}
	}
	return img
}
