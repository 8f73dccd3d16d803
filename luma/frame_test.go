// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package luma

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	data := []struct {
		name string
		f    *Frame
		ok   bool
	}{
		{"nil", nil, false},
		{"packed", &Frame{Width: 4, Height: 2, RowStride: 4, PixelStride: 1, Pix: make([]byte, 8)}, true},
		{"zero width", &Frame{Width: 0, Height: 2, RowStride: 4, PixelStride: 1, Pix: make([]byte, 8)}, false},
		{"negative height", &Frame{Width: 4, Height: -1, RowStride: 4, PixelStride: 1, Pix: make([]byte, 8)}, false},
		{"zero row stride", &Frame{Width: 4, Height: 2, RowStride: 0, PixelStride: 1, Pix: make([]byte, 8)}, false},
		{"zero pixel stride", &Frame{Width: 4, Height: 2, RowStride: 4, PixelStride: 0, Pix: make([]byte, 8)}, false},
		{"short", &Frame{Width: 4, Height: 2, RowStride: 4, PixelStride: 1, Pix: make([]byte, 7)}, false},
		// Last row padding is not required.
		{"padded rows", &Frame{Width: 4, Height: 2, RowStride: 8, PixelStride: 1, Pix: make([]byte, 12)}, true},
		{"padded rows short", &Frame{Width: 4, Height: 2, RowStride: 8, PixelStride: 1, Pix: make([]byte, 11)}, false},
		{"interleaved", &Frame{Width: 4, Height: 2, RowStride: 8, PixelStride: 2, Pix: make([]byte, 15)}, true},
		// Strides inconsistent with the width: the furthest sample is past
		// RowStride*Height.
		{"overlapping rows", &Frame{Width: 4, Height: 2, RowStride: 2, PixelStride: 3, Pix: make([]byte, 4)}, false},
		{"overlapping rows long enough", &Frame{Width: 4, Height: 2, RowStride: 2, PixelStride: 3, Pix: make([]byte, 12)}, true},
		// The furthest offset does not fit in an int.
		{"huge row stride", &Frame{Width: 2, Height: 3, RowStride: math.MaxInt / 2, PixelStride: 1, Pix: make([]byte, 16)}, false},
		{"huge pixel stride", &Frame{Width: 3, Height: 1, RowStride: 1, PixelStride: math.MaxInt/2 + 1, Pix: make([]byte, 16)}, false},
		{"huge sum", &Frame{Width: 2, Height: 2, RowStride: math.MaxInt / 2, PixelStride: math.MaxInt / 2, Pix: make([]byte, 16)}, false},
	}
	for _, line := range data {
		t.Run(line.name, func(t *testing.T) {
			err := line.f.Validate()
			if line.ok {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidFrame))
			}
		})
	}
}

func TestAt(t *testing.T) {
	f := &Frame{
		Width:       3,
		Height:      2,
		RowStride:   8,
		PixelStride: 2,
		Pix: []byte{
			1, 0, 2, 0, 3, 0, 0, 0,
			4, 0, 5, 0, 6,
		},
	}
	require.NoError(t, f.Validate())
	assert.Equal(t, uint8(1), f.At(0, 0))
	assert.Equal(t, uint8(6), f.At(2, 1))
	assert.Equal(t, uint8(1), f.At(-5, -5))
	assert.Equal(t, uint8(6), f.At(100, 100))
	assert.Equal(t, uint8(3), f.At(9, 0))

	g := f.Gray()
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, g.Pix)

	c := New(1, 1)
	c.CopyFrom(f)
	assert.True(t, equal(c, f))
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, c.Pix)
}

func TestReset(t *testing.T) {
	f := New(4, 4)
	p := &f.Pix[0]
	f.Reset(2, 2)
	assert.Len(t, f.Pix, 4)
	assert.Equal(t, 2, f.RowStride)
	assert.Same(t, p, &f.Pix[0])
}

func TestFromImage(t *testing.T) {
	t.Run("gray sub image", func(t *testing.T) {
		g := image.NewGray(image.Rect(0, 0, 4, 4))
		for i := range g.Pix {
			g.Pix[i] = uint8(i)
		}
		f := FromImage(g.SubImage(image.Rect(1, 1, 3, 3)))
		require.NoError(t, f.Validate())
		assert.Equal(t, 2, f.Width)
		assert.Equal(t, 4, f.RowStride)
		assert.Equal(t, uint8(5), f.At(0, 0))
		assert.Equal(t, uint8(10), f.At(1, 1))
	})
	t.Run("ycbcr", func(t *testing.T) {
		y := image.NewYCbCr(image.Rect(0, 0, 3, 2), image.YCbCrSubsampleRatio420)
		for i := range y.Y {
			y.Y[i] = uint8(10 * i)
		}
		f := FromImage(y)
		require.NoError(t, f.Validate())
		assert.Equal(t, uint8(50), f.At(2, 1))
		assert.Same(t, &y.Y[0], &f.Pix[0])
	})
	t.Run("rgba", func(t *testing.T) {
		img := image.NewRGBA(image.Rect(0, 0, 2, 1))
		img.Set(0, 0, color.White)
		img.Set(1, 0, color.Black)
		f := FromImage(img)
		require.NoError(t, f.Validate())
		assert.Equal(t, []byte{255, 0}, f.Pix)
	})
}

func TestMinLen(t *testing.T) {
	assert.Equal(t, 12, (&Frame{Width: 4, Height: 2, RowStride: 8, PixelStride: 1}).MinLen())
	assert.Equal(t, 0, (&Frame{Width: 4, Height: 2, RowStride: 0, PixelStride: 1}).MinLen())
	assert.Equal(t, math.MaxInt, (&Frame{Width: 2, Height: 3, RowStride: math.MaxInt / 2, PixelStride: 1}).MinLen())
	// The furthest offset, math.MaxInt-1, still fits.
	assert.Equal(t, math.MaxInt, (&Frame{Width: 1, Height: 2, RowStride: math.MaxInt - 1, PixelStride: 1}).MinLen())
}

// equal returns true if both frames have the same visible samples,
// irrespective of their memory layout.
func equal(a, b *Frame) bool {
	if a.Width != b.Width || a.Height != b.Height {
		return false
	}
	for y := 0; y < a.Height; y++ {
		for x := 0; x < a.Width; x++ {
			if a.At(x, y) != b.At(x, y) {
				return false
			}
		}
	}
	return true
}
