// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package luma describes a single camera capture reduced to its brightness
// plane.
//
// A Frame is a view: it does not own the layout of its buffer. Planes coming
// from YUV cameras are commonly padded at the end of each row (RowStride >
// Width) or interleaved with chroma (PixelStride > 1), both are supported.
package luma

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
)

// ErrInvalidFrame is returned when a frame's dimensions, strides or buffer
// length cannot describe a readable luma plane.
var ErrInvalidFrame = errors.New("invalid luma frame")

// Frame is one luma plane, 8 bits per sample.
//
// The sample at (x, y) is Pix[y*RowStride+x*PixelStride].
type Frame struct {
	Width       int
	Height      int
	RowStride   int // Bytes between the start of two consecutive rows.
	PixelStride int // Bytes between two consecutive samples in a row.
	Pix         []byte
}

// New returns a tightly packed frame of w×h.
func New(w, h int) *Frame {
	f := &Frame{}
	f.Reset(w, h)
	return f
}

// Reset resizes the frame to a tightly packed w×h plane, reusing Pix when it
// is large enough.
func (f *Frame) Reset(w, h int) {
	n := w * h
	if cap(f.Pix) < n {
		f.Pix = make([]byte, n)
	}
	f.Pix = f.Pix[:n]
	f.Width = w
	f.Height = h
	f.RowStride = w
	f.PixelStride = 1
}

// Validate returns an error wrapping ErrInvalidFrame if reading any sample
// inside Width×Height would fall outside Pix.
func (f *Frame) Validate() error {
	if f == nil {
		return fmt.Errorf("%w: nil frame", ErrInvalidFrame)
	}
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalidFrame, f.Width, f.Height)
	}
	if f.RowStride <= 0 || f.PixelStride <= 0 {
		return fmt.Errorf("%w: row stride %d, pixel stride %d", ErrInvalidFrame, f.RowStride, f.PixelStride)
	}
	if need := f.MinLen(); len(f.Pix) < need {
		if need == math.MaxInt {
			return fmt.Errorf("%w: row stride %d, pixel stride %d overflow for %dx%d", ErrInvalidFrame, f.RowStride, f.PixelStride, f.Width, f.Height)
		}
		return fmt.Errorf("%w: buffer is %d bytes, need %d", ErrInvalidFrame, len(f.Pix), need)
	}
	return nil
}

// MinLen returns the smallest buffer length that covers the furthest sample,
// (Height-1)*RowStride + (Width-1)*PixelStride + 1.
//
// This is not RowStride*Height: camera planes often skip the padding of the
// last row.
//
// It returns math.MaxInt when the length does not fit in an int, and 0 when a
// dimension or a stride is not positive.
func (f *Frame) MinLen() int {
	if f.Width <= 0 || f.Height <= 0 || f.RowStride <= 0 || f.PixelStride <= 0 {
		return 0
	}
	rows, ok1 := mul(f.Height-1, f.RowStride)
	cols, ok2 := mul(f.Width-1, f.PixelStride)
	if !ok1 || !ok2 || rows > math.MaxInt-1-cols {
		return math.MaxInt
	}
	return rows + cols + 1
}

// At returns the sample at (x, y). Coordinates are clamped to the frame so
// it never reads outside a validated frame.
func (f *Frame) At(x, y int) uint8 {
	return f.Pix[clamp(y, f.Height-1)*f.RowStride+clamp(x, f.Width-1)*f.PixelStride]
}

// Gray copies the visible samples into a new image.Gray, e.g. to encode a
// preview as PNG.
func (f *Frame) Gray() *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		row := dst.Pix[y*dst.Stride:]
		for x := 0; x < f.Width; x++ {
			row[x] = f.At(x, y)
		}
	}
	return dst
}

// FromImage returns a frame for img.
//
// *image.Gray and *image.YCbCr are returned as views sharing img's memory.
// Other images are converted with color.GrayModel into a new buffer.
func FromImage(img image.Image) *Frame {
	b := img.Bounds()
	switch i := img.(type) {
	case *image.Gray:
		return &Frame{
			Width:       b.Dx(),
			Height:      b.Dy(),
			RowStride:   i.Stride,
			PixelStride: 1,
			Pix:         i.Pix[i.PixOffset(b.Min.X, b.Min.Y):],
		}
	case *image.YCbCr:
		return &Frame{
			Width:       b.Dx(),
			Height:      b.Dy(),
			RowStride:   i.YStride,
			PixelStride: 1,
			Pix:         i.Y[i.YOffset(b.Min.X, b.Min.Y):],
		}
	}
	f := New(b.Dx(), b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := f.Pix[(y-b.Min.Y)*f.RowStride:]
		for x := b.Min.X; x < b.Max.X; x++ {
			row[x-b.Min.X] = color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y
		}
	}
	return f
}

// CopyFrom copies src's visible samples into f as a tightly packed plane.
func (f *Frame) CopyFrom(src *Frame) {
	f.Reset(src.Width, src.Height)
	for y := 0; y < src.Height; y++ {
		row := f.Pix[y*f.RowStride:]
		if src.PixelStride == 1 {
			copy(row[:src.Width], src.Pix[y*src.RowStride:])
			continue
		}
		for x := 0; x < src.Width; x++ {
			row[x] = src.Pix[y*src.RowStride+x*src.PixelStride]
		}
	}
}

// mul returns a*b for non-negative a and positive b, false if it overflows.
func mul(a, b int) (int, bool) {
	if a > math.MaxInt/b {
		return 0, false
	}
	return a * b, true
}

func clamp(v, hi int) int {
	if v < 0 {
		return 0
	}
	if v > hi {
		return hi
	}
	return v
}
