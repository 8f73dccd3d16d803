// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package leptontest implements a fake FLIR Lepton looking at an unevenly lit
// surface.
package leptontest

import (
	"image"
	"math"
	"math/rand"
	"time"

	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/devices/lepton"
	"periph.io/x/periph/devices/lepton/image14bit"
)

// Lepton is a fake for lepton.Dev.
//
// It renders a vignetted light field: brightest near the middle, falling off
// toward the corners, with a few slowly drifting hot spots and sensor noise.
type Lepton struct {
	bounds image.Rectangle
	period time.Duration
	noise  *noise
	meta   lepton.Metadata
	start  time.Time
}

// New returns a fake camera of the given size producing one frame per period.
// A zero period does not pace frames.
func New(bounds image.Rectangle, period time.Duration) *Lepton {
	return &Lepton{
		bounds: bounds,
		period: period,
		noise:  makeNoise(bounds),
		start:  time.Now().UTC(),
	}
}

// Default returns a fake with the real sensor size, 80×60 at ~9hz.
func Default() *Lepton {
	return New(image.Rect(0, 0, 80, 60), 111*time.Millisecond)
}

// NextFrame renders the next frame into img, allocating its buffer as
// needed.
func (l *Lepton) NextFrame(img *lepton.Frame) error {
	if l.period != 0 {
		time.Sleep(l.period)
	}
	if img.Gray14 == nil || img.Bounds() != l.bounds {
		img.Gray14 = image14bit.NewGray14(l.bounds)
	}
	l.meta.FrameCount++
	l.meta.SinceStartup = time.Since(l.start)
	l.meta.Temp = physic.ZeroCelsius + 20*physic.Celsius
	img.Metadata = l.meta
	l.noise.update()
	l.noise.render(img)
	return nil
}

func (l *Lepton) Bounds() image.Rectangle {
	return l.bounds
}

func (l *Lepton) Close() error {
	return nil
}

//

// Levels of the rendered field, in 14 bits.
const (
	peak  = 12000
	floor = 2000
)

type vector struct {
	intensity float64
	x         float64
	y         float64
}

// noise is cheezy but gets us going for testing without a device.
type noise struct {
	rand    *rand.Rand
	w, h    float64
	vectors []vector
}

func makeNoise(r image.Rectangle) *noise {
	n := &noise{rand: rand.New(rand.NewSource(0)), w: float64(r.Dx()), h: float64(r.Dy())}
	n.vectors = make([]vector, 4)
	for i := range n.vectors {
		n.vectors[i].intensity = math.Abs(n.rand.NormFloat64()) * 800
		n.vectors[i].x = n.rand.Float64() * n.w
		n.vectors[i].y = n.rand.Float64() * n.h
	}
	return n
}

func (n *noise) update() {
	for i := range n.vectors {
		n.vectors[i].intensity = math.Max(0, n.vectors[i].intensity+n.rand.NormFloat64()*10)
		n.vectors[i].x += n.rand.NormFloat64() * n.w / 200
		n.vectors[i].y += n.rand.NormFloat64() * n.h / 200
	}
}

func (n *noise) render(f *lepton.Frame) {
	b := f.Bounds()
	cx, cy := n.w/2, n.h/2
	// Squared distance from the center to a corner.
	far := cx*cx + cy*cy
	// Spread of the hot spots.
	spread := far / 50
	for y := 0; y < b.Dy(); y++ {
		fy := float64(y) + 0.5
		for x := 0; x < b.Dx(); x++ {
			fx := float64(x) + 0.5
			d := ((fx-cx)*(fx-cx) + (fy-cy)*(fy-cy)) / far
			value := floor + (peak-floor)*(1-0.6*d)
			for _, v := range n.vectors {
				dist := (v.x-fx)*(v.x-fx) + (v.y-fy)*(v.y-fy)
				value += v.intensity * math.Exp(-dist/spread)
			}
			value += n.rand.NormFloat64() * 20
			if value < 0 {
				value = 0
			}
			if value > 16383 {
				value = 16383
			}
			f.SetIntensity14(b.Min.X+x, b.Min.Y+y, image14bit.Intensity14(value))
		}
	}
}
