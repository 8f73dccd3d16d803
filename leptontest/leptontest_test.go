// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package leptontest

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/periph/devices/lepton"
	"periph.io/x/periph/devices/lepton/image14bit"
)

func TestLepton(t *testing.T) {
	l := Default()
	assert.Equal(t, image.Rect(0, 0, 80, 60), l.Bounds())

	l = New(image.Rect(0, 0, 40, 30), 0)
	// A buffer of the wrong size is replaced.
	img := &lepton.Frame{Gray14: image14bit.NewGray14(image.Rect(0, 0, 2, 2))}
	require.NoError(t, l.NextFrame(img))
	assert.Equal(t, l.Bounds(), img.Bounds())
	assert.EqualValues(t, 1, img.Metadata.FrameCount)
	assert.Greater(t, uint16(img.Intensity14At(20, 15)), uint16(img.Intensity14At(0, 0)))

	require.NoError(t, l.NextFrame(img))
	assert.EqualValues(t, 2, img.Metadata.FrameCount)
	require.NoError(t, l.Close())
}
