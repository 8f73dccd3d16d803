// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/maruel/go-uniformity/source"
	"github.com/maruel/go-uniformity/uniformity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_missing(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	if diff := cmp.Diff(Default(), c); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	require.NoError(t, c.Validate())
}

func TestLoad_partial(t *testing.T) {
	p := filepath.Join(t.TempDir(), "uniformity.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"grid_width": 32, "source": "dir", "dir": "/tmp/shots"}`), 0o600))
	c, err := Load(p)
	require.NoError(t, err)
	want := Default()
	want.GridWidth = 32
	want.Source = source.KindDir
	want.Dir = "/tmp/shots"
	if diff := cmp.Diff(want, c); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	assert.Equal(t, uniformity.Config{GridWidth: 32}, c.Uniformity())
	opts := c.SourceOptions()
	assert.Equal(t, source.KindDir, opts.Kind)
	assert.Equal(t, "/tmp/shots", opts.Path)
	assert.Equal(t, 4, c.PipelineOptions().PoolSize)
}

func TestLoad_invalid(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{`), 0o600))
	_, err := Load(bad)
	assert.Error(t, err)

	zero := filepath.Join(dir, "zero.json")
	require.NoError(t, os.WriteFile(zero, []byte(`{"grid_width": 0}`), 0o600))
	_, err = Load(zero)
	assert.True(t, errors.Is(err, ErrInvalid))
}

func TestValidate(t *testing.T) {
	data := []struct {
		name string
		edit func(c *Config)
	}{
		{"grid", func(c *Config) { c.GridWidth = -1 }},
		{"port", func(c *Config) { c.Port = 70000 }},
		{"pool", func(c *Config) { c.PoolSize = 0 }},
		{"fps", func(c *Config) { c.FPS = -1 }},
		{"size", func(c *Config) { c.Width = -2 }},
		{"hz", func(c *Config) { c.Source = source.KindLepton; c.SPIHz = -1 }},
		{"dir", func(c *Config) { c.Source = source.KindDir }},
		{"source", func(c *Config) { c.Source = "webcam" }},
	}
	for _, line := range data {
		t.Run(line.name, func(t *testing.T) {
			c := Default()
			line.edit(c)
			assert.True(t, errors.Is(c.Validate(), ErrInvalid))
		})
	}
}

func TestWrite(t *testing.T) {
	p := filepath.Join(t.TempDir(), "sub", "uniformity.json")
	c := Default()
	c.Port = 9000
	require.NoError(t, c.Write(p))
	raw, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(raw), "}\n"))
	assert.Contains(t, string(raw), `"port": 9000`)
	got, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestDefaultPath(t *testing.T) {
	p := DefaultPath()
	assert.Equal(t, "uniformity.json", filepath.Base(p))
	assert.Equal(t, "uniformity", filepath.Base(filepath.Dir(p)))
}
