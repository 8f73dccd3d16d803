// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package config loads the settings shared by the uniformity tools.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/user"
	"path/filepath"

	"github.com/maruel/go-uniformity/pipeline"
	"github.com/maruel/go-uniformity/source"
	"github.com/maruel/go-uniformity/uniformity"
)

// ErrInvalid is wrapped by the errors returned by Validate.
var ErrInvalid = errors.New("invalid config")

// Config is the content of the JSON config file. Fields omitted from the file
// keep their default value.
type Config struct {
	GridWidth int     `json:"grid_width"`
	Port      int     `json:"port"`
	Source    string  `json:"source"` // synthetic, lepton or dir.
	Dir       string  `json:"dir,omitempty"`
	Width     int     `json:"width,omitempty"`  // Synthetic frame width.
	Height    int     `json:"height,omitempty"` // Synthetic frame height.
	FPS       float64 `json:"fps,omitempty"`
	SPI       string  `json:"spi,omitempty"`
	I2C       string  `json:"i2c,omitempty"`
	SPIHz     int64   `json:"spi_hz,omitempty"`
	I2CHz     int64   `json:"i2c_hz,omitempty"`
	PoolSize  int     `json:"pool_size"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		GridWidth: uniformity.DefaultGridWidth,
		Port:      8010,
		Source:    source.KindSynthetic,
		Width:     640,
		Height:    480,
		FPS:       10,
		PoolSize:  4,
	}
}

// DefaultPath returns ~/.config/uniformity/uniformity.json.
func DefaultPath() string {
	home := os.Getenv("HOME")
	if usr, err := user.Current(); err == nil && usr.HomeDir != "" {
		home = usr.HomeDir
	}
	return filepath.Join(home, ".config", "uniformity", "uniformity.json")
}

// Load reads the config file at path on top of Default. A missing file is
// not an error.
func Load(path string) (*Config, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Write saves c as indented JSON at path, creating the directory as needed.
func (c *Config) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

// Validate returns an error wrapping ErrInvalid if c cannot be used.
func (c *Config) Validate() error {
	if c.GridWidth <= 0 {
		return fmt.Errorf("%w: grid_width must be positive, got %d", ErrInvalid, c.GridWidth)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalid, c.Port)
	}
	if c.PoolSize <= 0 {
		return fmt.Errorf("%w: pool_size must be positive, got %d", ErrInvalid, c.PoolSize)
	}
	if c.FPS < 0 {
		return fmt.Errorf("%w: fps must not be negative, got %g", ErrInvalid, c.FPS)
	}
	switch c.Source {
	case source.KindSynthetic:
		if c.Width < 0 || c.Height < 0 {
			return fmt.Errorf("%w: synthetic size %dx%d", ErrInvalid, c.Width, c.Height)
		}
	case source.KindLepton:
		if c.SPIHz < 0 || c.I2CHz < 0 {
			return fmt.Errorf("%w: bus speeds must not be negative", ErrInvalid)
		}
	case source.KindDir:
		if c.Dir == "" {
			return fmt.Errorf("%w: source %q requires dir", ErrInvalid, c.Source)
		}
	default:
		return fmt.Errorf("%w: unknown source %q", ErrInvalid, c.Source)
	}
	return nil
}

// Uniformity returns the analysis settings.
func (c *Config) Uniformity() uniformity.Config {
	return uniformity.Config{GridWidth: c.GridWidth}
}

// SourceOptions returns the options to open the configured camera.
func (c *Config) SourceOptions() source.Options {
	return source.Options{
		Kind:   c.Source,
		Width:  c.Width,
		Height: c.Height,
		FPS:    c.FPS,
		SPI:    c.SPI,
		I2C:    c.I2C,
		SPIHz:  c.SPIHz,
		I2CHz:  c.I2CHz,
		Path:   c.Dir,
	}
}

// PipelineOptions returns the pipeline tuning.
func (c *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{PoolSize: c.PoolSize}
}
