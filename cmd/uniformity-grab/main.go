// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// uniformity-grab analyzes a single image.
//
// The image is read from the file passed as argument or captured from the
// configured camera.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"io"
	"log"
	"math"
	"os"
	"time"

	"github.com/maruel/go-uniformity/chart"
	"github.com/maruel/go-uniformity/config"
	"github.com/maruel/go-uniformity/luma"
	"github.com/maruel/go-uniformity/source"
	"github.com/maruel/go-uniformity/uniformity"
	"gonum.org/v1/plot/vg"
)

func mainImpl() error {
	configPath := flag.String("config", config.DefaultPath(), "config file")
	kind := flag.String("source", "", "synthetic, lepton or dir, overrides the config; ignored when a file is passed")
	gridWidth := flag.Int("grid", 0, "grid columns, overrides the config")
	heatmap := flag.String("heatmap", "", "save the heatmap PNG")
	profiles := flag.String("profiles", "", "save the profiles plot PNG")
	gray := flag.String("gray", "", "save the analyzed luma plane PNG")
	asJSON := flag.Bool("json", false, "print the metrics as JSON")
	verbose := flag.Bool("v", false, "verbose mode")
	flag.Parse()
	if !*verbose {
		log.SetOutput(io.Discard)
	}
	log.SetFlags(log.Lmicroseconds)
	if flag.NArg() > 1 {
		return errors.New("supply at most one image to analyze")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *kind != "" {
		cfg.Source = *kind
	}
	if *gridWidth != 0 {
		cfg.GridWidth = *gridWidth
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	f := &luma.Frame{}
	if flag.NArg() == 1 {
		if err := source.ReadFile(flag.Arg(0), f); err != nil {
			return err
		}
	} else if err := grab(cfg, f); err != nil {
		return err
	}

	start := time.Now()
	res, err := uniformity.Analyze(f, cfg.Uniformity())
	if err != nil {
		return err
	}
	log.Printf("analyzed %dx%d in %s", f.Width, f.Height, time.Since(start))

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res.Metrics); err != nil {
			return err
		}
	} else {
		printResult(os.Stdout, f, res)
	}
	if *heatmap != "" {
		if err := savePNG(*heatmap, res.Heatmap); err != nil {
			return err
		}
	}
	if *gray != "" {
		if err := savePNG(*gray, f.Gray()); err != nil {
			return err
		}
	}
	if *profiles != "" {
		w, err := os.Create(*profiles)
		if err != nil {
			return err
		}
		err = chart.ProfilesPNG(w, res, 8*vg.Inch, 4*vg.Inch)
		if err1 := w.Close(); err == nil {
			err = err1
		}
		return err
	}
	return nil
}

// grab captures one frame from the configured camera.
func grab(cfg *config.Config, f *luma.Frame) error {
	opts := cfg.SourceOptions()
	opts.Once = true
	opts.FPS = 0
	src, err := source.Open(opts)
	if err != nil {
		return err
	}
	defer src.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := src.NextFrame(ctx, f); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("no image in %s", cfg.Dir)
		}
		return err
	}
	return nil
}

func printResult(w io.Writer, f *luma.Frame, res *uniformity.Result) {
	fmt.Fprintf(w, "Frame:        %dx%d\n", f.Width, f.Height)
	fmt.Fprintf(w, "Grid:         %dx%d\n", res.Grid.Width, res.Grid.Height)
	fmt.Fprintf(w, "Levels:       %g - %g\n", res.Levels.Low, res.Levels.High)
	fmt.Fprintf(w, "Center:       %s\n", ratio(res.Metrics.Center))
	fmt.Fprintf(w, "Min:          %s\n", ratio(res.Metrics.Min))
	fmt.Fprintf(w, "Max:          %s\n", ratio(res.Metrics.Max))
	fmt.Fprintf(w, "Mean:         %s\n", ratio(res.Metrics.Mean))
	fmt.Fprintf(w, "Std:          %s\n", ratio(res.Metrics.Std))
	fmt.Fprintf(w, "Min/Max:      %s\n", ratio(res.Metrics.MinOverMax))
}

func ratio(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "—"
	}
	return fmt.Sprintf("%.3f", v)
}

func savePNG(path string, img image.Image) error {
	w, err := os.Create(path)
	if err != nil {
		return err
	}
	err = png.Encode(w, img)
	if err1 := w.Close(); err == nil {
		err = err1
	}
	return err
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "\nuniformity-grab: %s.\n", err)
		os.Exit(1)
	}
}
