// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package chart renders uniformity results as interactive HTML charts and
// static PNG plots.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/maruel/go-uniformity/turbo"
	"github.com/maruel/go-uniformity/uniformity"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ErrNoResult is returned when there is nothing to render yet.
var ErrNoResult = errors.New("no result")

// Profiles writes an HTML page charting the center row and the center column
// of res, both as ratios to the center cell. Positions are in percent of the
// frame so both profiles share the same axis.
//
// Non-finite ratios are left as gaps.
func Profiles(w io.Writer, res *uniformity.Result, subtitle string) error {
	if res == nil {
		return ErrNoResult
	}
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Uniformity profiles", Width: "900px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: "Profiles", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Min: 0, Max: 100, Name: "Position (%)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Min: 0, Name: "Ratio to center", NameLocation: "middle", NameGap: 30}),
	)
	line.AddSeries("horizontal", lineData(res.Horizontal), charts.WithItemStyleOpts(opts.ItemStyle{Color: turbo.HexAt(0.15)}))
	line.AddSeries("vertical", lineData(res.Vertical), charts.WithItemStyleOpts(opts.ItemStyle{Color: turbo.HexAt(0.85)}))
	return line.Render(w)
}

// Grid writes an HTML page with the normalized grid of res as a heatmap,
// using the same colors as res.Heatmap. The top row of the frame is drawn at
// the top.
func Grid(w io.Writer, res *uniformity.Result, subtitle string) error {
	if res == nil || res.Grid == nil {
		return ErrNoResult
	}
	g := res.Grid
	xs := make([]int, g.Width)
	for i := range xs {
		xs[i] = i
	}
	ys := make([]int, g.Height)
	for i := range ys {
		ys[i] = g.Height - 1 - i
	}
	data := make([]opts.HeatMapData, 0, len(g.Cells))
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			data = append(data, opts.HeatMapData{Value: [3]interface{}{x, g.Height - 1 - y, round(g.At(x, y))}})
		}
	}
	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Uniformity grid", Width: "900px", Height: fmt.Sprintf("%dpx", 100+800*g.Height/g.Width)}),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("Grid %dx%d", g.Width, g.Height), Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: xs}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: ys}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        1,
			InRange:    &opts.VisualMapInRange{Color: turbo.Hex(10)},
		}),
	)
	hm.AddSeries("normalized", data)
	return hm.Render(w)
}

// ProfilesPNG writes a PNG plot of the profiles of res. Non-finite ratios are
// skipped.
func ProfilesPNG(w io.Writer, res *uniformity.Result, width, height vg.Length) error {
	if res == nil {
		return ErrNoResult
	}
	p := plot.New()
	p.Title.Text = "Profiles"
	p.X.Label.Text = "Position (%)"
	p.Y.Label.Text = "Ratio to center"
	p.X.Min = 0
	p.X.Max = 100
	p.Add(plotter.NewGrid())
	for _, s := range []struct {
		name string
		v    []float64
		c    color.NRGBA
	}{
		{"horizontal", res.Horizontal, turbo.At(0.15)},
		{"vertical", res.Vertical, turbo.At(0.85)},
	} {
		pts := xys(s.v)
		if len(pts) == 0 {
			continue
		}
		l, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		s.c.A = 255
		l.Color = s.c
		l.Width = vg.Points(1.5)
		p.Add(l)
		p.Legend.Add(s.name, l)
	}
	p.Legend.Top = true
	p.Legend.Left = false
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

//

// position returns the center of sample i out of n in percent.
func position(i, n int) float64 {
	return round(100 * (float64(i) + 0.5) / float64(n))
}

func lineData(v []float64) []opts.LineData {
	out := make([]opts.LineData, len(v))
	for i, r := range v {
		if math.IsNaN(r) || math.IsInf(r, 0) {
			// echarts draws "-" as a gap.
			out[i] = opts.LineData{Value: []interface{}{position(i, len(v)), "-"}}
			continue
		}
		out[i] = opts.LineData{Value: []interface{}{position(i, len(v)), round(r)}}
	}
	return out
}

func xys(v []float64) plotter.XYs {
	pts := make(plotter.XYs, 0, len(v))
	for i, r := range v {
		if math.IsNaN(r) || math.IsInf(r, 0) {
			continue
		}
		pts = append(pts, plotter.XY{X: position(i, len(v)), Y: r})
	}
	return pts
}

// round keeps 4 decimals to keep the pages small.
func round(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
