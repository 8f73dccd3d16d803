// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image/png"
	"io"
	"log"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/maruel/go-uniformity/luma"
	"github.com/maruel/go-uniformity/pipeline"
	"github.com/maruel/go-uniformity/uniformity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

func init() {
	log.SetOutput(io.Discard)
}

func TestServer_empty(t *testing.T) {
	ts := httptest.NewServer(loggingHandler{newWebServer(pipeline.NewLatest(), fakeStats{})})
	defer ts.Close()

	body, resp := get(t, ts.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Waiting for the first frame")
	assert.Contains(t, body, "3 analyzed")

	for _, p := range []string{"/heatmap.png", "/metrics.json", "/profiles", "/grid", "/profiles.png"} {
		_, resp := get(t, ts.URL+p)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode, p)
	}
	_, resp = get(t, ts.URL+"/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer(t *testing.T) {
	latest := pipeline.NewLatest()
	res := analyze(t)
	res.Horizontal[0] = math.NaN()
	res.Metrics.MinOverMax = math.NaN()
	latest.Publish(res)
	ts := httptest.NewServer(loggingHandler{newWebServer(latest, fakeStats{})})
	defer ts.Close()

	body, resp := get(t, ts.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "—")
	assert.Contains(t, body, "1.000")
	assert.Contains(t, body, "#1")

	body, resp = get(t, ts.URL+"/heatmap.png")
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	img, err := png.Decode(strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, res.Heatmap.Bounds(), img.Bounds())

	body, resp = get(t, ts.URL+"/metrics.json")
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	var m struct {
		Seq        uint64              `json:"seq"`
		GridWidth  int                 `json:"grid_width"`
		GridHeight int                 `json:"grid_height"`
		Metrics    map[string]*float64 `json:"metrics"`
		Horizontal []*float64          `json:"horizontal"`
		Vertical   []*float64          `json:"vertical"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &m))
	assert.Equal(t, uint64(1), m.Seq)
	assert.Equal(t, 8, m.GridWidth)
	assert.Equal(t, 6, m.GridHeight)
	require.NotNil(t, m.Metrics["center"])
	assert.Equal(t, 1., *m.Metrics["center"])
	assert.Nil(t, m.Metrics["min_over_max"])
	require.Len(t, m.Horizontal, 8)
	assert.Nil(t, m.Horizontal[0])
	assert.NotNil(t, m.Horizontal[1])
	assert.Len(t, m.Vertical, 6)

	for _, p := range []string{"/profiles", "/grid"} {
		body, resp := get(t, ts.URL+p)
		assert.Equal(t, http.StatusOK, resp.StatusCode, p)
		assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"), p)
		assert.Contains(t, body, "echarts", p)
	}

	body, resp = get(t, ts.URL+"/profiles.png")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_, err = png.Decode(strings.NewReader(body))
	assert.NoError(t, err)
}

func TestServer_stream(t *testing.T) {
	latest := pipeline.NewLatest()
	res := analyze(t)
	latest.Publish(res)
	ts := httptest.NewServer(loggingHandler{newWebServer(latest, fakeStats{})})
	defer ts.Close()

	ws, err := websocket.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/stream", "", ts.URL)
	require.NoError(t, err)
	defer ws.Close()

	readSnapshot(t, ws, 1, res)
	latest.Publish(res)
	readSnapshot(t, ws, 2, res)

	latest.Close()
	var msg string
	assert.Error(t, websocket.Message.Receive(ws, &msg))
}

//

type fakeStats struct{}

func (fakeStats) Stats() pipeline.Stats {
	return pipeline.Stats{Analyzed: 3}
}

func get(t *testing.T, url string) (string, *http.Response) {
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b), resp
}

func readSnapshot(t *testing.T, ws *websocket.Conn, seq uint64, res *uniformity.Result) {
	var msg string
	require.NoError(t, websocket.Message.Receive(ws, &msg))
	require.True(t, strings.HasPrefix(msg, "H"))
	raw, err := base64.StdEncoding.DecodeString(msg[1:])
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, res.Heatmap.Bounds(), img.Bounds())

	require.NoError(t, websocket.Message.Receive(ws, &msg))
	require.True(t, strings.HasPrefix(msg, "M"))
	var m struct {
		Seq uint64 `json:"seq"`
	}
	require.NoError(t, json.Unmarshal([]byte(msg[1:]), &m))
	assert.Equal(t, seq, m.Seq)
}

func analyze(t *testing.T) *uniformity.Result {
	f := luma.New(64, 48)
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			f.Pix[y*f.RowStride+x] = uint8(40 + x + y)
		}
	}
	res, err := uniformity.Analyze(f, uniformity.Config{GridWidth: 8})
	require.NoError(t, err)
	return res
}
