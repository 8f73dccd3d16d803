// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html/template"
	"image/png"
	"log"
	"math"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/maruel/go-uniformity/chart"
	"github.com/maruel/go-uniformity/pipeline"
	"github.com/maruel/go-uniformity/uniformity"
	"golang.org/x/net/websocket"
	"gonum.org/v1/plot/vg"
)

// statser is implemented by *pipeline.Runner.
type statser interface {
	Stats() pipeline.Stats
}

type webServer struct {
	latest *pipeline.Latest
	stats  statser
	mux    *http.ServeMux
}

func newWebServer(latest *pipeline.Latest, stats statser) *webServer {
	s := &webServer{latest: latest, stats: stats, mux: http.NewServeMux()}
	s.mux.HandleFunc("/", s.root)
	s.mux.HandleFunc("/favicon.ico", s.heatmap)
	s.mux.HandleFunc("/heatmap.png", s.heatmap)
	s.mux.HandleFunc("/metrics.json", s.metrics)
	s.mux.HandleFunc("/profiles", s.profiles)
	s.mux.HandleFunc("/profiles.png", s.profilesPNG)
	s.mux.HandleFunc("/grid", s.grid)
	s.mux.Handle("/stream", websocket.Handler(s.stream))
	return s
}

func (s *webServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *webServer) root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	data := rootData{Stats: s.stats.Stats().String()}
	if snap := s.latest.Load(); snap != nil {
		data.Snapshot = snap
		data.Metrics = snap.Result.Metrics
	}
	var buf bytes.Buffer
	if err := rootTmpl.Execute(&buf, &data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (s *webServer) heatmap(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot(w)
	if snap == nil {
		return
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, snap.Result.Heatmap); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	w.Write(buf.Bytes())
}

func (s *webServer) metrics(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot(w)
	if snap == nil {
		return
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(newMetricsMsg(snap)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	w.Write(buf.Bytes())
}

func (s *webServer) profiles(w http.ResponseWriter, r *http.Request) {
	s.render(w, "text/html; charset=utf-8", func(buf *bytes.Buffer, snap *pipeline.Snapshot) error {
		return chart.Profiles(buf, snap.Result, subtitle(snap))
	})
}

func (s *webServer) grid(w http.ResponseWriter, r *http.Request) {
	s.render(w, "text/html; charset=utf-8", func(buf *bytes.Buffer, snap *pipeline.Snapshot) error {
		return chart.Grid(buf, snap.Result, subtitle(snap))
	})
}

func (s *webServer) profilesPNG(w http.ResponseWriter, r *http.Request) {
	s.render(w, "image/png", func(buf *bytes.Buffer, snap *pipeline.Snapshot) error {
		return chart.ProfilesPNG(buf, snap.Result, 8*vg.Inch, 4*vg.Inch)
	})
}

// render renders the current snapshot in memory first so errors can still be
// reported with a status code.
func (s *webServer) render(w http.ResponseWriter, contentType string, f func(buf *bytes.Buffer, snap *pipeline.Snapshot) error) {
	snap := s.snapshot(w)
	if snap == nil {
		return
	}
	var buf bytes.Buffer
	if err := f(&buf, snap); err != nil {
		http.Error(w, fmt.Sprintf("failed to render: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(buf.Bytes())
}

// snapshot returns the current snapshot or replies 503 if there is none yet.
func (s *webServer) snapshot(w http.ResponseWriter) *pipeline.Snapshot {
	snap := s.latest.Load()
	if snap == nil {
		http.Error(w, "No frame analyzed yet", http.StatusServiceUnavailable)
	}
	return snap
}

// stream sends each new result as WebSocket frames.
//
// Frame H is the base64 PNG heatmap, frame M is the JSON metrics. A client
// slower than the camera skips results.
func (s *webServer) stream(conn *websocket.Conn) {
	id := uuid.New()
	log.Printf("websocket %s from %s", id, conn.Request().RemoteAddr)
	defer conn.Close()
	buf := &bytes.Buffer{}
	var seq uint64
	for {
		snap := s.latest.Wait(seq)
		if snap == nil {
			log.Printf("websocket %s: shutting down", id)
			return
		}
		seq = snap.Seq
		buf.Reset()
		buf.WriteString("H")
		encoder := base64.NewEncoder(base64.StdEncoding, buf)
		err := png.Encode(encoder, snap.Result.Heatmap)
		if err == nil {
			encoder.Close()
			_, err = conn.Write(buf.Bytes())
		}
		if err == nil {
			buf.Reset()
			buf.WriteString("M")
			if err = json.NewEncoder(buf).Encode(newMetricsMsg(snap)); err == nil {
				_, err = conn.Write(buf.Bytes())
			}
		}
		if err != nil {
			log.Printf("websocket %s err: %s", id, err)
			return
		}
	}
}

// metricsMsg is the JSON form of a snapshot.
type metricsMsg struct {
	Seq        uint64             `json:"seq"`
	Time       time.Time          `json:"time"`
	GridWidth  int                `json:"grid_width"`
	GridHeight int                `json:"grid_height"`
	Levels     uniformity.Levels  `json:"levels"`
	Metrics    uniformity.Metrics `json:"metrics"`
	Horizontal floats             `json:"horizontal"`
	Vertical   floats             `json:"vertical"`
}

func newMetricsMsg(snap *pipeline.Snapshot) *metricsMsg {
	res := snap.Result
	return &metricsMsg{
		Seq:        snap.Seq,
		Time:       snap.Time,
		GridWidth:  res.Grid.Width,
		GridHeight: res.Grid.Height,
		Levels:     res.Levels,
		Metrics:    res.Metrics,
		Horizontal: res.Horizontal,
		Vertical:   res.Vertical,
	}
}

// floats encodes non-finite values as null.
type floats []float64

func (f floats) MarshalJSON() ([]byte, error) {
	v := make([]*float64, len(f))
	for i := range f {
		if !math.IsNaN(f[i]) && !math.IsInf(f[i], 0) {
			v[i] = &f[i]
		}
	}
	return json.Marshal(v)
}

func subtitle(snap *pipeline.Snapshot) string {
	return fmt.Sprintf("#%d %s", snap.Seq, snap.Time.Format(time.RFC3339))
}

type rootData struct {
	Snapshot *pipeline.Snapshot
	Metrics  uniformity.Metrics
	Stats    string
}

// ratio formats a metric, with a dash when it has no value.
func ratio(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "—"
	}
	return fmt.Sprintf("%.3f", v)
}

var rootTmpl = template.Must(template.New("root").Funcs(template.FuncMap{"ratio": ratio}).Parse(`<!DOCTYPE html>
<html>
<head>
	<title>go-uniformity</title>
	<style>
		img.large {
			width: 640px;
			height: auto;
			image-rendering: pixelated;
			background: #000;
		}
		td { padding: 0 1em; text-align: right; }
	</style>
</head>
<body>
	{{if .Snapshot}}
	<a href="/grid"><img class="large" id="heatmap" src="/heatmap.png"></a>
	<table>
		<tr><th>Center</th><th>Min</th><th>Max</th><th>Mean</th><th>Std</th><th>Min/Max</th></tr>
		<tr id="metrics">
			<td>{{ratio .Metrics.Center}}</td>
			<td>{{ratio .Metrics.Min}}</td>
			<td>{{ratio .Metrics.Max}}</td>
			<td>{{ratio .Metrics.Mean}}</td>
			<td>{{ratio .Metrics.Std}}</td>
			<td>{{ratio .Metrics.MinOverMax}}</td>
		</tr>
	</table>
	<div id="seq">#{{.Snapshot.Seq}}</div>
	{{else}}
	<div>Waiting for the first frame.</div>
	{{end}}
	<div>{{.Stats}}</div>
	<a href="/profiles">Profiles</a> - <a href="/profiles.png">Profiles PNG</a> - <a href="/metrics.json">JSON</a>
	<script>
	function fmt(v) {
		return v === null ? "—" : v.toFixed(3);
	}
	var ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/stream");
	ws.onmessage = function(e) {
		var kind = e.data[0], data = e.data.substring(1);
		if (kind === "H") {
			var img = document.getElementById("heatmap");
			if (img) {
				img.src = "data:image/png;base64," + data;
			}
		} else if (kind === "M") {
			var m = JSON.parse(data).metrics, row = document.getElementById("metrics");
			if (!row) {
				location.reload();
				return;
			}
			var cells = row.getElementsByTagName("td");
			var keys = ["center", "min", "max", "mean", "std", "min_over_max"];
			for (var i = 0; i < keys.length; i++) {
				cells[i].textContent = fmt(m[keys[i]]);
			}
			document.getElementById("seq").textContent = "#" + JSON.parse(data).seq;
		}
	};
	</script>
</body>
</html>
`))

// Private details.

type loggingHandler struct {
	handler http.Handler
}

type loggingResponseWriter struct {
	http.ResponseWriter
	length int
	status int
}

func (l *loggingResponseWriter) Write(data []byte) (size int, err error) {
	size, err = l.ResponseWriter.Write(data)
	l.length += size
	return
}

func (l *loggingResponseWriter) WriteHeader(status int) {
	l.ResponseWriter.WriteHeader(status)
	l.status = status
}

// Hijack is needed for websocket.
func (l *loggingResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := l.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("%T cannot be hijacked", l.ResponseWriter)
	}
	return h.Hijack()
}

// ServeHTTP logs each HTTP request if -v is passed.
func (l loggingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	lrw := &loggingResponseWriter{ResponseWriter: w, status: http.StatusOK}
	l.handler.ServeHTTP(lrw, r)
	log.Printf("%s - %3d %6db %4s %s\n", r.RemoteAddr, lrw.status, lrw.length, r.Method, r.RequestURI)
}
