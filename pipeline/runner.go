// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package pipeline feeds frames from a camera into the uniformity analysis
// and publishes the results.
//
// Capture and analysis run in two goroutines joined by a single slot: when
// the analysis is slower than the camera, older frames are dropped instead of
// queued. Frame buffers are recycled through a Pool and handed back as soon
// as the grid has been sampled.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/maruel/go-uniformity/luma"
	"github.com/maruel/go-uniformity/uniformity"
	"golang.org/x/sync/errgroup"
)

// Logf is the package diagnostic logger. It defaults to log.Printf.
var Logf = log.Printf

// SetLogger replaces Logf. Passing nil mutes the package.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Source produces luma frames, e.g. a camera.
type Source interface {
	io.Closer
	// NextFrame blocks until the next capture is available and writes it into
	// f, resizing it as needed. It returns io.EOF once the stream ended.
	NextFrame(ctx context.Context, f *luma.Frame) error
}

// Options tune a Runner. The zero value is valid.
type Options struct {
	PoolSize    int           // Idle frame buffers kept around; default 4.
	RetryDelay  time.Duration // Pause after a failed capture; default 200ms.
	MaxFailures int           // Consecutive capture failures before giving up; default 10.
}

// Stats are the Runner counters.
type Stats struct {
	Analyzed       uint64 // Results published.
	Dropped        uint64 // Frames replaced before being analyzed.
	Malformed      uint64 // Frames rejected by the analysis.
	SourceFailures uint64 // Failed NextFrame calls.
	LastFail       error
}

func (s Stats) String() string {
	return fmt.Sprintf("%d analyzed %d dropped %d malformed %d failed", s.Analyzed, s.Dropped, s.Malformed, s.SourceFailures)
}

// Runner captures frames from a Source, analyzes the latest one and publishes
// each result into a Latest.
type Runner struct {
	src  Source
	cfg  uniformity.Config
	out  *Latest
	opts Options
	pool *Pool

	analyzed  atomic.Uint64
	dropped   atomic.Uint64
	malformed atomic.Uint64
	failures  atomic.Uint64
	mu        sync.Mutex
	lastFail  error
}

// NewRunner returns a Runner. It does not start anything.
func NewRunner(src Source, cfg uniformity.Config, out *Latest, opts Options) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.PoolSize <= 0 {
		opts.PoolSize = 4
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 200 * time.Millisecond
	}
	if opts.MaxFailures <= 0 {
		opts.MaxFailures = 10
	}
	return &Runner{src: src, cfg: cfg, out: out, opts: opts, pool: NewPool(opts.PoolSize)}, nil
}

// Pool returns the frame buffer pool used by the runner.
func (r *Runner) Pool() *Pool {
	return r.pool
}

// Stats returns a copy of the counters. It is safe to call concurrently.
func (r *Runner) Stats() Stats {
	r.mu.Lock()
	last := r.lastFail
	r.mu.Unlock()
	return Stats{
		Analyzed:       r.analyzed.Load(),
		Dropped:        r.dropped.Load(),
		Malformed:      r.malformed.Load(),
		SourceFailures: r.failures.Load(),
		LastFail:       last,
	}
}

// Run captures and analyzes until ctx is canceled, the source reaches
// io.EOF or fails too many times in a row. It returns nil on io.EOF.
//
// On io.EOF the last captured frame is still analyzed. Otherwise only the
// frame being analyzed when the capture stops is published.
func (r *Runner) Run(ctx context.Context) error {
	box := newMailbox()
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) {
		defer func() {
			if errors.Is(err, io.EOF) {
				box.close()
			} else {
				r.pool.Put(box.abort())
			}
		}()
		return r.capture(ctx, box)
	})
	eg.Go(func() error {
		r.analyze(box)
		return nil
	})
	if err := eg.Wait(); !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (r *Runner) capture(ctx context.Context, box *mailbox) error {
	consecutive := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		f := r.pool.Get()
		if err := r.src.NextFrame(ctx, f); err != nil {
			r.pool.Put(f)
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return err
			}
			r.failures.Add(1)
			r.setLastFail(err)
			if consecutive++; consecutive >= r.opts.MaxFailures {
				return fmt.Errorf("pipeline: %d consecutive capture failures: %w", consecutive, err)
			}
			Logf("pipeline: capture failed: %v", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.opts.RetryDelay):
			}
			continue
		}
		consecutive = 0
		if old := box.put(f); old != nil {
			r.pool.Put(old)
			if old != f {
				r.dropped.Add(1)
			}
		}
	}
}

func (r *Runner) analyze(box *mailbox) {
	for {
		f := box.take()
		if f == nil {
			return
		}
		res, err := r.process(f)
		if err != nil {
			r.malformed.Add(1)
			r.setLastFail(err)
			Logf("pipeline: %v", err)
			continue
		}
		r.analyzed.Add(1)
		r.out.Publish(res)
	}
}

func (r *Runner) process(f *luma.Frame) (*uniformity.Result, error) {
	g, h, err := r.sample(f)
	if err != nil {
		return nil, err
	}
	return uniformity.Evaluate(g, h), nil
}

// sample is the only step reading f. f goes back to the pool when it returns,
// even on panic.
func (r *Runner) sample(f *luma.Frame) (g *uniformity.Grid, h *uniformity.Histogram, err error) {
	defer r.pool.Put(f)
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("sampling panicked: %v", v)
		}
	}()
	return uniformity.Sample(f, r.cfg)
}

func (r *Runner) setLastFail(err error) {
	r.mu.Lock()
	r.lastFail = err
	r.mu.Unlock()
}
