// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pipeline

import (
	"sync/atomic"

	"github.com/maruel/go-uniformity/luma"
)

// Pool recycles frame buffers between a Source and the analysis loop so a
// steady stream does not allocate a new plane per frame.
type Pool struct {
	c         chan *luma.Frame
	allocated atomic.Int64
}

// NewPool returns a pool keeping up to size idle buffers.
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{c: make(chan *luma.Frame, size)}
}

// Get returns an idle buffer, or a new empty one.
func (p *Pool) Get() *luma.Frame {
	select {
	case f := <-p.c:
		return f
	default:
		p.allocated.Add(1)
		return &luma.Frame{}
	}
}

// Put returns f to the pool. It is dropped if the pool is full.
func (p *Pool) Put(f *luma.Frame) {
	if f == nil {
		return
	}
	select {
	case p.c <- f:
	default:
	}
}

// Idle returns the number of buffers ready to be reused.
func (p *Pool) Idle() int {
	return len(p.c)
}

// Allocated returns the number of buffers created since the pool was made.
func (p *Pool) Allocated() int {
	return int(p.allocated.Load())
}
