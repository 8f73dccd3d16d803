// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pipeline

import (
	"sync"

	"github.com/maruel/go-uniformity/luma"
)

// mailbox holds at most one frame waiting for analysis. A newer frame
// replaces an unconsumed one: the analysis always works on the latest
// capture.
type mailbox struct {
	mu     sync.Mutex
	cond   sync.Cond
	frame  *luma.Frame
	closed bool
}

func newMailbox() *mailbox {
	m := &mailbox{}
	m.cond.L = &m.mu
	return m
}

// put stores f and returns the frame it replaced, if any, so the caller can
// recycle it. After close, f itself is returned.
func (m *mailbox) put(f *luma.Frame) *luma.Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return f
	}
	old := m.frame
	m.frame = f
	m.cond.Signal()
	return old
}

// take blocks until a frame is available. It returns nil once the mailbox is
// closed and empty.
func (m *mailbox) take() *luma.Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	for m.frame == nil && !m.closed {
		m.cond.Wait()
	}
	f := m.frame
	m.frame = nil
	return f
}

// close stops accepting frames. take still returns the pending frame, if
// any, then nil.
func (m *mailbox) close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.cond.Broadcast()
}

// abort is close but the pending frame is discarded and returned to the
// caller.
func (m *mailbox) abort() *luma.Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	f := m.frame
	m.frame = nil
	m.cond.Broadcast()
	return f
}
