// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pipeline

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/maruel/go-uniformity/uniformity"
)

// Snapshot is one published analysis. It is immutable once published.
type Snapshot struct {
	Seq    uint64    // Starts at 1 and increments with each published result.
	Time   time.Time // When the result was published.
	Result *uniformity.Result
}

// Latest holds the most recent Snapshot.
//
// There is a single writer, the Runner. Readers either poll with Load or
// block for the next result with Wait.
type Latest struct {
	p      atomic.Pointer[Snapshot]
	mu     sync.Mutex
	cond   sync.Cond
	closed bool
}

// NewLatest returns an empty Latest.
func NewLatest() *Latest {
	l := &Latest{}
	l.cond.L = &l.mu
	return l
}

// Load returns the last published snapshot, or nil if none was published yet.
func (l *Latest) Load() *Snapshot {
	return l.p.Load()
}

// Publish makes res the current result and wakes up waiters.
func (l *Latest) Publish(res *uniformity.Result) *Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	seq := uint64(1)
	if prev := l.p.Load(); prev != nil {
		seq = prev.Seq + 1
	}
	s := &Snapshot{Seq: seq, Time: time.Now().UTC(), Result: res}
	l.p.Store(s)
	l.cond.Broadcast()
	return s
}

// Wait blocks until a snapshot newer than seq is published and returns it.
// It returns nil once Close is called.
//
// Intermediate snapshots are skipped when the reader is slower than the
// writer.
func (l *Latest) Wait(seq uint64) *Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	for {
		if l.closed {
			return nil
		}
		if s := l.p.Load(); s != nil && s.Seq > seq {
			return s
		}
		l.cond.Wait()
	}
}

// Close wakes up all waiters. Load keeps returning the last snapshot.
func (l *Latest) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	l.cond.Broadcast()
}
