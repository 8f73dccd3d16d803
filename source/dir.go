// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package source

import (
	"context"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/maruel/go-uniformity/luma"
	fsnotify "gopkg.in/fsnotify.v1"
)

// Dir reads the PNG and JPEG images dropped in a directory, e.g. by a phone
// camera synchronized over the network.
//
// The images already present are read first, in lexical order. Then new or
// rewritten files are read as they show up.
type Dir struct {
	path    string
	watcher *fsnotify.Watcher
	pending []string
	queued  map[string]bool
}

// OpenDir returns a Source reading images from path. When once is true, it
// does not watch for new files and returns io.EOF after the existing ones.
func OpenDir(path string, once bool) (*Dir, error) {
	d := &Dir{path: path, queued: map[string]bool{}}
	if !once {
		// Watch before listing so no file falls in between.
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, err
		}
		if err = w.Add(path); err != nil {
			w.Close()
			return nil, err
		}
		d.watcher = w
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		d.Close()
		return nil, err
	}
	for _, e := range entries {
		if !e.IsDir() {
			d.queue(filepath.Join(path, e.Name()))
		}
	}
	return d, nil
}

// NextFrame implements pipeline.Source.
//
// Files that cannot be decoded are logged and skipped; a partially written
// file is read again on its next write event.
func (d *Dir) NextFrame(ctx context.Context, f *luma.Frame) error {
	for {
		if len(d.pending) != 0 {
			name := d.pending[0]
			d.pending = d.pending[1:]
			delete(d.queued, name)
			err := ReadFile(name, f)
			if err == nil {
				return nil
			}
			Logf("source: skipping %s: %v", name, err)
			continue
		}
		if d.watcher == nil {
			return io.EOF
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-d.watcher.Events:
			if !ok {
				return io.EOF
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				d.queue(ev.Name)
			}
		case err, ok := <-d.watcher.Errors:
			if !ok {
				return io.EOF
			}
			return err
		}
	}
}

// Close stops watching the directory.
func (d *Dir) Close() error {
	if d.watcher == nil {
		return nil
	}
	return d.watcher.Close()
}

func (d *Dir) queue(name string) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg":
	default:
		return
	}
	if !d.queued[name] {
		d.queued[name] = true
		d.pending = append(d.pending, name)
	}
}

// ReadFile decodes the PNG or JPEG image in name into f.
func ReadFile(name string, f *luma.Frame) error {
	r, err := os.Open(name)
	if err != nil {
		return err
	}
	defer r.Close()
	img, _, err := image.Decode(r)
	if err != nil {
		return err
	}
	f.CopyFrom(luma.FromImage(img))
	return nil
}
