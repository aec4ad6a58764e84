// Copyright 2024 The zerocopy Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package mmap maps files read-only into memory.  On platforms without
// mmap the file is read onto the heap instead.
package mmap

import (
	"fmt"
	"os"
	"sync/atomic"
)

// Mapping is a read-only view of a whole file.  Its data is page aligned
// when the platform supports mmap.
type Mapping struct {
	data   []byte
	unmap  func([]byte) error
	closed atomic.Bool
}

// Open maps the file at path.  The file descriptor is closed before
// returning; the mapping stays valid until Close.
func Open(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("os.Open(%s): %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	stats, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("f.Stat: %w", err)
	}
	size := stats.Size()
	if size == 0 {
		return &Mapping{}, nil
	}
	if size != int64(int(size)) {
		return nil, fmt.Errorf("file %s too large to map (%d bytes)", path, size)
	}

	data, unmap, err := osMap(f, int(size))
	if err != nil {
		return nil, fmt.Errorf("mmap(%s): %w", path, err)
	}
	return &Mapping{data: data, unmap: unmap}, nil
}

// Data returns the mapped bytes.  They must not be modified and must not be
// used after Close.
func (m *Mapping) Data() []byte { return m.data }

// Len returns the length of the mapping.
func (m *Mapping) Len() int { return len(m.data) }

// AdviseRandom tells the kernel that accesses will be random, which
// disables readahead.
func (m *Mapping) AdviseRandom() error {
	return osAdviseRandom(m.data)
}

// Close releases the mapping.  It is safe to call more than once.
func (m *Mapping) Close() error {
	if m.closed.Swap(true) {
		return nil
	}
	data := m.data
	m.data = nil
	if m.unmap == nil || data == nil {
		return nil
	}
	return m.unmap(data)
}
