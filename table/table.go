// Copyright 2024 The zerocopy Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package table is an immutable on-disk key/value table: a perfect-hash
// map of byte strings stored in a single datafile and read in place.
package table

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/bpowers/zerocopy"
	"github.com/bpowers/zerocopy/datafile"
	"github.com/bpowers/zerocopy/internal/unsafestring"
	"github.com/bpowers/zerocopy/phf"
)

type bytesReader = phf.Reader[zerocopy.Unsized[[]byte], []byte, zerocopy.Unsized[[]byte]]

// Table is an open table.  It is safe for concurrent lookups.
type Table struct {
	f   *datafile.File
	idx *bytesReader
}

// Open opens the table at dataPath.
func Open(dataPath string, opts ...datafile.ReaderOption) (*Table, error) {
	f, err := datafile.Open(dataPath, opts...)
	if err != nil {
		return nil, fmt.Errorf("datafile.Open(%s): %w", dataPath, err)
	}
	w := f.Width()
	key := zerocopy.BytesKey(w)
	value := zerocopy.UnsizedOf(zerocopy.Bytes, w)
	m, err := zerocopy.Load(f.Buf(), datafile.Root(f, phf.Layout(key.Layout(), value, w, f.Order())))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("loading index header: %w", err)
	}
	idx, err := phf.Open(f.Buf(), key, m)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("phf.Open: %w", err)
	}
	return &Table{f: f, idx: idx}, nil
}

// Len returns the number of pairs in the table.
func (t *Table) Len() int { return t.idx.Len() }

// ID returns the ID of the underlying file.
func (t *Table) ID() uuid.UUID { return t.f.ID() }

// Lookup returns the value stored for key.  The returned slice aliases the
// table and must not be modified or used after Close.  An error means the
// file is corrupt.
func (t *Table) Lookup(key []byte) ([]byte, bool, error) {
	ref, ok, err := t.idx.Get(key)
	if err != nil || !ok {
		return nil, false, err
	}
	v, err := zerocopy.LoadUnsized(t.f.Buf(), ref)
	if err != nil {
		return nil, false, fmt.Errorf("table: value for %q: %w", key, err)
	}
	return v, true, nil
}

// Get is Lookup that treats a corrupt entry as missing.
func (t *Table) Get(key []byte) ([]byte, bool) {
	v, ok, err := t.Lookup(key)
	if err != nil {
		return nil, false
	}
	return v, ok
}

// GetString is Get for a string key, without copying it.
func (t *Table) GetString(key string) ([]byte, bool) {
	return t.Get(unsafestring.ToBytes(key))
}

// Close releases the table.
func (t *Table) Close() error {
	return t.f.Close()
}
