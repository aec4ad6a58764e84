// Copyright 2024 The zerocopy Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package phf

import (
	"bytes"
	"fmt"
	"iter"

	"github.com/bpowers/zerocopy"
)

// Reader looks keys up in a stored map.  A Reader holds no state beyond
// validated views into the buffer, so it is safe for concurrent use.
type Reader[K, Q, V any] struct {
	buf     *zerocopy.Buf
	key     zerocopy.Key[K, Q]
	hashKey uint64
	entries zerocopy.SliceView[zerocopy.Pair[K, V]]
	disps   zerocopy.SliceView[zerocopy.Pair[uint32, uint32]]
}

// Open validates the tables referenced by m against buf.  Lookups re-derive
// every index from buffer contents and bounds-check it, so a corrupt map
// yields errors or wrong answers, never a crash.
func Open[K, Q, V any](buf *zerocopy.Buf, key zerocopy.Key[K, Q], m Map[K, V]) (*Reader[K, Q, V], error) {
	entries, err := zerocopy.LoadSlice(buf, m.Entries)
	if err != nil {
		return nil, fmt.Errorf("phf.Open: entries: %w", err)
	}
	disps, err := zerocopy.LoadSlice(buf, m.Displacements)
	if err != nil {
		return nil, fmt.Errorf("phf.Open: displacements: %w", err)
	}
	return &Reader[K, Q, V]{
		buf:     buf,
		key:     key,
		hashKey: m.Key,
		entries: entries,
		disps:   disps,
	}, nil
}

// Len returns the number of entries.
func (r *Reader[K, Q, V]) Len() int { return r.entries.Len() }

// Get returns the value stored for q.  The boolean is false if q is not in
// the map.
func (r *Reader[K, Q, V]) Get(q Q) (V, bool, error) {
	var zero V
	e, ok, err := r.lookup(q)
	if err != nil || !ok {
		return zero, false, err
	}
	return e.B, true, nil
}

// Contains reports whether q is in the map.
func (r *Reader[K, Q, V]) Contains(q Q) (bool, error) {
	_, ok, err := r.lookup(q)
	return ok, err
}

func (r *Reader[K, Q, V]) lookup(q Q) (zerocopy.Pair[K, V], bool, error) {
	var none zerocopy.Pair[K, V]
	if r.disps.Len() == 0 {
		return none, false, nil
	}
	var probeScratch, storedScratch [16]byte
	probe := r.key.Probe(q, probeScratch[:0])
	h := hashKey(probe, r.hashKey)

	d, err := r.disps.Get(uint64(h.g) % uint64(r.disps.Len()))
	if err != nil {
		return none, false, err
	}
	slot := uint64(displace(h.f1, h.f2, d.A, d.B))
	if n := uint64(r.entries.Len()); n > 0 {
		slot %= n
	}
	e, err := r.entries.Get(slot)
	if err != nil {
		return none, false, err
	}
	stored, err := r.key.Stored(r.buf, e.A, storedScratch[:0])
	if err != nil {
		return none, false, fmt.Errorf("phf: key in slot %d: %w", slot, err)
	}
	if !bytes.Equal(stored, probe) {
		return none, false, nil
	}
	return e, true, nil
}

// All iterates over every (key, value) pair in slot order.  Open has
// already validated every entry, so iteration cannot fail.
func (r *Reader[K, Q, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, e := range r.entries.All() {
			if !yield(e.A, e.B) {
				return
			}
		}
	}
}
