// Copyright 2024 The zerocopy Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package swiss

import (
	"bytes"
	"fmt"
	"iter"
	"math/bits"

	"github.com/bpowers/zerocopy"
)

// Reader looks keys up in a stored map.  It is safe for concurrent use.
type Reader[K, Q, V any] struct {
	buf     *zerocopy.Buf
	key     zerocopy.Key[K, Q]
	hashKey uint64
	len     int
	ctrl    []byte
	mask    uint64
	entries zerocopy.LazySliceView[zerocopy.Pair[K, V]]
}

// Open checks the structure of the table referenced by m.  Entries are
// validated lazily, one full bucket at a time, as lookups reach them.
func Open[K, Q, V any](buf *zerocopy.Buf, key zerocopy.Key[K, Q], m Map[K, V]) (*Reader[K, Q, V], error) {
	ctrlView, err := zerocopy.LoadSlice(buf, m.Ctrl)
	if err != nil {
		return nil, fmt.Errorf("swiss.Open: ctrl: %w", err)
	}
	ctrl := ctrlView.Bytes()
	if len(ctrl) < minBuckets+groupWidth {
		return nil, corruptf("control table of %d bytes is too short", len(ctrl))
	}
	buckets := len(ctrl) - groupWidth
	if bits.OnesCount(uint(buckets)) != 1 {
		return nil, corruptf("bucket count %d is not a power of two", buckets)
	}
	if m.Entries.Len() != uint64(buckets) {
		return nil, corruptf("%d entries for %d buckets", m.Entries.Len(), buckets)
	}
	full := 0
	for i, c := range ctrl[:buckets] {
		switch {
		case isFull(c):
			full++
		case c == ctrlEmpty || c == ctrlDeleted:
		default:
			return nil, corruptf("illegal control byte %#x at %d", c, i)
		}
	}
	if !bytes.Equal(ctrl[buckets:], ctrl[:groupWidth]) {
		return nil, corruptf("mirrored group does not match")
	}
	if uint64(full) != m.Len {
		return nil, corruptf("%d full buckets but length %d", full, m.Len)
	}
	if full == buckets {
		// a lookup for a missing key would never see an empty bucket
		return nil, corruptf("no empty buckets")
	}
	entries, err := zerocopy.LoadSliceLazy(buf, m.Entries)
	if err != nil {
		return nil, fmt.Errorf("swiss.Open: entries: %w", err)
	}
	return &Reader[K, Q, V]{
		buf:     buf,
		key:     key,
		hashKey: m.Key,
		len:     full,
		ctrl:    ctrl,
		mask:    uint64(buckets - 1),
		entries: entries,
	}, nil
}

// Len returns the number of entries.
func (r *Reader[K, Q, V]) Len() int { return r.len }

// Get returns the value for q.  At most one probe per group is made, so a
// lookup terminates even if control bytes have been altered.
func (r *Reader[K, Q, V]) Get(q Q) (V, bool, error) {
	var zero V
	var probeScratch, storedScratch [16]byte
	probe := r.key.Probe(q, probeScratch[:0])
	h1, h2 := hash(probe, r.hashKey)

	groups := int(r.mask+1) / groupWidth
	seq := newProbeSeq(h1, r.mask)
	for i := 0; i < groups; i++ {
		group := r.ctrl[seq.pos : seq.pos+groupWidth]
		for j, c := range group {
			if c != h2 {
				continue
			}
			idx := (seq.pos + uint64(j)) & r.mask
			e, err := r.entries.Get(idx)
			if err != nil {
				return zero, false, err
			}
			stored, err := r.key.Stored(r.buf, e.A, storedScratch[:0])
			if err != nil {
				return zero, false, fmt.Errorf("swiss: key in bucket %d: %w", idx, err)
			}
			if bytes.Equal(stored, probe) {
				return e.B, true, nil
			}
		}
		if bytes.IndexByte(group, ctrlEmpty) >= 0 {
			return zero, false, nil
		}
		seq.next()
	}
	return zero, false, nil
}

// Contains reports whether q is in the map.
func (r *Reader[K, Q, V]) Contains(q Q) (bool, error) {
	_, ok, err := r.Get(q)
	return ok, err
}

// All iterates over the entries in the full buckets.  Entries are validated
// as they are reached, so an entry that fails validation is yielded with
// its error and ends the iteration.
func (r *Reader[K, Q, V]) All() iter.Seq2[zerocopy.Pair[K, V], error] {
	return func(yield func(zerocopy.Pair[K, V], error) bool) {
		for i, c := range r.ctrl[:r.mask+1] {
			if !isFull(c) {
				continue
			}
			e, err := r.entries.Get(uint64(i))
			if err != nil {
				yield(e, fmt.Errorf("swiss: entry in bucket %d: %w", i, err))
				return
			}
			if !yield(e, nil) {
				return
			}
		}
	}
}
