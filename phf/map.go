// Copyright 2024 The zerocopy Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package phf stores read-only maps and sets in a zerocopy buffer, indexed
// by a perfect hash built with the "hash, displace, and compress"
// algorithm described in http://cmph.sourceforge.net/papers/esa09.pdf.
//
// A lookup costs two hashes of the key, one displacement read and one key
// comparison, no matter how the buffer was obtained.
package phf

import (
	"errors"
	"log/slog"

	"github.com/bpowers/zerocopy"
)

// DefaultHashKey is the hash key used when WithHashKey is not given.
const DefaultHashKey = 0x7a65726f636f7079

var ErrDuplicateKey = errors.New("phf: duplicate keys aren't supported")

// Map is the stored header of a perfect-hash map.  Entries holds every
// (key, value) pair in the slot the hash assigns it; Displacements holds
// one (d1, d2) pair per bucket.
type Map[K, V any] struct {
	Key           uint64
	Entries       zerocopy.Slice[zerocopy.Pair[K, V]]
	Displacements zerocopy.Slice[zerocopy.Pair[uint32, uint32]]
}

// Entry is a key and value handed to Store.
type Entry[Q, V any] struct {
	Key   Q
	Value V
}

// Layout returns the layout of a map header, so a header can itself be
// stored in (and loaded from) a buffer.  Offsets are of width w and the
// referenced tables are read in byte order o.
func Layout[K, V any](key zerocopy.Layout[K], value zerocopy.Layout[V], w zerocopy.Width, o zerocopy.ByteOrder) *zerocopy.StructLayout[Map[K, V]] {
	return zerocopy.StructOf(
		zerocopy.FieldOf("key", zerocopy.U64,
			func(m *Map[K, V]) uint64 { return m.Key },
			func(m *Map[K, V], v uint64) { m.Key = v }),
		zerocopy.FieldOf("entries", zerocopy.SliceOf(zerocopy.PairOf(key, value), w, o),
			func(m *Map[K, V]) zerocopy.Slice[zerocopy.Pair[K, V]] { return m.Entries },
			func(m *Map[K, V], v zerocopy.Slice[zerocopy.Pair[K, V]]) { m.Entries = v }),
		zerocopy.FieldOf("displacements", zerocopy.SliceOf(displacementLayout, w, o),
			func(m *Map[K, V]) zerocopy.Slice[zerocopy.Pair[uint32, uint32]] { return m.Displacements },
			func(m *Map[K, V], v zerocopy.Slice[zerocopy.Pair[uint32, uint32]]) { m.Displacements = v }),
	)
}

var displacementLayout = zerocopy.PairOf(zerocopy.U32, zerocopy.U32)

type options struct {
	hashKey uint64
	order   zerocopy.ByteOrder
	logger  *slog.Logger
}

// Option configures Store.
type Option func(*options)

// WithHashKey seeds the key hash.  Construction can fail for an unlucky
// key set; retrying with a different hash key will almost always succeed.
func WithHashKey(key uint64) Option {
	return func(o *options) {
		o.hashKey = key
	}
}

// WithByteOrder sets the byte order entries and displacements are stored
// in.
func WithByteOrder(order zerocopy.ByteOrder) Option {
	return func(o *options) {
		o.order = order
	}
}

// WithLogger sets the logger that build statistics are reported to.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}
