// Copyright 2024 The zerocopy Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package swiss stores read-only open-addressing hash maps in a zerocopy
// buffer.  The table is a run of control bytes co-indexed with a run of
// entries, probed a group of eight control bytes at a time.
//
// Readers trust nothing in the table: every control byte is checked when
// the map is opened and probing is bounded, so a corrupt buffer produces
// an error or a wrong answer but never a crash or an endless loop.
package swiss

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/orisano/wyhash"

	"github.com/bpowers/zerocopy"
)

const (
	groupWidth = 8

	ctrlEmpty   uint8 = 0xFF
	ctrlDeleted uint8 = 0x80

	minBuckets = groupWidth

	// DefaultHashKey is the hash key used when WithHashKey is not given.
	DefaultHashKey = 0x73776973736d6170
)

var ErrCorrupt = errors.New("swiss: corrupt table")

// CorruptError describes a structural problem found while opening a map.
type CorruptError struct {
	Reason string
}

func (e *CorruptError) Error() string { return fmt.Sprintf("swiss: corrupt table: %s", e.Reason) }

func (e *CorruptError) Is(target error) bool { return target == ErrCorrupt }

func corruptf(format string, args ...interface{}) error {
	return &CorruptError{Reason: fmt.Sprintf(format, args...)}
}

// Map is the stored header of an open-addressing map.  Ctrl has one byte per
// bucket followed by a copy of the first group; Entries has one pair per
// bucket, meaningful only where the control byte is full.
type Map[K, V any] struct {
	Key     uint64
	Len     uint64
	Ctrl    zerocopy.Slice[uint8]
	Entries zerocopy.Slice[zerocopy.Pair[K, V]]
}

// Layout returns the layout of a map header.
func Layout[K, V any](key zerocopy.Layout[K], value zerocopy.Layout[V], w zerocopy.Width, o zerocopy.ByteOrder) *zerocopy.StructLayout[Map[K, V]] {
	return zerocopy.StructOf(
		zerocopy.FieldOf("key", zerocopy.U64,
			func(m *Map[K, V]) uint64 { return m.Key },
			func(m *Map[K, V], v uint64) { m.Key = v }),
		zerocopy.FieldOf("len", zerocopy.U64,
			func(m *Map[K, V]) uint64 { return m.Len },
			func(m *Map[K, V], v uint64) { m.Len = v }),
		zerocopy.FieldOf("ctrl", zerocopy.SliceOf(zerocopy.U8, w, o),
			func(m *Map[K, V]) zerocopy.Slice[uint8] { return m.Ctrl },
			func(m *Map[K, V], v zerocopy.Slice[uint8]) { m.Ctrl = v }),
		zerocopy.FieldOf("entries", zerocopy.SliceOf(zerocopy.PairOf(key, value), w, o),
			func(m *Map[K, V]) zerocopy.Slice[zerocopy.Pair[K, V]] { return m.Entries },
			func(m *Map[K, V], v zerocopy.Slice[zerocopy.Pair[K, V]]) { m.Entries = v }),
	)
}

// hash splits a key hash into the probe start (h1) and the 7-bit tag kept in
// the control byte (h2).
func hash(b []byte, key uint64) (h1 uint64, h2 uint8) {
	h := wyhash.Sum64(key, b)
	return h, uint8(h >> 57)
}

func isFull(c uint8) bool { return c&0x80 == 0 }

// probeSeq walks groups with triangular strides.  Over a power-of-two
// number of buckets it visits every group start modulo the group width
// before repeating.
type probeSeq struct {
	mask   uint64
	pos    uint64
	stride uint64
}

func newProbeSeq(h1, mask uint64) probeSeq {
	return probeSeq{mask: mask, pos: h1 & mask}
}

func (s *probeSeq) next() {
	s.stride += groupWidth
	s.pos = (s.pos + s.stride) & s.mask
}

type options struct {
	hashKey  uint64
	order    zerocopy.ByteOrder
	capacity int
	logger   *slog.Logger
}

// Option configures NewBuilder.
type Option func(*options)

// WithHashKey seeds the key hash.
func WithHashKey(key uint64) Option {
	return func(o *options) {
		o.hashKey = key
	}
}

// WithByteOrder sets the byte order the tables are stored in.
func WithByteOrder(order zerocopy.ByteOrder) Option {
	return func(o *options) {
		o.order = order
	}
}

// WithCapacity sizes the table for n entries up front.
func WithCapacity(n int) Option {
	return func(o *options) {
		o.capacity = n
	}
}

// WithLogger sets the logger that rehashes are reported to.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}
