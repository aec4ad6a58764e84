// Copyright 2024 The zerocopy Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package swiss

import (
	"bytes"
	"io"
	"log/slog"
	"math/bits"

	"github.com/bpowers/zerocopy"
)

type slot[Q, V any] struct {
	key   Q
	value V
	probe []byte
	h1    uint64
}

// Builder accumulates entries in memory and writes the finished table into
// an arena with Store.  It is not safe for concurrent use.
type Builder[K, Q, V any] struct {
	arena *zerocopy.Arena
	key   zerocopy.Key[K, Q]
	value zerocopy.Layout[V]
	opts  options

	// ctrl has buckets+groupWidth bytes; the tail mirrors the first group.
	ctrl       []uint8
	slots      []slot[Q, V]
	len        int
	tombstones int
}

// NewBuilder returns an empty builder that will store into a.
func NewBuilder[K, Q, V any](a *zerocopy.Arena, key zerocopy.Key[K, Q], value zerocopy.Layout[V], opts ...Option) *Builder[K, Q, V] {
	o := options{
		hashKey: DefaultHashKey,
		order:   zerocopy.Native,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&o)
	}
	b := &Builder[K, Q, V]{arena: a, key: key, value: value, opts: o}
	b.resize(bucketsFor(o.capacity))
	return b
}

// bucketsFor returns the smallest power-of-two bucket count that holds n
// entries under a 7/8 load factor.
func bucketsFor(n int) int {
	need := (n*8 + 6) / 7
	if need <= minBuckets {
		return minBuckets
	}
	return 1 << bits.Len(uint(need-1))
}

func maxLoad(buckets int) int { return buckets * 7 / 8 }

func (b *Builder[K, Q, V]) buckets() int { return len(b.slots) }

func (b *Builder[K, Q, V]) setCtrl(i int, c uint8) {
	b.ctrl[i] = c
	if i < groupWidth {
		b.ctrl[b.buckets()+i] = c
	}
}

// Len returns the number of live entries.
func (b *Builder[K, Q, V]) Len() int { return b.len }

func (b *Builder[K, Q, V]) find(probe []byte, h1 uint64, h2 uint8) (int, bool) {
	mask := uint64(b.buckets() - 1)
	seq := newProbeSeq(h1, mask)
	for i := 0; i < b.buckets()/groupWidth; i++ {
		group := b.ctrl[seq.pos : seq.pos+groupWidth]
		for j, c := range group {
			idx := int((seq.pos + uint64(j)) & mask)
			if c == h2 && bytes.Equal(b.slots[idx].probe, probe) {
				return idx, true
			}
		}
		if bytes.IndexByte(group, ctrlEmpty) >= 0 {
			return 0, false
		}
		seq.next()
	}
	return 0, false
}

// freeSlot returns the first empty or deleted bucket on the probe sequence.
// The load factor guarantees one exists.
func (b *Builder[K, Q, V]) freeSlot(h1 uint64) int {
	mask := uint64(b.buckets() - 1)
	seq := newProbeSeq(h1, mask)
	for {
		for j, c := range b.ctrl[seq.pos : seq.pos+groupWidth] {
			if !isFull(c) {
				return int((seq.pos + uint64(j)) & mask)
			}
		}
		seq.next()
	}
}

// Insert adds or replaces the value for q.  It reports whether q was new.
func (b *Builder[K, Q, V]) Insert(q Q, v V) bool {
	probe := append([]byte(nil), b.key.Probe(q, nil)...)
	h1, h2 := hash(probe, b.opts.hashKey)
	if idx, ok := b.find(probe, h1, h2); ok {
		b.slots[idx].value = v
		return false
	}
	if b.len+b.tombstones+1 > maxLoad(b.buckets()) {
		b.rehash()
	}
	idx := b.freeSlot(h1)
	if b.ctrl[idx] == ctrlDeleted {
		b.tombstones--
	}
	b.setCtrl(idx, h2)
	b.slots[idx] = slot[Q, V]{key: q, value: v, probe: probe, h1: h1}
	b.len++
	return true
}

// Get returns the value for q in the builder.
func (b *Builder[K, Q, V]) Get(q Q) (V, bool) {
	probe := b.key.Probe(q, nil)
	h1, h2 := hash(probe, b.opts.hashKey)
	if idx, ok := b.find(probe, h1, h2); ok {
		return b.slots[idx].value, true
	}
	var zero V
	return zero, false
}

// Remove deletes q, leaving a tombstone so later probes continue past it.
// It reports whether q was present.
func (b *Builder[K, Q, V]) Remove(q Q) bool {
	probe := b.key.Probe(q, nil)
	h1, h2 := hash(probe, b.opts.hashKey)
	idx, ok := b.find(probe, h1, h2)
	if !ok {
		return false
	}
	b.setCtrl(idx, ctrlDeleted)
	b.slots[idx] = slot[Q, V]{}
	b.len--
	b.tombstones++
	return true
}

// rehash makes room for one more entry, dropping tombstones and doubling
// the bucket count when live entries alone need it.
func (b *Builder[K, Q, V]) rehash() {
	buckets := b.buckets()
	if b.len+1 > maxLoad(buckets)/2 {
		buckets *= 2
	}
	old := b.slots
	oldCtrl := b.ctrl
	b.resize(buckets)
	for i, s := range old {
		if !isFull(oldCtrl[i]) {
			continue
		}
		idx := b.freeSlot(s.h1)
		b.setCtrl(idx, oldCtrl[i])
		b.slots[idx] = s
	}
	b.opts.logger.Debug("swiss: rehashed",
		"len", b.len,
		"buckets", buckets)
}

func (b *Builder[K, Q, V]) resize(buckets int) {
	b.slots = make([]slot[Q, V], buckets)
	b.ctrl = bytes.Repeat([]byte{ctrlEmpty}, buckets+groupWidth)
	b.tombstones = 0
}

// Store interns every live key, writes the control bytes and entries into
// the arena and returns the header.  The builder can keep being used
// afterwards.
func (b *Builder[K, Q, V]) Store() Map[K, V] {
	ctrl := zerocopy.StoreSliceWith(b.arena, zerocopy.U8, b.opts.order, b.ctrl)
	layout := zerocopy.PairOf(b.key.Layout(), b.value)
	// empty buckets stay zeroed; only full ones are ever decoded
	entries := zerocopy.StoreSliceUninitWith(b.arena, layout, b.opts.order, b.buckets())
	for i, s := range b.slots {
		if !isFull(b.ctrl[i]) {
			continue
		}
		k := b.key.Intern(b.arena, s.key)
		zerocopy.Replace(b.arena, entries.Index(uint64(i)), zerocopy.Pair[K, V]{A: k, B: s.value})
	}
	m := Map[K, V]{
		Key:     b.opts.hashKey,
		Len:     uint64(b.len),
		Ctrl:    ctrl,
		Entries: entries,
	}
	b.opts.logger.Info("swiss: stored map",
		"len", b.len,
		"buckets", b.buckets(),
		"tombstones", b.tombstones)
	return m
}
