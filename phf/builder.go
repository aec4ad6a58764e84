// Copyright 2024 The zerocopy Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package phf

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"

	"github.com/bpowers/zerocopy"
	"github.com/bpowers/zerocopy/internal/bitset"
)

// bucket holds the indices of the keys that hash to it.
type bucket struct {
	n    int
	vals []int
}

// bySize is used to sort our buckets from most full to least full
type bySize []bucket

func (s bySize) Len() int           { return len(s) }
func (s bySize) Less(i, j int) bool { return len(s[i].vals) > len(s[j].vals) }
func (s bySize) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

// placement is the result of the displacement search: a slot per key and a
// displacement pair per bucket.
type placement struct {
	slots         []int
	displacements []zerocopy.Pair[uint32, uint32]
	maxD1         uint32
}

// place runs the displacement search over precomputed key hashes.  Buckets
// are placed from most to least full, and within a bucket (d1, d2) pairs
// are tried in order until every key lands on a distinct free slot.
func place(hs []hashes) (*placement, error) {
	n := len(hs)
	if uint64(n) > math.MaxUint32 {
		return nil, fmt.Errorf("phf: too many keys (%d)", n)
	}
	nbuckets := (n + lambda - 1) / lambda

	buckets := make([]bucket, nbuckets)
	for i := range buckets {
		buckets[i].n = i
	}
	for i, h := range hs {
		b := int(h.g % uint32(nbuckets))
		buckets[b].vals = append(buckets[b].vals, i)
	}
	sort.Stable(bySize(buckets))

	var (
		p = &placement{
			slots:         make([]int, n),
			displacements: make([]zerocopy.Pair[uint32, uint32], nbuckets),
		}
		occupied   = bitset.New(n)
		generation = make([]uint64, n)
		gen        uint64
		tried      []int
		maxD1      = uint32(max(n, 64))
		maxD2      = uint32(n)
	)

	for _, b := range buckets {
		if len(b.vals) == 0 {
			// remaining buckets are empty too
			break
		}
		placed := false
	search:
		for d1 := uint32(0); d1 < maxD1; d1++ {
			for d2 := uint32(0); d2 < maxD2; d2++ {
				gen++
				tried = tried[:0]
				for _, i := range b.vals {
					slot := int(displace(hs[i].f1, hs[i].f2, d1, d2) % uint32(n))
					if occupied.IsSet(slot) || generation[slot] == gen {
						continue
					}
					generation[slot] = gen
					tried = append(tried, slot)
				}
				if len(tried) != len(b.vals) {
					continue
				}
				for j, i := range b.vals {
					occupied.Set(tried[j])
					p.slots[i] = tried[j]
				}
				p.displacements[b.n] = zerocopy.Pair[uint32, uint32]{A: d1, B: d2}
				p.maxD1 = max(p.maxD1, d1)
				placed = true
				break search
			}
		}
		if !placed {
			return nil, fmt.Errorf("phf: bucket %d with %d keys: %w", b.n, len(b.vals), zerocopy.ErrFailedPhf)
		}
	}

	if occupied.Count() != n {
		return nil, fmt.Errorf("phf: placed %d of %d keys: %w", occupied.Count(), n, zerocopy.ErrFailedPhf)
	}
	return p, nil
}

// Store builds a perfect-hash map of entries and writes its tables into a.
// Keys are interned with key and hashed by their canonical bytes.  The
// returned header can be kept in memory or stored with Layout.  If Store
// fails, nothing has been written to a.
func Store[K, Q, V any](a *zerocopy.Arena, key zerocopy.Key[K, Q], value zerocopy.Layout[V], entries []Entry[Q, V], opts ...Option) (Map[K, V], error) {
	o := options{
		hashKey: DefaultHashKey,
		order:   zerocopy.Native,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&o)
	}

	hs := make([]hashes, len(entries))
	seen := make(stringSet, len(entries))
	var scratch []byte
	for i, e := range entries {
		b := key.Probe(e.Key, scratch)
		if seen.Contains(b) {
			return Map[K, V]{}, fmt.Errorf("phf.Store: key %d: %w", i, ErrDuplicateKey)
		}
		seen.Add(b)
		hs[i] = hashKey(b, o.hashKey)
		scratch = b[:0]
	}

	var (
		slotted []zerocopy.Pair[K, V]
		disps   []zerocopy.Pair[uint32, uint32]
	)
	if len(entries) > 0 {
		p, err := place(hs)
		if err != nil {
			return Map[K, V]{}, err
		}
		order := make([]int, len(entries))
		for i, slot := range p.slots {
			order[slot] = i
		}
		slotted = make([]zerocopy.Pair[K, V], len(entries))
		for slot, i := range order {
			slotted[slot] = zerocopy.Pair[K, V]{A: key.Intern(a, entries[i].Key), B: entries[i].Value}
		}
		disps = p.displacements
		o.logger.Debug("phf: built map",
			"keys", len(entries),
			"buckets", len(disps),
			"max_d1", p.maxD1)
	}

	return Map[K, V]{
		Key:           o.hashKey,
		Entries:       zerocopy.StoreSliceWith(a, zerocopy.PairOf(key.Layout(), value), o.order, slotted),
		Displacements: zerocopy.StoreSliceWith(a, displacementLayout, o.order, disps),
	}, nil
}

// StoreSet builds a perfect-hash set.  A set is a map whose values take no
// space.
func StoreSet[K, Q any](a *zerocopy.Arena, key zerocopy.Key[K, Q], keys []Q, opts ...Option) (Map[K, zerocopy.Unit], error) {
	entries := make([]Entry[Q, zerocopy.Unit], len(keys))
	for i, k := range keys {
		entries[i].Key = k
	}
	return Store(a, key, zerocopy.UnitLayout, entries, opts...)
}
