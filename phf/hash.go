// Copyright 2024 The zerocopy Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package phf

import (
	"github.com/dgryski/go-farm"
)

// lambda is the average number of keys per bucket.
const lambda = 5

const f2Salt = 0x9e3779b97f4a7c15

// hashes are the three per-key hash values: g picks the bucket, f1 and f2
// are combined with the bucket's displacement to pick the slot.
type hashes struct {
	g, f1, f2 uint32
}

func hashKey(b []byte, key uint64) hashes {
	h1 := farm.Hash64WithSeed(b, key)
	h2 := farm.Hash64WithSeed(b, key^f2Salt)
	return hashes{g: uint32(h1 >> 32), f1: uint32(h1), f2: uint32(h2)}
}

// displace maps a key's hashes and a bucket's displacement to a slot
// candidate.  The finalizer spreads f1*d1+f2 so that small tables do not
// depend on the parity of the inputs.
func displace(f1, f2, d1, d2 uint32) uint32 {
	return fmix32(f1*d1+f2) + d2
}

// fmix32 is the murmur3 finalizer.
func fmix32(h uint32) uint32 {
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16
	return h
}
