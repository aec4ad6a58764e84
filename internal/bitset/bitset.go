// Copyright 2024 The zerocopy Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package bitset

import "math/bits"

// Bitset is an in-memory bitmap that is conceptually similar to []bool, but more memory efficient.
type Bitset struct {
	bits   []uint64
	length int
}

func getOffsets(off int) (sliceOff int, bitOff uint) {
	sliceOff = off / 64
	bitOff = uint(off) % 64
	return
}

// Set sets the bit at position `off` to 1.
func (b *Bitset) Set(off int) {
	if off < 0 || off >= b.length {
		return
	}
	sliceOff, bitOff := getOffsets(off)
	b.bits[sliceOff] |= 1 << bitOff
}

// IsSet returns true if the bit at position `off` is 1.
func (b *Bitset) IsSet(off int) bool {
	if off < 0 || off >= b.length {
		return false
	}
	sliceOff, bitOff := getOffsets(off)
	return b.bits[sliceOff]&(1<<bitOff) != 0
}

// Count returns the number of set bits.
func (b *Bitset) Count() int {
	n := 0
	for _, w := range b.bits {
		n += bits.OnesCount64(w)
	}
	return n
}

// New returns a new in-memory bitset where you can set, clear and test for individual bits.
func New(length int) *Bitset {
	sliceLen := (length + 63) / 64
	return &Bitset{
		bits:   make([]uint64, sliceLen),
		length: length,
	}
}
