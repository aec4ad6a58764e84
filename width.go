// Copyright 2024 The zerocopy Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package zerocopy

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Width is the number of bytes used to store an offset or a length in a
// buffer.  It bounds the largest buffer that can be addressed.
type Width uint8

const (
	Width16 Width = 2
	Width32 Width = 4
	Width64 Width = 8

	// DefaultWidth is used by references constructed without an explicit
	// width and by arenas created without WithWidth.
	DefaultWidth = Width32
)

// Bytes returns the encoded size of an offset of this width.
func (w Width) Bytes() int {
	w.check()
	return int(w)
}

// Max returns the largest offset representable in this width.
func (w Width) Max() uint64 {
	switch w {
	case Width16:
		return math.MaxUint16
	case Width32:
		return math.MaxUint32
	case Width64:
		return math.MaxUint64
	}
	invariantf("invalid offset width %d", uint8(w))
	return 0
}

// Fits reports whether v can be stored in this width.
func (w Width) Fits(v uint64) bool {
	return v <= w.Max()
}

func (w Width) String() string {
	switch w {
	case Width16:
		return "u16"
	case Width32:
		return "u32"
	case Width64:
		return "u64"
	}
	return fmt.Sprintf("Width(%d)", uint8(w))
}

func (w Width) check() {
	if w != Width16 && w != Width32 && w != Width64 {
		invariantf("invalid offset width %d", uint8(w))
	}
}

// mustFit panics if v is not representable; what names the value for the
// panic message.
func (w Width) mustFit(what string, v uint64) {
	if !w.Fits(v) {
		invariantf("%s %d does not fit in a %s offset", what, v, w)
	}
}

func (w Width) put(b []byte, o binary.ByteOrder, v uint64) {
	switch w {
	case Width16:
		o.PutUint16(b, uint16(v))
	case Width32:
		o.PutUint32(b, uint32(v))
	case Width64:
		o.PutUint64(b, v)
	default:
		w.check()
	}
}

func (w Width) get(b []byte, o binary.ByteOrder) uint64 {
	switch w {
	case Width16:
		return uint64(o.Uint16(b))
	case Width32:
		return uint64(o.Uint32(b))
	case Width64:
		return o.Uint64(b)
	}
	w.check()
	return 0
}
