// Copyright 2024 The zerocopy Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package zerocopy

import (
	"encoding/binary"
	"fmt"
)

// ByteOrder selects how multi-byte integers are laid out.  It is carried by
// references rather than stored next to each value.
type ByteOrder uint8

const (
	Native ByteOrder = iota
	Little
	Big
)

var nativeIsLittle = binary.NativeEndian.Uint16([]byte{1, 0}) == 1

// Binary returns the encoding/binary implementation of this order.
func (o ByteOrder) Binary() binary.ByteOrder {
	switch o {
	case Native:
		return binary.NativeEndian
	case Little:
		return binary.LittleEndian
	case Big:
		return binary.BigEndian
	}
	invariantf("invalid byte order %d", uint8(o))
	return nil
}

// Resolve maps Native onto Little or Big for the running machine, so the
// result can be recorded in a file and interpreted elsewhere.
func (o ByteOrder) Resolve() ByteOrder {
	if o != Native {
		return o
	}
	if nativeIsLittle {
		return Little
	}
	return Big
}

// IsNative reports whether values in this order can be read without
// swapping bytes on the running machine.
func (o ByteOrder) IsNative() bool {
	return o.Resolve() == Native.Resolve()
}

func (o ByteOrder) String() string {
	switch o {
	case Native:
		return "native"
	case Little:
		return "little"
	case Big:
		return "big"
	}
	return fmt.Sprintf("ByteOrder(%d)", uint8(o))
}
