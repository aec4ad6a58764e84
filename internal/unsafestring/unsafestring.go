// Copyright 2024 The zerocopy Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package unsafestring converts between strings and byte slices without
// copying.
package unsafestring

import (
	"unsafe"
)

// ToBytes returns a byte slice referring to the contents of the input string.
// SAFETY: the returned byte slice must never be written to, only read.
func ToBytes(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

// FromBytes returns a string referring to the contents of b.
// SAFETY: b must not be modified for as long as the string is in use.
// Buffers handed out by zerocopy are immutable, which is what makes
// loaded strings safe.
func FromBytes(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(unsafe.SliceData(b), len(b))
}
