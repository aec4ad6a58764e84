// Copyright 2024 The zerocopy Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package zero provides functions to zero slices of specific types.
package zero

// Bytes zeroes b.  Arenas use it for alignment padding and struct gaps, so
// no stale bytes leak into a stored buffer.
func Bytes(b []byte) {
	clear(b)
}

