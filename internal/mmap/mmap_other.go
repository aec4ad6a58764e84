// Copyright 2024 The zerocopy Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

//go:build !unix

package mmap

import (
	"io"
	"os"
	"unsafe"
)

// Supported reports whether files are really mapped rather than read.
const Supported = false

const pageSize = 4096

func osMap(f *os.File, size int) ([]byte, func([]byte) error, error) {
	// start on a page boundary, like a real mapping would
	raw := make([]byte, size+pageSize)
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(raw)))
	off := int(-addr & (pageSize - 1))
	data := raw[off : off+size : off+size]
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, nil, err
	}
	return data, nil, nil
}

func osAdviseRandom([]byte) error { return nil }
