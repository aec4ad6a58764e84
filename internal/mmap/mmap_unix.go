// Copyright 2024 The zerocopy Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

//go:build unix

package mmap

import (
	"os"

	"golang.org/x/sys/unix"
)

// Supported reports whether files are really mapped rather than read.
const Supported = true

func osMap(f *os.File, size int) ([]byte, func([]byte) error, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, err
	}
	return data, unix.Munmap, nil
}

func osAdviseRandom(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	err := unix.Madvise(data, unix.MADV_RANDOM)
	if err == unix.EINVAL {
		// advisory only
		return nil
	}
	return err
}
