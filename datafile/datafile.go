// Copyright 2024 The zerocopy Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package datafile

import (
	"errors"

	"github.com/bpowers/zerocopy/internal/compress"
)

const (
	magicDataHeader   = 0x5A43DA7A
	fileFormatVersion = 1
	fileHeaderSize    = 128
	defaultBufferSize = 4 * 1024 * 1024
)

var (
	ErrBadMagic  = errors.New("datafile: bad magic number")
	ErrVersion   = errors.New("datafile: unsupported format version")
	ErrChecksum  = errors.New("datafile: checksum mismatch")
	ErrBadHeader = errors.New("datafile: invalid header")
	ErrClosed    = errors.New("datafile: file closed")
)

// Codec selects how the payload is compressed on disk.
type Codec = compress.Codec

const (
	None   = compress.None
	Snappy = compress.Snappy
	LZ4    = compress.LZ4
	Zstd   = compress.Zstd
)
