// Copyright 2024 The zerocopy Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package datafile

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/bits"

	"github.com/dgryski/go-farm"
	"github.com/google/uuid"

	"github.com/bpowers/zerocopy"
)

const headerChecksumOff = 72

type fileHeader struct {
	magic         uint32
	formatVersion uint32
	fileID        uuid.UUID
	codec         Codec
	width         zerocopy.Width
	order         zerocopy.ByteOrder
	align         uint32
	payloadOffset uint64
	payloadLen    uint64
	storedLen     uint64
	rootOffset    uint64
	payloadSum    uint64
}

func newFileHeader(id uuid.UUID) *fileHeader {
	return &fileHeader{
		magic:         magicDataHeader,
		formatVersion: fileFormatVersion,
		fileID:        id,
	}
}

// payloadOffsetFor returns where a payload with the given alignment starts.
func payloadOffsetFor(align int) uint64 {
	return uint64(max(fileHeaderSize, align))
}

func (h *fileHeader) MarshalTo(b []byte) error {
	if len(b) < fileHeaderSize {
		return fmt.Errorf("header buffer too short: %d < %d", len(b), fileHeaderSize)
	}
	b = b[:fileHeaderSize]
	clear(b)
	binary.LittleEndian.PutUint32(b[0:4], h.magic)
	binary.LittleEndian.PutUint32(b[4:8], h.formatVersion)
	copy(b[8:24], h.fileID[:])
	b[24] = uint8(h.codec)
	b[25] = uint8(h.width)
	b[26] = uint8(h.order)
	binary.LittleEndian.PutUint32(b[28:32], h.align)
	binary.LittleEndian.PutUint64(b[32:40], h.payloadOffset)
	binary.LittleEndian.PutUint64(b[40:48], h.payloadLen)
	binary.LittleEndian.PutUint64(b[48:56], h.storedLen)
	binary.LittleEndian.PutUint64(b[56:64], h.rootOffset)
	binary.LittleEndian.PutUint64(b[64:72], h.payloadSum)
	binary.LittleEndian.PutUint64(b[72:80], farm.Hash64(b[:headerChecksumOff]))
	return nil
}

func (h *fileHeader) UnmarshalBytes(b []byte) error {
	if len(b) < fileHeaderSize {
		return fmt.Errorf("%w: header too short: %d < %d", ErrBadHeader, len(b), fileHeaderSize)
	}
	b = b[:fileHeaderSize]

	h.magic = binary.LittleEndian.Uint32(b[0:4])
	if h.magic != magicDataHeader {
		return fmt.Errorf("%w (%x) -- not a zerocopy datafile or corrupted", ErrBadMagic, h.magic)
	}
	h.formatVersion = binary.LittleEndian.Uint32(b[4:8])
	if h.formatVersion != fileFormatVersion {
		return fmt.Errorf("%w: can only read v%d data files; found v%d", ErrVersion, fileFormatVersion, h.formatVersion)
	}
	if sum := farm.Hash64(b[:headerChecksumOff]); sum != binary.LittleEndian.Uint64(b[72:80]) {
		return fmt.Errorf("%w: header", ErrChecksum)
	}

	copy(h.fileID[:], b[8:24])
	h.codec = Codec(b[24])
	h.width = zerocopy.Width(b[25])
	h.order = zerocopy.ByteOrder(b[26])
	h.align = binary.LittleEndian.Uint32(b[28:32])
	h.payloadOffset = binary.LittleEndian.Uint64(b[32:40])
	h.payloadLen = binary.LittleEndian.Uint64(b[40:48])
	h.storedLen = binary.LittleEndian.Uint64(b[48:56])
	h.rootOffset = binary.LittleEndian.Uint64(b[56:64])
	h.payloadSum = binary.LittleEndian.Uint64(b[64:72])

	return h.validate()
}

func (h *fileHeader) validate() error {
	if !h.codec.Valid() {
		return fmt.Errorf("%w: codec %d", ErrBadHeader, uint8(h.codec))
	}
	switch h.width {
	case zerocopy.Width16, zerocopy.Width32, zerocopy.Width64:
	default:
		return fmt.Errorf("%w: offset width %d", ErrBadHeader, uint8(h.width))
	}
	if h.order != zerocopy.Little && h.order != zerocopy.Big {
		return fmt.Errorf("%w: byte order %d", ErrBadHeader, uint8(h.order))
	}
	if h.align == 0 || h.align > zerocopy.MaxAlign || bits.OnesCount32(h.align) != 1 {
		return fmt.Errorf("%w: alignment %d", ErrBadHeader, h.align)
	}
	if h.payloadOffset != payloadOffsetFor(int(h.align)) {
		return fmt.Errorf("%w: payload offset %d", ErrBadHeader, h.payloadOffset)
	}
	if !h.width.Fits(h.payloadLen) {
		return fmt.Errorf("%w: payload of %d bytes exceeds %s offsets", ErrBadHeader, h.payloadLen, h.width)
	}
	if h.payloadLen > math.MaxInt-zerocopy.MaxAlign {
		return fmt.Errorf("%w: payload of %d bytes is too large", ErrBadHeader, h.payloadLen)
	}
	if h.codec == None && h.storedLen != h.payloadLen {
		return fmt.Errorf("%w: stored length %d != payload length %d", ErrBadHeader, h.storedLen, h.payloadLen)
	}
	if h.rootOffset > h.payloadLen {
		return fmt.Errorf("%w: root offset %d beyond payload", ErrBadHeader, h.rootOffset)
	}
	return nil
}
