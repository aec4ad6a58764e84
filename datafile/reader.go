// Copyright 2024 The zerocopy Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package datafile

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/dgryski/go-farm"
	"github.com/google/uuid"

	"github.com/bpowers/zerocopy"
	"github.com/bpowers/zerocopy/internal/compress"
	"github.com/bpowers/zerocopy/internal/mmap"
)

type readerOptions struct {
	noMmap     bool
	noChecksum bool
}

// ReaderOption configures Open.
type ReaderOption func(*readerOptions)

// WithoutMmap reads the payload onto the heap even when it could be
// mapped.
func WithoutMmap() ReaderOption {
	return func(o *readerOptions) {
		o.noMmap = true
	}
}

// WithoutChecksum skips verifying the payload checksum, so opening a mapped
// file does not touch every page.  The header checksum is always checked.
func WithoutChecksum() ReaderOption {
	return func(o *readerOptions) {
		o.noChecksum = true
	}
}

// File is an open datafile.  Its Buf may be read concurrently.  Close must
// not race with readers, and the Buf must not be used after Close.
type File struct {
	h      fileHeader
	buf    *zerocopy.Buf
	mm     *mmap.Mapping
	closed atomic.Bool
}

// Open opens the datafile at path.  Uncompressed payloads are mapped into
// memory; compressed ones are decompressed onto the heap.
func Open(path string, opts ...ReaderOption) (*File, error) {
	var o readerOptions
	for _, opt := range opts {
		opt(&o)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("os.Open(%s): %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	stats, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("f.Stat: %w", err)
	}

	var headerBuf [fileHeaderSize]byte
	if _, err := io.ReadFull(f, headerBuf[:]); err != nil {
		return nil, fmt.Errorf("%w: reading header of %s: %w", ErrBadHeader, path, err)
	}
	var h fileHeader
	if err := h.UnmarshalBytes(headerBuf[:]); err != nil {
		return nil, fmt.Errorf("fileHeader.UnmarshalBytes(%s): %w", path, err)
	}
	end := h.payloadOffset + h.storedLen
	if end < h.payloadOffset || end > uint64(stats.Size()) {
		return nil, fmt.Errorf("%w: payload %d..%d beyond end of %s (%d bytes)", ErrBadHeader, h.payloadOffset, end, path, stats.Size())
	}

	if h.codec == None && !o.noMmap {
		return openMapped(path, h, o)
	}
	return openHeap(f, h, o)
}

func openMapped(path string, h fileHeader, o readerOptions) (*File, error) {
	mm, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mmap.Open(%s): %w", path, err)
	}
	data := mm.Data()
	if uint64(len(data)) < h.payloadOffset+h.storedLen {
		_ = mm.Close()
		return nil, fmt.Errorf("%w: %s shrank while opening", ErrBadHeader, path)
	}
	payload := data[h.payloadOffset : h.payloadOffset+h.storedLen]
	if !o.noChecksum && farm.Hash64(payload) != h.payloadSum {
		_ = mm.Close()
		return nil, fmt.Errorf("%w: payload of %s", ErrChecksum, path)
	}
	if err := mm.AdviseRandom(); err != nil {
		_ = mm.Close()
		return nil, fmt.Errorf("madvise: %w", err)
	}
	buf := zerocopy.NewBuf(payload)
	if !buf.IsAligned(int(h.align)) {
		// only possible without real mmap support
		buf = zerocopy.CopyAligned(payload, int(h.align))
	}
	return &File{h: h, buf: buf, mm: mm}, nil
}

func openHeap(f *os.File, h fileHeader, o readerOptions) (*File, error) {
	stored := make([]byte, h.storedLen)
	if _, err := f.ReadAt(stored, int64(h.payloadOffset)); err != nil {
		return nil, fmt.Errorf("f.ReadAt: %w", err)
	}
	if !o.noChecksum && farm.Hash64(stored) != h.payloadSum {
		return nil, fmt.Errorf("%w: payload of %s", ErrChecksum, f.Name())
	}
	if err := compress.CheckDecodedLen(h.codec, stored, h.payloadLen); err != nil {
		return nil, fmt.Errorf("%w: payload of %s: %w", ErrBadHeader, f.Name(), err)
	}
	payload := zerocopy.MakeAligned(int(h.payloadLen), int(h.align))
	if err := compress.Decompress(h.codec, payload, stored); err != nil {
		return nil, fmt.Errorf("compress.Decompress(%s): %w", h.codec, err)
	}
	return &File{h: h, buf: zerocopy.NewBuf(payload)}, nil
}

// Buf returns the payload.
func (f *File) Buf() *zerocopy.Buf { return f.buf }

// ID returns the file ID recorded when the file was written.
func (f *File) ID() uuid.UUID { return f.h.fileID }

func (f *File) Width() zerocopy.Width     { return f.h.width }
func (f *File) Order() zerocopy.ByteOrder { return f.h.order }
func (f *File) Align() int                { return int(f.h.align) }
func (f *File) Codec() Codec              { return f.h.codec }
func (f *File) RootOffset() uint64        { return f.h.rootOffset }

// Mapped reports whether the payload is served from a memory mapping.
func (f *File) Mapped() bool { return f.mm != nil }

// Close releases the file's memory.
func (f *File) Close() error {
	if f.closed.Swap(true) {
		return ErrClosed
	}
	f.buf = nil
	if f.mm != nil {
		return f.mm.Close()
	}
	return nil
}

// Root returns a reference to the root value, read with layout l.
func Root[T any](f *File, l zerocopy.Layout[T]) zerocopy.Ref[T] {
	return zerocopy.NewRefWith(l, f.h.width, f.h.order, f.h.rootOffset)
}
