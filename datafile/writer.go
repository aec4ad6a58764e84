// Copyright 2024 The zerocopy Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package datafile

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dgryski/go-farm"
	"github.com/google/uuid"

	"github.com/bpowers/zerocopy"
	"github.com/bpowers/zerocopy/internal/compress"
)

type writerOptions struct {
	codec  Codec
	fileID uuid.UUID
	logger *slog.Logger
}

// WriterOption configures Write.
type WriterOption func(*writerOptions)

// WithCompression compresses the payload with c.  Payloads that do not
// compress well are stored uncompressed, which keeps them mappable.
func WithCompression(c Codec) WriterOption {
	return func(o *writerOptions) {
		o.codec = c
	}
}

// WithFileID records id instead of a freshly generated one.
func WithFileID(id uuid.UUID) WriterOption {
	return func(o *writerOptions) {
		o.fileID = id
	}
}

// WithLogger sets the logger that file writes are reported to.
func WithLogger(logger *slog.Logger) WriterOption {
	return func(o *writerOptions) {
		o.logger = logger
	}
}

// Write atomically writes the contents of a to path, recording root as the
// entry point for readers, and then freezes a.  It returns the new file's
// ID.  If the write fails a is left untouched, so it can be retried.
func Write[T any](path string, a *zerocopy.Arena, root zerocopy.Ref[T], opts ...WriterOption) (uuid.UUID, error) {
	o := writerOptions{
		codec:  None,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.fileID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return uuid.Nil, fmt.Errorf("uuid.NewRandom: %w", err)
		}
		o.fileID = id
	}

	h := newFileHeader(o.fileID)
	h.width = a.Width()
	h.align = uint32(a.Requested())
	h.order = root.Order().Resolve()
	h.rootOffset = root.Offset()

	if err := writeFile(path, a.Buf(), h, o); err != nil {
		return uuid.Nil, err
	}
	a.Freeze()
	return o.fileID, nil
}

func writeFile(path string, buf *zerocopy.Buf, h *fileHeader, o writerOptions) (err error) {
	// we want to write to a new file and do an atomic rename when we're done on disk
	path, err = filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("filepath.Abs: %w", err)
	}
	codec, stored, err := compress.Compress(o.codec, buf.Bytes())
	if err != nil {
		return fmt.Errorf("compress.Compress(%s): %w", o.codec, err)
	}
	h.codec = codec
	h.payloadOffset = payloadOffsetFor(int(h.align))
	h.payloadLen = uint64(buf.Len())
	h.storedLen = uint64(len(stored))
	h.payloadSum = farm.Hash64(stored)
	if err := h.validate(); err != nil {
		return fmt.Errorf("datafile.Write: %w", err)
	}

	f, err := os.CreateTemp(filepath.Dir(path), "zerocopy.*.tmp")
	if err != nil {
		return fmt.Errorf("CreateTemp failed (may need permissions for dir containing %s): %w", path, err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	var headerBuf [fileHeaderSize]byte
	if err = h.MarshalTo(headerBuf[:]); err != nil {
		return err
	}
	bw := bufio.NewWriterSize(f, defaultBufferSize)
	if _, err = bw.Write(headerBuf[:]); err != nil {
		return fmt.Errorf("bufio.Write: %w", err)
	}
	if pad := h.payloadOffset - fileHeaderSize; pad > 0 {
		if _, err = bw.Write(make([]byte, pad)); err != nil {
			return fmt.Errorf("bufio.Write: %w", err)
		}
	}
	if _, err = bw.Write(stored); err != nil {
		return fmt.Errorf("bufio.Write: %w", err)
	}
	if err = bw.Flush(); err != nil {
		return fmt.Errorf("bufio.Flush: %w", err)
	}
	if err = f.Sync(); err != nil {
		return fmt.Errorf("f.Sync: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("f.Close: %w", err)
	}
	// make the file read-only
	if err = os.Chmod(f.Name(), 0444); err != nil {
		return fmt.Errorf("os.Chmod(0444): %w", err)
	}
	if err = os.Rename(f.Name(), path); err != nil {
		return fmt.Errorf("os.Rename: %w", err)
	}

	o.logger.Info("datafile: wrote file",
		"path", path,
		"id", h.fileID,
		"codec", codec,
		"payload_bytes", h.payloadLen,
		"stored_bytes", h.storedLen)
	return nil
}
