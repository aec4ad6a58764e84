// Copyright 2024 The zerocopy Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package table

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/bpowers/zerocopy"
	"github.com/bpowers/zerocopy/datafile"
	"github.com/bpowers/zerocopy/phf"
)

// maxAttempts bounds how many hash keys Finalize tries before giving up.
const maxAttempts = 8

var errFinalized = errors.New("table: builder already finalized")

// BuilderOption configures the Builder.
type BuilderOption func(*builderOptions)

type builderOptions struct {
	logger *slog.Logger
	codec  datafile.Codec
	width  zerocopy.Width
}

// WithLogger sets an optional logger for the builder to use for progress
// updates.  If not provided, no logging output will be produced.
func WithLogger(logger *slog.Logger) BuilderOption {
	return func(opts *builderOptions) {
		opts.logger = logger
	}
}

// WithCompression compresses the table file.  Compressed tables are read
// onto the heap rather than mapped.
func WithCompression(c datafile.Codec) BuilderOption {
	return func(opts *builderOptions) {
		opts.codec = c
	}
}

// WithWidth sets the offset width, which bounds the size of the table.
// The default is 32-bit offsets.
func WithWidth(w zerocopy.Width) BuilderOption {
	return func(opts *builderOptions) {
		opts.width = w
	}
}

// Builder is used to construct a big immutable table from key/value pairs.
type Builder struct {
	resultPath string
	arena      *zerocopy.Arena
	entries    []phf.Entry[[]byte, zerocopy.Unsized[[]byte]]
	options    builderOptions
	root       *zerocopy.Ref[index]
	done       bool
}

type index = phf.Map[zerocopy.Unsized[[]byte], zerocopy.Unsized[[]byte]]

// NewBuilder creates a Builder that writes its table to dataFilePath when
// finalized.
func NewBuilder(dataFilePath string, opts ...BuilderOption) (*Builder, error) {
	options := builderOptions{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		codec:  datafile.None,
		width:  zerocopy.Width32,
	}
	for _, opt := range opts {
		opt(&options)
	}
	dataFilePath, err := filepath.Abs(dataFilePath)
	if err != nil {
		return nil, fmt.Errorf("filepath.Abs: %w", err)
	}
	return &Builder{
		resultPath: dataFilePath,
		arena:      zerocopy.NewArena(zerocopy.WithWidth(options.width)),
		options:    options,
	}, nil
}

// Put adds a key/value pair to the table.  Both are copied.  Duplicate keys
// result in an error at Finalize time.
func (b *Builder) Put(k, v []byte) error {
	if b.done || b.root != nil {
		return errFinalized
	}
	if need := uint64(b.arena.Len()) + uint64(len(v)); !b.options.width.Fits(need) {
		return fmt.Errorf("table.Put: value of %d bytes overflows %s offsets", len(v), b.options.width)
	}
	// copy the key, because it could point into e.g. a bufio buffer
	b.entries = append(b.entries, phf.Entry[[]byte, zerocopy.Unsized[[]byte]]{
		Key:   bytes.Clone(k),
		Value: zerocopy.StoreBytes(b.arena, v),
	})
	return nil
}

// Len returns the number of pairs added so far.
func (b *Builder) Len() int { return len(b.entries) }

// Finalize builds the index and atomically writes the table to disk.  If
// only the write fails, Finalize may be called again to retry it.
func (b *Builder) Finalize() error {
	if b.done {
		return errFinalized
	}
	if b.root == nil {
		root, err := b.buildIndex()
		if err != nil {
			b.done = true
			return err
		}
		b.root = &root
	}

	if _, err := datafile.Write(b.resultPath, b.arena, *b.root,
		datafile.WithCompression(b.options.codec),
		datafile.WithLogger(b.options.logger)); err != nil {
		return fmt.Errorf("datafile.Write: %w", err)
	}
	b.done = true
	b.arena = nil
	return nil
}

// buildIndex stores the perfect-hash index over the entries, and the index
// header after it.
func (b *Builder) buildIndex() (zerocopy.Ref[index], error) {
	w := b.options.width
	key := zerocopy.BytesKey(w)
	value := zerocopy.UnsizedOf(zerocopy.Bytes, w)

	var (
		m   index
		err error
	)
	for attempt := 0; attempt < maxAttempts; attempt++ {
		hashKey := phf.DefaultHashKey ^ uint64(attempt)*0x9e3779b97f4a7c15
		m, err = phf.Store(b.arena, key, value, b.entries,
			phf.WithHashKey(hashKey),
			phf.WithByteOrder(zerocopy.Little),
			phf.WithLogger(b.options.logger))
		if !errors.Is(err, zerocopy.ErrFailedPhf) {
			break
		}
		b.options.logger.Info("table: retrying index build with a new hash key", "attempt", attempt, "err", err)
	}
	if err != nil {
		return zerocopy.Ref[index]{}, fmt.Errorf("phf.Store: %w", err)
	}
	// we're done with these -- nil them so they can be GC'd earlier
	b.entries = nil

	return zerocopy.StoreWith(b.arena, phf.Layout(key.Layout(), value, w, zerocopy.Little), zerocopy.Little, m), nil
}
