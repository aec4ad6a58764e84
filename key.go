// Copyright 2024 The zerocopy Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package zerocopy

import (
	"encoding/binary"

	"github.com/bpowers/zerocopy/internal/unsafestring"
)

// Key tells a map engine how keys of stored type K are hashed and compared
// against queries of type Q.  Both sides are reduced to canonical bytes, so
// a stored key and a query are equal exactly when their canonical bytes
// are.
type Key[K, Q any] interface {
	// Layout is the inline layout of a key inside a map entry.
	Layout() Layout[K]
	// Intern stores any out-of-line parts of q in a and returns the inline
	// key.
	Intern(a *Arena, q Q) K
	// Stored returns the canonical bytes of a key read from b.  scratch may
	// be used to avoid allocating.
	Stored(b *Buf, k K, scratch []byte) ([]byte, error)
	// Probe returns the canonical bytes of a query.
	Probe(q Q, scratch []byte) []byte
}

type fixedKey[K any] struct {
	layout Layout[K]
}

// FixedKey hashes fixed-size keys by their little-endian encoding,
// independent of the order the map is stored in.
func FixedKey[K any](l Layout[K]) Key[K, K] {
	checkLayout(l)
	return fixedKey[K]{layout: l}
}

func (k fixedKey[K]) Layout() Layout[K]                { return k.layout }
func (k fixedKey[K]) Intern(_ *Arena, q K) K           { return q }
func (k fixedKey[K]) Probe(q K, scratch []byte) []byte { return k.encode(q, scratch) }

func (k fixedKey[K]) Stored(_ *Buf, key K, scratch []byte) ([]byte, error) {
	return k.encode(key, scratch), nil
}

func (k fixedKey[K]) encode(v K, scratch []byte) []byte {
	n := k.layout.Size()
	if cap(scratch) < n {
		scratch = make([]byte, n)
	}
	scratch = scratch[:n]
	clear(scratch)
	k.layout.Encode(scratch, binary.LittleEndian, v)
	return scratch
}

type stringKey struct {
	layout *UnsizedRefLayout[string]
}

// StringKey stores keys as references to UTF-8 text elsewhere in the
// buffer, with offsets of width w.
func StringKey(w Width) Key[Unsized[string], string] {
	return stringKey{layout: UnsizedOf(Str, w)}
}

func (k stringKey) Layout() Layout[Unsized[string]] { return k.layout }

func (k stringKey) Intern(a *Arena, q string) Unsized[string] { return StoreString(a, q) }

func (k stringKey) Stored(b *Buf, key Unsized[string], _ []byte) ([]byte, error) {
	return b.span(key.offset, key.size, 1)
}

func (k stringKey) Probe(q string, _ []byte) []byte { return unsafestring.ToBytes(q) }

type bytesKey struct {
	layout *UnsizedRefLayout[[]byte]
}

// BytesKey stores keys as references to raw bytes elsewhere in the buffer.
func BytesKey(w Width) Key[Unsized[[]byte], []byte] {
	return bytesKey{layout: UnsizedOf(Bytes, w)}
}

func (k bytesKey) Layout() Layout[Unsized[[]byte]] { return k.layout }

func (k bytesKey) Intern(a *Arena, q []byte) Unsized[[]byte] { return StoreBytes(a, q) }

func (k bytesKey) Stored(b *Buf, key Unsized[[]byte], _ []byte) ([]byte, error) {
	return b.span(key.offset, key.size, 1)
}

func (k bytesKey) Probe(q []byte, _ []byte) []byte { return q }
