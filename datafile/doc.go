// Copyright 2024 The zerocopy Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package datafile persists a finalized zerocopy buffer to disk and
// reopens it, memory-mapped where possible, so that values can be read in
// place without a decode pass.
//
// A datafile looks like:
//
//	┌───────────────────┐
//	│ file header       │  128 bytes
//	├───────────────────┤
//	│ padding           │  up to the payload alignment
//	├───────────────────┤
//	│ payload           │  the buffer, optionally compressed
//	│                   │
//	└───────────────────┘
//
// The header is little-endian:
//
//	  0  magic            u32
//	  4  format version   u32
//	  8  file id          [16]byte (UUID)
//	 24  codec            u8
//	 25  offset width     u8
//	 26  byte order       u8
//	 27  (zero)           u8
//	 28  payload align    u32
//	 32  payload offset   u64
//	 40  payload length   u64 (uncompressed)
//	 48  stored length    u64 (on disk)
//	 56  root offset      u64
//	 64  payload checksum u64 (farm hash of the stored bytes)
//	 72  header checksum  u64 (farm hash of bytes 0..72)
//	 80  reserved
//
// The payload starts at max(128, align) so that an uncompressed payload is
// aligned in a page-aligned mapping.  Compressed payloads are decompressed
// onto the heap into storage with the same alignment.
package datafile
