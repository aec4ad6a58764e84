// Copyright 2024 The zerocopy Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package zerocopy reads structured values directly out of a flat byte
// buffer without a decode pass, while guaranteeing that untrusted bytes can
// only ever produce an error.
//
// Values are written into an Arena, which hands back typed references: Ref
// for fixed-size values, Slice for runs of them, and Unsized for text and
// raw bytes.  References are plain offsets, so they can be stored inside
// other values with RefOf, SliceOf and UnsizedOf.  When writing is done the
// arena is frozen into a Buf, and Load, LoadSlice and LoadUnsized turn
// references back into values after checking bounds, alignment and the
// per-type validity rules of each Layout.
//
// The phf and swiss sub-packages build read-only maps on top of these
// primitives, and the datafile package persists a Buf to disk.
package zerocopy
