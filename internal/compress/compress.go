// Copyright 2024 The zerocopy Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package compress implements the payload codecs of datafiles.
package compress

import (
	"errors"
	"fmt"
	"sync"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec identifies a compression algorithm.  The numeric values are stored
// in file headers and must not change.
type Codec uint8

const (
	None   Codec = 0
	Snappy Codec = 1
	LZ4    Codec = 2
	Zstd   Codec = 3
)

var (
	ErrUnknownCodec = errors.New("compress: unknown codec")
	ErrSizeMismatch = errors.New("compress: decompressed size mismatch")
)

func (c Codec) String() string {
	switch c {
	case None:
		return "none"
	case Snappy:
		return "snappy"
	case LZ4:
		return "lz4"
	case Zstd:
		return "zstd"
	}
	return fmt.Sprintf("Codec(%d)", uint8(c))
}

// Valid reports whether c is a known codec.
func (c Codec) Valid() bool {
	return c <= Zstd
}

// ZSTD encoder/decoder pools for efficiency
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil, zstd.WithDecodeAllCapLimit(true))
	return dec
}

// Compress encodes data with c.  If c does not shrink the data by at least
// an eighth, the data is returned unchanged along with None, so callers
// must record the returned codec rather than the requested one.
func Compress(c Codec, data []byte) (Codec, []byte, error) {
	if c == None || len(data) == 0 {
		return None, data, nil
	}

	var out []byte
	switch c {
	case Snappy:
		out = snappy.Encode(nil, data)
	case LZ4:
		dst := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, dst, nil)
		if err != nil {
			return None, nil, fmt.Errorf("lz4.CompressBlock: %w", err)
		}
		if n == 0 {
			// incompressible
			return None, data, nil
		}
		out = dst[:n]
	case Zstd:
		enc := getZstdEncoder()
		out = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	default:
		return None, nil, fmt.Errorf("%w: %d", ErrUnknownCodec, uint8(c))
	}

	if len(out) > len(data)-len(data)/8 {
		return None, data, nil
	}
	return c, out, nil
}

// Decompress decodes src, which was produced by Compress with codec c, into
// dst.  len(dst) must be exactly the decompressed size.
func Decompress(c Codec, dst, src []byte) error {
	switch c {
	case None:
		if len(src) != len(dst) {
			return fmt.Errorf("%w: %d != %d", ErrSizeMismatch, len(src), len(dst))
		}
		copy(dst, src)
	case Snappy:
		n, err := snappy.DecodedLen(src)
		if err != nil {
			return fmt.Errorf("snappy.DecodedLen: %w", err)
		}
		if n != len(dst) {
			return fmt.Errorf("%w: %d != %d", ErrSizeMismatch, n, len(dst))
		}
		if _, err := snappy.Decode(dst, src); err != nil {
			return fmt.Errorf("snappy.Decode: %w", err)
		}
	case LZ4:
		n, err := lz4.UncompressBlock(src, dst)
		if err != nil {
			return fmt.Errorf("lz4.UncompressBlock: %w", err)
		}
		if n != len(dst) {
			return fmt.Errorf("%w: %d != %d", ErrSizeMismatch, n, len(dst))
		}
	case Zstd:
		dec := getZstdDecoder()
		out, err := dec.DecodeAll(src, dst[:0:len(dst)])
		zstdDecoderPool.Put(dec)
		if errors.Is(err, zstd.ErrDecoderSizeExceeded) {
			return fmt.Errorf("%w: frame larger than %d bytes", ErrSizeMismatch, len(dst))
		}
		if err != nil {
			return fmt.Errorf("zstd.DecodeAll: %w", err)
		}
		if len(out) != len(dst) {
			return fmt.Errorf("%w: %d != %d", ErrSizeMismatch, len(out), len(dst))
		}
	default:
		return fmt.Errorf("%w: %d", ErrUnknownCodec, uint8(c))
	}
	return nil
}

// maxLZ4Ratio bounds how far a single lz4 block can expand.
const maxLZ4Ratio = 255

// CheckDecodedLen reports whether src, encoded with c, can decode to n
// bytes.  It only reads frame headers, so a bogus size can be rejected
// before the destination is allocated.
func CheckDecodedLen(c Codec, src []byte, n uint64) error {
	switch c {
	case None:
		if uint64(len(src)) != n {
			return fmt.Errorf("%w: %d != %d", ErrSizeMismatch, len(src), n)
		}
	case Snappy:
		m, err := snappy.DecodedLen(src)
		if err != nil {
			return fmt.Errorf("snappy.DecodedLen: %w", err)
		}
		if uint64(m) != n {
			return fmt.Errorf("%w: %d != %d", ErrSizeMismatch, m, n)
		}
	case LZ4:
		if n > maxLZ4Ratio*uint64(len(src)) {
			return fmt.Errorf("%w: %d bytes cannot hold %d", ErrSizeMismatch, len(src), n)
		}
	case Zstd:
		var hdr zstd.Header
		if err := hdr.Decode(src); err != nil {
			return fmt.Errorf("zstd.Header.Decode: %w", err)
		}
		if !hdr.HasFCS {
			return fmt.Errorf("%w: zstd frame has no content size", ErrSizeMismatch)
		}
		if hdr.FrameContentSize != n {
			return fmt.Errorf("%w: %d != %d", ErrSizeMismatch, hdr.FrameContentSize, n)
		}
	default:
		return fmt.Errorf("%w: %d", ErrUnknownCodec, uint8(c))
	}
	return nil
}
