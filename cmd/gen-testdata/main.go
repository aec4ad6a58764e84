// Copyright 2024 The zerocopy Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Command gen-testdata generates random key/value pairs, either as
// "key:value" lines on stdout or as a table file.
package main

import (
	"bufio"
	"crypto/hmac"
	crand "crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"

	"github.com/bpowers/zerocopy/datafile"
	"github.com/bpowers/zerocopy/table"
)

const (
	prefix    = "pref_"
	suffixLen = 16
	hmacKey   = "d259c7f656caf7f1"
)

var (
	nPairs      = flag.Int("n", 1000000, "number of pairs to generate")
	outPath     = flag.String("o", "", "write a table file here instead of text to stdout")
	compression = flag.String("compression", "none", "table compression: none, snappy, lz4 or zstd")
	verbose     = flag.Bool("v", false, "log build progress to stderr")
)

func newRand() *rand.Rand {
	var seedBytes [8]byte
	if _, err := crand.Read(seedBytes[:]); err != nil {
		panic(err)
	}
	seed := int64(binary.LittleEndian.Uint64(seedBytes[:]))
	return rand.New(rand.NewSource(seed))
}

func parseCodec(s string) (datafile.Codec, error) {
	for _, c := range []datafile.Codec{datafile.None, datafile.Snappy, datafile.LZ4, datafile.Zstd} {
		if c.String() == s {
			return c, nil
		}
	}
	return datafile.None, fmt.Errorf("unknown compression %q", s)
}

// generate calls emit with n random pairs.
func generate(n int, emit func(k, v []byte) error) error {
	rng := newRand()
	h := hmac.New(sha256.New, []byte(hmacKey))

	for i := 0; i < n; i++ {
		var buf [suffixLen / 2]byte
		if _, err := rng.Read(buf[:]); err != nil {
			return err
		}
		value := fmt.Sprintf("%s%x", prefix, buf)
		h.Reset()
		h.Write([]byte(value))
		key := hex.EncodeToString(h.Sum(nil))

		if err := emit([]byte(key), []byte(value)); err != nil {
			return err
		}
	}
	return nil
}

func writeText(n int) error {
	w := bufio.NewWriter(os.Stdout)
	err := generate(n, func(k, v []byte) error {
		_, err := fmt.Fprintf(w, "%s:%s\n", k, v)
		return err
	})
	if err != nil {
		return err
	}
	return w.Flush()
}

func writeTable(path string, n int, codec datafile.Codec, logger *slog.Logger) error {
	builder, err := table.NewBuilder(path, table.WithCompression(codec), table.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("table.NewBuilder: %w", err)
	}
	if err := generate(n, builder.Put); err != nil {
		return err
	}
	if err := builder.Finalize(); err != nil {
		return fmt.Errorf("builder.Finalize: %w", err)
	}

	t, err := table.Open(path)
	if err != nil {
		return fmt.Errorf("table.Open: %w", err)
	}
	defer func() {
		_ = t.Close()
	}()
	logger.Info("wrote table", "path", path, "id", t.ID(), "pairs", t.Len())
	return nil
}

func main() {
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	var err error
	if *outPath == "" {
		err = writeText(*nPairs)
	} else {
		var codec datafile.Codec
		if codec, err = parseCodec(*compression); err == nil {
			err = writeTable(*outPath, *nPairs, codec, logger)
		}
	}
	if err != nil {
		logger.Error("gen-testdata failed", "err", err)
		os.Exit(1)
	}
}
