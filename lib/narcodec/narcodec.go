// Copyright 2026 The Nargate Authors
// SPDX-License-Identifier: Apache-2.0

// Package narcodec selects streaming decoders for compressed archive
// bodies. The codec tag comes from the object's metadata record; the
// empty tag means the body is served as-is.
package narcodec

import (
	"compress/bzip2"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Codec tags accepted by Wrap.
const (
	None  = ""
	Bzip2 = "bzip2"
	Gzip  = "gzip"
	XZ    = "xz"
	Zstd  = "zstd"
)

// UnsupportedError reports a codec tag outside the known set.
type UnsupportedError struct {
	Tag string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported compression: %s", e.Tag)
}

// Supported reports whether codec is a known tag.
func Supported(codec string) bool {
	switch codec {
	case None, Bzip2, Gzip, XZ, Zstd:
		return true
	}
	return false
}

// Wrap returns a reader that decompresses r according to the codec
// tag. The returned Close releases decoder state (the zstd decoder
// owns worker goroutines) but never closes r; the caller keeps
// ownership of the underlying stream. An unknown non-empty tag
// returns *UnsupportedError naming the tag.
//
// The gzip and xz decoders read their stream header on construction,
// so Wrap can fail on corrupt input before any payload byte is
// consumed downstream.
func Wrap(r io.Reader, codec string) (io.ReadCloser, error) {
	switch codec {
	case None:
		return io.NopCloser(r), nil
	case Bzip2:
		return io.NopCloser(bzip2.NewReader(r)), nil
	case Gzip:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("initializing gzip decoder: %w", err)
		}
		return gz, nil
	case XZ:
		x, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("initializing xz decoder: %w", err)
		}
		return io.NopCloser(x), nil
	case Zstd:
		decoder, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("initializing zstd decoder: %w", err)
		}
		return decoder.IOReadCloser(), nil
	}
	return nil, &UnsupportedError{Tag: codec}
}
