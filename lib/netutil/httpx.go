// Copyright 2026 The Nargate Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides HTTP I/O utilities shared across Nargate.
//
// Response helpers (ReadResponse, ErrorBody) bound all body reads at
// MaxResponseSize to prevent unbounded memory allocation from a
// misbehaving upstream. They are for small metadata responses, not
// for archive downloads, which are read incrementally.
//
// IsExpectedCloseError classifies the errors a streaming response
// write produces when the client disconnects mid-body.
package netutil

import "io"

// MaxResponseSize is the bound on metadata response body reads: 1 MB.
// This exists solely to keep a pathological upstream from exhausting
// memory. Real metadata records are a few hundred bytes; the limit is
// intentionally generous so that it never interferes with normal
// operation.
const MaxResponseSize int64 = 1 << 20

// ReadResponse reads a metadata response body up to MaxResponseSize
// bytes. Use instead of io.ReadAll when reading HTTP response bodies.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}

// ErrorBody reads an HTTP error response body and returns it as a
// string for diagnostic error messages. Read errors are silently
// ignored; a partial or empty body is still useful in an error
// message.
func ErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, MaxResponseSize))
	return string(data)
}
