// Copyright 2026 The Nargate Authors
// SPDX-License-Identifier: Apache-2.0

// Package nartest builds archive fixtures for tests.
//
// Each function returns the wire encoding of one construct, and the
// builders compose by concatenation, so a test can assemble exactly
// the tree it needs:
//
//	archive := nartest.Archive(nartest.Directory(
//		nartest.Entry("hello", nartest.File([]byte("hi\n"), false)),
//	))
//
// The package produces bytes only. It has no dependency on the nar
// reader, so reader tests exercise the parser against an independent
// encoding of the format.
package nartest

import "encoding/binary"

// String encodes one length-prefixed string: an 8-byte little-endian
// length, the payload, and zero padding to the next 8-byte boundary.
func String(s string) []byte {
	buf := make([]byte, 8+len(s)+pad(len(s)))
	binary.LittleEndian.PutUint64(buf, uint64(len(s)))
	copy(buf[8:], s)
	return buf
}

// File encodes a regular file node.
func File(contents []byte, executable bool) []byte {
	parts := [][]byte{String("("), String("type"), String("regular")}
	if executable {
		parts = append(parts, String("executable"), String(""))
	}
	parts = append(parts, String("contents"), String(string(contents)), String(")"))
	return concat(parts...)
}

// Symlink encodes a symlink node.
func Symlink(target string) []byte {
	return concat(
		String("("), String("type"), String("symlink"),
		String("target"), String(target),
		String(")"),
	)
}

// Directory encodes a directory node holding the given pre-encoded
// entries. Callers are responsible for supplying entries in name
// order; the builder does not sort.
func Directory(entries ...[]byte) []byte {
	parts := [][]byte{String("("), String("type"), String("directory")}
	parts = append(parts, entries...)
	parts = append(parts, String(")"))
	return concat(parts...)
}

// Entry encodes one directory entry wrapping a pre-encoded node.
func Entry(name string, node []byte) []byte {
	return concat(
		String("entry"), String("("),
		String("name"), String(name),
		String("node"), node,
		String(")"),
	)
}

// Archive prefixes the format magic onto a pre-encoded root node.
func Archive(root []byte) []byte {
	return concat(String("nix-archive-1"), root)
}

func pad(n int) int {
	return (8 - n%8) % 8
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
