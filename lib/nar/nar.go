// Copyright 2026 The Nargate Authors
// SPDX-License-Identifier: Apache-2.0

// Package nar reads Nix archives (NAR) from a sequential byte stream.
//
// The format is a self-describing binary encoding of a directory tree.
// Every primitive is a length-prefixed string: an 8-byte little-endian
// length, the payload, then zero padding to the next 8-byte boundary.
// An archive is the magic string "nix-archive-1" followed by exactly
// one node:
//
//	node     = "(" "type" kind body ")"
//	regular  = ["executable" ""] "contents" <contents string>
//	symlink  = "target" <target string>
//	directory = *( "entry" "(" "name" <name string> "node" node ")" )
//
// The stream offers no index and no seeking, so the reader is strictly
// single-pass: a directory yields its entries one at a time through a
// forward-only cursor, and an entry's payload must be fully consumed
// (read to EOF or drained) before the cursor can advance. The tree is
// never materialized in memory; auxiliary state is proportional to the
// tree depth.
package nar

import (
	"encoding/binary"
	"fmt"
	"io"
)

const magic = "nix-archive-1"

const (
	tokenOpen       = "("
	tokenClose      = ")"
	tokenType       = "type"
	tokenRegular    = "regular"
	tokenExecutable = "executable"
	tokenContents   = "contents"
	tokenSymlink    = "symlink"
	tokenTarget     = "target"
	tokenDirectory  = "directory"
	tokenEntry      = "entry"
	tokenName       = "name"
	tokenNode       = "node"
)

// Length bounds for string reads. A corrupt length prefix must not
// translate into an arbitrarily large allocation.
const (
	// maxTokenLen bounds structural tokens. The longest is the
	// 13-byte archive magic.
	maxTokenLen = 16
	// maxNameLen bounds directory entry names (filesystem name limit).
	maxNameLen = 255
	// maxTargetLen bounds symlink targets (PATH_MAX).
	maxTargetLen = 4096
)

// Reader parses one archive from a sequential byte stream.
type Reader struct {
	r        io.Reader
	rootRead bool
}

// NewReader validates the archive magic on r and returns a Reader
// positioned at the root node.
func NewReader(r io.Reader) (*Reader, error) {
	reader := &Reader{r: r}
	got, err := reader.readString(maxTokenLen)
	if err != nil {
		return nil, fmt.Errorf("reading archive magic: %w", err)
	}
	if got != magic {
		return nil, fmt.Errorf("bad archive magic %q", got)
	}
	return reader, nil
}

// Root parses and returns the archive's single root node. Call exactly
// once per Reader.
func (r *Reader) Root() (Node, error) {
	if r.rootRead {
		return nil, fmt.Errorf("root node already read")
	}
	r.rootRead = true
	return r.parseNode()
}

// parseNode consumes a node header and returns the typed node. File
// contents and directory entries are left on the stream for the
// returned node to serve.
func (r *Reader) parseNode() (Node, error) {
	if err := r.expectToken(tokenOpen); err != nil {
		return nil, err
	}
	if err := r.expectToken(tokenType); err != nil {
		return nil, err
	}
	kind, err := r.readString(maxTokenLen)
	if err != nil {
		return nil, fmt.Errorf("reading node type: %w", err)
	}
	switch kind {
	case tokenRegular:
		return r.parseFile()
	case tokenSymlink:
		return r.parseSymlink()
	case tokenDirectory:
		return &Directory{reader: r}, nil
	}
	return nil, fmt.Errorf("unknown node type %q", kind)
}

func (r *Reader) parseFile() (*File, error) {
	token, err := r.readString(maxTokenLen)
	if err != nil {
		return nil, fmt.Errorf("reading file token: %w", err)
	}
	executable := false
	if token == tokenExecutable {
		// The executable flag carries an empty string value.
		if err := r.expectToken(""); err != nil {
			return nil, err
		}
		executable = true
		token, err = r.readString(maxTokenLen)
		if err != nil {
			return nil, fmt.Errorf("reading file token: %w", err)
		}
	}
	if token != tokenContents {
		return nil, fmt.Errorf("expected token %q, found %q", tokenContents, token)
	}
	size, err := r.readLength()
	if err != nil {
		return nil, fmt.Errorf("reading file size: %w", err)
	}
	return &File{
		Size:       size,
		Executable: executable,
		reader:     r,
		remaining:  size,
	}, nil
}

func (r *Reader) parseSymlink() (*Symlink, error) {
	if err := r.expectToken(tokenTarget); err != nil {
		return nil, err
	}
	target, err := r.readString(maxTargetLen)
	if err != nil {
		return nil, fmt.Errorf("reading symlink target: %w", err)
	}
	if target == "" {
		return nil, fmt.Errorf("empty symlink target")
	}
	if err := r.expectToken(tokenClose); err != nil {
		return nil, err
	}
	return &Symlink{Target: target}, nil
}

// readLength reads one 8-byte little-endian length word. A stream that
// ends where a length is required is truncated, so a clean EOF is
// reported as io.ErrUnexpectedEOF; io.EOF is reserved for the
// directory cursor's end-of-entries signal.
func (r *Reader) readLength() (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r.r, buf[:]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// readString reads one length-prefixed string of at most limit bytes,
// consuming its padding.
func (r *Reader) readString(limit uint64) (string, error) {
	length, err := r.readLength()
	if err != nil {
		return "", err
	}
	if length > limit {
		return "", fmt.Errorf("string length %d exceeds limit %d", length, limit)
	}
	buf := make([]byte, int(length))
	if _, err := io.ReadFull(r.r, buf); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return "", fmt.Errorf("reading %d-byte string: %w", length, err)
	}
	if err := r.readPadding(length); err != nil {
		return "", err
	}
	return string(buf), nil
}

// readPadding consumes the zero padding that aligns a length-byte
// string to an 8-byte boundary.
func (r *Reader) readPadding(length uint64) error {
	pad := int(length % 8)
	if pad == 0 {
		return nil
	}
	pad = 8 - pad
	var buf [8]byte
	if _, err := io.ReadFull(r.r, buf[:pad]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return fmt.Errorf("reading padding: %w", err)
	}
	for _, b := range buf[:pad] {
		if b != 0 {
			return fmt.Errorf("nonzero padding byte 0x%02x", b)
		}
	}
	return nil
}

func (r *Reader) expectToken(want string) error {
	got, err := r.readString(maxTokenLen)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("expected token %q, found %q", want, got)
	}
	return nil
}
