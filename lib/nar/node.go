// Copyright 2026 The Nargate Authors
// SPDX-License-Identifier: Apache-2.0

package nar

import (
	"fmt"
	"io"
	"strings"
)

// Node is one parsed archive member. Exactly one of *File, *Symlink,
// or *Directory.
//
// A node borrows the Reader's stream position. Before the enclosing
// directory cursor may advance past it, the node must be fully
// consumed, either by reading it to completion or by calling Drain.
type Node interface {
	// Drain consumes the node's remaining payload, leaving the
	// stream positioned after the node.
	Drain() error
}

// File is a regular file member. It serves the file contents through
// Read, byte for byte as stored in the archive.
type File struct {
	// Size is the exact content length in bytes.
	Size uint64
	// Executable reports whether the member carries the executable
	// flag.
	Executable bool

	reader    *Reader
	remaining uint64
	finished  bool
}

// Read serves the file contents and reports io.EOF once all Size
// bytes are delivered. The trailing padding and node close are
// consumed with the final content byte, so the stream is positioned
// at the next sibling as soon as Read reports io.EOF.
func (f *File) Read(p []byte) (int, error) {
	if f.remaining == 0 {
		if err := f.finish(); err != nil {
			return 0, err
		}
		return 0, io.EOF
	}
	if uint64(len(p)) > f.remaining {
		p = p[:f.remaining]
	}
	n, err := f.reader.r.Read(p)
	f.remaining -= uint64(n)
	if err == io.EOF && f.remaining > 0 {
		err = io.ErrUnexpectedEOF
	}
	if err == io.EOF {
		err = nil
	}
	if err == nil && f.remaining == 0 {
		err = f.finish()
	}
	return n, err
}

// finish consumes the content padding and the node close token.
func (f *File) finish() error {
	if f.finished {
		return nil
	}
	if err := f.reader.readPadding(f.Size); err != nil {
		return err
	}
	if err := f.reader.expectToken(tokenClose); err != nil {
		return err
	}
	f.finished = true
	return nil
}

// Drain consumes the remaining file contents.
func (f *File) Drain() error {
	if _, err := io.Copy(io.Discard, f); err != nil {
		return err
	}
	return nil
}

// Symlink is a symbolic link member. Its encoding is consumed during
// parsing, so the node is born drained.
type Symlink struct {
	// Target is the link target path.
	Target string
}

// Drain is a no-op; a symlink has no payload beyond its header.
func (s *Symlink) Drain() error { return nil }

// Directory is a directory member. Entries arrive through Next in
// archive order, which the format defines as sorted by name.
type Directory struct {
	reader *Reader
	// entryOpen reports that the previous entry's wrapper is still
	// unclosed on the stream.
	entryOpen bool
	done      bool
}

// Entry is one directory member yielded by Next. Its Node must be
// fully consumed before the next Next call.
type Entry struct {
	// Name is the member's file name within the directory.
	Name string
	// Node is the member itself.
	Node Node
}

// Next returns the next directory entry, or io.EOF after the last
// one. The previous entry's node must already be fully consumed; Next
// trusts the stream position and reports a format error otherwise.
func (d *Directory) Next() (*Entry, error) {
	if d.done {
		return nil, io.EOF
	}
	if d.entryOpen {
		if err := d.reader.expectToken(tokenClose); err != nil {
			return nil, fmt.Errorf("closing directory entry: %w", err)
		}
		d.entryOpen = false
	}
	token, err := d.reader.readString(maxTokenLen)
	if err != nil {
		return nil, fmt.Errorf("reading directory token: %w", err)
	}
	switch token {
	case tokenClose:
		d.done = true
		return nil, io.EOF
	case tokenEntry:
	default:
		return nil, fmt.Errorf("unexpected token %q in directory", token)
	}
	if err := d.reader.expectToken(tokenOpen); err != nil {
		return nil, err
	}
	if err := d.reader.expectToken(tokenName); err != nil {
		return nil, err
	}
	name, err := d.reader.readString(maxNameLen)
	if err != nil {
		return nil, fmt.Errorf("reading entry name: %w", err)
	}
	if err := validateEntryName(name); err != nil {
		return nil, err
	}
	if err := d.reader.expectToken(tokenNode); err != nil {
		return nil, err
	}
	node, err := d.reader.parseNode()
	if err != nil {
		return nil, fmt.Errorf("parsing entry %q: %w", name, err)
	}
	d.entryOpen = true
	return &Entry{Name: name, Node: node}, nil
}

// Drain consumes all remaining entries, recursively.
func (d *Directory) Drain() error {
	for {
		entry, err := d.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := entry.Node.Drain(); err != nil {
			return err
		}
	}
}

// validateEntryName rejects names that cannot be legitimate directory
// members. The format forbids empty names, the dot names, and names
// containing a slash or NUL.
func validateEntryName(name string) error {
	if name == "" {
		return fmt.Errorf("empty entry name")
	}
	if name == "." || name == ".." {
		return fmt.Errorf("invalid entry name %q", name)
	}
	if strings.ContainsAny(name, "/\x00") {
		return fmt.Errorf("invalid character in entry name %q", name)
	}
	return nil
}
