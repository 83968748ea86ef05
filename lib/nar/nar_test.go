// Copyright 2026 The Nargate Authors
// SPDX-License-Identifier: Apache-2.0

package nar

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/nargate/nargate/lib/nar/nartest"
)

func TestReadRegularFile(t *testing.T) {
	contents := []byte("hello world\n")
	archive := nartest.Archive(nartest.File(contents, false))

	r, err := NewReader(bytes.NewReader(archive))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	node, err := r.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	file, ok := node.(*File)
	if !ok {
		t.Fatalf("Root returned %T, want *File", node)
	}
	if file.Size != uint64(len(contents)) {
		t.Errorf("Size = %d, want %d", file.Size, len(contents))
	}
	if file.Executable {
		t.Error("Executable = true, want false")
	}
	got, err := io.ReadAll(file)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, contents) {
		t.Errorf("contents = %q, want %q", got, contents)
	}
}

func TestReadExecutableFile(t *testing.T) {
	archive := nartest.Archive(nartest.File([]byte("#!/bin/sh\n"), true))

	r, err := NewReader(bytes.NewReader(archive))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	node, err := r.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	file, ok := node.(*File)
	if !ok {
		t.Fatalf("Root returned %T, want *File", node)
	}
	if !file.Executable {
		t.Error("Executable = false, want true")
	}
	if _, err := io.ReadAll(file); err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
}

func TestReadEmptyFile(t *testing.T) {
	archive := nartest.Archive(nartest.File(nil, false))

	r, err := NewReader(bytes.NewReader(archive))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	node, err := r.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	file := node.(*File)
	if file.Size != 0 {
		t.Errorf("Size = %d, want 0", file.Size)
	}
	got, err := io.ReadAll(file)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("contents = %q, want empty", got)
	}
}

func TestReadSymlink(t *testing.T) {
	archive := nartest.Archive(nartest.Symlink("../lib/libfoo.so.1"))

	r, err := NewReader(bytes.NewReader(archive))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	node, err := r.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	link, ok := node.(*Symlink)
	if !ok {
		t.Fatalf("Root returned %T, want *Symlink", node)
	}
	if link.Target != "../lib/libfoo.so.1" {
		t.Errorf("Target = %q, want %q", link.Target, "../lib/libfoo.so.1")
	}
}

// TestReadDirectoryTree walks a nested tree through the cursor and
// verifies entry order, node types, and that the stream is fully
// consumed at the end.
func TestReadDirectoryTree(t *testing.T) {
	appContents := []byte("#!/bin/sh\nexec true\n")
	readmeContents := []byte("nothing to see here\n")
	archive := nartest.Archive(nartest.Directory(
		nartest.Entry("bin", nartest.Directory(
			nartest.Entry("app", nartest.File(appContents, true)),
		)),
		nartest.Entry("link", nartest.Symlink("bin/app")),
		nartest.Entry("readme", nartest.File(readmeContents, false)),
	))

	src := bytes.NewReader(archive)
	r, err := NewReader(src)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	node, err := r.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	root, ok := node.(*Directory)
	if !ok {
		t.Fatalf("Root returned %T, want *Directory", node)
	}

	entry, err := root.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if entry.Name != "bin" {
		t.Fatalf("entry 1 name = %q, want %q", entry.Name, "bin")
	}
	bin, ok := entry.Node.(*Directory)
	if !ok {
		t.Fatalf("entry %q is %T, want *Directory", entry.Name, entry.Node)
	}
	app, err := bin.Next()
	if err != nil {
		t.Fatalf("Next in bin: %v", err)
	}
	if app.Name != "app" {
		t.Fatalf("bin entry name = %q, want %q", app.Name, "app")
	}
	appFile, ok := app.Node.(*File)
	if !ok {
		t.Fatalf("entry %q is %T, want *File", app.Name, app.Node)
	}
	if !appFile.Executable {
		t.Error("app not executable")
	}
	got, err := io.ReadAll(appFile)
	if err != nil {
		t.Fatalf("ReadAll app: %v", err)
	}
	if !bytes.Equal(got, appContents) {
		t.Errorf("app contents = %q, want %q", got, appContents)
	}
	if _, err := bin.Next(); err != io.EOF {
		t.Fatalf("Next past last bin entry = %v, want io.EOF", err)
	}

	entry, err = root.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if entry.Name != "link" {
		t.Fatalf("entry 2 name = %q, want %q", entry.Name, "link")
	}
	link, ok := entry.Node.(*Symlink)
	if !ok {
		t.Fatalf("entry %q is %T, want *Symlink", entry.Name, entry.Node)
	}
	if link.Target != "bin/app" {
		t.Errorf("link target = %q, want %q", link.Target, "bin/app")
	}

	entry, err = root.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if entry.Name != "readme" {
		t.Fatalf("entry 3 name = %q, want %q", entry.Name, "readme")
	}
	got, err = io.ReadAll(entry.Node.(*File))
	if err != nil {
		t.Fatalf("ReadAll readme: %v", err)
	}
	if !bytes.Equal(got, readmeContents) {
		t.Errorf("readme contents = %q, want %q", got, readmeContents)
	}

	if _, err := root.Next(); err != io.EOF {
		t.Fatalf("Next past last entry = %v, want io.EOF", err)
	}
	if src.Len() != 0 {
		t.Errorf("%d bytes left unconsumed after final entry", src.Len())
	}
}

// TestFileReadPositionsStreamAtSibling verifies that reading a file to
// EOF consumes its padding and close token, so the cursor can advance
// without any explicit skip.
func TestFileReadPositionsStreamAtSibling(t *testing.T) {
	archive := nartest.Archive(nartest.Directory(
		nartest.Entry("a", nartest.File([]byte("first"), false)),
		nartest.Entry("b", nartest.File([]byte("second"), false)),
	))

	r, err := NewReader(bytes.NewReader(archive))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	node, err := r.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	root := node.(*Directory)

	entry, err := root.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	file := entry.Node.(*File)
	if _, err := io.ReadAll(file); err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	// Reads past EOF stay at EOF.
	if n, err := file.Read(make([]byte, 8)); n != 0 || err != io.EOF {
		t.Fatalf("Read past EOF = (%d, %v), want (0, io.EOF)", n, err)
	}

	entry, err = root.Next()
	if err != nil {
		t.Fatalf("Next after full read: %v", err)
	}
	if entry.Name != "b" {
		t.Errorf("second entry name = %q, want %q", entry.Name, "b")
	}
	got, err := io.ReadAll(entry.Node.(*File))
	if err != nil {
		t.Fatalf("ReadAll second: %v", err)
	}
	if string(got) != "second" {
		t.Errorf("second contents = %q, want %q", got, "second")
	}
}

// TestDrainSkipsSubtree drains an unwanted nested directory and
// verifies the following sibling is served intact.
func TestDrainSkipsSubtree(t *testing.T) {
	archive := nartest.Archive(nartest.Directory(
		nartest.Entry("junk", nartest.Directory(
			nartest.Entry("blob", nartest.File(bytes.Repeat([]byte("x"), 64*1024), false)),
			nartest.Entry("link", nartest.Symlink("blob")),
		)),
		nartest.Entry("wanted", nartest.File([]byte("payload"), false)),
	))

	r, err := NewReader(bytes.NewReader(archive))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	node, err := r.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	root := node.(*Directory)

	entry, err := root.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if err := entry.Node.Drain(); err != nil {
		t.Fatalf("Drain: %v", err)
	}

	entry, err = root.Next()
	if err != nil {
		t.Fatalf("Next after drain: %v", err)
	}
	if entry.Name != "wanted" {
		t.Fatalf("entry name = %q, want %q", entry.Name, "wanted")
	}
	got, err := io.ReadAll(entry.Node.(*File))
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "payload" {
		t.Errorf("contents = %q, want %q", got, "payload")
	}
}

func TestDirectoryDrainConsumesEverything(t *testing.T) {
	archive := nartest.Archive(nartest.Directory(
		nartest.Entry("a", nartest.File([]byte("aaa"), false)),
		nartest.Entry("b", nartest.Directory(
			nartest.Entry("c", nartest.Symlink("../a")),
		)),
	))

	src := bytes.NewReader(archive)
	r, err := NewReader(src)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	node, err := r.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	if err := node.Drain(); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if src.Len() != 0 {
		t.Errorf("%d bytes left unconsumed after drain", src.Len())
	}
}

func TestBadMagic(t *testing.T) {
	r, err := NewReader(bytes.NewReader(nartest.String("not-an-archive")))
	if err == nil {
		t.Fatal("NewReader accepted bad magic")
	}
	if r != nil {
		t.Error("NewReader returned a reader alongside an error")
	}
	if !strings.Contains(err.Error(), "magic") {
		t.Errorf("error %q does not mention the magic", err)
	}
}

func TestRootSingleUse(t *testing.T) {
	archive := nartest.Archive(nartest.Symlink("x"))
	r, err := NewReader(bytes.NewReader(archive))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if _, err := r.Root(); err != nil {
		t.Fatalf("Root: %v", err)
	}
	if _, err := r.Root(); err == nil {
		t.Fatal("second Root call succeeded")
	}
}

func TestUnknownNodeType(t *testing.T) {
	raw := flatten(
		nartest.String("("), nartest.String("type"), nartest.String("fifo"),
		nartest.String(")"),
	)
	r, err := NewReader(bytes.NewReader(nartest.Archive(raw)))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if _, err := r.Root(); err == nil || !strings.Contains(err.Error(), "unknown node type") {
		t.Fatalf("Root = %v, want unknown node type error", err)
	}
}

func TestTruncatedArchive(t *testing.T) {
	contents := []byte("0123456789abcdef0123456789abcdef")
	archive := nartest.Archive(nartest.File(contents, false))

	t.Run("inside_magic", func(t *testing.T) {
		if _, err := NewReader(bytes.NewReader(archive[:5])); err == nil {
			t.Fatal("NewReader accepted truncated magic")
		}
	})

	t.Run("before_root", func(t *testing.T) {
		// The magic occupies the first 24 bytes.
		r, err := NewReader(bytes.NewReader(archive[:24]))
		if err != nil {
			t.Fatalf("NewReader: %v", err)
		}
		if _, err := r.Root(); !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Fatalf("Root = %v, want io.ErrUnexpectedEOF", err)
		}
	})

	t.Run("inside_contents", func(t *testing.T) {
		r, err := NewReader(bytes.NewReader(archive[:len(archive)-30]))
		if err != nil {
			t.Fatalf("NewReader: %v", err)
		}
		node, err := r.Root()
		if err != nil {
			t.Fatalf("Root: %v", err)
		}
		if _, err := io.ReadAll(node.(*File)); !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Fatalf("ReadAll = %v, want io.ErrUnexpectedEOF", err)
		}
	})

	t.Run("missing_close_token", func(t *testing.T) {
		// Drop the trailing ")" string (16 bytes).
		r, err := NewReader(bytes.NewReader(archive[:len(archive)-16]))
		if err != nil {
			t.Fatalf("NewReader: %v", err)
		}
		node, err := r.Root()
		if err != nil {
			t.Fatalf("Root: %v", err)
		}
		if _, err := io.ReadAll(node.(*File)); !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Fatalf("ReadAll = %v, want io.ErrUnexpectedEOF", err)
		}
	})
}

func TestNonzeroPadding(t *testing.T) {
	corrupted := nartest.String("a")
	corrupted[9] = 0xff
	raw := flatten(
		nartest.String("("), nartest.String("type"), nartest.String("regular"),
		nartest.String("contents"), corrupted,
		nartest.String(")"),
	)
	r, err := NewReader(bytes.NewReader(nartest.Archive(raw)))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	node, err := r.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	if _, err := io.ReadAll(node.(*File)); err == nil || !strings.Contains(err.Error(), "padding") {
		t.Fatalf("ReadAll = %v, want padding error", err)
	}
}

func TestInvalidEntryNames(t *testing.T) {
	tests := []struct {
		name  string
		entry string
	}{
		{"empty", ""},
		{"dot", "."},
		{"dotdot", ".."},
		{"slash", "a/b"},
		{"nul", "a\x00b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			archive := nartest.Archive(nartest.Directory(
				nartest.Entry(tt.entry, nartest.Symlink("x")),
			))
			r, err := NewReader(bytes.NewReader(archive))
			if err != nil {
				t.Fatalf("NewReader: %v", err)
			}
			node, err := r.Root()
			if err != nil {
				t.Fatalf("Root: %v", err)
			}
			if _, err := node.(*Directory).Next(); err == nil {
				t.Fatalf("Next accepted entry name %q", tt.entry)
			}
		})
	}
}

func TestOversizedEntryName(t *testing.T) {
	archive := nartest.Archive(nartest.Directory(
		nartest.Entry(strings.Repeat("n", 300), nartest.Symlink("x")),
	))
	r, err := NewReader(bytes.NewReader(archive))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	node, err := r.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	if _, err := node.(*Directory).Next(); err == nil || !strings.Contains(err.Error(), "exceeds limit") {
		t.Fatalf("Next = %v, want length limit error", err)
	}
}

func TestEmptySymlinkTarget(t *testing.T) {
	archive := nartest.Archive(nartest.Symlink(""))
	r, err := NewReader(bytes.NewReader(archive))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if _, err := r.Root(); err == nil || !strings.Contains(err.Error(), "symlink target") {
		t.Fatalf("Root = %v, want empty target error", err)
	}
}

func flatten(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
