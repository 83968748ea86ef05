// Copyright 2026 The Nargate Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nargate/nargate/lib/nar"
)

// errConsumerGone reports that the receiving end of the relay stopped
// accepting chunks. It terminates the walk without marking the
// archive corrupt.
var errConsumerGone = errors.New("consumer gone")

// walk advances the archive cursor toward the member named by path and
// streams its contents into the relay. The cursor is single-pass, so
// every node the walk does not descend into is drained to keep the
// stream positioned; the walk therefore always consumes node to its
// end, even after the target has been streamed.
//
// path is relative to node, slash-separated, with the empty string
// addressing node itself. Only a regular file at the exact path
// produces output; a path ending at a directory or symlink streams
// nothing.
func walk(ctx context.Context, node nar.Node, path string, rl *relay, chunkSize int) error {
	switch n := node.(type) {
	case *nar.File:
		if path != "" {
			return n.Drain()
		}
		return streamFile(ctx, n, rl, chunkSize)
	case *nar.Symlink:
		return nil
	case *nar.Directory:
		segment, rest, _ := strings.Cut(path, "/")
		for {
			entry, err := n.Next()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			if path != "" && entry.Name == segment {
				if err := walk(ctx, entry.Node, rest, rl, chunkSize); err != nil {
					return err
				}
				continue
			}
			if err := entry.Node.Drain(); err != nil {
				return err
			}
		}
	}
	return fmt.Errorf("unhandled node %T", node)
}

// streamFile relays the file contents in chunkSize pieces. Each chunk
// is copied out of the read buffer because the consumer holds it
// after send returns.
func streamFile(ctx context.Context, file *nar.File, rl *relay, chunkSize int) error {
	buf := make([]byte, chunkSize)
	for {
		n, err := file.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			if !rl.send(ctx, chunk) {
				return errConsumerGone
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
