// Copyright 2026 The Nargate Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"io"
	"net/http"
)

// relay hands chunks from the archive walker to the response writer.
// The channel's capacity is the only buffering between the upstream
// store and the client; when the client reads slowly the walker blocks
// in send once the buffer fills.
type relay struct {
	ch chan []byte
}

func newRelay(slots int) *relay {
	return &relay{ch: make(chan []byte, slots)}
}

// send delivers one chunk, blocking while the buffer is full. It
// reports false when ctx ends before the chunk is accepted, which
// means the consumer is gone and no further sends can succeed.
func (rl *relay) send(ctx context.Context, chunk []byte) bool {
	select {
	case rl.ch <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}

// close marks the end of the stream. Producer side only, after the
// final send.
func (rl *relay) close() {
	close(rl.ch)
}

// copyTo writes relayed chunks to w until the producer closes the
// relay or a write fails, flushing after every chunk so bytes reach
// the client as they arrive. It returns the byte count written.
func (rl *relay) copyTo(w io.Writer) (int64, error) {
	flusher, _ := w.(http.Flusher)
	var written int64
	for chunk := range rl.ch {
		n, err := w.Write(chunk)
		written += int64(n)
		if err != nil {
			return written, err
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
	return written, nil
}
