// Copyright 2026 The Nargate Authors
// SPDX-License-Identifier: Apache-2.0

// Package gateway serves single files out of a remote compressed
// archive store over plain HTTP.
//
// A request path names a store object hash and a file inside that
// object's archive. The handler resolves the hash to a metadata
// record, fetches the compressed archive the record points at, and
// relays the named file's bytes to the client while the archive
// downloads. Nothing is cached and nothing is buffered beyond the
// relay's chunk buffer, so the gateway's memory use is independent of
// archive size.
package gateway

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nargate/nargate/lib/nar"
	"github.com/nargate/nargate/lib/narcodec"
	"github.com/nargate/nargate/lib/narinfo"
	"github.com/nargate/nargate/lib/netutil"
	"github.com/nargate/nargate/lib/storepath"
)

const (
	// DefaultChunkSize is the relay chunk size in bytes.
	DefaultChunkSize = 8192
	// DefaultBufferSlots is the relay buffer capacity in chunks.
	DefaultBufferSlots = 8192
)

// HandlerConfig configures a Handler.
type HandlerConfig struct {
	// StoreURL is the base URL of the upstream store, for example
	// "https://cache.nixos.org". Required.
	StoreURL string

	// Client issues upstream requests. Defaults to
	// http.DefaultClient.
	Client *http.Client

	// Logger receives request and stream logs. Required.
	Logger *slog.Logger

	// ChunkSize overrides DefaultChunkSize when positive.
	ChunkSize int

	// BufferSlots overrides DefaultBufferSlots when positive.
	BufferSlots int
}

// Handler is the gateway's HTTP surface. It treats every request path
// as a store path, so it is mounted as a catch-all rather than under
// a route table.
type Handler struct {
	storeURL    string
	client      *http.Client
	logger      *slog.Logger
	fetcher     *narinfo.Fetcher
	chunkSize   int
	bufferSlots int
}

// NewHandler validates cfg and returns a ready Handler. It panics if
// a required field is missing.
func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.StoreURL == "" {
		panic("gateway.Handler: StoreURL is required")
	}
	if cfg.Logger == nil {
		panic("gateway.Handler: Logger is required")
	}
	client := cfg.Client
	if client == nil {
		client = http.DefaultClient
	}
	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	bufferSlots := cfg.BufferSlots
	if bufferSlots <= 0 {
		bufferSlots = DefaultBufferSlots
	}
	return &Handler{
		storeURL:    strings.TrimRight(cfg.StoreURL, "/"),
		client:      client,
		logger:      cfg.Logger,
		fetcher:     narinfo.NewFetcher(cfg.StoreURL, client),
		chunkSize:   chunkSize,
		bufferSlots: bufferSlots,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	started := time.Now()
	ctx := r.Context()

	ref, err := storepath.Parse(strings.TrimPrefix(r.URL.Path, "/"))
	if err != nil {
		h.logger.Info("rejecting request", "url_path", r.URL.Path, "error", err)
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	logger := h.logger.With("hash", ref.Hash, "path", ref.Path)

	logger.Info("fetching narinfo")
	record, err := h.fetcher.Fetch(ctx, ref.Hash)
	if err != nil {
		logger.Error("narinfo fetch failed", "error", err)
		http.Error(w, "failed to fetch narinfo", http.StatusBadGateway)
		return
	}
	info, err := narinfo.Parse(record)
	if err != nil {
		logger.Error("narinfo parse failed", "error", err)
		http.Error(w, "failed to parse narinfo", http.StatusInternalServerError)
		return
	}

	archiveURL := h.storeURL + "/" + info.URL
	logger.Info("fetching archive", "url", archiveURL, "compression", info.Compression)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, archiveURL, nil)
	if err != nil {
		logger.Error("building archive request failed", "url", archiveURL, "error", err)
		http.Error(w, "failed to fetch archive", http.StatusInternalServerError)
		return
	}
	resp, err := h.client.Do(req)
	if err != nil {
		logger.Error("archive fetch failed", "url", archiveURL, "error", err)
		http.Error(w, "failed to fetch archive", http.StatusInternalServerError)
		return
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := netutil.ErrorBody(resp.Body)
		resp.Body.Close()
		logger.Error("archive fetch failed",
			"url", archiveURL,
			"status", resp.StatusCode,
			"detail", detail)
		http.Error(w, "failed to fetch archive", http.StatusBadGateway)
		return
	}

	archive, err := narcodec.Wrap(resp.Body, info.Compression)
	if err != nil {
		resp.Body.Close()
		logger.Error("opening archive stream failed", "compression", info.Compression, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// The status commits here. Everything after this point can only
	// end the body early and log.
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)

	rl := newRelay(h.bufferSlots)
	go h.produce(ctx, logger, archive, resp.Body, ref.Path, rl)

	written, err := rl.copyTo(w)
	if err != nil {
		if netutil.IsExpectedCloseError(err) {
			logger.Warn("client disconnected",
				"bytes_sent", written,
				"duration", time.Since(started))
		} else {
			logger.Error("writing response failed",
				"error", err,
				"bytes_sent", written)
		}
		return
	}
	logger.Info("request served",
		"bytes_sent", written,
		"duration", time.Since(started))
}

// produce decodes the archive and walks it toward path, relaying the
// file contents. It owns both the decoder and the raw response body
// and runs after the response status is committed, so every failure
// here is logged rather than reported to the client.
func (h *Handler) produce(ctx context.Context, logger *slog.Logger, archive io.ReadCloser, raw io.Closer, path string, rl *relay) {
	defer rl.close()
	defer raw.Close()
	defer archive.Close()

	reader, err := nar.NewReader(archive)
	if err != nil {
		logger.Error("opening archive failed", "error", err)
		return
	}
	root, err := reader.Root()
	if err != nil {
		logger.Error("reading archive root failed", "error", err)
		return
	}
	if err := walk(ctx, root, path, rl, h.chunkSize); err != nil {
		// A disconnect surfaces either as a refused send or as a
		// canceled body read while draining; neither is a failure.
		if errors.Is(err, errConsumerGone) || errors.Is(err, context.Canceled) {
			logger.Debug("stream abandoned", "path", path)
			return
		}
		logger.Error("archive walk failed", "error", err)
	}
}
