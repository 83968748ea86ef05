// Copyright 2026 The Nargate Authors
// SPDX-License-Identifier: Apache-2.0

// Narinfod is a metadata-echo server: it accepts the same request
// paths as the gateway, fetches the store's .narinfo record for the
// named hash, and re-emits the raw record text. It never opens the
// archive. It predates the gateway and survives as a debugging aid
// for inspecting what a store actually returns.
//
// Usage:
//
//	narinfod <store-url>
//
// The server binds 127.0.0.1:8080 and runs until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/nargate/nargate/lib/narinfo"
	"github.com/nargate/nargate/lib/service"
	"github.com/nargate/nargate/lib/storepath"
	"github.com/nargate/nargate/lib/version"
)

const listenAddress = "127.0.0.1:8080"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var showVersion bool
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("narinfod %s\n", version.Info())
		return nil
	}

	args := flag.Args()
	if len(args) != 1 {
		return fmt.Errorf("usage: narinfod <store-url>")
	}
	storeURL := args[0]

	parsed, err := url.Parse(storeURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return fmt.Errorf("store URL must be http or https: %q", storeURL)
	}

	logger := service.NewLogger(slog.LevelInfo)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := service.NewHTTPServer(service.HTTPServerConfig{
		Address: listenAddress,
		Handler: &handler{
			fetcher: narinfo.NewFetcher(storeURL, nil),
			logger:  logger,
		},
		Logger: logger,
	})

	logger.Info("starting metadata echo server", "store_url", storeURL)
	return server.Serve(ctx)
}

// handler fetches and echoes raw metadata records. The request path
// grammar and the 404/502 mapping match the gateway; only the body
// differs.
type handler struct {
	fetcher *narinfo.Fetcher
	logger  *slog.Logger
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ref, err := storepath.Parse(strings.TrimPrefix(r.URL.Path, "/"))
	if err != nil {
		h.logger.Info("rejecting request", "path", r.URL.Path, "error", err)
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	raw, err := h.fetcher.Fetch(r.Context(), ref.Hash)
	if err != nil {
		h.logger.Error("narinfo fetch failed", "hash", ref.Hash, "error", err)
		http.Error(w, "failed to fetch narinfo", http.StatusBadGateway)
		return
	}

	h.logger.Info("echoing narinfo", "hash", ref.Hash, "bytes", len(raw))
	w.Header().Set("Content-Type", "text/x-nix-narinfo")
	w.Write(raw)
}
