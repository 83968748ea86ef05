// Copyright 2026 The Nargate Authors
// SPDX-License-Identifier: Apache-2.0

// Narget is a single-shot downloader: it fetches one URL and streams
// the body to a file or stdout. It predates the gateway and has no
// archive semantics; it survives as a minimal probe for checking that
// a store endpoint is reachable and serving bytes.
//
// Usage:
//
//	narget <url> [output]
//
// With no output argument, or with "-", the body goes to stdout.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nargate/nargate/lib/netutil"
	"github.com/nargate/nargate/lib/service"
	"github.com/nargate/nargate/lib/version"
)

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
		fmt.Printf("narget %s\n", version.Info())
		return nil
	}

	args := flag.Args()
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("usage: narget <url> [output]")
	}
	fetchURL := args[0]
	output := "-"
	if len(args) == 2 {
		output = args[1]
	}

	logger := service.NewLogger(slog.LevelInfo)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return fetch(ctx, logger, fetchURL, output)
}

// fetch downloads fetchURL and streams the body to the named output
// file, or to stdout when output is "-".
func fetch(ctx context.Context, logger *slog.Logger, fetchURL, output string) error {
	started := time.Now()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	response, err := http.DefaultClient.Do(request)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", fetchURL, err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		detail := netutil.ErrorBody(response.Body)
		return fmt.Errorf("fetching %s: status %d: %s", fetchURL, response.StatusCode, detail)
	}

	var out io.Writer
	if output == "-" {
		out = os.Stdout
	} else {
		file, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer file.Close()
		out = file
	}

	written, err := io.Copy(out, response.Body)
	if err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	logger.Info("download complete",
		"url", fetchURL,
		"bytes", written,
		"duration", time.Since(started),
	)
	return nil
}
