// Copyright 2026 The Nargate Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the nargate CLI command tree.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nargate/nargate/cmd/nargate/cli"
	"github.com/nargate/nargate/cmd/nargate/serve"
	"github.com/nargate/nargate/lib/version"
)

// Root builds and returns the complete nargate command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "nargate",
		Description: `Nargate: single-file gateway for compressed archive stores.

Serves individual files out of a remote content-addressed store
without downloading or unpacking whole archives: the gateway fetches
the store's metadata record, opens the compressed archive as a
stream, and relays exactly the bytes of the file you asked for.`,
		Subcommands: []*cli.Command{
			serve.Command(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(_ context.Context, args []string, _ *slog.Logger) error {
					fmt.Printf("nargate %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Serve files from the public cache",
				Command:     "nargate serve https://cache.nixos.org",
			},
			{
				Description: "Fetch one file through a running gateway",
				Command:     "curl http://127.0.0.1:8080/nix/store/8h6x8md74j4b4xcy4xd9y4cc210hhaxx-hello-2.12/bin/hello",
			},
			{
				Description: "Print version information",
				Command:     "nargate version",
			},
		},
	}
}
