// Copyright 2026 The Nargate Authors
// SPDX-License-Identifier: Apache-2.0

// Package serve implements the nargate serve subcommand: the gateway
// process itself. It wires the tuning config, the structured logger,
// the gateway handler, and the HTTP server lifecycle together and
// runs until interrupted.
package serve

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/spf13/pflag"

	"github.com/nargate/nargate/cmd/nargate/cli"
	"github.com/nargate/nargate/lib/config"
	"github.com/nargate/nargate/lib/gateway"
	"github.com/nargate/nargate/lib/service"
	"github.com/nargate/nargate/lib/version"
)

// listenAddress is where the gateway binds. The address is fixed:
// nargate fronts a remote store for local consumers and is not meant
// to be exposed directly. Put a reverse proxy in front if you need
// anything else.
const listenAddress = "127.0.0.1:8080"

// Command returns the "serve" command.
func Command() *cli.Command {
	var configPath string

	return &cli.Command{
		Name:    "serve",
		Summary: "Run the gateway against an archive store",
		Usage:   "nargate serve <store-url> [flags]",
		Description: `Run the gateway against a remote archive store.

The gateway listens on ` + listenAddress + ` and serves one file per
request: the request path names a store object by its 32-character
hash plus an optional path inside the object's archive, and the
response body is that file's bytes, decompressed and streamed straight
out of the archive.

Two request path forms are accepted:

  /nix/store/<hash>-<name>/<path...>   full store path form
  /<hash>/<anything...>                bare hash form

The store URL is the base URL the gateway fetches .narinfo records
and archive bodies from, for example https://cache.nixos.org.

Tuning (chunk size, relay buffering, log level) comes from an
optional YAML config file, found via --config or the NARGATE_CONFIG
environment variable. Without one, built-in defaults apply.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("serve", pflag.ContinueOnError)
			flagSet.StringVar(&configPath, "config", "", "tuning config file (overrides NARGATE_CONFIG)")
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Serve files from the public cache",
				Command:     "nargate serve https://cache.nixos.org",
			},
			{
				Description: "Serve with custom relay tuning",
				Command:     "nargate serve https://cache.nixos.org --config /etc/nargate.yaml",
			},
		},
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: nargate serve <store-url>")
			}
			storeURL := args[0]

			parsed, err := url.Parse(storeURL)
			if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
				return fmt.Errorf("store URL must be http or https: %q", storeURL)
			}

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			// The command logger writes human-readable output; the
			// long-running gateway wants the JSON service logger at
			// the configured level instead.
			logger := service.NewLogger(cfg.Log.SlogLevel())

			handler := gateway.NewHandler(gateway.HandlerConfig{
				StoreURL:    storeURL,
				Logger:      logger,
				ChunkSize:   cfg.Relay.ChunkSize,
				BufferSlots: cfg.Relay.BufferSlots,
			})

			server := service.NewHTTPServer(service.HTTPServerConfig{
				Address: listenAddress,
				Handler: handler,
				Logger:  logger,
			})

			logger.Info("starting gateway",
				"version", version.Info(),
				"store_url", storeURL,
				"chunk_size", cfg.Relay.ChunkSize,
				"buffer_slots", cfg.Relay.BufferSlots,
			)
			return server.Serve(ctx)
		},
	}
}

// loadConfig resolves the tuning config: an explicit --config path
// wins over the NARGATE_CONFIG environment variable, which falls back
// to defaults when unset.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}
