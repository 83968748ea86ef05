// Copyright 2026 The Nargate Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for Nargate
// binaries.
//
// Configuration is loaded from a single file specified by either the
// NARGATE_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks and no automatic file
// search. Unlike the store URL, which is always given on the command
// line, everything in the file is tuning with a working default, so a
// missing NARGATE_CONFIG simply yields [Default].
//
// Environment variables never override file values.
//
// Key exports:
//
//   - [Config] -- master struct with Relay and Log sections
//   - [Default] -- returns a Config with the built-in defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends only on the gateway package's default
// constants.
package config
