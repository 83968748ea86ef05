// Copyright 2026 The Nargate Authors
// SPDX-License-Identifier: Apache-2.0

// Nargate is the CLI for the nargate gateway. It provides the serve
// subcommand, which runs an HTTP gateway that streams single files out
// of a remote compressed archive store, and version, which reports
// build information.
package main
