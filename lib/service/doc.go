// Copyright 2026 The Nargate Authors
// SPDX-License-Identifier: Apache-2.0

// Package service provides shared process scaffolding for Nargate
// binaries.
//
// A Nargate service is a standalone Go binary: the gateway itself and
// the small diagnostic daemons that ship alongside it. This package
// holds the pieces every one of them needs:
//
//   - HTTP server lifecycle: listener bind, readiness signaling, and
//     graceful shutdown driven by context cancellation.
//   - Logging: the standard JSON-to-stderr service logger.
//
// Binaries compose these utilities in their own main() function
// rather than subclassing a framework. The package provides building
// blocks, not a runtime.
package service
