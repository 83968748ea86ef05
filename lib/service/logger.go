// Copyright 2026 The Nargate Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"log/slog"
	"os"
)

// NewLogger creates the standard Nargate service logger: a JSON
// handler writing to stderr at the given level. It also sets the
// default slog logger so that library code using slog.Info etc. gets
// the same handler.
func NewLogger(level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}
