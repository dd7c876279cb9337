// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package adstudio

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/gg"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called while sessions log from other goroutines.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for adstudio and all its sub-packages.
// By default, adstudio produces no log output.
//
// The logger is forwarded to gg so rasterizer diagnostics end up in the
// same stream. Pass nil to restore the silent default.
//
// Log levels used by adstudio:
//   - [slog.LevelDebug]: pointer transitions, per-element export decisions
//   - [slog.LevelInfo]: exports written, server lifecycle
//   - [slog.LevelWarn]: degraded collaborator calls, skipped elements
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
	gg.SetLogger(l)
}

// Logger returns the current logger used by adstudio.
// Sub-packages call this to share one logger configuration.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
