// Package logging centralises the zap configuration shared by the
// cmd/spdy3get example and any test harness that wants connection
// diagnostics without wiring zap options by hand everywhere.
package logging

import "go.uber.org/zap"

// New returns a development-mode logger (human-readable console
// output, debug level) when debug is true, and otherwise a logger built
// from zap's production config (JSON output, info level) with stack
// traces disabled. It is used by the example CLI.
func New(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	return cfg.Build()
}

// Nop returns a logger that discards everything, for callers that
// don't want WithLogger wired at all.
func Nop() *zap.Logger {
	return zap.NewNop()
}
