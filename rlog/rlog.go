// Package rlog supplies the structured logger that Decoder.DecodeRaw
// accepts through DecodeOptions. It generalizes the
// teacher's Control-struct-gated fmt.Printf calls (jpeg.go's Warn/
// Markers/Mcu/Du flags) into a log/slog.Logger, defaulting to a
// tint-backed text handler when the caller supplies none.
package rlog

import (
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
)

// Default returns a slog.Logger backed by tint, writing to stderr,
// discarding anything below slog.LevelInfo so the decode hot path
// never pays for trace-level formatting unless asked for it.
func Default() *slog.Logger {
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level: slog.LevelInfo,
	}))
}

// Verbose returns a Default-shaped logger at LevelDebug, for callers
// that want per-marker / per-tile tracing (the teacher's Control.Markers
// / Control.Mcu / Control.Du flags, generalized).
func Verbose() *slog.Logger {
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level: slog.LevelDebug,
	}))
}

// OrDefault returns l if non-nil, else Default(). Every package in this
// module that accepts an optional *slog.Logger through its options
// struct should route it through here rather than checking for nil at
// every call site.
func OrDefault(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return Default()
}
