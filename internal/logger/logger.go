// Package logger holds the process-wide structured logger shared by the
// allocator and the heapctl command.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// L is the global logger instance. It's initialized to discard all output by default.
// Call Init() to enable logging.
var L = discard()

// Attribute keys shared across packages.
const (
	ErrorKey    = "err"
	AddrKey     = "addr"
	SizeKey     = "size"
	StrategyKey = "strategy"
	RunIDKey    = "run_id"
)

// Options configures the logger initialization.
type Options struct {
	Enabled bool       // If false, all logging is discarded
	Level   slog.Level // Minimum log level. Default: LevelInfo
	JSON    bool       // Emit JSON records instead of text
	Output  io.Writer  // Destination. Default: stderr, or File when set
	File    string     // Optional log file path; parent directories are created
}

// Init configures logging. Call from main() before any log calls.
// If opts.Enabled is false, all log output is discarded.
// The returned closer releases the log file, if one was opened.
func Init(opts Options) (io.Closer, error) {
	if !opts.Enabled {
		L = discard()
		return io.NopCloser(nil), nil
	}

	var closer io.Closer = io.NopCloser(nil)
	out := opts.Output
	if out == nil && opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, fmt.Errorf("logger: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("logger: %w", err)
		}
		out, closer = f, f
	}
	if out == nil {
		out = os.Stderr
	}

	L = New(out, opts.Level, opts.JSON)
	return closer, nil
}

// New builds a logger writing to w at the given level.
func New(w io.Writer, level slog.Level, json bool) *slog.Logger {
	ho := &slog.HandlerOptions{Level: level}
	if json {
		return slog.New(slog.NewJSONHandler(w, ho))
	}
	return slog.New(slog.NewTextHandler(w, ho))
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

/*
Error adds error to the log

	if err := f(); err != nil {
		log.Error("calling f", logger.Error(err))
	}
*/
func Error(err error) slog.Attr {
	return slog.Any(ErrorKey, err)
}

// Addr logs a region offset in hex.
func Addr(off int) slog.Attr {
	return slog.String(AddrKey, fmt.Sprintf("%#x", off))
}

// Size logs a byte count.
func Size(n int) slog.Attr {
	return slog.Int(SizeKey, n)
}
