// Package logging holds dtbdump's package-level logger. The core dt
// package never logs: decode and encode are a pure sequence of in-memory
// cursor advances (spec §5 "Scheduling model"), so the only place
// diagnostic logging belongs is the CLI shell around it.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// L is the global logger, discarding everything until Init enables it.
var L *slog.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Options configures Init.
type Options struct {
	Enabled bool
	Level   slog.Level
}

// Init configures L for the process lifetime. Call once from main before
// any subcommand runs.
func Init(opts Options) {
	if !opts.Enabled {
		L = slog.New(slog.NewTextHandler(io.Discard, nil))
		return
	}
	L = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: opts.Level}))
}
