package slog

import (
	"io"
	"log/slog"
	"strings"

	"github.com/fwojciec/pageflow"
)

// Log output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// NewLogger returns a logger writing to w at the named level ("debug",
// "info", "warn" or "error") in the given format.
func NewLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, pageflow.Errorf(pageflow.EINVALID, "invalid log level %q", level)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case FormatText, "":
		handler = slog.NewTextHandler(w, opts)
	case FormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	default:
		return nil, pageflow.Errorf(pageflow.EINVALID, "invalid log format %q", format)
	}
	return slog.New(handler), nil
}
