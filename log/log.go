// Copyright (c) 2026 The Lockstone developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package log provides the process-wide structured logger. Packages grab a
// contextual child via WithContext("pkg", name) and log through slog.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// Logger is the logging handle handed out to packages.
type Logger = *slog.Logger

var (
	rootLevel slog.LevelVar
	root      = slog.New(newTerminalHandler(os.Stderr, &rootLevel, isatty.IsTerminal(os.Stderr.Fd())))
)

// WithContext returns a logger carrying the given key/value context.
func WithContext(keyvals ...any) Logger {
	return root.With(keyvals...)
}

// Root returns the root logger.
func Root() Logger {
	return root
}

// SetLevel adjusts the process-wide log level.
func SetLevel(level slog.Level) {
	rootLevel.Set(level)
}

// ParseLevel maps a verbosity name to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", name)
	}
}

const termTimeFormat = "01-02|15:04:05.000"

// terminalHandler renders records in a human readable single-line format,
// colorized when attached to a terminal.
type terminalHandler struct {
	mu       sync.Mutex
	wr       io.Writer
	lvl      *slog.LevelVar
	useColor bool
	attrs    []slog.Attr
}

func newTerminalHandler(wr io.Writer, lvl *slog.LevelVar, useColor bool) *terminalHandler {
	return &terminalHandler{
		wr:       wr,
		lvl:      lvl,
		useColor: useColor,
	}
}

func (h *terminalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.lvl.Level()
}

func (h *terminalHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder

	label, color := levelLabel(r.Level)
	if h.useColor && color != "" {
		fmt.Fprintf(&b, "\x1b[%sm%s\x1b[0m", color, label)
	} else {
		b.WriteString(label)
	}
	fmt.Fprintf(&b, "[%s] %s", r.Time.Format(termTimeFormat), r.Message)

	writeAttr := func(a slog.Attr) bool {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value)
		return true
	}
	for _, a := range h.attrs {
		writeAttr(a)
	}
	r.Attrs(writeAttr)
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.wr, b.String())
	return err
}

func (h *terminalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &terminalHandler{
		wr:       h.wr,
		lvl:      h.lvl,
		useColor: h.useColor,
		attrs:    merged,
	}
}

func (h *terminalHandler) WithGroup(_ string) slog.Handler {
	return h
}

func levelLabel(level slog.Level) (label, color string) {
	switch {
	case level >= slog.LevelError:
		return "ERROR", "31"
	case level >= slog.LevelWarn:
		return "WARN ", "33"
	case level >= slog.LevelInfo:
		return "INFO ", "32"
	default:
		return "DEBUG", "36"
	}
}

var _ slog.Handler = (*terminalHandler)(nil)

// Timestamp formats a unix-seconds timestamp for log output.
func Timestamp(ts uint64) string {
	return time.Unix(int64(ts), 0).UTC().Format(time.RFC3339)
}
