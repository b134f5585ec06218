// Package testutil provides shared fixtures for tests: t.Log-backed and
// recording loggers, and a scripted analysis backend.
package testutil

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"testing"
)

// NewTestLogger returns a logger that writes to t.Log().
// Logs only appear on test failure or when running with -v.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

type testWriter struct {
	t testing.TB
}

func (w testWriter) Write(p []byte) (n int, err error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}

// LogEntry is one record kept by a LogRecorder.
type LogEntry struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// LogRecorder keeps every record logged through its logger, at all levels.
type LogRecorder struct {
	mu      sync.Mutex
	entries []LogEntry
}

// NewRecordingLogger returns a logger that records entries and also echoes
// them to t.Log().
func NewRecordingLogger(t testing.TB) (*slog.Logger, *LogRecorder) {
	t.Helper()
	rec := &LogRecorder{}
	echo := NewTestLogger(t).Handler()
	return slog.New(&recordingHandler{rec: rec, next: echo}), rec
}

// Entries returns a copy of the recorded entries.
func (r *LogRecorder) Entries() []LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.entries)
}

// Messages returns the messages logged at level, in order.
func (r *LogRecorder) Messages(level slog.Level) []string {
	var out []string
	for _, e := range r.Entries() {
		if e.Level == level {
			out = append(out, e.Message)
		}
	}
	return out
}

type recordingHandler struct {
	rec   *LogRecorder
	next  slog.Handler
	attrs []slog.Attr
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(ctx context.Context, r slog.Record) error {
	e := LogEntry{Level: r.Level, Message: r.Message, Attrs: map[string]any{}}
	for _, a := range h.attrs {
		e.Attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		e.Attrs[a.Key] = a.Value.Any()
		return true
	})

	h.rec.mu.Lock()
	h.rec.entries = append(h.rec.entries, e)
	h.rec.mu.Unlock()
	return h.next.Handle(ctx, r)
}

func (h *recordingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &recordingHandler{
		rec:   h.rec,
		next:  h.next.WithAttrs(attrs),
		attrs: append(slices.Clone(h.attrs), attrs...),
	}
}

// WithGroup drops the group name from recorded attrs; the echo keeps it.
func (h *recordingHandler) WithGroup(name string) slog.Handler {
	return &recordingHandler{rec: h.rec, next: h.next.WithGroup(name), attrs: h.attrs}
}
