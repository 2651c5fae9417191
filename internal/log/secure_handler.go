package log

import (
	"context"
	"io"
	"log/slog"
)

// SecureHandler is an slog.Handler that masks secrets before records reach
// the wrapped handler.
type SecureHandler struct {
	next slog.Handler
	r    *redactor
}

// NewSecureHandler wraps next. A nil next falls back to slog.Default().Handler().
func NewSecureHandler(next slog.Handler) *SecureHandler {
	if next == nil {
		next = slog.Default().Handler()
	}
	return &SecureHandler{next: next, r: defaultRedactor}
}

// Enabled implements slog.Handler.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *SecureHandler) Handle(ctx context.Context, rec slog.Record) error {
	clean := slog.NewRecord(rec.Time, rec.Level, rec.Message, rec.PC)
	rec.Attrs(func(a slog.Attr) bool {
		clean.AddAttrs(h.scrub(a))
		return true
	})
	return h.next.Handle(ctx, clean)
}

// WithAttrs implements slog.Handler.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &SecureHandler{next: h.next.WithAttrs(h.scrubAll(attrs)), r: h.r}
}

// WithGroup implements slog.Handler.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{next: h.next.WithGroup(name), r: h.r}
}

func (h *SecureHandler) scrubAll(attrs []slog.Attr) []slog.Attr {
	out := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, h.scrub(a))
	}
	return out
}

func (h *SecureHandler) scrub(a slog.Attr) slog.Attr {
	v := a.Value.Resolve()

	switch {
	case v.Kind() == slog.KindGroup:
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(h.scrubAll(v.Group())...)}
	case h.r.secretKey(a.Key):
		return slog.String(a.Key, MaskValue)
	case v.Kind() != slog.KindString:
		return slog.Attr{Key: a.Key, Value: v}
	}

	s := v.String()
	if h.r.secretValue(s) {
		return slog.String(a.Key, MaskValue)
	}
	if masked, ok := h.r.scrubURL(s); ok {
		return slog.String(a.Key, masked)
	}
	return slog.String(a.Key, s)
}

// NewSecureLogger returns a text logger on w that masks secrets.
// verbose enables Debug; otherwise only warnings and errors are written.
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewTextHandler(w, levelOptions(verbose))))
}

// NewSecureJSONLogger is NewSecureLogger with JSON output, used by the API server.
func NewSecureJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewJSONHandler(w, levelOptions(verbose))))
}

func levelOptions(verbose bool) *slog.HandlerOptions {
	opts := &slog.HandlerOptions{Level: slog.LevelWarn}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	return opts
}
