package log

import (
	"context"
	"io"
	"log/slog"
)

// SecureHandler wraps an slog.Handler and passes every attribute through a
// Redactor before the wrapped handler sees it.
type SecureHandler struct {
	handler  slog.Handler
	redactor *Redactor
}

// NewSecureHandler creates a SecureHandler around handler. A nil handler
// falls back to slog.Default().Handler() and a nil redactor to the default
// rules.
func NewSecureHandler(handler slog.Handler, redactor *Redactor) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	if redactor == nil {
		redactor = NewRedactor()
	}
	return &SecureHandler{handler: handler, redactor: redactor}
}

// Enabled implements slog.Handler.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	redacted := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		redacted.AddAttrs(h.redactor.Attr(a))
		return true
	})
	return h.handler.Handle(ctx, redacted)
}

// WithAttrs implements slog.Handler. The attributes are redacted once here.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = h.redactor.Attr(a)
	}
	return &SecureHandler{handler: h.handler.WithAttrs(redacted), redactor: h.redactor}
}

// WithGroup implements slog.Handler.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name), redactor: h.redactor}
}

// NewSecureLogger creates a text logger that redacts sensitive values.
// verbose selects Debug, otherwise only warnings and errors are written.
// opts add rules to the default Redactor.
//
// The returned logger is what the CLI hands to every component, including
// the embedded Tor daemon and the native messaging host.
func NewSecureLogger(w io.Writer, verbose bool, opts ...RedactorOption) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewTextHandler(w, handlerOptions(verbose)), NewRedactor(opts...)))
}

// NewSecureJSONLogger is NewSecureLogger with JSON output.
func NewSecureJSONLogger(w io.Writer, verbose bool, opts ...RedactorOption) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewJSONHandler(w, handlerOptions(verbose)), NewRedactor(opts...)))
}

func handlerOptions(verbose bool) *slog.HandlerOptions {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return &slog.HandlerOptions{Level: level}
}
