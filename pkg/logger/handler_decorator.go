package logger

import (
	"context"
	"log/slog"
	"strings"
)

// Redacted replaces the value of attributes whose key is redacted.
const Redacted = "[REDACTED]"

// DefaultRedactedKeys are attribute keys that may carry secret material.
var DefaultRedactedKeys = []string{"secret", "totp_secret", "passphrase", "code", "key", "plaintext"}

// ContextExtractor extracts a slog attribute from context.
type ContextExtractor func(ctx context.Context) (slog.Attr, bool)

// LogHandlerDecorator wraps a slog.Handler. It masks attributes with a
// redacted key, including ones nested in groups, and appends attributes
// pulled from the context of each record.
type LogHandlerDecorator struct {
	next       slog.Handler
	extractors []ContextExtractor
	redact     map[string]struct{}
}

// NewLogHandlerDecorator wraps next. Keys are matched case-insensitively.
// Nil extractors are skipped.
func NewLogHandlerDecorator(next slog.Handler, redactKeys []string, extractors ...ContextExtractor) *LogHandlerDecorator {
	h := &LogHandlerDecorator{
		next:       next,
		extractors: make([]ContextExtractor, 0, len(extractors)),
		redact:     make(map[string]struct{}, len(redactKeys)),
	}
	for _, ex := range extractors {
		if ex != nil {
			h.extractors = append(h.extractors, ex)
		}
	}
	for _, k := range redactKeys {
		h.redact[strings.ToLower(k)] = struct{}{}
	}
	return h
}

func (h *LogHandlerDecorator) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *LogHandlerDecorator) Handle(ctx context.Context, rec slog.Record) error {
	if len(h.redact) == 0 && len(h.extractors) == 0 {
		return h.next.Handle(ctx, rec)
	}

	out := slog.NewRecord(rec.Time, rec.Level, rec.Message, rec.PC)
	rec.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.scrub(a))
		return true
	})
	for _, ex := range h.extractors {
		if attr, ok := ex(ctx); ok {
			out.AddAttrs(h.scrub(attr))
		}
	}
	return h.next.Handle(ctx, out)
}

func (h *LogHandlerDecorator) WithAttrs(attrs []slog.Attr) slog.Handler {
	clean := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		clean[i] = h.scrub(a)
	}
	return &LogHandlerDecorator{
		next:       h.next.WithAttrs(clean),
		extractors: h.extractors,
		redact:     h.redact,
	}
}

func (h *LogHandlerDecorator) WithGroup(name string) slog.Handler {
	return &LogHandlerDecorator{
		next:       h.next.WithGroup(name),
		extractors: h.extractors,
		redact:     h.redact,
	}
}

func (h *LogHandlerDecorator) scrub(a slog.Attr) slog.Attr {
	if len(h.redact) == 0 {
		return a
	}
	if _, ok := h.redact[strings.ToLower(a.Key)]; ok {
		return slog.String(a.Key, Redacted)
	}
	v := a.Value.Resolve()
	if v.Kind() != slog.KindGroup {
		return slog.Attr{Key: a.Key, Value: v}
	}
	group := v.Group()
	clean := make([]any, len(group))
	for i, ga := range group {
		clean[i] = h.scrub(ga)
	}
	return slog.Group(a.Key, clean...)
}
