// Package logutil provides the process-wide structured logger with
// credential masking baked into the handler.
package logutil

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// sensitiveKeys name attributes whose values are always masked.
var sensitiveKeys = map[string]bool{
	"api_key":       true,
	"apikey":        true,
	"credential":    true,
	"authorization": true,
}

// credentialPrefix matches Google API keys appearing inside attr values.
const credentialPrefix = "AIza"

// MaskingHandler wraps a slog handler and redacts credential material
// before it reaches the sink.
type MaskingHandler struct {
	inner slog.Handler
}

// NewMaskingHandler wraps the given handler.
func NewMaskingHandler(inner slog.Handler) *MaskingHandler {
	return &MaskingHandler{inner: inner}
}

func (h *MaskingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *MaskingHandler) Handle(ctx context.Context, rec slog.Record) error {
	masked := slog.NewRecord(rec.Time, rec.Level, rec.Message, rec.PC)
	rec.Attrs(func(a slog.Attr) bool {
		masked.AddAttrs(maskAttr(a))
		return true
	})
	return h.inner.Handle(ctx, masked)
}

func (h *MaskingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = maskAttr(a)
	}
	return &MaskingHandler{inner: h.inner.WithAttrs(out)}
}

func (h *MaskingHandler) WithGroup(name string) slog.Handler {
	return &MaskingHandler{inner: h.inner.WithGroup(name)}
}

func maskAttr(a slog.Attr) slog.Attr {
	if sensitiveKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, Mask(a.Value.String()))
	}
	if a.Value.Kind() == slog.KindString {
		v := a.Value.String()
		if strings.Contains(v, credentialPrefix) {
			return slog.String(a.Key, maskEmbedded(v))
		}
	}
	return a
}

// Mask redacts a secret, keeping a short prefix for correlation.
func Mask(secret string) string {
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:6] + "***"
}

// maskEmbedded redacts a credential appearing inside a larger string,
// such as a dumped request header or URL.
func maskEmbedded(s string) string {
	idx := strings.Index(s, credentialPrefix)
	if idx < 0 {
		return s
	}
	end := idx
	for end < len(s) && isKeyChar(s[end]) {
		end++
	}
	return s[:idx] + Mask(s[idx:end]) + maskEmbedded(s[end:])
}

func isKeyChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' || c == '-' || c == '_'
}

// NewLogger builds the default process logger: JSON to stderr behind the
// masking handler. Level comes from PAGEWARDEN_LOG_LEVEL (debug|info|warn|error).
func NewLogger() *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("PAGEWARDEN_LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	inner := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(NewMaskingHandler(inner))
}
