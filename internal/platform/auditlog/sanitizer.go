// Package auditlog keeps account identity and free-form memos out of log
// output. Account ids are replaced with stable per-boot fingerprints so
// operators can still correlate lines without learning who traded.
package auditlog

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mr-tron/base58"
)

const redactedValue = "[REDACTED]"

var (
	bootNonce = randomNonce()

	// Keys carrying account identity get fingerprinted.
	accountKeys = map[string]struct{}{
		"account":     {},
		"account_id":  {},
		"owner":       {},
		"owner_id":    {},
		"seller":      {},
		"seller_id":   {},
		"buyer":       {},
		"buyer_id":    {},
		"sender":      {},
		"sender_id":   {},
		"receiver":    {},
		"receiver_id": {},
		"caller":      {},
	}

	// Keys carrying free-form user text or credentials get dropped.
	redactedKeyParts = []string{"memo", "msg", "secret", "passphrase", "password", "authorization"}
)

// Handler wraps another slog handler and sanitizes every record passing
// through.
type Handler struct {
	next slog.Handler
}

func Wrap(next slog.Handler) slog.Handler {
	if next == nil {
		return nil
	}
	return &Handler{next: next}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *Handler) Handle(ctx context.Context, rec slog.Record) error {
	out := slog.NewRecord(rec.Time, rec.Level, rec.Message, rec.PC)
	rec.Attrs(func(attr slog.Attr) bool {
		out.AddAttrs(SanitizeAttr(attr))
		return true
	})
	return h.next.Handle(ctx, out)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sanitized := make([]slog.Attr, 0, len(attrs))
	for _, attr := range attrs {
		sanitized = append(sanitized, SanitizeAttr(attr))
	}
	return &Handler{next: h.next.WithAttrs(sanitized)}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{next: h.next.WithGroup(name)}
}

// SanitizeAttr maps one attribute to its loggable form.
func SanitizeAttr(attr slog.Attr) slog.Attr {
	key := strings.ToLower(strings.TrimSpace(attr.Key))
	if isRedactedKey(key) {
		return slog.String(attr.Key, redactedValue)
	}
	if _, ok := accountKeys[key]; ok {
		return slog.String(attr.Key+"_fp", Fingerprint(valueToString(attr.Value)))
	}
	return attr
}

// Fingerprint derives a stable per-boot alias for an account id. The boot
// nonce keeps fingerprints uncorrelatable across restarts.
func Fingerprint(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(trimmed + "|" + bootNonce))
	return "acc_" + base58.Encode(sum[:8])
}

func isRedactedKey(key string) bool {
	for _, part := range redactedKeyParts {
		if strings.Contains(key, part) {
			return true
		}
	}
	return false
}

func valueToString(v slog.Value) string {
	if v.Kind() == slog.KindString {
		return v.String()
	}
	return fmt.Sprint(v.Any())
}

func randomNonce() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "static-nonce"
	}
	return base58.Encode(buf)
}
