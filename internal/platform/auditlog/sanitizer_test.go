package auditlog

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestHandlerFingerprintsAccountKeys(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(Wrap(slog.NewTextHandler(&buf, nil)))

	log.Info("sale listed", "seller", "alice.near", "token_id", "t1")

	out := buf.String()
	if strings.Contains(out, "alice.near") {
		t.Fatalf("account id leaked: %s", out)
	}
	if !strings.Contains(out, "seller_fp=acc_") {
		t.Fatalf("expected fingerprinted seller key, got: %s", out)
	}
	if !strings.Contains(out, "token_id=t1") {
		t.Fatalf("non-identity keys must pass through, got: %s", out)
	}
}

func TestHandlerRedactsMemos(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(Wrap(slog.NewTextHandler(&buf, nil)))

	log.Info("transfer", "memo", "meet me at dawn", "passphrase", "hunter2")

	out := buf.String()
	if strings.Contains(out, "dawn") || strings.Contains(out, "hunter2") {
		t.Fatalf("redacted value leaked: %s", out)
	}
}

func TestFingerprintStableWithinBoot(t *testing.T) {
	a := Fingerprint("alice.near")
	b := Fingerprint("alice.near")
	if a == "" || a != b {
		t.Fatalf("fingerprint must be stable within one boot: %q vs %q", a, b)
	}
	if Fingerprint("bob.near") == a {
		t.Fatal("different accounts must not collide")
	}
	if Fingerprint("  ") != "" {
		t.Fatal("blank values have no fingerprint")
	}
}
