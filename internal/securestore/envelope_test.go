package securestore

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	plaintext := []byte(`{"alice":"NQ-addr-1"}`)
	sealed, err := Encrypt("passphrase", plaintext)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if bytes.Contains(sealed, []byte("alice")) {
		t.Fatal("ciphertext leaks plaintext")
	}

	opened, err := Decrypt("passphrase", sealed)
	if err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
	if !bytes.Equal(opened, plaintext) {
		t.Fatalf("round trip mismatch: %s", opened)
	}
}

func TestDecryptRejectsTamperedEnvelope(t *testing.T) {
	sealed, err := Encrypt("passphrase", []byte("payload"))
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	sealed[len(sealed)-3] ^= 0xFF

	if _, err := Decrypt("passphrase", sealed); !errors.Is(err, ErrAuthFailed) && !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrAuthFailed or ErrInvalid, got %v", err)
	}
}

func TestDecryptRejectsWrongPassphrase(t *testing.T) {
	sealed, err := Encrypt("passphrase", []byte("payload"))
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if _, err := Decrypt("other", sealed); !errors.Is(err, ErrAuthFailed) {
		t.Fatalf("expected ErrAuthFailed, got %v", err)
	}
}

func TestDecryptFlagsLegacyPlaintext(t *testing.T) {
	if _, err := Decrypt("passphrase", []byte(`{"alice":"NQ-addr-1"}`)); !errors.Is(err, ErrLegacyData) {
		t.Fatalf("expected ErrLegacyData, got %v", err)
	}
}
