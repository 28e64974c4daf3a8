package vault

import (
	"bytes"
	"encoding/hex"
	"testing"
)

var testKey = []byte("thisis32byteslongsecretkey123456")

func TestSealOpen(t *testing.T) {
	s, err := NewSealer(testKey)
	if err != nil {
		t.Fatalf("NewSealer failed: %v", err)
	}
	plaintext := []byte(`{"a1":{"name":"a1"}}`)

	sealed, err := s.Seal(plaintext)
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	if bytes.Contains(sealed, plaintext) {
		t.Fatal("Sealed output should not contain the plaintext")
	}

	opened, err := s.Open(sealed)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if !bytes.Equal(opened, plaintext) {
		t.Errorf("Expected %s, got %s", plaintext, opened)
	}
}

func TestOpenWithWrongKey(t *testing.T) {
	s1, _ := NewSealer(testKey)
	s2, _ := NewSealer([]byte("another32byteslongsecretkey65432"))

	sealed, err := s1.Seal([]byte("secret"))
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	if _, err := s2.Open(sealed); err == nil {
		t.Fatal("Open should have failed with wrong key")
	}
}

func TestInvalidKeySize(t *testing.T) {
	if _, err := NewSealer([]byte("shortkey")); err != ErrKeySize {
		t.Fatalf("Expected ErrKeySize, got %v", err)
	}
}

func TestOpenMalformed(t *testing.T) {
	s, _ := NewSealer(testKey)
	if _, err := s.Open([]byte("not-hex")); err == nil {
		t.Fatal("Open should fail with malformed hex")
	}
	// Shorter than the 12-byte GCM nonce.
	if _, err := s.Open([]byte("abcdef")); err == nil {
		t.Fatal("Open should fail with too short ciphertext")
	}
}

func TestParseKey(t *testing.T) {
	raw, err := ParseKey(string(testKey))
	if err != nil || !bytes.Equal(raw, testKey) {
		t.Fatalf("raw key: got %v, %v", raw, err)
	}

	decoded, err := ParseKey(hex.EncodeToString(testKey))
	if err != nil || !bytes.Equal(decoded, testKey) {
		t.Fatalf("hex key: got %v, %v", decoded, err)
	}

	if _, err := ParseKey("too-short"); err != ErrKeySize {
		t.Fatalf("Expected ErrKeySize, got %v", err)
	}
}
