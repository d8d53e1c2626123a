package crypto

import "testing"

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	enc, err := NewAesGcmEncryptor(key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cipherText, err := enc.Encrypt("client-secret-value")
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if cipherText == "client-secret-value" {
		t.Fatalf("expected ciphertext to differ from plaintext")
	}
	plain, err := enc.Decrypt(cipherText)
	if err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
	if plain != "client-secret-value" {
		t.Fatalf("expected round trip to match, got %q", plain)
	}
}

func TestNewAesGcmEncryptorRejectsWrongKeyLength(t *testing.T) {
	if _, err := NewAesGcmEncryptor([]byte("too-short")); err == nil {
		t.Fatalf("expected error for short key")
	}
}

func TestDecryptRejectsTruncatedCiphertext(t *testing.T) {
	key := make([]byte, 32)
	enc, _ := NewAesGcmEncryptor(key)
	if _, err := enc.Decrypt("YQ=="); err == nil {
		t.Fatalf("expected error for truncated ciphertext")
	}
}
