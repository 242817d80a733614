package token

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// OpaqueBytes is the entropy of generated opaque tokens. 32 bytes yields a
// 64-character hex string.
const OpaqueBytes = 32

// New generates a cryptographically random opaque token. The raw value is
// handed to the caller once and must never be persisted; store Fingerprinter
// output instead.
func New() (string, error) {
	b := make([]byte, OpaqueBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate opaque token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Fingerprinter produces keyed one-way digests of opaque tokens, used as
// their storage and lookup keys.
type Fingerprinter struct {
	key []byte
}

// NewFingerprinter creates a Fingerprinter keyed with the given secret.
func NewFingerprinter(secret string) *Fingerprinter {
	return &Fingerprinter{key: []byte(secret)}
}

// Fingerprint returns the hex-encoded HMAC-SHA256 of raw.
func (f *Fingerprinter) Fingerprint(raw string) string {
	mac := hmac.New(sha256.New, f.key)
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}

// Match compares the fingerprint of raw against digest in constant time.
func (f *Fingerprinter) Match(raw, digest string) bool {
	return hmac.Equal([]byte(f.Fingerprint(raw)), []byte(digest))
}
