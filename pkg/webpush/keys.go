// Package webpush wraps the Web Push protocol client and the
// subscription key material handling around it.
package webpush

import (
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
)

// P256dhLength is the decoded size of a valid p256dh key: the
// uncompressed-point encoding of a P-256 public key (1 header byte +
// 32 + 32 coordinate bytes). Any other length means the key is
// corrupted or synthetic.
const P256dhLength = 65

// AuthLength is the decoded size of the auth secret a browser
// generates per subscription.
const AuthLength = 16

// DecodeKey decodes a subscription key, tolerating both the URL-safe
// and standard base64 alphabets with or without padding. Browsers send
// unpadded base64url; some legacy clients stored standard base64.
func DecodeKey(key string) ([]byte, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("empty key")
	}

	if b, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(key, "=")); err == nil {
		return b, nil
	}
	b, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return nil, fmt.Errorf("key is not valid base64: %w", err)
	}
	return b, nil
}

// NormalizeKey converts a key to the unpadded base64url form the push
// wire format requires, regardless of which alphabet it arrived in.
func NormalizeKey(key string) string {
	key = strings.TrimSpace(key)
	key = strings.ReplaceAll(key, "+", "-")
	key = strings.ReplaceAll(key, "/", "_")
	return strings.TrimRight(key, "=")
}

// IsValidSubscriptionKeys reports whether a subscription's material is
// well-formed: endpoint and both keys present, p256dh decoding to
// exactly 65 bytes, auth decodable. Pure predicate; used both to
// reject bad registrations early and by maintenance to find bad rows.
func IsValidSubscriptionKeys(endpoint, p256dh, auth string) bool {
	if endpoint == "" || p256dh == "" || auth == "" {
		return false
	}
	p256dhBytes, err := DecodeKey(p256dh)
	if err != nil || len(p256dhBytes) != P256dhLength {
		return false
	}
	if _, err := DecodeKey(auth); err != nil {
		return false
	}
	return true
}

// GenerateSubscriptionKeys produces a fresh, valid p256dh/auth pair in
// unpadded base64url. Used by maintenance when it replaces a corrupted
// subscription with a placeholder a client will later overwrite.
func GenerateSubscriptionKeys() (p256dh, auth string, err error) {
	priv, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate P-256 key: %w", err)
	}

	authBytes := make([]byte, AuthLength)
	if _, err := rand.Read(authBytes); err != nil {
		return "", "", fmt.Errorf("failed to generate auth secret: %w", err)
	}

	p256dh = base64.RawURLEncoding.EncodeToString(priv.PublicKey().Bytes())
	auth = base64.RawURLEncoding.EncodeToString(authBytes)
	return p256dh, auth, nil
}
