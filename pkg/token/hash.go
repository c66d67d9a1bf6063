// Package token provides helpers for handling opaque bearer tokens without
// exposing their values.
package token

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// FingerprintLength is the number of hex characters in a fingerprint.
const FingerprintLength = 12

// Fingerprint returns a short, non-reversible identifier for a token,
// suitable for logs. An empty token yields "".
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])[:FingerprintLength]
}

// Equal reports whether two tokens are identical in constant time.
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// LooksLikeJWT reports whether s has the shape of a compact JWS:
// a base64url JSON header ("eyJ") followed by two more dot-separated parts.
func LooksLikeJWT(s string) bool {
	return strings.HasPrefix(s, "eyJ") && strings.Count(s, ".") == 2
}
