package logger

import (
	"log/slog"
	"strings"
)

// redactedValue replaces values logged under a secret-looking key.
const redactedValue = "***REDACTED***"

// tokenPrefixes identify token material by shape, whatever the key:
// a JWT header ("eyJ" is base64url for `{"`) or an Authorization value.
var tokenPrefixes = []string{"eyJ", "Bearer "}

// secretKeyWords mark a key as secret when contained in it.
var secretKeyWords = []string{
	"password",
	"secret",
	"token",
	"credential",
	"authorization",
	"bearer",
	"cookie",
}

// redactSensitive is the handlers' ReplaceAttr hook. Groups are walked
// recursively.
func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		s := a.Value.String()
		if masked, ok := maskToken(s); ok {
			return slog.String(a.Key, masked)
		}
		if s != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
	case slog.KindGroup:
		in := a.Value.Group()
		out := make([]slog.Attr, 0, len(in))
		for _, attr := range in {
			out = append(out, redactSensitive(attr))
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}
	return a
}

func maskToken(s string) (string, bool) {
	for _, prefix := range tokenPrefixes {
		if strings.HasPrefix(s, prefix) {
			return maskValue(s, prefix), true
		}
	}
	return s, false
}

// maskValue keeps prefix and three characters at each end of the rest.
// Short remainders are hidden entirely.
func maskValue(value, prefix string) string {
	rest := value[len(prefix):]
	if len(rest) <= 12 {
		return prefix + "***"
	}
	return prefix + rest[:3] + "..." + rest[len(rest)-3:]
}

// RedactString masks s if it looks like token material, for values that
// end up inside a message rather than an attribute.
func RedactString(s string) string {
	masked, _ := maskToken(s)
	return masked
}

// IsSensitiveKey reports whether a key names secret material. Keys ending
// in "_fp" carry fingerprints and are always safe.
func IsSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	if strings.HasSuffix(k, "_fp") {
		return false
	}
	for _, w := range secretKeyWords {
		if strings.Contains(k, w) {
			return true
		}
	}
	return false
}

// IsSensitiveValue reports whether s looks like token material.
func IsSensitiveValue(s string) bool {
	_, ok := maskToken(s)
	return ok
}
