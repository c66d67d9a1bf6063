// Package logger provides structured logging for sesskeep.
//
// This package wraps log/slog:
//
//   - logger.go: Logger interface, configuration and dynamic level
//   - context.go: Context-aware logging with request IDs
//   - redact.go: Sensitive data redaction
//
// Tokens must never reach a log line in clear text. Log a fingerprint
// (pkg/token.Fingerprint) under a key ending in "_fp" instead; the redactor
// masks JWT-shaped values and blanks attributes whose key names a secret.
package logger
