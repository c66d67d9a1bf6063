// Package gateway implements service.Gateway over the HTTP auth API.
//
// Every request carries an X-Request-ID and a sesskeep-cli User-Agent, plus
// a bearer token when a token source is configured. Failures are always
// returned as *domain.DomainError:
//
//	transport error, timeout, 429, 5xx  -> domain.ErrNetwork
//	401, 403                            -> domain.ErrAuthentication
//	other 4xx, malformed response body  -> domain.ErrValidation
//
// The error message is taken from the server's "message" (or "error") field
// when present, otherwise from a per-endpoint fallback such as "Login failed".
package gateway
