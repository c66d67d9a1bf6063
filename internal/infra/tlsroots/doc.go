// Package tlsroots builds the trusted root pool for outbound TLS.
//
// The pool starts from the system roots and may be extended with a custom
// CA bundle, for auth APIs served behind a private CA.
package tlsroots
