// Package domain defines the core domain models for sesskeep.
//
// Domain models are plain values without IO dependencies. This package
// contains:
//
//   - User, Organization and Role: identity returned by the auth API
//   - TokenSet and AuthResponse: credentials issued by the auth API
//   - SessionState: the observable snapshot with its derived flags
//   - Request types with required-field validation
//   - Errors: the DomainError taxonomy and its ErrorKind classification
package domain
