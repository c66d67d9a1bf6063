// Package service implements the session lifecycle for sesskeep.
//
// This package contains:
//
//   - TokenStore: persistence of the tokens, user and organization records
//   - Broadcaster: replay-last subscription channels for each session field
//   - Gateway: the auth API surface the manager consumes
//   - SessionManager: the single writer that sequences every operation
//
// SessionManager is the only component allowed to mutate the TokenStore or
// publish on the Broadcaster. Everything else observes through Subscribe or
// Snapshot.
package service
