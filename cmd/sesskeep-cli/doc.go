// Package main provides the entry point for sesskeep-cli.
//
// sesskeep-cli signs in to an auth API, persists the session locally and
// keeps its tokens fresh:
//
//   - Authentication (login, signup, logout, refresh)
//   - Profile inspection (whoami, status)
//   - Account operations (password reset, invitations)
//   - Long-running session watch with optional Prometheus metrics
//
// Usage:
//
//	sesskeep-cli [global flags] command [flags]
//	sesskeep-cli -s https://auth.example.com login -e me@example.com --password-stdin
//	sesskeep-cli whoami -o json
//	sesskeep-cli watch --metrics-addr 127.0.0.1:9464
package main
