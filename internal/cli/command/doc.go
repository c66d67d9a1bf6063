// Package command defines the sesskeep-cli commands.
//
// Every command shares one lazily built runtime: configuration, logger,
// metrics registry, KV store, HTTP gateway and the session manager. The
// runtime is created on first use and closed by the app's After hook.
//
//   - root.go: app, global flags, runtime lookup
//   - runtime.go: component wiring
//   - auth.go: login, signup, logout, refresh
//   - profile.go: whoami, status
//   - account.go: password request/reset, invite
//   - watch.go: long-running session monitor
//   - shell.go: interactive shell over one runtime
//   - version.go: build information
//   - errors.go: exit codes and error rendering
package command
