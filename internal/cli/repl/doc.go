// Package repl provides the interactive shell for sesskeep-cli.
//
//   - repl.go: read-eval-print loop and argument splitting
//   - completer.go: command name suggestions
//   - history.go: command history with secret masking and persistence
//
// The loop owns no command logic. Each line is split into arguments and
// handed to an Exec function, which in sesskeep-cli runs the regular
// command set against one long-lived session.
package repl
