// Package output renders command results for sesskeep-cli.
//
// Results are printed as a key/value table (default), JSON or YAML. Spinner
// shows progress on a terminal while an operation is loading.
package output
