// Package memory provides a process-local key-value store.
//
// Store satisfies storage.KVStore and storage.Batcher. Contents are lost when
// the process exits, which makes it suitable for tests and for clients that
// must not leave credentials on disk.
package memory
