// Package storage provides the key-value persistence surface used by the
// session token store.
//
// Two backends are provided: BadgerEngine (embedded, on disk or in memory)
// and memory.Store (process-local). Both satisfy KVStore and Batcher.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// Common errors
var (
	ErrKeyNotFound = errors.New("key not found")
	ErrClosed      = errors.New("kv store closed")
)

// KVStore is the minimal persistence capability: get, set and delete by key.
type KVStore interface {
	// Get retrieves a value by key.
	// Returns ErrKeyNotFound if key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a key-value pair.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// OpKind identifies a batch operation.
type OpKind int

const (
	// OpSet stores Op.Value under Op.Key.
	OpSet OpKind = iota
	// OpDelete removes Op.Key.
	OpDelete
)

// Op is a single write inside a batch.
type Op struct {
	Kind  OpKind
	Key   string
	Value []byte
}

// SetOp returns a set operation.
func SetOp(key string, value []byte) Op {
	return Op{Kind: OpSet, Key: key, Value: value}
}

// DeleteOp returns a delete operation.
func DeleteOp(key string) Op {
	return Op{Kind: OpDelete, Key: key}
}

// Batcher is implemented by stores that can apply several writes as one
// all-or-nothing unit.
type Batcher interface {
	Apply(ctx context.Context, ops []Op) error
}

// Apply writes ops to kv. When kv implements Batcher the ops are applied
// atomically; otherwise they are applied in order and the first failure is
// returned, leaving earlier ops applied.
func Apply(ctx context.Context, kv KVStore, ops []Op) error {
	if b, ok := kv.(Batcher); ok {
		return b.Apply(ctx, ops)
	}
	for _, op := range ops {
		if err := applyOne(ctx, kv, op); err != nil {
			return err
		}
	}
	return nil
}

// IsAtomic reports whether Apply on kv is all-or-nothing.
func IsAtomic(kv KVStore) bool {
	if s, ok := kv.(*Scope); ok {
		return IsAtomic(s.kv)
	}
	_, ok := kv.(Batcher)
	return ok
}

func applyOne(ctx context.Context, kv KVStore, op Op) error {
	switch op.Kind {
	case OpSet:
		return kv.Set(ctx, op.Key, op.Value)
	case OpDelete:
		return kv.Delete(ctx, op.Key)
	default:
		return fmt.Errorf("storage: unknown op kind %d", op.Kind)
	}
}
