package memory

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/yndnr/sesskeep-go/internal/storage"
	"github.com/yndnr/sesskeep-go/pkg/cmap"
)

// Store is an in-memory KVStore backed by a sharded map.
type Store struct {
	data *cmap.Map[[]byte]

	// Global lock: readers share it, batches hold it exclusively so a batch
	// is never observed half-applied.
	mu sync.RWMutex
}

// Option configures the Store.
type Option func(*storeOptions)

type storeOptions struct {
	shards int
}

// WithShardCount sets the number of map shards (power of 2).
func WithShardCount(n int) Option {
	return func(o *storeOptions) {
		o.shards = n
	}
}

// New creates a new in-memory store.
func New(opts ...Option) *Store {
	o := storeOptions{shards: cmap.DefaultShardCount}
	for _, opt := range opts {
		opt(&o)
	}

	return &Store{data: cmap.NewWithShards[[]byte](o.shards)}
}

// Get retrieves a copy of the value stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data.Get(key)
	if !ok {
		return nil, storage.ErrKeyNotFound
	}
	return bytes.Clone(v), nil
}

// Set stores a key-value pair.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.Apply(ctx, []storage.Op{storage.SetOp(key, value)})
}

// Delete removes a key.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.Apply(ctx, []storage.Op{storage.DeleteOp(key)})
}

// Apply applies ops atomically. Ops are validated before any is applied.
func (s *Store) Apply(ctx context.Context, ops []storage.Op) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, op := range ops {
		if op.Kind != storage.OpSet && op.Kind != storage.OpDelete {
			return fmt.Errorf("memory: unknown op kind %d", op.Kind)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, op := range ops {
		switch op.Kind {
		case storage.OpSet:
			s.data.Set(op.Key, bytes.Clone(op.Value))
		case storage.OpDelete:
			s.data.Delete(op.Key)
		}
	}
	return nil
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Len()
}

// Keys returns all stored keys in unspecified order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Keys()
}
