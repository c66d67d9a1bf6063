package storage

import "context"

// Scope confines a KVStore to keys under a fixed prefix, so several
// independent consumers can share one backend.
type Scope struct {
	kv     KVStore
	prefix string
}

// Scoped returns a view of kv restricted to keys starting with prefix.
func Scoped(kv KVStore, prefix string) *Scope {
	// Flatten nested scopes so Apply reaches the real backend.
	if s, ok := kv.(*Scope); ok {
		return &Scope{kv: s.kv, prefix: s.prefix + prefix}
	}
	return &Scope{kv: kv, prefix: prefix}
}

// Prefix returns the key prefix of this scope.
func (s *Scope) Prefix() string {
	return s.prefix
}

// Get retrieves a value by key.
func (s *Scope) Get(ctx context.Context, key string) ([]byte, error) {
	return s.kv.Get(ctx, s.prefix+key)
}

// Set stores a key-value pair.
func (s *Scope) Set(ctx context.Context, key string, value []byte) error {
	return s.kv.Set(ctx, s.prefix+key, value)
}

// Delete removes a key.
func (s *Scope) Delete(ctx context.Context, key string) error {
	return s.kv.Delete(ctx, s.prefix+key)
}

// Apply applies ops under the scope prefix. It is atomic exactly when the
// underlying store is.
func (s *Scope) Apply(ctx context.Context, ops []Op) error {
	scoped := make([]Op, len(ops))
	for i, op := range ops {
		op.Key = s.prefix + op.Key
		scoped[i] = op
	}
	return Apply(ctx, s.kv, scoped)
}
