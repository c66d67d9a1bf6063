package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func newTestEngine(t *testing.T, inMemory bool) *BadgerEngine {
	t.Helper()

	cfg := DefaultKVConfig(t.TempDir())
	cfg.InMemory = inMemory
	cfg.SyncWrites = false
	cfg.GCInterval = time.Hour // Disable auto GC for tests

	engine, err := NewBadgerEngine(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { engine.Close() })
	return engine
}

func TestBadgerEngine_BasicOperations(t *testing.T) {
	for _, inMemory := range []bool{false, true} {
		name := "disk"
		if inMemory {
			name = "memory"
		}
		t.Run(name, func(t *testing.T) {
			engine := newTestEngine(t, inMemory)
			ctx := context.Background()

			if err := engine.Set(ctx, "test-key", []byte("test-value")); err != nil {
				t.Fatal(err)
			}
			got, err := engine.Get(ctx, "test-key")
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != "test-value" {
				t.Errorf("expected test-value, got %s", got)
			}

			if _, err := engine.Get(ctx, "non-existent"); !errors.Is(err, ErrKeyNotFound) {
				t.Errorf("expected ErrKeyNotFound, got %v", err)
			}

			if err := engine.Delete(ctx, "test-key"); err != nil {
				t.Fatal(err)
			}
			if _, err := engine.Get(ctx, "test-key"); !errors.Is(err, ErrKeyNotFound) {
				t.Errorf("expected ErrKeyNotFound after delete, got %v", err)
			}

			// Deleting a missing key is not an error.
			if err := engine.Delete(ctx, "never-set"); err != nil {
				t.Errorf("Delete(missing) error = %v", err)
			}
		})
	}
}

func TestBadgerEngine_Apply(t *testing.T) {
	engine := newTestEngine(t, true)
	ctx := context.Background()

	if err := engine.Set(ctx, "stale", []byte("x")); err != nil {
		t.Fatal(err)
	}

	err := engine.Apply(ctx, []Op{
		SetOp("a", []byte("1")),
		SetOp("b", []byte("2")),
		DeleteOp("stale"),
	})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	for key, want := range map[string]string{"a": "1", "b": "2"} {
		got, err := engine.Get(ctx, key)
		if err != nil || string(got) != want {
			t.Errorf("Get(%s) = (%q, %v), want %q", key, got, err, want)
		}
	}
	if _, err := engine.Get(ctx, "stale"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("stale key should be deleted, got %v", err)
	}
}

func TestBadgerEngine_ApplyIsAllOrNothing(t *testing.T) {
	engine := newTestEngine(t, true)
	ctx := context.Background()

	err := engine.Apply(ctx, []Op{
		SetOp("a", []byte("1")),
		{Kind: OpKind(42), Key: "bad"},
	})
	if err == nil {
		t.Fatal("Apply() expected error for unknown op kind")
	}
	if _, err := engine.Get(ctx, "a"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("failed batch must not leave partial writes, got %v", err)
	}
}

func TestBadgerEngine_Persistence(t *testing.T) {
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	cfg := DefaultKVConfig(dir)
	cfg.GCInterval = time.Hour

	engine, err := NewBadgerEngine(cfg, logger)
	if err != nil {
		t.Fatal(err)
	}
	if err := engine.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatal(err)
	}
	if err := engine.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewBadgerEngine(cfg, logger)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Errorf("Get(k) after reopen = (%q, %v), want v", got, err)
	}
}

func TestBadgerEngine_Closed(t *testing.T) {
	engine := newTestEngine(t, true)
	if err := engine.Close(); err != nil {
		t.Fatal(err)
	}
	// Close is idempotent.
	if err := engine.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	ctx := context.Background()
	if _, err := engine.Get(ctx, "k"); !errors.Is(err, ErrClosed) {
		t.Errorf("Get() after close error = %v, want ErrClosed", err)
	}
	if err := engine.Set(ctx, "k", nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Set() after close error = %v, want ErrClosed", err)
	}
}

func TestBadgerEngine_GC(t *testing.T) {
	engine := newTestEngine(t, false)
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		_ = engine.Set(ctx, "churn", make([]byte, 1024))
	}

	if err := engine.GC(ctx); err != nil {
		t.Fatalf("GC() error = %v", err)
	}
	if engine.LastGC().IsZero() {
		t.Error("LastGC() should be set after a GC run")
	}
}

func TestBadgerEngine_RegisterMetrics(t *testing.T) {
	engine := newTestEngine(t, true)
	reg := prometheus.NewRegistry()
	engine.RegisterMetrics(reg)

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{"sesskeep_badger_lsm_size_bytes", "sesskeep_badger_value_log_size_bytes"} {
		if !names[want] {
			t.Errorf("metric %s not registered", want)
		}
	}
}

func TestScope(t *testing.T) {
	engine := newTestEngine(t, true)
	ctx := context.Background()

	outer := Scoped(engine, "app/")
	inner := Scoped(outer, "session/")
	if inner.Prefix() != "app/session/" {
		t.Errorf("Prefix() = %q, want app/session/", inner.Prefix())
	}

	if err := inner.Set(ctx, "user", []byte("u")); err != nil {
		t.Fatal(err)
	}
	got, err := engine.Get(ctx, "app/session/user")
	if err != nil || string(got) != "u" {
		t.Errorf("backend Get = (%q, %v), want u", got, err)
	}

	if err := inner.Apply(ctx, []Op{SetOp("a", []byte("1")), DeleteOp("user")}); err != nil {
		t.Fatal(err)
	}
	if _, err := engine.Get(ctx, "app/session/a"); err != nil {
		t.Errorf("scoped Apply did not prefix key: %v", err)
	}
	if _, err := inner.Get(ctx, "user"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("scoped delete failed: %v", err)
	}

	if !IsAtomic(inner) {
		t.Error("scope over badger should be atomic")
	}
}

// plainKV implements only KVStore.
type plainKV struct {
	data map[string][]byte
	fail string
}

func (p *plainKV) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := p.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return v, nil
}

func (p *plainKV) Set(_ context.Context, key string, value []byte) error {
	if key == p.fail {
		return errors.New("write failed")
	}
	p.data[key] = value
	return nil
}

func (p *plainKV) Delete(_ context.Context, key string) error {
	delete(p.data, key)
	return nil
}

func TestApply_SequentialFallback(t *testing.T) {
	kv := &plainKV{data: map[string][]byte{}, fail: "c"}
	ctx := context.Background()

	if IsAtomic(kv) {
		t.Error("plain KVStore should not report atomic")
	}
	if IsAtomic(Scoped(kv, "x/")) {
		t.Error("scope over plain KVStore should not report atomic")
	}

	err := Apply(ctx, kv, []Op{SetOp("a", []byte("1")), SetOp("c", []byte("3")), SetOp("d", []byte("4"))})
	if err == nil {
		t.Fatal("Apply() expected error")
	}
	if _, ok := kv.data["a"]; !ok {
		t.Error("ops before the failure should be applied")
	}
	if _, ok := kv.data["d"]; ok {
		t.Error("ops after the failure should not be applied")
	}
}
