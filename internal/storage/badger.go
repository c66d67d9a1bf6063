package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"
)

// KVConfig configures the embedded Badger store.
type KVConfig struct {
	// Dir is the storage directory. Ignored when InMemory is set.
	Dir string

	// InMemory keeps all data in memory (nothing touches disk).
	InMemory bool

	// SyncWrites enables fsync after each write.
	// Default: true (credentials should survive a crash)
	SyncWrites bool

	// GCInterval is the interval between automatic value log GC runs.
	// Default: 10m
	GCInterval time.Duration

	// GCThreshold is the GC discard ratio threshold (0.0-1.0).
	// Default: 0.5
	GCThreshold float64
}

// DefaultKVConfig returns the default configuration rooted at dir.
func DefaultKVConfig(dir string) KVConfig {
	return KVConfig{
		Dir:         dir,
		SyncWrites:  true,
		GCInterval:  10 * time.Minute,
		GCThreshold: 0.5,
	}
}

// BadgerEngine implements KVStore and Batcher using Badger v3.
type BadgerEngine struct {
	db     *badger.DB
	cfg    KVConfig
	logger *slog.Logger
	closed atomic.Bool

	lastGCTime atomic.Int64 // Unix milliseconds

	// Prometheus metrics
	metricsLSMSize      prometheus.GaugeFunc
	metricsValueLogSize prometheus.GaugeFunc

	// Shutdown
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewBadgerEngine opens a Badger database.
func NewBadgerEngine(cfg KVConfig, logger *slog.Logger) (*BadgerEngine, error) {
	if cfg.Dir == "" && !cfg.InMemory {
		return nil, fmt.Errorf("badger: dir is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.GCInterval <= 0 {
		cfg.GCInterval = 10 * time.Minute
	}
	if cfg.GCThreshold <= 0 || cfg.GCThreshold >= 1 {
		cfg.GCThreshold = 0.5
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Dir)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithLogger(&badgerLogger{logger: logger})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}

	engine := &BadgerEngine{
		db:     db,
		cfg:    cfg,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	// Value log GC is meaningless (and rejected) for in-memory databases.
	if cfg.InMemory {
		close(engine.doneCh)
	} else {
		go engine.gcLoop()
	}

	logger.Debug("badger engine started",
		"dir", cfg.Dir,
		"in_memory", cfg.InMemory,
		"gc_interval", cfg.GCInterval)

	return engine, nil
}

// Get retrieves a value by key.
func (e *BadgerEngine) Get(ctx context.Context, key string) ([]byte, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}

	var value []byte
	err := e.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrKeyNotFound
			}
			return err
		}

		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	return value, nil
}

// Set stores a key-value pair.
func (e *BadgerEngine) Set(ctx context.Context, key string, value []byte) error {
	return e.Apply(ctx, []Op{SetOp(key, value)})
}

// Delete removes a key.
func (e *BadgerEngine) Delete(ctx context.Context, key string) error {
	return e.Apply(ctx, []Op{DeleteOp(key)})
}

// Apply applies all ops inside a single read-write transaction.
func (e *BadgerEngine) Apply(ctx context.Context, ops []Op) error {
	if e.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return e.db.Update(func(txn *badger.Txn) error {
		for _, op := range ops {
			var err error
			switch op.Kind {
			case OpSet:
				err = txn.Set([]byte(op.Key), op.Value)
			case OpDelete:
				err = txn.Delete([]byte(op.Key))
			default:
				err = fmt.Errorf("badger: unknown op kind %d", op.Kind)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// GC runs value log garbage collection until nothing more can be rewritten.
func (e *BadgerEngine) GC(ctx context.Context) error {
	if e.cfg.InMemory {
		return nil
	}

	startTime := time.Now()
	runs := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := e.db.RunValueLogGC(e.cfg.GCThreshold)
		if err != nil {
			if errors.Is(err, badger.ErrNoRewrite) {
				break
			}
			return fmt.Errorf("gc: %w", err)
		}
		runs++
	}

	e.lastGCTime.Store(time.Now().UnixMilli())
	e.logger.Debug("gc completed",
		"rewrites", runs,
		"elapsed", time.Since(startTime))

	return nil
}

// LastGC returns the completion time of the most recent GC run, or the zero
// time if none has completed.
func (e *BadgerEngine) LastGC() time.Time {
	ms := e.lastGCTime.Load()
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// Size returns the LSM tree and value log sizes in bytes.
func (e *BadgerEngine) Size() (lsm, vlog int64) {
	return e.db.Size()
}

// Close stops background work and closes the database.
func (e *BadgerEngine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}

	close(e.stopCh)
	<-e.doneCh

	if err := e.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	e.logger.Debug("badger engine closed")
	return nil
}

// RegisterMetrics registers Badger size gauges with reg.
//
// This should be called once during initialization.
// Returns the engine for method chaining.
func (e *BadgerEngine) RegisterMetrics(reg prometheus.Registerer) *BadgerEngine {
	e.metricsLSMSize = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "sesskeep",
		Subsystem: "badger",
		Name:      "lsm_size_bytes",
		Help:      "Badger LSM tree size in bytes",
	}, func() float64 {
		lsm, _ := e.Size()
		return float64(lsm)
	})

	e.metricsValueLogSize = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "sesskeep",
		Subsystem: "badger",
		Name:      "value_log_size_bytes",
		Help:      "Badger value log size in bytes",
	}, func() float64 {
		_, vlog := e.Size()
		return float64(vlog)
	})

	reg.MustRegister(e.metricsLSMSize, e.metricsValueLogSize)
	return e
}

// gcLoop runs periodic garbage collection.
func (e *BadgerEngine) gcLoop() {
	defer close(e.doneCh)

	ticker := time.NewTicker(e.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			if err := e.GC(ctx); err != nil {
				e.logger.Error("auto gc failed", "error", err)
			}
			cancel()

		case <-e.stopCh:
			return
		}
	}
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
