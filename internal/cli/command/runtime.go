package command

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/yndnr/sesskeep-go/internal/cli/config"
	"github.com/yndnr/sesskeep-go/internal/cli/output"
	"github.com/yndnr/sesskeep-go/internal/core/service"
	"github.com/yndnr/sesskeep-go/internal/gateway"
	"github.com/yndnr/sesskeep-go/internal/storage"
	"github.com/yndnr/sesskeep-go/internal/storage/memory"
	"github.com/yndnr/sesskeep-go/internal/telemetry/logger"
	"github.com/yndnr/sesskeep-go/internal/telemetry/metric"
)

// RuntimeOptions configures NewRuntime.
type RuntimeOptions struct {
	ConfigPath string
	Overrides  map[string]any
	Stdout     io.Writer
	Stderr     io.Writer
}

// Runtime holds the components shared by all commands.
type Runtime struct {
	Config     *config.ClientConfig
	ConfigPath string
	Logger     logger.Logger
	Metrics    *metric.Registry
	Gateway    *gateway.HTTPGateway
	Manager    *service.SessionManager

	stdout    io.Writer
	stderr    io.Writer
	format    output.Format
	overrides map[string]any
	engine    *storage.BadgerEngine
}

// NewRuntime loads configuration, wires every component and hydrates the
// session from storage.
func NewRuntime(ctx context.Context, opts RuntimeOptions) (*Runtime, error) {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	cfg, path, err := config.Load(opts.ConfigPath, opts.Overrides)
	if err != nil {
		return nil, err
	}

	format, err := output.ParseFormat(cfg.Output)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: opts.Stderr,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	rt := &Runtime{
		Config:     cfg,
		ConfigPath: path,
		Logger:     log,
		Metrics:    metric.NewRegistry(),
		stdout:     opts.Stdout,
		stderr:     opts.Stderr,
		format:     format,
		overrides:  opts.Overrides,
	}

	kv, err := rt.openStore()
	if err != nil {
		return nil, err
	}

	store := service.NewTokenStore(
		storage.Scoped(kv, cfg.Storage.Namespace),
		service.WithStoreLogger(log.With("component", "tokenstore")),
		service.WithStoreMetrics(rt.Metrics),
	)

	var mgr *service.SessionManager
	gw, err := gateway.New(gateway.Config{
		BaseURL:    cfg.Gateway.BaseURL,
		PathPrefix: cfg.Gateway.PathPrefix,
		Timeout:    cfg.Gateway.Timeout,
		CAFile:     cfg.Gateway.CAFile,
		RateLimit:  cfg.Gateway.RateLimit,
		Burst:      cfg.Gateway.Burst,
	},
		gateway.WithTokenSource(func() string { return mgr.AccessToken() }),
		gateway.WithLogger(log.With("component", "gateway")),
		gateway.WithMetrics(rt.Metrics),
	)
	if err != nil {
		rt.Close()
		return nil, err
	}

	mgr = service.NewSessionManager(store, gw,
		service.WithLogger(log.With("component", "session")),
		service.WithMetrics(rt.Metrics),
	)
	rt.Gateway = gw
	rt.Manager = mgr

	mgr.Initialize(ctx)

	log.Debug("runtime ready",
		"config", path,
		"server", gw.BaseURL(),
		"in_memory", cfg.Storage.InMemory)

	return rt, nil
}

// openStore opens the configured KV backend.
func (rt *Runtime) openStore() (storage.KVStore, error) {
	cfg := rt.Config.Storage
	if cfg.InMemory {
		return memory.New(), nil
	}

	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	kvCfg := storage.DefaultKVConfig(cfg.DataDir)
	kvCfg.SyncWrites = cfg.SyncWrites
	if cfg.GCInterval > 0 {
		kvCfg.GCInterval = cfg.GCInterval
	}

	engine, err := storage.NewBadgerEngine(kvCfg, logger.Slog(rt.Logger.With("component", "badger")))
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	engine.RegisterMetrics(rt.Metrics.Registerer())
	rt.engine = engine
	return engine, nil
}

// Close releases the storage backend.
func (rt *Runtime) Close() error {
	if rt.engine != nil {
		return rt.engine.Close()
	}
	return nil
}

// Stdout returns the command output writer.
func (rt *Runtime) Stdout() io.Writer {
	return rt.stdout
}

// Format returns the selected output format.
func (rt *Runtime) Format() output.Format {
	return rt.format
}

// Print renders v in the selected output format.
func (rt *Runtime) Print(v any) error {
	return output.NewFormatter(rt.format).Format(rt.stdout, v)
}

// Message prints a one-line result. Structured formats wrap it in an object.
func (rt *Runtime) Message(msg string) error {
	if rt.format == output.FormatTable {
		_, err := fmt.Fprintln(rt.stdout, msg)
		return err
	}
	return rt.Print(messageView{Message: msg})
}

// Progress shows a spinner on an interactive stderr while the session is
// loading. The returned function stops it.
func (rt *Runtime) Progress(message string) func() {
	f, ok := rt.stderr.(*os.File)
	if !ok || rt.format != output.FormatTable || !isatty.IsTerminal(f.Fd()) {
		return func() {}
	}

	spinner := output.NewSpinner(f, message)
	unsubscribe := rt.Manager.Broadcaster().Loading().Subscribe(spinner.Follow)
	return func() {
		unsubscribe()
		spinner.Stop()
	}
}

// Reload re-reads the configuration file and applies the log level.
func (rt *Runtime) Reload() error {
	cfg, _, err := config.Load(rt.ConfigPath, rt.overrides)
	if err != nil {
		return err
	}
	prev := logger.GetLevel()
	if err := logger.SetLevel(cfg.Log.Level); err != nil {
		return err
	}
	if next := logger.GetLevel(); next != prev {
		rt.Logger.Info("log level changed", "from", prev, "to", next)
	}
	return nil
}
