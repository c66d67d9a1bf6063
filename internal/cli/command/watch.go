package command

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/sesskeep-go/internal/cli/output"
	"github.com/yndnr/sesskeep-go/internal/core/domain"
	"github.com/yndnr/sesskeep-go/internal/infra/confloader"
	"github.com/yndnr/sesskeep-go/internal/infra/shutdown"
	"github.com/yndnr/sesskeep-go/internal/telemetry/logger"
	"github.com/yndnr/sesskeep-go/pkg/token"
)

// WatchCommand returns the watch command.
func WatchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Keep the session fresh and print session events until interrupted",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   "Token refresh interval (default from watch.refresh_interval)",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Serve Prometheus metrics on this address (e.g., 127.0.0.1:9464)",
			},
			&cli.DurationFlag{
				Name:  "for",
				Usage: "Stop after this long (0 runs until interrupted)",
			},
		},
		Action: runWatch,
	}
}

// eventView is one session change.
type eventView struct {
	Time   time.Time `json:"time" yaml:"time"`
	Source string    `json:"source" yaml:"source"`
	Value  string    `json:"value" yaml:"value"`
}

// eventPrinter serializes events from concurrent publishers.
type eventPrinter struct {
	mu sync.Mutex
	rt *Runtime
}

func (p *eventPrinter) emit(source, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ev := eventView{Time: time.Now(), Source: source, Value: value}
	if p.rt.Format() == output.FormatTable {
		fmt.Fprintf(p.rt.Stdout(), "%s  %-13s  %s\n", ev.Time.Format(time.TimeOnly), ev.Source, orDash(ev.Value))
		return
	}
	var err error
	if p.rt.Format() == output.FormatJSON {
		err = (&output.JSONFormatter{Compact: true}).Format(p.rt.Stdout(), ev)
	} else {
		err = p.rt.Print(ev)
	}
	if err != nil {
		p.rt.Logger.Warn("print event failed", "error", err)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// subscribe prints every broadcaster source and returns a function that
// removes all subscriptions.
func (p *eventPrinter) subscribe(rt *Runtime) func() {
	b := rt.Manager.Broadcaster()
	unsubs := []func(){
		b.Authenticated().Subscribe(func(v bool) { p.emit("authenticated", strconv.FormatBool(v)) }),
		b.Admin().Subscribe(func(v bool) { p.emit("admin", strconv.FormatBool(v)) }),
		b.Loading().Subscribe(func(v bool) { p.emit("loading", strconv.FormatBool(v)) }),
		b.User().Subscribe(func(u *domain.User) {
			if u == nil {
				p.emit("user", "")
				return
			}
			p.emit("user", u.Email)
		}),
		b.Organization().Subscribe(func(o *domain.Organization) {
			if o == nil {
				p.emit("organization", "")
				return
			}
			p.emit("organization", o.Name)
		}),
		b.Tokens().Subscribe(func(t *domain.TokenSet) {
			if t == nil {
				p.emit("tokens", "")
				return
			}
			p.emit("tokens", "access_fp="+token.Fingerprint(t.AccessToken))
		}),
		b.Error().Subscribe(func(msg string) { p.emit("error", msg) }),
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

func runWatch(c *cli.Context) error {
	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}
	if !rt.Manager.Snapshot().IsAuthenticated {
		return ErrNotLoggedIn
	}

	interval := rt.Config.Watch.RefreshInterval
	if c.IsSet("interval") {
		interval = c.Duration("interval")
	}
	if interval <= 0 {
		return usageError("refresh interval must be positive")
	}

	ctx := c.Context
	if d := c.Duration("for"); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	handler := shutdown.NewHandler(shutdown.DefaultTimeout)

	printer := &eventPrinter{rt: rt}
	unsubscribe := printer.subscribe(rt)
	handler.OnShutdown(func(context.Context) error {
		unsubscribe()
		return nil
	})

	metricsAddr := rt.Config.Watch.MetricsAddr
	if c.IsSet("metrics-addr") {
		metricsAddr = c.String("metrics-addr")
	}
	// Hooks registered so far release whatever a failed setup step left
	// running.
	if err := startSidecars(ctx, rt, handler, metricsAddr); err != nil {
		return errors.Join(err, handler.Shutdown())
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		refreshLoop(ctx, rt, interval)
	}()
	handler.OnShutdown(func(context.Context) error {
		cancel()
		wg.Wait()
		return nil
	})

	rt.Logger.Info("watching session", "interval", interval, "metrics_addr", metricsAddr)
	return handler.Wait(ctx)
}

// startSidecars starts the metrics endpoint and the config watcher,
// registering a shutdown hook for each as soon as it runs.
func startSidecars(ctx context.Context, rt *Runtime, handler *shutdown.Handler, metricsAddr string) error {
	if metricsAddr != "" {
		srv, err := serveMetrics(rt, metricsAddr)
		if err != nil {
			return err
		}
		handler.OnShutdown(srv.Shutdown)
	}

	if rt.ConfigPath == "" {
		return nil
	}
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(rt.Logger))
	if err != nil {
		return err
	}
	handler.OnShutdown(func(context.Context) error {
		return w.Stop()
	})
	if err := w.Watch(rt.ConfigPath); err != nil {
		return fmt.Errorf("watch %s: %w", rt.ConfigPath, err)
	}
	w.OnChange(func(path string) {
		if err := rt.Reload(); err != nil {
			rt.Logger.Warn("config reload failed", "path", path, "error", err)
		}
	})
	go w.Run(ctx)
	return nil
}

// refreshLoop refreshes the token pair every interval until ctx is done.
// A failed refresh ends the session, after which the loop keeps idling so
// the final state stays visible.
func refreshLoop(ctx context.Context, rt *Runtime, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !rt.Manager.Snapshot().IsAuthenticated {
				continue
			}
			if _, err := rt.Manager.RefreshToken(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.L(ctx).Warn("scheduled refresh failed", "error", err, "retryable", domain.Retryable(err))
			}
		}
	}
}

// serveMetrics starts the Prometheus endpoint and returns its server.
func serveMetrics(rt *Runtime, addr string) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", rt.Metrics.Handler())

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rt.Logger.Error("metrics server failed", "error", err)
		}
	}()

	rt.Logger.Info("serving metrics", "addr", ln.Addr().String())
	return srv, nil
}
