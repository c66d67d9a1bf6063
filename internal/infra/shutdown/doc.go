// Package shutdown coordinates graceful termination of long-running CLI
// commands.
//
// Usage:
//
//	h := shutdown.NewHandler(5 * time.Second)
//	h.OnShutdown(func(ctx context.Context) error { return store.Close() })
//	err := h.Wait(ctx) // returns after SIGINT/SIGTERM or ctx cancellation
package shutdown
