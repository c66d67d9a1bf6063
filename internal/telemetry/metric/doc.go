// Package metric provides Prometheus metrics for sesskeep.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: Registry with operation, refresh and gateway metrics
//   - collector.go: Scrape-time collector for the current session flags
//
// Each Registry owns a private prometheus.Registry, so several managers in
// one process (tests, mostly) never collide. A nil *Registry is valid and
// records nothing.
package metric
