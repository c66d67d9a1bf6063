package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/yndnr/sesskeep-go/internal/telemetry/logger"
)

// Verify validates the configuration.
func Verify(cfg *ClientConfig) error {
	return errors.Join(
		verifyGateway(&cfg.Gateway),
		verifyStorage(&cfg.Storage),
		verifyLog(&cfg.Log),
		verifyWatch(&cfg.Watch),
		verifyOutput(cfg.Output),
	)
}

func verifyGateway(cfg *GatewaySection) error {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return errors.New("gateway.base_url is required")
	}
	raw := cfg.BaseURL
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return fmt.Errorf("gateway.base_url %q is not a valid URL", cfg.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("gateway.base_url scheme must be http or https, got %q", u.Scheme)
	}
	if cfg.Timeout < 0 {
		return errors.New("gateway.timeout must not be negative")
	}
	if cfg.RateLimit < 0 {
		return errors.New("gateway.rate_limit must not be negative")
	}
	if cfg.Burst < 0 {
		return errors.New("gateway.burst must not be negative")
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	if !cfg.InMemory && cfg.DataDir == "" {
		return errors.New("storage.data_dir is required unless storage.in_memory is set")
	}
	if cfg.GCInterval < 0 {
		return errors.New("storage.gc_interval must not be negative")
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if !logger.ValidLevel(cfg.Level) {
		return fmt.Errorf("log.level %q must be one of debug, info, warn, error", cfg.Level)
	}
	if _, ok := logger.ParseFormat(cfg.Format); !ok {
		return fmt.Errorf("log.format %q must be text or json", cfg.Format)
	}
	return nil
}

func verifyWatch(cfg *WatchSection) error {
	if cfg.RefreshInterval < 0 {
		return errors.New("watch.refresh_interval must not be negative")
	}
	if cfg.MetricsAddr != "" {
		if _, _, err := net.SplitHostPort(cfg.MetricsAddr); err != nil {
			return fmt.Errorf("watch.metrics_addr: %w", err)
		}
	}
	return nil
}

func verifyOutput(format string) error {
	switch format {
	case "table", "json", "yaml":
		return nil
	default:
		return fmt.Errorf("output %q must be table, json or yaml", format)
	}
}
