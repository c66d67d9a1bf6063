package config

import "time"

// ClientConfig is the root configuration for sesskeep-cli.
type ClientConfig struct {
	Gateway GatewaySection `koanf:"gateway" yaml:"gateway"`
	Storage StorageSection `koanf:"storage" yaml:"storage"`
	Log     LogSection     `koanf:"log" yaml:"log"`
	Watch   WatchSection   `koanf:"watch" yaml:"watch"`

	// Output is the default output format: table, json or yaml.
	Output string `koanf:"output" yaml:"output"`
}

// GatewaySection configures the auth API client.
type GatewaySection struct {
	BaseURL    string        `koanf:"base_url" yaml:"base_url"`
	PathPrefix string        `koanf:"path_prefix" yaml:"path_prefix"`
	Timeout    time.Duration `koanf:"timeout" yaml:"timeout"`
	CAFile     string        `koanf:"ca_file" yaml:"ca_file"`

	// RateLimit is requests per second; 0 disables throttling.
	RateLimit float64 `koanf:"rate_limit" yaml:"rate_limit"`
	Burst     int     `koanf:"burst" yaml:"burst"`
}

// StorageSection configures where session state is persisted.
type StorageSection struct {
	DataDir    string        `koanf:"data_dir" yaml:"data_dir"`
	Namespace  string        `koanf:"namespace" yaml:"namespace"`
	InMemory   bool          `koanf:"in_memory" yaml:"in_memory"`
	SyncWrites bool          `koanf:"sync_writes" yaml:"sync_writes"`
	GCInterval time.Duration `koanf:"gc_interval" yaml:"gc_interval"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}

// WatchSection configures the long-running watch command.
type WatchSection struct {
	RefreshInterval time.Duration `koanf:"refresh_interval" yaml:"refresh_interval"`

	// MetricsAddr serves /metrics when non-empty (e.g. "127.0.0.1:9464").
	MetricsAddr string `koanf:"metrics_addr" yaml:"metrics_addr"`
}
