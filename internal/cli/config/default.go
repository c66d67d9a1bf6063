package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default configuration values.
const (
	DefaultBaseURL    = "http://localhost:3000"
	DefaultPathPrefix = "/api/auth"
	DefaultTimeout    = 30 * time.Second

	DefaultNamespace  = "sesskeep/"
	DefaultGCInterval = 10 * time.Minute

	DefaultLogLevel  = "warn"
	DefaultLogFormat = "text"

	DefaultRefreshInterval = 10 * time.Minute

	DefaultOutput = "table"
)

// DefaultHome returns the per-user sesskeep directory.
func DefaultHome() string {
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		return ".sesskeep"
	}
	return filepath.Join(homeDir, ".sesskeep")
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultHome(), "config.yaml")
}

// Default returns the default client configuration.
func Default() *ClientConfig {
	return &ClientConfig{
		Gateway: GatewaySection{
			BaseURL:    DefaultBaseURL,
			PathPrefix: DefaultPathPrefix,
			Timeout:    DefaultTimeout,
		},
		Storage: StorageSection{
			DataDir:    filepath.Join(DefaultHome(), "data"),
			Namespace:  DefaultNamespace,
			SyncWrites: true,
			GCInterval: DefaultGCInterval,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Watch: WatchSection{
			RefreshInterval: DefaultRefreshInterval,
		},
		Output: DefaultOutput,
	}
}
