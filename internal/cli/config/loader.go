package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/yndnr/sesskeep-go/internal/infra/confloader"
)

// Load builds the configuration from defaults, the file at path, SESSKEEP_*
// environment variables and overrides (dotted koanf keys, typically from
// flags). An empty path uses DefaultConfigPath when that file exists; an
// explicit path must exist.
//
// The returned path is the file actually loaded, or "" for none.
func Load(path string, overrides map[string]any) (*ClientConfig, string, error) {
	if path == "" {
		candidate := DefaultConfigPath()
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, "", fmt.Errorf("stat %s: %w", candidate, err)
		}
	}

	opts := []confloader.Option{confloader.WithOverrides(overrides)}
	if path != "" {
		opts = append(opts, confloader.WithConfigFile(path))
	}

	cfg := Default()
	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, "", err
	}

	if err := Verify(cfg); err != nil {
		return nil, "", fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, path, nil
}
