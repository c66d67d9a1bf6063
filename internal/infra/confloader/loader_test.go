package confloader

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

type testConfig struct {
	Gateway struct {
		BaseURL   string        `koanf:"base_url"`
		Timeout   time.Duration `koanf:"timeout"`
		RateLimit float64       `koanf:"rate_limit"`
	} `koanf:"gateway"`
	Storage struct {
		InMemory bool `koanf:"in_memory"`
	} `koanf:"storage"`
	Output string `koanf:"output"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"SESSKEEP_GATEWAY_TIMEOUT", "gateway.timeout"},
		{"SESSKEEP_GATEWAY_BASE_URL", "gateway.base_url"},
		{"SESSKEEP_OUTPUT", "output"},
		{"SESSKEEP_WATCH_REFRESH_INTERVAL", "watch.refresh_interval"},
	}
	for _, tt := range tests {
		if got := EnvKey(DefaultEnvPrefix, tt.env); got != tt.want {
			t.Errorf("EnvKey(%q) = %q, want %q", tt.env, got, tt.want)
		}
	}
}

func TestLoader_Layers(t *testing.T) {
	path := writeConfig(t, `
gateway:
  base_url: "http://file:1"
  timeout: 10s
output: yaml
`)

	tests := []struct {
		name        string
		env         map[string]string
		overrides   map[string]any
		wantURL     string
		wantOutput  string
		wantMemory  bool
		wantTimeout time.Duration
	}{
		{
			name:        "file only",
			wantURL:     "http://file:1",
			wantOutput:  "yaml",
			wantTimeout: 10 * time.Second,
		},
		{
			name:        "env beats file",
			env:         map[string]string{"SESSKEEP_GATEWAY_BASE_URL": "http://env:2", "SESSKEEP_STORAGE_IN_MEMORY": "true"},
			wantURL:     "http://env:2",
			wantOutput:  "yaml",
			wantMemory:  true,
			wantTimeout: 10 * time.Second,
		},
		{
			name:        "overrides beat env",
			env:         map[string]string{"SESSKEEP_GATEWAY_BASE_URL": "http://env:2", "SESSKEEP_OUTPUT": "json"},
			overrides:   map[string]any{"gateway.base_url": "http://flag:3", "output": "", "storage.in_memory": nil},
			wantURL:     "http://flag:3",
			wantOutput:  "json",
			wantTimeout: 10 * time.Second,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			var cfg testConfig
			cfg.Gateway.RateLimit = 7
			l := NewLoader(WithConfigFile(path), WithOverrides(tt.overrides))
			if err := l.Load(&cfg); err != nil {
				t.Fatalf("Load() error = %v", err)
			}

			if cfg.Gateway.BaseURL != tt.wantURL {
				t.Errorf("BaseURL = %q, want %q", cfg.Gateway.BaseURL, tt.wantURL)
			}
			if cfg.Output != tt.wantOutput {
				t.Errorf("Output = %q, want %q", cfg.Output, tt.wantOutput)
			}
			if cfg.Storage.InMemory != tt.wantMemory {
				t.Errorf("InMemory = %v, want %v", cfg.Storage.InMemory, tt.wantMemory)
			}
			if cfg.Gateway.Timeout != tt.wantTimeout {
				t.Errorf("Timeout = %v, want %v", cfg.Gateway.Timeout, tt.wantTimeout)
			}
			if cfg.Gateway.RateLimit != 7 {
				t.Errorf("RateLimit = %v, want preset 7", cfg.Gateway.RateLimit)
			}
		})
	}
}

func TestLoader_SkippedOverridesLeaveNoKey(t *testing.T) {
	l := NewLoader(WithOverrides(map[string]any{"output": "", "storage.in_memory": nil, "gateway.burst": 3}))
	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatal(err)
	}
	keys := l.Keys()
	if slices.Contains(keys, "output") || slices.Contains(keys, "storage.in_memory") {
		t.Errorf("skipped overrides present in keys %v", keys)
	}
	if got := l.String("gateway.burst"); got != "3" {
		t.Errorf("gateway.burst = %q, want 3", got)
	}
}

func TestLoader_CustomPrefix(t *testing.T) {
	t.Setenv("MYAPP_GATEWAY_RATE_LIMIT", "2.5")

	var cfg testConfig
	if err := NewLoader(WithEnvPrefix("MYAPP_")).Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Gateway.RateLimit != 2.5 {
		t.Errorf("RateLimit = %v, want 2.5", cfg.Gateway.RateLimit)
	}
}

func TestLoader_FileErrors(t *testing.T) {
	for name, path := range map[string]string{
		"missing":      filepath.Join(t.TempDir(), "nope.yaml"),
		"invalid yaml": writeConfig(t, "gateway: [unclosed"),
	} {
		t.Run(name, func(t *testing.T) {
			var cfg testConfig
			if err := NewLoader(WithConfigFile(path)).Load(&cfg); err == nil {
				t.Fatal("Load() should fail")
			}
		})
	}
}
