package confloader

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix is the default environment variable prefix.
const DefaultEnvPrefix = "SESSKEEP_"

// Loader merges the configuration layers into a koanf instance.
type Loader struct {
	k         *koanf.Koanf
	envPrefix string
	file      string
	overrides map[string]any
}

// Option configures a Loader.
type Option func(*Loader)

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) { l.envPrefix = prefix }
}

// WithConfigFile sets the YAML file layer. The file must exist.
func WithConfigFile(path string) Option {
	return func(l *Loader) { l.file = path }
}

// WithOverrides sets dotted-key values applied after every other layer.
// Nil values and empty strings are skipped so unset flags do not mask
// lower layers.
func WithOverrides(values map[string]any) Option {
	return func(l *Loader) { l.overrides = values }
}

// NewLoader creates a loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		k:         koanf.New("."),
		envPrefix: DefaultEnvPrefix,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load applies the file, environment and override layers in that order and
// unmarshals the result into target. Fields with no matching key keep their
// current value, so callers pass a struct pre-filled with defaults.
func (l *Loader) Load(target any) error {
	layers := []struct {
		name  string
		apply func() error
	}{
		{"file", l.loadFile},
		{"env", l.loadEnv},
		{"overrides", l.loadOverrides},
	}
	for _, layer := range layers {
		if err := layer.apply(); err != nil {
			return fmt.Errorf("load %s: %w", layer.name, err)
		}
	}
	if err := l.k.Unmarshal("", target); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}

// String returns the merged value at a dotted key.
func (l *Loader) String(key string) string {
	return l.k.String(key)
}

// Keys returns every merged key.
func (l *Loader) Keys() []string {
	return l.k.Keys()
}

func (l *Loader) loadFile() error {
	if l.file == "" {
		return nil
	}
	if err := l.k.Load(file.Provider(l.file), yaml.Parser()); err != nil {
		return fmt.Errorf("%s: %w", l.file, err)
	}
	return nil
}

// loadEnv maps PREFIX_SECTION_KEY to section.key. Only the first
// underscore after the prefix separates, so SESSKEEP_GATEWAY_BASE_URL is
// gateway.base_url and SESSKEEP_OUTPUT is output.
func (l *Loader) loadEnv() error {
	return l.k.Load(env.Provider(l.envPrefix, ".", func(name string) string {
		return EnvKey(l.envPrefix, name)
	}), nil)
}

func (l *Loader) loadOverrides() error {
	for key, v := range l.overrides {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		if err := l.k.Set(key, v); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

// EnvKey converts an environment variable name into a dotted config key.
func EnvKey(prefix, name string) string {
	section, key, found := strings.Cut(strings.ToLower(strings.TrimPrefix(name, prefix)), "_")
	if !found {
		return section
	}
	return section + "." + key
}
