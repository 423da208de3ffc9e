package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/bianoble/modsync/internal/container"
	"github.com/bianoble/modsync/internal/hostrules"
)

// EnvPrefix prefixes environment overrides, e.g. MODSYNC_BINARY_SOURCE.
const EnvPrefix = "MODSYNC_"

// Known post-update options.
var postUpdateOptions = map[string]bool{
	"gomodTidy": true,
}

// Defaults returns the built-in configuration layer.
func Defaults() map[string]any {
	return map[string]any{
		"version":             CurrentVersion,
		"binary_source":       BinarySourceDirect,
		"app_mode":            false,
		"container.image":     container.DefaultImage,
		"post_update_options": []string{},
	}
}

// Load reads a single configuration file on top of the defaults and
// validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}
	if err := loadFile(k, path); err != nil {
		return nil, err
	}
	return finish(k)
}

// LoadOptions controls LoadLayered.
type LoadOptions struct {
	DiscoverOptions
	// Environ supplies MODSYNC_* overrides; nil reads the process
	// environment, an empty non-nil slice disables overrides.
	Environ []string
}

// LoadLayered merges the defaults, every discovered layer that exists (in
// precedence order) and MODSYNC_* environment overrides. It returns the
// layers with their load status alongside the merged config.
func LoadLayered(opts LoadOptions) (*Config, []ConfigLayerInfo, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, nil, fmt.Errorf("loading defaults: %w", err)
	}

	if opts.Lookup == nil && opts.Environ != nil {
		opts.Lookup = environLookup(opts.Environ)
	}
	layers := DiscoverPaths(opts.DiscoverOptions)
	for i := range layers {
		layer := &layers[i]
		if _, err := os.Stat(layer.Path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			layer.Err = err
			return nil, layers, fmt.Errorf("checking %s config %s: %w", layer.Level, layer.Path, err)
		}
		if err := loadFile(k, layer.Path); err != nil {
			layer.Err = err
			return nil, layers, err
		}
		layer.Loaded = true
	}

	if err := loadEnv(k, opts.Environ); err != nil {
		return nil, layers, err
	}

	cfg, err := finish(k)
	return cfg, layers, err
}

func loadFile(k *koanf.Koanf, path string) error {
	parser, err := parserFor(path)
	if err != nil {
		return err
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	return nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".toml":
		return toml.Parser(), nil
	default:
		return nil, fmt.Errorf("config %s: unsupported format, use .yaml or .toml", path)
	}
}

// environLookup resolves keys against KEY=VALUE entries.
func environLookup(environ []string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		for i := len(environ) - 1; i >= 0; i-- {
			if k, v, ok := strings.Cut(environ[i], "="); ok && k == key {
				return v, true
			}
		}
		return "", false
	}
}

// nestedSections are keys whose environment names carry a sub-key after the
// first underscore: MODSYNC_CONTAINER_IMAGE → container.image.
var nestedSections = []string{"container_", "compatibility_"}

// envKey maps an environment variable name to a config key.
func envKey(name string) string {
	key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	for _, section := range nestedSections {
		if strings.HasPrefix(key, section) && len(key) > len(section) {
			return strings.TrimSuffix(section, "_") + "." + key[len(section):]
		}
	}
	return key
}

func loadEnv(k *koanf.Koanf, environ []string) error {
	if environ == nil {
		return k.Load(env.Provider(EnvPrefix, ".", envKey), nil)
	}
	values := make(map[string]any)
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, EnvPrefix) {
			continue
		}
		values[envKey(name)] = value
	}
	if len(values) == 0 {
		return nil
	}
	return k.Load(confmap.Provider(values, "."), nil)
}

func finish(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	conf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook:       mapstructure.StringToSliceHookFunc(","),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, conf); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if errs := Validate(&cfg); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}
	return &cfg, nil
}

// ValidationError holds multiple validation failures.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Validate checks a Config for semantic correctness.
// Returns a list of validation error messages (empty if valid).
func Validate(cfg *Config) []string {
	var errs []string

	if cfg.Version != CurrentVersion {
		errs = append(errs, fmt.Sprintf("unsupported version %d: only version %d is supported", cfg.Version, CurrentVersion))
	}

	switch cfg.BinarySource {
	case BinarySourceDirect, BinarySourceDocker:
	case "":
		errs = append(errs, "'binary_source' is required: must be one of: direct, docker")
	default:
		errs = append(errs, fmt.Sprintf("invalid binary_source '%s': must be one of: direct, docker", cfg.BinarySource))
	}

	for _, opt := range cfg.PostUpdateOptions {
		if !postUpdateOptions[opt] {
			errs = append(errs, fmt.Sprintf("unknown post_update_options entry '%s': must be one of: gomodTidy", opt))
		}
	}

	for name, constraint := range cfg.Compatibility {
		if name == "" || strings.TrimSpace(constraint) == "" {
			errs = append(errs, fmt.Sprintf("compatibility '%s': constraint must not be empty", name))
		}
	}

	if cfg.BinarySource == BinarySourceDocker && cfg.Container.Image == "" {
		errs = append(errs, "container: 'image' is required when binary_source is docker")
	}

	for i, hr := range cfg.HostRules {
		prefix := fmt.Sprintf("host_rule[%d]", i)
		if hr.BaseURL != "" {
			prefix = fmt.Sprintf("host_rule for '%s'", hr.BaseURL)
		}
		switch hr.HostType {
		case "", hostrules.HostTypeGitHub, hostrules.HostTypeGitLab, hostrules.HostTypeGo:
		default:
			errs = append(errs, fmt.Sprintf("%s: unknown host_type '%s': must be one of: github, gitlab, go", prefix, hr.HostType))
		}
		if hr.Token == "" && hr.TokenEnv == "" {
			errs = append(errs, fmt.Sprintf("%s: one of 'token' or 'token_env' is required", prefix))
		}
		if hr.Token != "" && hr.TokenEnv != "" {
			errs = append(errs, fmt.Sprintf("%s: 'token' and 'token_env' are mutually exclusive", prefix))
		}
	}

	return errs
}
