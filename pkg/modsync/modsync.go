// Package modsync provides the public Go library API for modsync.
//
// modsync regenerates go.sum (and vendor/, when the module is vendored)
// after a go.mod edit and reports the resulting file changes without
// committing them.
//
// # Basic Usage
//
//	client, err := modsync.New(modsync.Options{RepoRoot: "/path/to/repo"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	req := client.NewRequest("go.mod", newContent)
//	for _, o := range client.UpdateArtifacts(ctx, req) {
//	    if o.ArtifactError != nil {
//	        log.Printf("%s: %s", o.ArtifactError.ArtifactPath, o.ArtifactError.Message)
//	    }
//	}
package modsync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/bianoble/modsync/internal/cache"
	"github.com/bianoble/modsync/internal/config"
	"github.com/bianoble/modsync/internal/engine"
	"github.com/bianoble/modsync/internal/env"
	"github.com/bianoble/modsync/internal/hostrules"
	"github.com/bianoble/modsync/internal/logging"
	"github.com/bianoble/modsync/internal/metrics"
	"github.com/bianoble/modsync/internal/sandbox"
	"github.com/bianoble/modsync/internal/vcs"
)

// Updater regenerates artifacts for a manifest edit.
type Updater interface {
	UpdateArtifacts(ctx context.Context, req UpdateArtifactRequest) []Outcome
}

// StatusReader reports the working tree status of the repository.
type StatusReader interface {
	Status(ctx context.Context) (*Status, error)
}

// Options configures a modsync client.
type Options struct {
	// RepoRoot is the repository root. Default: the current directory.
	RepoRoot string

	// ConfigPath is the project config file. If empty, modsync.yaml,
	// modsync.yml or modsync.toml in RepoRoot is used when present.
	ConfigPath string

	// SystemConfigPath and UserConfigPath override the default locations.
	SystemConfigPath string
	UserConfigPath   string

	// NoInherit skips the system and user config layers.
	NoInherit bool

	// Environ replaces the process environment (KEY=VALUE entries) for
	// MODSYNC_* overrides, token_env lookups and host passthrough.
	Environ []string

	// Executor runs toolchain plans. If nil, one is chosen per request.
	Executor Executor

	// Registerer receives the client's metrics. If nil, metrics are kept
	// on a private registry.
	Registerer prometheus.Registerer

	// Logger overrides the default "engine" component logger.
	Logger *zerolog.Logger
}

// Client is the main entry point for the modsync library.
// It implements Updater and StatusReader.
type Client struct {
	root   string
	cfg    *config.Config
	layers []config.ConfigLayerInfo
	status vcs.Provider
	engine *engine.Engine
}

// New creates a client, loading the layered configuration.
func New(opts Options) (*Client, error) {
	root := opts.RepoRoot
	if root == "" {
		root = "."
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving repository root: %w", err)
	}

	environ := opts.Environ
	if environ == nil {
		environ = os.Environ()
	}
	lookup := lookupIn(environ)

	cfg, layers, err := config.LoadLayered(config.LoadOptions{
		DiscoverOptions: config.DiscoverOptions{
			ProjectPath:      opts.ConfigPath,
			ProjectDir:       root,
			NoInherit:        opts.NoInherit,
			Lookup:           lookup,
			SystemConfigPath: opts.SystemConfigPath,
			UserConfigPath:   opts.UserConfigPath,
		},
		Environ: environ,
	})
	if err != nil {
		return nil, err
	}

	logger := logging.GetLogger("engine")
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	reg := opts.Registerer
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	store := hostrules.NewStore(cfg.Rules(lookup)...)
	logger.Debug().
		Str("root", root).
		Int("hostRules", store.Len()).
		Str("binarySource", cfg.BinarySource).
		Msg("Client configured")

	status := &vcs.Git{Root: root, Env: vcs.HostVars(lookup)}
	return &Client{
		root:   root,
		cfg:    cfg,
		layers: layers,
		status: status,
		engine: &engine.Engine{
			Executor:    opts.Executor,
			Status:      status,
			Files:       sandbox.New(root),
			Credentials: store,
			Host:        env.FromLookup(lookup),
			RepoRoot:    root,
			Metrics:     metrics.New(reg),
			Logger:      logger,
		},
	}, nil
}

// RepoRoot returns the absolute repository root.
func (c *Client) RepoRoot() string {
	return c.root
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	return *c.cfg
}

// Layers returns the discovered config layers and their load status.
func (c *Client) Layers() []ConfigLayerInfo {
	return append([]ConfigLayerInfo(nil), c.layers...)
}

// CacheDir returns the configured cache directory, or the default.
func (c *Client) CacheDir() string {
	if c.cfg.CacheDir != "" {
		return c.cfg.CacheDir
	}
	return cache.DefaultDir()
}

// NewRequest builds a request for manifestPath from the client's
// configuration. manifestPath may be absolute or relative to the
// repository root.
func (c *Client) NewRequest(manifestPath, content string) UpdateArtifactRequest {
	return UpdateArtifactRequest{
		ManifestPath:       c.relPath(manifestPath),
		NewManifestContent: content,
		Config: UpdateConfig{
			CacheDir:          c.CacheDir(),
			BinarySource:      env.BinarySource(c.cfg.BinarySource),
			PostUpdateOptions: append([]string(nil), c.cfg.PostUpdateOptions...),
			Compatibility:     c.cfg.Compatibility,
			AppMode:           c.cfg.AppMode,
			Image:             c.cfg.Container.Image,
			ImageTags:         append([]string(nil), c.cfg.Container.Tags...),
		},
	}
}

// UpdateArtifacts regenerates the artifacts for req. It returns nil when
// nothing changed, the file changes to commit, or a single ArtifactError.
func (c *Client) UpdateArtifacts(ctx context.Context, req UpdateArtifactRequest) []Outcome {
	return c.engine.UpdateArtifacts(ctx, req)
}

// Status returns the repository's working tree status.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	return c.status.Status(ctx)
}

func (c *Client) relPath(p string) string {
	if filepath.IsAbs(p) {
		if rel, err := filepath.Rel(c.root, p); err == nil {
			p = rel
		}
	}
	return filepath.ToSlash(filepath.Clean(p))
}

func lookupIn(environ []string) func(string) (string, bool) {
	vars := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}
