package engine

import (
	"bytes"
	"context"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bianoble/modsync/internal/cache"
	"github.com/bianoble/modsync/internal/container"
	"github.com/bianoble/modsync/internal/env"
	"github.com/bianoble/modsync/internal/hostrules"
	"github.com/bianoble/modsync/internal/logging"
	"github.com/bianoble/modsync/internal/metrics"
	"github.com/bianoble/modsync/internal/toolchain"
	"github.com/bianoble/modsync/internal/transform"
	"github.com/bianoble/modsync/internal/vcs"
)

// Files is the repository filesystem as the engine sees it. Paths are
// repository-relative and slash-separated unless absolute.
type Files interface {
	ReadFile(rel string) ([]byte, bool, error)
	WriteFile(rel string, data []byte) error
	EnsureDir(path string) error
}

// CredentialResolver finds the token for a host.
type CredentialResolver interface {
	Find(hostType, baseURL string) hostrules.Credentials
}

// Engine reconciles go.sum (and vendor/) after a go.mod edit.
type Engine struct {
	// Executor runs toolchain plans. When nil, a host or docker executor is
	// picked from the request's binary source.
	Executor    toolchain.Executor
	Status      vcs.Provider
	Files       Files
	Credentials CredentialResolver
	Host        env.HostEnvironment
	// RepoRoot is the absolute repository root.
	RepoRoot string
	Metrics  *metrics.Metrics
	Logger   zerolog.Logger
}

// session carries the state of one request.
type session struct {
	req      UpdateArtifactRequest
	lockPath string
	logger   zerolog.Logger
	invoker  *toolchain.Invoker
	plan     toolchain.Plan
	baseline *vcs.Status
	// snapshot holds the pre-invocation contents of vendor files that were
	// already dirty, keyed by path.
	snapshot map[string][]byte
}

// UpdateArtifacts brings the lockfile (and vendor tree, when vendoring is in
// use) in line with req.NewManifestContent. It returns nil when there is
// nothing to commit, the ordered file changes on success, or a single
// artifact error for the lockfile. It never panics on toolchain failure and
// never returns a mix of changes and errors.
func (e *Engine) UpdateArtifacts(ctx context.Context, req UpdateArtifactRequest) []Outcome {
	logger := e.Logger.With().
		Str("request", uuid.NewString()).
		Str("manifest", req.ManifestPath).
		Logger()
	done := logging.LogOperationStart(logger, "updateArtifacts")
	defer done()

	lockPath := LockfilePath(req.ManifestPath)
	outcomes, err := e.reconcile(ctx, logger, req, lockPath)
	if err != nil {
		kind := KindOf(err)
		if kind.IsNoop() {
			logger.Debug().Str("kind", string(kind)).Msg("Nothing to update")
			e.Metrics.ObserveResult(metrics.OutcomeNoop)
			return nil
		}
		logger.Warn().Err(err).Str("kind", string(kind)).Msg("Failed to update artifacts")
		e.Metrics.ObserveResult(metrics.OutcomeError)
		return []Outcome{{ArtifactError: &ArtifactError{
			ArtifactPath: lockPath,
			Message:      failureMessage(err),
		}}}
	}

	logger.Info().Int("changes", len(outcomes)).Msg("Artifacts updated")
	e.Metrics.ObserveResult(metrics.OutcomeChanged)
	return outcomes
}

func (e *Engine) reconcile(ctx context.Context, logger zerolog.Logger, req UpdateArtifactRequest, lockPath string) ([]Outcome, error) {
	prior, ok, err := e.Files.ReadFile(lockPath)
	if err != nil {
		return nil, reconciliationFailure("reading lockfile", err)
	}
	if !ok || len(prior) == 0 {
		logger.Debug().Str("lockfile", lockPath).Msg("No lockfile found")
		return nil, ErrNoLockfile
	}

	// Vendoring is detected before anything runs; a toolchain step that
	// creates modules.txt does not enable it.
	_, vendoring, err := e.Files.ReadFile(VendorModulesPath(req.ManifestPath))
	if err != nil {
		return nil, reconciliationFailure("checking vendor directory", err)
	}

	s := &session{req: req, lockPath: lockPath, logger: logger}
	cleanup, err := e.prepare(s)
	if cleanup != nil {
		defer cleanup()
	}
	if err != nil {
		return nil, err
	}

	if s.baseline, err = e.Status.Status(ctx); err != nil {
		return nil, reconciliationFailure("querying repository status", err)
	}
	if vendoring {
		if s.snapshot, err = e.snapshotVendor(s); err != nil {
			return nil, err
		}
	}

	masked := transform.MaskLocalReplaces(req.NewManifestContent)
	if transform.HasLocalReplaces(req.NewManifestContent) {
		logger.Debug().Msg("Masked local replace directives")
	}
	if err := e.Files.WriteFile(req.ManifestPath, []byte(masked)); err != nil {
		return nil, toolchainFailure("writing manifest", err)
	}
	defer func() {
		if err := e.restoreManifest(req.ManifestPath); err != nil {
			logger.Warn().Err(err).Msg("Failed to restore manifest")
		}
	}()

	tidy := req.Config.HasPostUpdateOption(PostUpdateTidy)
	steps := []toolchain.Step{{Name: "get", Args: []string{"get", "-d", "./..."}}}
	if tidy {
		steps = append(steps, toolchain.Step{Name: "tidy", Args: []string{"mod", "tidy"}})
	}
	if err := s.invoker.Run(ctx, s.plan, steps...); err != nil {
		return nil, toolchainFailure("updating lockfile", err)
	}

	status, err := e.Status.Status(ctx)
	if err != nil {
		return nil, reconciliationFailure("querying repository status", err)
	}
	if !status.IsModified(lockPath) {
		return nil, ErrNoEffectiveChange
	}

	sum, err := e.readLockfile(lockPath)
	if err != nil {
		return nil, err
	}
	if bytes.Equal(sum, prior) {
		return nil, ErrNoEffectiveChange
	}

	var vendorChanges []Outcome
	if vendoring {
		if vendorChanges, err = e.syncVendor(ctx, s, tidy); err != nil {
			return nil, err
		}
		// A tidy following the vendor pass may rewrite the lockfile again.
		if sum, err = e.readLockfile(lockPath); err != nil {
			return nil, err
		}
	}

	outcomes := []Outcome{WriteOutcome(lockPath, sum)}
	outcomes = append(outcomes, vendorChanges...)

	final, err := e.unmaskedManifest(req.ManifestPath)
	if err != nil {
		return nil, reconciliationFailure("reading updated manifest", err)
	}
	if final != req.NewManifestContent {
		outcomes = append(outcomes, WriteOutcome(req.ManifestPath, []byte(final)))
	}
	return outcomes, nil
}

func (e *Engine) readLockfile(lockPath string) ([]byte, error) {
	sum, ok, err := e.Files.ReadFile(lockPath)
	if err != nil || !ok {
		return nil, reconciliationFailure("reading updated lockfile", errOrMissing(err, lockPath))
	}
	return sum, nil
}

// prepare resolves credentials, the module cache and the execution plan.
// The returned cleanup, when non-nil, must run when the request ends.
func (e *Engine) prepare(s *session) (func(), error) {
	cfg := s.req.Config
	cacheDir := cfg.CacheDir
	if cacheDir == "" {
		cacheDir = cache.DefaultDir()
	}
	hostGoPath, _ := e.Host.Get("GOPATH")
	goPath := cache.GoPath(cacheDir, hostGoPath)
	if err := e.Files.EnsureDir(goPath); err != nil {
		return nil, toolchainFailure("preparing module cache", err)
	}

	var creds hostrules.Credentials
	if e.Credentials != nil {
		creds = e.Credentials.Find(hostrules.HostTypeGitHub, hostrules.GitHubAPIURL)
	}

	opts := env.Options{
		BinarySource: cfg.BinarySource,
		Credentials:  creds,
		AppMode:      cfg.AppMode,
		Host:         e.Host,
		GoPath:       goPath,
	}
	var cleanup func()
	if creds.HasToken() && cfg.BinarySource != env.BinarySourceDocker {
		dir, rm, err := cache.Scratch(cacheDir)
		if err != nil {
			return nil, toolchainFailure("preparing git config", err)
		}
		cleanup = rm
		opts.GitConfigPath = filepath.Join(dir, "gitconfig")
	}

	frag, err := env.Build(opts)
	if err != nil {
		return cleanup, toolchainFailure("building environment", err)
	}

	s.plan = toolchain.Plan{
		Command:     "go",
		WorkingDir:  filepath.Join(e.RepoRoot, filepath.FromSlash(path.Dir(s.req.ManifestPath))),
		Env:         frag.Env,
		PreCommands: frag.PreCommands,
	}
	executor := e.Executor
	if cfg.BinarySource == env.BinarySourceDocker {
		image := cfg.Image
		if image == "" {
			image = container.DefaultImage
		}
		s.plan.Container = &toolchain.ContainerSpec{
			Image:             image,
			VersionConstraint: cfg.Compatibility[ToolchainGo],
			Tags:              cfg.ImageTags,
			MountRoot:         e.RepoRoot,
			Volumes:           []string{goPath},
		}
		if executor == nil {
			executor = toolchain.DockerExecutor{}
		}
	} else if executor == nil {
		executor = toolchain.DirectExecutor{}
	}

	s.invoker = &toolchain.Invoker{Executor: executor, Metrics: e.Metrics, Logger: s.logger}
	s.logger.Debug().
		Str("binarySource", string(cfg.BinarySource)).
		Str("gopath", goPath).
		Bool("credentials", creds.HasToken()).
		Strs("hostEnv", e.Host.Keys()).
		Msg("Prepared toolchain plan")
	return cleanup, nil
}

// unmaskedManifest reads the manifest from disk with local replace
// directives restored.
func (e *Engine) unmaskedManifest(manifestPath string) (string, error) {
	data, ok, err := e.Files.ReadFile(manifestPath)
	if err != nil || !ok {
		return "", errOrMissing(err, manifestPath)
	}
	return transform.UnmaskLocalReplaces(string(data)), nil
}

// restoreManifest rewrites the on-disk manifest without replace markers.
func (e *Engine) restoreManifest(manifestPath string) error {
	data, ok, err := e.Files.ReadFile(manifestPath)
	if err != nil || !ok {
		return errOrMissing(err, manifestPath)
	}
	if !strings.Contains(string(data), transform.ReplaceMarker) {
		return nil
	}
	return e.Files.WriteFile(manifestPath, []byte(transform.UnmaskLocalReplaces(string(data))))
}
