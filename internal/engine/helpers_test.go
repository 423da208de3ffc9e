package engine

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/bianoble/modsync/internal/env"
	"github.com/bianoble/modsync/internal/metrics"
	"github.com/bianoble/modsync/internal/toolchain"
	"github.com/bianoble/modsync/internal/vcs"
)

// memRepo is an in-memory working tree with a committed HEAD. Its status is
// the difference between the two.
type memRepo struct {
	mu        sync.Mutex
	head      map[string]string
	files     map[string]string
	dirs      []string
	statusErr error
	statusN   int
}

func newMemRepo(committed map[string]string) *memRepo {
	r := &memRepo{head: map[string]string{}, files: map[string]string{}}
	for k, v := range committed {
		r.head[k] = v
		r.files[k] = v
	}
	return r
}

func (r *memRepo) ReadFile(rel string) ([]byte, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.files[rel]
	if !ok {
		return nil, false, nil
	}
	return []byte(v), true, nil
}

func (r *memRepo) WriteFile(rel string, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[rel] = string(data)
	return nil
}

func (r *memRepo) EnsureDir(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dirs = append(r.dirs, path)
	return nil
}

func (r *memRepo) remove(rel string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.files, rel)
}

func (r *memRepo) get(rel string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.files[rel]
}

func (r *memRepo) Status(context.Context) (*vcs.Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statusN++
	if r.statusErr != nil {
		return nil, r.statusErr
	}
	st := &vcs.Status{}
	for p, v := range r.files {
		committed, ok := r.head[p]
		switch {
		case !ok:
			st.Added = append(st.Added, p)
		case committed != v:
			st.Modified = append(st.Modified, p)
		}
	}
	for p := range r.head {
		if _, ok := r.files[p]; !ok {
			st.Deleted = append(st.Deleted, p)
		}
	}
	sort.Strings(st.Modified)
	sort.Strings(st.Added)
	sort.Strings(st.Deleted)
	return st, nil
}

// fakeToolchain applies scripted effects to a memRepo keyed by the command's
// arguments.
type fakeToolchain struct {
	repo     *memRepo
	effects  map[string]func(r *memRepo) toolchain.RunResult
	startErr error
	plans    []toolchain.Plan
	// manifests records the manifest content present when each plan ran.
	manifests    []string
	manifestPath string
}

func (f *fakeToolchain) Run(_ context.Context, plan toolchain.Plan) (toolchain.RunResult, error) {
	f.plans = append(f.plans, plan)
	f.manifests = append(f.manifests, f.repo.get(f.manifestPath))
	if f.startErr != nil {
		return toolchain.RunResult{}, f.startErr
	}
	if effect, ok := f.effects[strings.Join(plan.Args, " ")]; ok {
		return effect(f.repo), nil
	}
	return toolchain.RunResult{}, nil
}

func (f *fakeToolchain) commands() []string {
	out := make([]string, 0, len(f.plans))
	for _, p := range f.plans {
		out = append(out, p.String())
	}
	return out
}

func newFakeToolchain(repo *memRepo, manifestPath string) *fakeToolchain {
	return &fakeToolchain{
		repo:         repo,
		effects:      map[string]func(r *memRepo) toolchain.RunResult{},
		manifestPath: manifestPath,
	}
}

func newTestEngine(t *testing.T, repo *memRepo, tc *fakeToolchain) (*Engine, *metrics.Metrics) {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	return &Engine{
		Executor: tc,
		Status:   repo,
		Files:    repo,
		Host:     env.FromMap(map[string]string{"PATH": "/usr/bin", "HOME": "/home/u"}),
		RepoRoot: "/repo",
		Metrics:  m,
		Logger:   zerolog.Nop(),
	}, m
}

func failWith(stderr string) func(*memRepo) toolchain.RunResult {
	return func(*memRepo) toolchain.RunResult {
		return toolchain.RunResult{ExitCode: 1, Stderr: stderr}
	}
}

func writes(path, content string) func(*memRepo) toolchain.RunResult {
	return func(r *memRepo) toolchain.RunResult {
		_ = r.WriteFile(path, []byte(content))
		return toolchain.RunResult{}
	}
}

var errStatus = errors.New("fatal: not a git repository")
