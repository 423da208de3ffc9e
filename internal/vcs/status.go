// Package vcs reports working-tree changes relative to the last commit.
package vcs

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strings"
)

// Status buckets repository-relative, slash-separated paths.
type Status struct {
	Modified []string
	Added    []string
	Deleted  []string
}

// IsModified reports whether path is in Modified.
func (s *Status) IsModified(path string) bool {
	return contains(s.Modified, path)
}

// Provider reports the working-tree status.
type Provider interface {
	Status(ctx context.Context) (*Status, error)
}

// Git queries status with the git CLI.
type Git struct {
	// Root is the directory paths are reported relative to. It may be a
	// subdirectory of the work tree.
	Root string
	// Binary defaults to "git".
	Binary string
	// Env holds the host variables forwarded to git (see HostVars).
	Env []string
}

// Status runs `git status --porcelain=v1 -z --untracked-files=all` and
// rebases the entries onto Root. Entries outside Root are dropped.
func (g *Git) Status(ctx context.Context) (*Status, error) {
	prefix, err := g.run(ctx, "rev-parse", "--show-prefix")
	if err != nil {
		return nil, fmt.Errorf("git status failed: %w", err)
	}
	out, err := g.run(ctx, "status", "--porcelain=v1", "-z", "--untracked-files=all")
	if err != nil {
		return nil, fmt.Errorf("git status failed: %w", err)
	}
	st, err := ParsePorcelain(out)
	if err != nil {
		return nil, err
	}
	return st.Within(strings.TrimSuffix(string(prefix), "\n")), nil
}

func (g *Git) run(ctx context.Context, args ...string) ([]byte, error) {
	bin := g.Binary
	if bin == "" {
		bin = "git"
	}
	cmd := exec.CommandContext(ctx, bin, append([]string{"-C", g.Root}, args...)...)
	cmd.Env = append([]string{"GIT_TERMINAL_PROMPT=0", "GIT_OPTIONAL_LOCKS=0", "LC_ALL=C"}, g.Env...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", strings.TrimSpace(stderr.String()), err)
	}
	return out, nil
}

// Within returns the entries under the slash-terminated prefix, with the
// prefix stripped. An empty prefix returns s unchanged.
func (s *Status) Within(prefix string) *Status {
	if prefix == "" {
		return s
	}
	return &Status{
		Modified: under(s.Modified, prefix),
		Added:    under(s.Added, prefix),
		Deleted:  under(s.Deleted, prefix),
	}
}

func under(paths []string, prefix string) []string {
	var out []string
	for _, p := range paths {
		if rel, ok := strings.CutPrefix(p, prefix); ok && rel != "" {
			out = append(out, rel)
		}
	}
	return out
}

// ParsePorcelain parses `git status --porcelain=v1 -z` output.
//
// Untracked ("??") and index-added ("A") entries are added; "M" and "T" in
// either column are modified; "D" in either column is deleted. For renames
// and copies the new path is added and, for renames, the old path deleted.
func ParsePorcelain(out []byte) (*Status, error) {
	st := &Status{}
	entries := strings.Split(string(out), "\x00")
	for i := 0; i < len(entries); i++ {
		e := entries[i]
		if e == "" {
			continue
		}
		if len(e) < 4 || e[2] != ' ' {
			return nil, fmt.Errorf("malformed status entry %q", e)
		}
		x, y, path := e[0], e[1], e[3:]

		switch {
		case x == '?' && y == '?':
			st.Added = append(st.Added, path)
		case x == '!' && y == '!':
			// ignored files are not artifacts
		case x == 'R' || x == 'C':
			if i+1 >= len(entries) {
				return nil, fmt.Errorf("rename entry %q missing source path", e)
			}
			i++
			st.Added = append(st.Added, path)
			if x == 'R' {
				st.Deleted = append(st.Deleted, entries[i])
			}
		case x == 'D' || y == 'D':
			st.Deleted = append(st.Deleted, path)
		case x == 'A':
			st.Added = append(st.Added, path)
		case x == 'M' || y == 'M' || x == 'T' || y == 'T':
			st.Modified = append(st.Modified, path)
		}
	}
	sort.Strings(st.Modified)
	sort.Strings(st.Added)
	sort.Strings(st.Deleted)
	return st, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
