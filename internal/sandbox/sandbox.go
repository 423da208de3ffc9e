// Package sandbox confines file access to a repository root. Paths handed
// to it are repository-relative and slash-separated, as the VCS reports them.
package sandbox

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Root is the filesystem collaborator for one repository work tree.
type Root struct {
	Dir string
}

// New returns a Root for dir.
func New(dir string) Root {
	return Root{Dir: dir}
}

// ValidatePath checks that rel resolves inside root, following symlinks in
// the longest existing prefix. It returns the resolved absolute path.
func ValidatePath(root, rel string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving repository root: %w", err)
	}
	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", fmt.Errorf("resolving repository root symlinks: %w", err)
	}

	candidate := filepath.Clean(filepath.Join(realRoot, filepath.FromSlash(rel)))
	resolved, err := resolveExistingPath(candidate)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	rootPrefix := realRoot + string(filepath.Separator)
	if resolved != realRoot && !strings.HasPrefix(resolved, rootPrefix) {
		return "", fmt.Errorf("path '%s' resolves to '%s' which is outside the repository root '%s'", rel, resolved, realRoot)
	}
	return resolved, nil
}

// resolveExistingPath resolves symlinks for the longest existing prefix of
// path and appends the missing suffix.
func resolveExistingPath(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}

	dir := filepath.Dir(path)
	if dir == path {
		return path, nil
	}
	resolvedDir, err := resolveExistingPath(dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedDir, filepath.Base(path)), nil
}

// Abs returns the validated absolute path of rel.
func (r Root) Abs(rel string) (string, error) {
	return ValidatePath(r.Dir, rel)
}

// ReadFile returns the content of rel. ok is false when the file does not
// exist; that is not an error.
func (r Root) ReadFile(rel string) (data []byte, ok bool, err error) {
	p, err := r.Abs(rel)
	if err != nil {
		return nil, false, err
	}
	data, err = os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading %s: %w", rel, err)
	}
	return data, true, nil
}

// WriteFile atomically replaces rel with data, creating parent directories.
// An existing file keeps its permission bits; new files get 0644.
func (r Root) WriteFile(rel string, data []byte) error {
	resolved, err := r.Abs(rel)
	if err != nil {
		return err
	}
	if _, err := r.Abs(filepath.Dir(filepath.FromSlash(rel))); err != nil {
		return fmt.Errorf("parent directory escapes repository root: %w", err)
	}

	perm := fs.FileMode(0644)
	if info, err := os.Stat(resolved); err == nil {
		perm = info.Mode().Perm()
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	// Same directory so the rename stays on one filesystem.
	tmp, err := os.CreateTemp(dir, ".modsync-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, resolved); err != nil {
		return fmt.Errorf("renaming temp file to %s: %w", resolved, err)
	}

	success = true
	return nil
}

// EnsureDir creates path and its parents if absent. Relative paths are
// confined to the root; absolute paths (such as a module cache outside the
// repository) are created as given.
func (r Root) EnsureDir(path string) error {
	target := path
	if !filepath.IsAbs(path) {
		resolved, err := r.Abs(path)
		if err != nil {
			return err
		}
		target = resolved
	}
	if err := os.MkdirAll(target, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", target, err)
	}
	return nil
}
