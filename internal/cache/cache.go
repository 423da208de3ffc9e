// Package cache lays out the directories modsync hands to the toolchain.
package cache

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const appDirName = "modsync"

// DefaultDir returns the default cache root, $XDG_CACHE_HOME/modsync.
func DefaultDir() string {
	return filepath.Join(xdg.CacheHome, appDirName)
}

// GoPath returns the module cache root for the toolchain: hostGoPath when
// the host already has one, otherwise <dir>/others/go.
func GoPath(dir, hostGoPath string) string {
	if hostGoPath != "" {
		return hostGoPath
	}
	return filepath.Join(dir, "others", "go")
}

// Scratch creates a private per-request directory under dir. The returned
// cleanup removes it; call it when the request ends so nothing written there
// (such as credentials) outlives the request.
func Scratch(dir string) (path string, cleanup func(), err error) {
	base := filepath.Join(dir, "scratch")
	if err := os.MkdirAll(base, 0700); err != nil {
		return "", nil, fmt.Errorf("creating scratch root %s: %w", base, err)
	}
	path, err = os.MkdirTemp(base, "req-*")
	if err != nil {
		return "", nil, fmt.Errorf("creating scratch directory: %w", err)
	}
	return path, func() { _ = os.RemoveAll(path) }, nil
}

// Size returns the total size in bytes of regular files under dir. A missing
// dir has size zero.
func Size(dir string) (int64, error) {
	var total int64
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == dir {
				return filepath.SkipDir
			}
			return err
		}
		if info.Mode().IsRegular() {
			total += info.Size()
		}
		return nil
	})
	return total, err
}
