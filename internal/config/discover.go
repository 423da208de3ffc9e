package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/adrg/xdg"
)

const configBaseName = "modsync"
const configDirName = "modsync"

// configFileNames are probed in order within a directory.
var configFileNames = []string{
	configBaseName + ".yaml",
	configBaseName + ".yml",
	configBaseName + ".toml",
}

// ConfigLevel represents the precedence level of a configuration file.
type ConfigLevel string

const (
	LevelSystem  ConfigLevel = "system"
	LevelUser    ConfigLevel = "user"
	LevelProject ConfigLevel = "project"
)

// ConfigLayerInfo describes a discovered config file and its load status.
type ConfigLayerInfo struct {
	Err    error // non-nil if the file exists but failed to load
	Path   string
	Level  ConfigLevel
	Loaded bool
}

// DiscoverOptions controls how config paths are discovered.
type DiscoverOptions struct {
	// ProjectPath is the project-level config path. When empty, the first
	// of modsync.yaml, modsync.yml or modsync.toml found in ProjectDir is used.
	ProjectPath string

	// ProjectDir is the repository root searched when ProjectPath is empty.
	ProjectDir string

	// NoInherit skips the system and user layers, as MODSYNC_NO_INHERIT does.
	NoInherit bool

	// Lookup resolves MODSYNC_NO_INHERIT. Nil means os.LookupEnv.
	Lookup func(string) (string, bool)

	// SystemConfigPath overrides the default system config path.
	// Empty means use the OS default. Set to a nonexistent path to skip.
	SystemConfigPath string

	// UserConfigPath overrides the default user config path.
	// Empty means use the OS default. Set to a nonexistent path to skip.
	UserConfigPath string
}

// DiscoverPaths returns the ordered list of config file paths to check,
// from lowest precedence (system) to highest (project).
// Paths are deduplicated by resolved absolute path.
func DiscoverPaths(opts DiscoverOptions) []ConfigLayerInfo {
	var layers []ConfigLayerInfo
	seen := make(map[string]bool)

	addLayer := func(level ConfigLevel, path string) {
		if path == "" {
			return
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		if seen[abs] {
			return
		}
		seen[abs] = true
		layers = append(layers, ConfigLayerInfo{
			Path:  path,
			Level: level,
		})
	}

	// System-level config.
	sysPath := opts.SystemConfigPath
	if sysPath == "" {
		sysPath = defaultSystemConfigPath()
	}
	userPath := opts.UserConfigPath
	if userPath == "" {
		userPath = defaultUserConfigPath()
	}
	if !opts.NoInherit && !EnvNoInherit(opts.Lookup) {
		addLayer(LevelSystem, sysPath)
		addLayer(LevelUser, userPath)
	}

	// Project-level config (always last, highest precedence).
	projectPath := opts.ProjectPath
	if projectPath == "" && opts.ProjectDir != "" {
		projectPath = FindInDir(opts.ProjectDir)
	}
	addLayer(LevelProject, projectPath)

	return layers
}

// defaultSystemConfigPath returns the platform-standard system config path.
func defaultSystemConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		pd := os.Getenv("ProgramData")
		if pd == "" {
			pd = `C:\ProgramData`
		}
		return filepath.Join(pd, configDirName, configFileNames[0])
	default: // linux, darwin, etc.
		return filepath.Join("/etc", configDirName, configFileNames[0])
	}
}

// defaultUserConfigPath returns $XDG_CONFIG_HOME/modsync/modsync.yaml, or
// the first existing alternative format in that directory.
func defaultUserConfigPath() string {
	dir := filepath.Join(xdg.ConfigHome, configDirName)
	if found := FindInDir(dir); found != "" {
		return found
	}
	return filepath.Join(dir, configFileNames[0])
}

// FindInDir returns the first config file present in dir, or "".
func FindInDir(dir string) string {
	for _, name := range configFileNames {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// EnvNoInherit returns true if MODSYNC_NO_INHERIT is set to "1" or "true".
// System and user layers are then skipped. A nil lookup reads the process
// environment.
func EnvNoInherit(lookup func(string) (string, bool)) bool {
	return envBoolTrue(lookup, EnvPrefix+"NO_INHERIT")
}

// envBoolTrue returns true if the env var is set to "1" or "true" (case-insensitive).
func envBoolTrue(lookup func(string) (string, bool), key string) bool {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	v, _ := lookup(key)
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "1" || v == "true"
}
