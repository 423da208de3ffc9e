package engine

import (
	"path"
	"strings"

	"github.com/bianoble/modsync/internal/env"
)

// PostUpdateTidy enables `go mod tidy` after fetching and after vendoring.
const PostUpdateTidy = "gomodTidy"

// ToolchainGo is the compatibility key for the go toolchain version.
const ToolchainGo = "go"

// UpdateConfig parameterizes one request.
type UpdateConfig struct {
	CacheDir          string
	BinarySource      env.BinarySource
	PostUpdateOptions []string
	// Compatibility maps a toolchain name to a version constraint.
	Compatibility map[string]string
	// AppMode marks tokens as GitHub App installation tokens.
	AppMode bool
	// Image and ImageTags configure containerized runs.
	Image     string
	ImageTags []string
}

// HasPostUpdateOption reports whether opt is enabled.
func (c UpdateConfig) HasPostUpdateOption(opt string) bool {
	for _, o := range c.PostUpdateOptions {
		if o == opt {
			return true
		}
	}
	return false
}

// UpdateArtifactRequest asks for the artifacts of one edited manifest.
type UpdateArtifactRequest struct {
	// ManifestPath is repository-relative and slash-separated.
	ManifestPath string
	// NewManifestContent is the content the caller wants resolved. It is
	// never modified.
	NewManifestContent string
	Config             UpdateConfig
}

// ChangeOp is the kind of a FileChange.
type ChangeOp string

const (
	OpWrite  ChangeOp = "write"
	OpDelete ChangeOp = "delete"
)

// FileChange is a single filesystem mutation to commit.
type FileChange struct {
	Op       ChangeOp
	Path     string
	Contents []byte
}

// ArtifactError carries the failure of one artifact.
type ArtifactError struct {
	ArtifactPath string
	Message      string
}

// Outcome is exactly one of a file change or an artifact error.
type Outcome struct {
	File          *FileChange
	ArtifactError *ArtifactError
}

// WriteOutcome builds a write outcome.
func WriteOutcome(p string, contents []byte) Outcome {
	return Outcome{File: &FileChange{Op: OpWrite, Path: p, Contents: contents}}
}

// DeleteOutcome builds a delete outcome.
func DeleteOutcome(p string) Outcome {
	return Outcome{File: &FileChange{Op: OpDelete, Path: p}}
}

// LockfilePath derives the lockfile from a manifest path by replacing its
// extension: go.mod → go.sum.
func LockfilePath(manifestPath string) string {
	ext := path.Ext(manifestPath)
	return strings.TrimSuffix(manifestPath, ext) + ".sum"
}

// VendorDir returns the vendor directory prefix (with trailing slash) that
// belongs to manifestPath.
func VendorDir(manifestPath string) string {
	return path.Join(path.Dir(manifestPath), "vendor") + "/"
}

// VendorModulesPath returns the vendoring marker file for manifestPath.
func VendorModulesPath(manifestPath string) string {
	return VendorDir(manifestPath) + "modules.txt"
}
