package modsync

import (
	"github.com/bianoble/modsync/internal/config"
	"github.com/bianoble/modsync/internal/engine"
	"github.com/bianoble/modsync/internal/toolchain"
	"github.com/bianoble/modsync/internal/vcs"
)

// Type aliases re-export internal types as the public API.
// Users import "github.com/bianoble/modsync/pkg/modsync" and use
// modsync.Outcome, modsync.FileChange, etc.

type UpdateArtifactRequest = engine.UpdateArtifactRequest
type UpdateConfig = engine.UpdateConfig
type Outcome = engine.Outcome
type FileChange = engine.FileChange
type ChangeOp = engine.ChangeOp
type ArtifactError = engine.ArtifactError

type Executor = toolchain.Executor
type Plan = toolchain.Plan
type RunResult = toolchain.RunResult

type Status = vcs.Status
type Config = config.Config
type ConfigLayerInfo = config.ConfigLayerInfo

const (
	OpWrite  = engine.OpWrite
	OpDelete = engine.OpDelete

	PostUpdateTidy = engine.PostUpdateTidy
)
