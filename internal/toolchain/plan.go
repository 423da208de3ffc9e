// Package toolchain runs external toolchain commands, either directly on the
// host or inside a container, strictly one after another.
package toolchain

import (
	"context"
	"fmt"
	"strings"

	"github.com/bianoble/modsync/internal/env"
)

// Plan fully determines one process invocation. Nothing outside the plan
// influences the child process.
type Plan struct {
	Command    string
	Args       []string
	WorkingDir string
	// Env is the complete child environment. Absent keys are unset.
	Env map[string]string
	// PreCommands run before Command, in order, under the same Env.
	PreCommands []env.Command
	// Container selects containerized execution when non-nil.
	Container *ContainerSpec
}

// ContainerSpec describes the sandbox image for containerized runs.
type ContainerSpec struct {
	Image             string
	VersionConstraint string
	// Tags lists candidate image tags for range constraints.
	Tags []string
	// MountRoot is bind-mounted at the same path; usually the repository root.
	MountRoot string
	// Volumes are additional host paths bind-mounted at the same path.
	Volumes []string
}

// WithArgs returns a copy of p running args.
func (p Plan) WithArgs(args ...string) Plan {
	p.Args = append([]string(nil), args...)
	return p
}

// String renders the plan's command line for logs. It never includes
// pre-commands, which may carry credentials.
func (p Plan) String() string {
	return strings.TrimSpace(p.Command + " " + strings.Join(p.Args, " "))
}

// RunResult is the outcome of a process that started.
type RunResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Executor runs a single plan. It returns an error only when the process
// could not be started; a process that ran and failed is reported through
// RunResult.ExitCode.
type Executor interface {
	Run(ctx context.Context, plan Plan) (RunResult, error)
}

// Error reports a failed step. Stderr holds the captured output verbatim.
type Error struct {
	Step     string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Step, e.Err)
	}
	msg := fmt.Sprintf("%s: exit status %d", e.Step, e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message returns the text to surface to users: the captured stderr when
// there is any, otherwise the underlying error.
func (e *Error) Message() string {
	if e.Stderr != "" {
		return e.Stderr
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s exited with status %d", e.Step, e.ExitCode)
}
