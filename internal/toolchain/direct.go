package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/bianoble/modsync/internal/env"
)

// DirectExecutor runs plans on the host with an allowlisted environment.
type DirectExecutor struct{}

// Run executes the plan's pre-commands then its command. A failing
// pre-command stops the run and its result is returned.
func (DirectExecutor) Run(ctx context.Context, plan Plan) (RunResult, error) {
	if plan.Container != nil {
		return RunResult{}, fmt.Errorf("direct executor cannot run containerized plan")
	}
	if plan.Command == "" {
		return RunResult{}, fmt.Errorf("plan has no command")
	}

	for _, pre := range plan.PreCommands {
		res, err := runProcess(ctx, plan.WorkingDir, plan.Env, pre.Name, pre.Args)
		if err != nil {
			return RunResult{}, fmt.Errorf("pre-command %s: %w", pre.Name, err)
		}
		if res.ExitCode != 0 {
			return res, nil
		}
	}
	return runProcess(ctx, plan.WorkingDir, plan.Env, plan.Command, plan.Args)
}

func runProcess(ctx context.Context, dir string, vars map[string]string, name string, args []string) (RunResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	// Never nil: a nil Env would inherit the host environment.
	cmd.Env = env.Pairs(vars)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := RunResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			if res.ExitCode == 0 {
				res.ExitCode = -1
			}
			return res, nil
		}
		return RunResult{}, err
	}
	return res, nil
}
