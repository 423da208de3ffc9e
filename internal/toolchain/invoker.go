package toolchain

import (
	"context"
	"time"

	"github.com/bianoble/modsync/internal/metrics"
	"github.com/rs/zerolog"
)

// Step is one toolchain command in a sequence.
type Step struct {
	Name string
	Args []string
}

// Invoker runs steps against a base plan, one at a time.
type Invoker struct {
	Executor Executor
	Metrics  *metrics.Metrics
	Logger   zerolog.Logger
}

// Run executes steps in order. The first step that fails to start or exits
// non-zero aborts the sequence with a *Error; later steps do not run.
func (i *Invoker) Run(ctx context.Context, base Plan, steps ...Step) error {
	for _, step := range steps {
		plan := base.WithArgs(step.Args...)
		i.Logger.Debug().
			Str("step", step.Name).
			Str("cmd", plan.Command).
			Strs("args", plan.Args).
			Str("dir", plan.WorkingDir).
			Bool("container", plan.Container != nil).
			Msg("Running toolchain step")

		start := time.Now()
		res, err := i.Executor.Run(ctx, plan)
		elapsed := time.Since(start)

		if err != nil {
			i.Metrics.ObserveInvocation(step.Name, false, elapsed)
			i.Logger.Debug().Err(err).Str("step", step.Name).Msg("Toolchain step could not start")
			return &Error{Step: step.Name, ExitCode: -1, Err: err}
		}
		if res.ExitCode != 0 {
			i.Metrics.ObserveInvocation(step.Name, false, elapsed)
			i.Logger.Debug().
				Str("step", step.Name).
				Int("exitCode", res.ExitCode).
				Str("stderr", res.Stderr).
				Msg("Toolchain step failed")
			return &Error{Step: step.Name, ExitCode: res.ExitCode, Stderr: res.Stderr}
		}

		i.Metrics.ObserveInvocation(step.Name, true, elapsed)
		i.Logger.Trace().Str("step", step.Name).Str("stdout", res.Stdout).Dur("duration", elapsed).Msg("Toolchain step completed")
	}
	return nil
}
