package toolchain

import (
	"context"
	"fmt"
	"strings"

	"github.com/bianoble/modsync/internal/container"
	"github.com/bianoble/modsync/internal/env"
)

// DockerExecutor runs plans inside a throwaway container. The docker client
// itself runs on the host with only the host-only variables of the plan.
type DockerExecutor struct {
	// Binary is the docker CLI; defaults to "docker".
	Binary string
}

// Run starts the container and waits for it.
func (d DockerExecutor) Run(ctx context.Context, plan Plan) (RunResult, error) {
	args, err := d.Args(plan)
	if err != nil {
		return RunResult{}, err
	}

	clientEnv := make(map[string]string)
	for k, v := range plan.Env {
		if env.HostOnlyKeys[k] {
			clientEnv[k] = v
		}
	}
	return runProcess(ctx, plan.WorkingDir, clientEnv, d.binary(), args)
}

// Args builds the docker CLI arguments for plan.
func (d DockerExecutor) Args(plan Plan) ([]string, error) {
	spec := plan.Container
	if spec == nil {
		return nil, fmt.Errorf("docker executor requires a container spec")
	}
	if plan.Command == "" {
		return nil, fmt.Errorf("plan has no command")
	}

	tag, err := container.ResolveTag(spec.VersionConstraint, spec.Tags)
	if err != nil {
		return nil, fmt.Errorf("resolving image tag: %w", err)
	}

	args := []string{"run", "--rm"}
	mounted := make(map[string]bool)
	for _, vol := range append([]string{spec.MountRoot}, spec.Volumes...) {
		if vol == "" || mounted[vol] {
			continue
		}
		mounted[vol] = true
		args = append(args, "-v", vol+":"+vol)
	}
	if plan.WorkingDir != "" {
		args = append(args, "-w", plan.WorkingDir)
	}
	for _, kv := range env.Pairs(plan.Env) {
		key := kv[:strings.IndexByte(kv, '=')]
		if env.HostOnlyKeys[key] {
			continue
		}
		args = append(args, "-e", kv)
	}
	args = append(args, container.Reference(spec.Image, tag))
	args = append(args, "sh", "-c", Script(plan))
	return args, nil
}

// Script renders the pre-commands and command as a single shell line.
func Script(plan Plan) string {
	parts := make([]string, 0, len(plan.PreCommands)+1)
	for _, pre := range plan.PreCommands {
		parts = append(parts, pre.Shell())
	}
	parts = append(parts, env.Join(append([]string{plan.Command}, plan.Args...)))
	return strings.Join(parts, " && ")
}

func (d DockerExecutor) binary() string {
	if d.Binary == "" {
		return "docker"
	}
	return d.Binary
}
