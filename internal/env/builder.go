// Package env assembles the environment and pre-invocation commands for a
// toolchain run.
package env

import (
	"fmt"
	"sort"

	"github.com/bianoble/modsync/internal/hostrules"
)

// BinarySource selects where the toolchain binary comes from.
type BinarySource string

const (
	// BinarySourceDirect runs the toolchain installed on the host.
	BinarySourceDirect BinarySource = "direct"
	// BinarySourceDocker runs the toolchain inside a container image.
	BinarySourceDocker BinarySource = "docker"
)

// Command is a single process invocation as an argument vector.
type Command struct {
	Name string
	Args []string
}

// Argv returns the full argument vector.
func (c Command) Argv() []string {
	return append([]string{c.Name}, c.Args...)
}

// Shell renders the command for `sh -c`, quoting every element.
func (c Command) Shell() string {
	return Join(c.Argv())
}

// Options are the inputs of Build.
type Options struct {
	BinarySource BinarySource
	Credentials  hostrules.Credentials
	// AppMode prefixes tokens with "x-access-token:" as GitHub App
	// installation tokens require.
	AppMode bool
	Host    HostEnvironment
	// GoPath is the module cache root handed to the toolchain.
	GoPath string
	// GitConfigPath is a request-scoped git config file. It receives the
	// credential rewrite rule in direct mode so the user's own global config
	// is never touched.
	GitConfigPath string
}

// Fragment is the environment portion of an execution plan.
type Fragment struct {
	// Env holds every variable set in the child. A key that is absent is
	// not set at all.
	Env         map[string]string
	PreCommands []Command
}

// Pairs renders an env map as sorted KEY=VALUE strings.
func Pairs(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+m[k])
	}
	return out
}

// Build assembles the toolchain environment.
func Build(opts Options) (Fragment, error) {
	if opts.GoPath == "" {
		return Fragment{}, fmt.Errorf("building environment: GOPATH is required")
	}

	frag := Fragment{Env: map[string]string{
		"GOPATH":              opts.GoPath,
		"GIT_TERMINAL_PROMPT": "0",
	}}
	for _, k := range passthroughKeys {
		if v, ok := opts.Host.Get(k); ok {
			frag.Env[k] = v
		}
	}

	if opts.BinarySource == BinarySourceDocker {
		// Toolchain images ship without a C compiler.
		frag.Env["CGO_ENABLED"] = "0"
	}

	if opts.Credentials.HasToken() {
		frag.PreCommands = []Command{GitHubInsteadOf(opts.Credentials.Token, opts.AppMode)}
		if opts.BinarySource != BinarySourceDocker {
			if opts.GitConfigPath == "" {
				return Fragment{}, fmt.Errorf("building environment: scoped git config path is required when a token is present")
			}
			frag.Env["GIT_CONFIG_GLOBAL"] = opts.GitConfigPath
		}
	}

	return frag, nil
}

// GitHubInsteadOf returns the git command that makes fetches of
// https://github.com/ carry token as URL userinfo.
func GitHubInsteadOf(token string, appMode bool) Command {
	if appMode {
		token = "x-access-token:" + token
	}
	return Command{
		Name: "git",
		Args: []string{
			"config", "--global",
			"url.https://" + token + "@github.com/.insteadOf",
			"https://github.com/",
		},
	}
}
