package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var initForce bool

// initTemplate is the default modsync.yaml scaffold.
const initTemplate = `# modsync configuration
version: 1

# Where the module cache and per-request scratch files live.
# Default: $XDG_CACHE_HOME/modsync
# cache_dir: /var/cache/modsync

# Run the go toolchain on the host (direct) or in a container (docker).
binary_source: direct

# Extra steps after go get. gomodTidy runs go mod tidy.
post_update_options:
  - gomodTidy

# Toolchain version constraints, used to pick the container tag.
# compatibility:
#   go: ">=1.21.0 <1.23.0"

# container:
#   image: renovate/go
#   tags: ["1.21.9", "1.22.3"]

# Set when tokens are GitHub App installation tokens.
app_mode: false

# Credentials for private modules. Prefer token_env over literal tokens.
host_rules:
  - host_type: github
    token_env: GITHUB_TOKEN
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter modsync.yaml configuration",
	Long: `Creates a modsync.yaml file in the repository root (or at --config) with a
commented template covering binary source, post-update options, container
settings and host rules.

Use --force to overwrite an existing configuration file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outPath := configPath
		if outPath == "" {
			outPath = filepath.Join(repoRoot, "modsync.yaml")
		}
		if !filepath.IsAbs(outPath) {
			abs, err := filepath.Abs(outPath)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			outPath = abs
		}

		if !initForce {
			if _, err := os.Stat(outPath); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", outPath)
			}
		}

		if err := os.WriteFile(outPath, []byte(initTemplate), 0644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		out := cmd.OutOrStdout()
		info(out, "Created %s", outPath)
		info(out, "")
		info(out, "Next steps:")
		info(out, "  1. Export GITHUB_TOKEN if you depend on private modules")
		info(out, "  2. Edit go.mod, then run 'modsync reconcile go.mod'")
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite existing config file")
	rootCmd.AddCommand(initCmd)
}
