package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bianoble/modsync/internal/env"
	"github.com/bianoble/modsync/pkg/modsync"
)

var (
	reconcileContentFile string
	reconcileOutput      string
	reconcileResultFile  string
	reconcileTidy        bool
	reconcileDocker      bool
)

// errArtifactFailed is returned when the engine reports an artifact error.
var errArtifactFailed = errors.New("artifact update failed")

var reconcileCmd = &cobra.Command{
	Use:   "reconcile <go.mod>",
	Short: "Regenerate go.sum (and vendor/) for an edited go.mod",
	Long: `Runs the go toolchain against the new go.mod content and prints the file
changes needed to bring go.sum, and vendor/ when present, in line with it.

The new content is read from --content-file, or from the manifest itself when
the flag is omitted. Nothing is committed; the working tree keeps the toolchain
output for inspection.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manifest := args[0]
		contentPath := reconcileContentFile
		if contentPath == "" {
			contentPath = manifest
		}
		content, err := os.ReadFile(contentPath)
		if err != nil {
			return fmt.Errorf("reading manifest content: %w", err)
		}
		if !filepath.IsAbs(manifest) {
			if manifest, err = filepath.Abs(manifest); err != nil {
				return fmt.Errorf("resolving manifest path: %w", err)
			}
		}

		client, err := newClient()
		if err != nil {
			return err
		}
		req := client.NewRequest(manifest, string(content))
		if reconcileTidy && !req.Config.HasPostUpdateOption(modsync.PostUpdateTidy) {
			req.Config.PostUpdateOptions = append(req.Config.PostUpdateOptions, modsync.PostUpdateTidy)
		}
		if reconcileDocker {
			req.Config.BinarySource = env.BinarySourceDocker
		}
		detail(cmd.ErrOrStderr(), "manifest: %s", req.ManifestPath)
		detail(cmd.ErrOrStderr(), "binary source: %s", req.Config.BinarySource)

		outcomes := client.UpdateArtifacts(cmd.Context(), req)

		if reconcileResultFile != "" {
			var buf bytes.Buffer
			if err := renderOutcomes(&buf, resultFormat(reconcileResultFile), outcomes); err != nil {
				return err
			}
			if err := os.WriteFile(reconcileResultFile, buf.Bytes(), 0644); err != nil {
				return fmt.Errorf("writing result file: %w", err)
			}
		}
		if !quiet || reconcileOutput != formatText {
			if err := renderOutcomes(cmd.OutOrStdout(), reconcileOutput, outcomes); err != nil {
				return err
			}
		}

		for _, o := range outcomes {
			if o.ArtifactError != nil {
				return errArtifactFailed
			}
		}
		return nil
	},
}

func init() {
	reconcileCmd.Flags().StringVar(&reconcileContentFile, "content-file", "", "file holding the new go.mod content (default: the manifest itself)")
	reconcileCmd.Flags().StringVarP(&reconcileOutput, "output", "o", formatText, "output format: text, yaml, json")
	reconcileCmd.Flags().StringVar(&reconcileResultFile, "result-file", "", "also write outcomes to this file (.json or .yaml)")
	reconcileCmd.Flags().BoolVar(&reconcileTidy, "tidy", false, "run go mod tidy after updating")
	reconcileCmd.Flags().BoolVar(&reconcileDocker, "docker", false, "run the toolchain in a container")
	rootCmd.AddCommand(reconcileCmd)
}
