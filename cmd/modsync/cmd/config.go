package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the configuration chain and effective configuration",
	Long: `Lists every config layer modsync looks at (system, user, project) with its
load status, then prints the merged configuration, including MODSYNC_*
environment overrides, as YAML. Literal tokens are masked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, styles.header.Render("config chain:"))
		layers := client.Layers()
		if len(layers) == 0 {
			fmt.Fprintf(out, "  %s\n", styles.dim.Render("(defaults only)"))
		}
		for _, layer := range layers {
			status := styles.dim.Render("not found")
			if layer.Loaded {
				status = styles.ok.Render("loaded")
			}
			fmt.Fprintf(out, "  %-10s %s (%s)\n", string(layer.Level)+":", layer.Path, status)
		}

		fmt.Fprintln(out)
		fmt.Fprintln(out, styles.header.Render("effective config:"))
		data, err := yaml.Marshal(client.Config().Redacted())
		if err != nil {
			return fmt.Errorf("encoding config: %w", err)
		}
		fmt.Fprint(out, string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
