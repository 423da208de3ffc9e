package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/bianoble/modsync/internal/cache"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show working tree changes and cache usage",
	Long: `Shows the files git reports as modified, added and deleted in the
repository, followed by the cache directory and its size.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}

		st, err := client.Status(cmd.Context())
		if err != nil {
			return fmt.Errorf("reading repository status: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(st.Modified)+len(st.Added)+len(st.Deleted) == 0 {
			info(out, "Working tree clean.")
		}
		for _, group := range []struct {
			label string
			paths []string
			style lipgloss.Style
		}{
			{"modified", st.Modified, styles.ok},
			{"added", st.Added, styles.ok},
			{"deleted", st.Deleted, styles.warn},
		} {
			for _, p := range group.paths {
				fmt.Fprintf(out, "%s %s\n", group.style.Width(9).Render(group.label), p)
			}
		}

		dir := client.CacheDir()
		size, err := cache.Size(dir)
		if err != nil {
			return fmt.Errorf("measuring cache: %w", err)
		}
		fmt.Fprintln(out)
		fmt.Fprintf(out, "%s %s\n", styles.header.Render("cache dir: "), dir)
		fmt.Fprintf(out, "%s %s\n", styles.header.Render("cache size:"), humanSize(size))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
