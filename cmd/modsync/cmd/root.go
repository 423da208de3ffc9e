package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/bianoble/modsync/internal/logging"
	"github.com/bianoble/modsync/internal/metrics"
)

// Build-time variables set via -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flags.
var (
	configPath  string
	repoRoot    string
	envFile     string
	verbosity   int
	quiet       bool
	noColor     bool
	logJSON     bool
	metricsFile string
)

// registry collects the metrics of every client created by this process.
var registry = prometheus.NewRegistry()

var rootCmd = &cobra.Command{
	Use:   "modsync",
	Short: "Regenerate go.sum and vendor/ after go.mod edits",
	Long: `modsync reconciles a Go module's go.sum (and vendor/ tree, when the module
is vendored) with an edited go.mod. It runs the go toolchain on the host or in
a container, then reports the exact file writes and deletes to commit.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if envFile != "" {
			if err := godotenv.Load(envFile); err != nil {
				return fmt.Errorf("loading env file %s: %w", envFile, err)
			}
		}
		v := verbosity
		if quiet {
			v = -1
		}
		logging.Setup(logging.Options{
			Verbosity: v,
			JSON:      logJSON,
			NoColor:   noColor || !isTerminal(os.Stderr),
		})
		setupColor(cmd.OutOrStdout())
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "modsync %s\n", version)
		fmt.Fprintf(out, "  commit:  %s\n", commit)
		fmt.Fprintf(out, "  built:   %s\n", date)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to project config file (default: modsync.yaml in the repository root)")
	rootCmd.PersistentFlags().StringVar(&repoRoot, "root", ".", "repository root")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "load environment variables from a dotenv file")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity (repeatable)")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "minimal output (errors only)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "emit logs as JSON lines")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit")

	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command. Metrics are flushed whether or not the
// command succeeded.
func Execute() error {
	err := rootCmd.Execute()
	if ferr := flushMetrics(); ferr != nil && err == nil {
		err = ferr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, styles.err.Render("error:"), err)
		return err
	}
	return nil
}

// flushMetrics writes the registry to --metrics-file when set.
func flushMetrics() error {
	if metricsFile == "" {
		return nil
	}
	if err := metrics.WriteFile(metricsFile, registry); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}
