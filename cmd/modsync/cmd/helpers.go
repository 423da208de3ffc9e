package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"github.com/bianoble/modsync/internal/logging"
	"github.com/bianoble/modsync/pkg/modsync"
)

type palette struct {
	ok     lipgloss.Style
	warn   lipgloss.Style
	err    lipgloss.Style
	dim    lipgloss.Style
	header lipgloss.Style
}

var styles = palette{
	ok:     lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	warn:   lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	err:    lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
	dim:    lipgloss.NewStyle().Faint(true),
	header: lipgloss.NewStyle().Bold(true),
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// colorEnabled decides whether styled output goes to w.
func colorEnabled(w io.Writer) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	if !isTerminal(w) {
		return false
	}
	return termenv.ColorProfile() != termenv.Ascii
}

// setupColor selects the lipgloss color profile for w.
func setupColor(w io.Writer) {
	if colorEnabled(w) {
		lipgloss.SetColorProfile(termenv.ColorProfile())
		return
	}
	lipgloss.SetColorProfile(termenv.Ascii)
}

// newClient creates a library client from the global flags.
func newClient() (*modsync.Client, error) {
	logger := logging.GetLogger("engine")
	return modsync.New(modsync.Options{
		RepoRoot:   repoRoot,
		ConfigPath: configPath,
		Registerer: registry,
		Logger:     &logger,
	})
}

// info prints a line unless quiet mode is active.
func info(w io.Writer, format string, args ...any) {
	if !quiet {
		fmt.Fprintf(w, format+"\n", args...)
	}
}

// detail prints a line only in verbose mode.
func detail(w io.Writer, format string, args ...any) {
	if verbosity > 0 && !quiet {
		fmt.Fprintf(w, "  "+format+"\n", args...)
	}
}

// humanSize formats a byte count for display.
func humanSize(bytes int64) string {
	if bytes == 0 {
		return "0 B"
	}
	units := []string{"B", "KB", "MB", "GB"}
	size := float64(bytes)
	i := 0
	for size >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%d B", bytes)
	}
	return fmt.Sprintf("%.1f %s", size, units[i])
}
