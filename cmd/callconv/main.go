package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"callconv/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "callconv",
	Short: "Calling-convention lowering for C-like function catalogs",
	Long: `callconv decides how each parameter and result of a catalog of C-like
functions crosses the call boundary on a target, emits the prologue and
call-site code for that decision, and can simulate the call to prove the
two sides agree.`,
	SilenceErrors: true,
}

// errReported is returned once diagnostics have been printed; main exits
// non-zero without printing it again.
var errReported = errors.New("diagnostics reported")

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(lowerCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(targetsCmd)
	rootCmd.AddCommand(versionCmd)

	flags := rootCmd.PersistentFlags()
	flags.String("color", "auto", "colorize output (auto|on|off)")
	flags.Bool("quiet", false, "print diagnostics and the summary only")
	flags.Bool("timings", false, "show timing information")
	flags.Int("max-diagnostics", 100, "maximum number of diagnostics to keep")
	flags.String("ui", "auto", "progress UI (auto|on|off)")
	flags.Int("jobs", 0, "max parallel workers (0=auto)")

	flags.String("trace", "", "write a trace to this file (- for stderr)")
	flags.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	flags.String("trace-format", "auto", "trace format (auto|text|ndjson)")
	flags.String("trace-mode", "ring", "trace storage (stream|ring|both)")
	flags.Int("trace-ring-size", 4096, "events kept by the ring buffer")
	flags.Duration("trace-heartbeat", time.Duration(0), "emit heartbeat events at this interval (0 disables)")

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

// isTerminal reports whether f is attached to a tty. Reports and
// diagnostics written to files or pipes stay plain.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// useColor resolves --color against the file output goes to.
func useColor(cmd *cobra.Command, f *os.File) (bool, error) {
	value, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, fmt.Errorf("failed to get color flag: %w", err)
	}
	t, err := parseToggle("color", value)
	if err != nil {
		return false, err
	}
	return t.enabled(func() bool { return isTerminal(f) }), nil
}
