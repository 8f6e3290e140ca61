package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"callconv/internal/catalog"
	"callconv/internal/diag"
	"callconv/internal/driver"
	"callconv/internal/observ"
	"callconv/internal/report"
	"callconv/internal/trace"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [flags] <catalog.toml> [function...]",
	Short: "Show how each parameter and result is passed",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMode(cmd, args, driver.ModeClassify)
	},
}

var lowerCmd = &cobra.Command{
	Use:   "lower [flags] <catalog.toml> [function...]",
	Short: "Emit prologue and call-site listings",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMode(cmd, args, driver.ModeLower)
	},
}

var checkCmd = &cobra.Command{
	Use:   "check [flags] <catalog.toml> [function...]",
	Short: "Simulate each call and verify both sides agree",
	Long: `check lowers every function, runs the caller and callee sides against
a simulated memory, and reports any value whose bytes change on the way.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMode(cmd, args, driver.ModeCheck)
	},
}

func init() {
	for _, c := range []*cobra.Command{classifyCmd, lowerCmd, checkCmd} {
		c.Flags().String("target", "", "target triple; overrides the catalog's [target] table")
		c.Flags().String("format", "text", "output format (text|msgpack)")
		c.Flags().StringP("output", "o", "", "write the report to this file instead of stdout")
		c.Flags().String("cache-dir", "", "report cache directory (default $XDG_CACHE_HOME/callconv)")
		c.Flags().Bool("no-cache", false, "do not read or write the report cache")
	}
}

type runFlags struct {
	target         string
	format         string
	output         string
	cacheDir       string
	noCache        bool
	quiet          bool
	timings        bool
	jobs           int
	maxDiagnostics int
	ui             toggle
}

func readRunFlags(cmd *cobra.Command) (runFlags, error) {
	var (
		f   runFlags
		err error
	)
	if f.target, err = cmd.Flags().GetString("target"); err != nil {
		return f, fmt.Errorf("failed to get target flag: %w", err)
	}
	if f.format, err = cmd.Flags().GetString("format"); err != nil {
		return f, fmt.Errorf("failed to get format flag: %w", err)
	}
	f.format = strings.ToLower(f.format)
	if f.format != "text" && f.format != "msgpack" {
		return f, fmt.Errorf("unknown format %q (expected text|msgpack)", f.format)
	}
	if f.output, err = cmd.Flags().GetString("output"); err != nil {
		return f, fmt.Errorf("failed to get output flag: %w", err)
	}
	if f.cacheDir, err = cmd.Flags().GetString("cache-dir"); err != nil {
		return f, fmt.Errorf("failed to get cache-dir flag: %w", err)
	}
	if f.noCache, err = cmd.Flags().GetBool("no-cache"); err != nil {
		return f, fmt.Errorf("failed to get no-cache flag: %w", err)
	}

	root := cmd.Root().PersistentFlags()
	if f.quiet, err = root.GetBool("quiet"); err != nil {
		return f, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if f.timings, err = root.GetBool("timings"); err != nil {
		return f, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if f.jobs, err = root.GetInt("jobs"); err != nil {
		return f, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if f.maxDiagnostics, err = root.GetInt("max-diagnostics"); err != nil {
		return f, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	uiValue, err := root.GetString("ui")
	if err != nil {
		return f, fmt.Errorf("failed to get ui flag: %w", err)
	}
	if f.ui, err = parseToggle("ui", uiValue); err != nil {
		return f, err
	}
	return f, nil
}

// runMode loads the catalog, runs the driver in mode and writes the
// report. It returns errReported when the run produced errors.
func runMode(cmd *cobra.Command, args []string, mode driver.Mode) error {
	cmd.SilenceUsage = true
	flags, err := readRunFlags(cmd)
	if err != nil {
		return err
	}
	tr, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer tr.close(os.Stderr)

	colorErr, err := useColor(cmd, os.Stderr)
	if err != nil {
		return err
	}
	timer := observ.NewTimer()
	defer func() {
		if flags.timings {
			printTimings(os.Stderr, timer)
		}
	}()

	path := args[0]
	root := trace.Begin(tr.tracer, trace.ScopeDriver, "callconv "+mode.String(), 0)
	defer root.End("")
	ctx := trace.WithParent(cmd.Context(), root.ID())

	endLoad := timer.Track("load")
	span := trace.Begin(tr.tracer, trace.ScopeDriver, "load", root.ID())
	cat, bag := driver.Load(path, catalog.Options{Triple: flags.target}, flags.maxDiagnostics)
	span.End(path)
	if cat == nil {
		endLoad("failed")
		_ = diag.Format(os.Stderr, bag.Items(), colorErr)
		fmt.Fprintln(os.Stderr, diag.Summary(bag))
		return errReported
	}
	endLoad(fmt.Sprintf("%d types, %d functions", len(cat.Declared), len(cat.Functions)))

	opts := driver.Options{
		Mode:           mode,
		Jobs:           flags.jobs,
		MaxDiagnostics: flags.maxDiagnostics,
		Timer:          timer,
		Only:           args[1:],
	}
	if !flags.noCache && mode != driver.ModeClassify {
		cache, cerr := driver.OpenDiskCache(flags.cacheDir)
		if cerr != nil {
			fmt.Fprintf(os.Stderr, "cache disabled: %v\n", cerr)
		} else {
			opts.Cache = cache
		}
	}

	var res *driver.Result
	total := len(opts.Only)
	if total == 0 {
		total = len(cat.Functions)
	}
	if flags.format == "text" && !flags.quiet && showProgress(flags.ui, total) {
		res, err = runWithUI(ctx, fmt.Sprintf("%s %s", mode, path), cat, opts)
	} else {
		res, err = driver.Run(ctx, cat, opts)
	}
	if err != nil {
		trace.Point(tr.tracer, trace.ScopeDriver, "run failed", err.Error(), root.ID())
		return err
	}
	res.Bag.Merge(bag)

	endReport := timer.Track("report")
	span = trace.Begin(tr.tracer, trace.ScopeDriver, "report", root.ID())
	werr := writeReport(res, flags, cmd)
	span.End(flags.format)
	endReport(flags.format)
	if werr != nil {
		return werr
	}

	if res.Bag.HasErrors() || res.Failed() > 0 {
		tr.dumpRing(os.Stderr)
		return errReported
	}
	return nil
}

func writeReport(res *driver.Result, flags runFlags, cmd *cobra.Command) (err error) {
	var out io.Writer = os.Stdout
	dest := os.Stdout
	if flags.output != "" && flags.output != "-" {
		f, ferr := os.Create(flags.output)
		if ferr != nil {
			return fmt.Errorf("create report: %w", ferr)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		out, dest = f, f
	}
	if flags.format == "msgpack" {
		return report.EncodeMsgpack(out, res, flags.timings)
	}
	colored, err := useColor(cmd, dest)
	if err != nil {
		return err
	}
	return report.Text(out, res, report.TextOptions{Color: colored, Quiet: flags.quiet})
}
