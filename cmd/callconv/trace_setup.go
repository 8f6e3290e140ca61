package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"callconv/internal/trace"
)

// tracing is what setupTracing leaves behind for the command.
type tracing struct {
	tracer    trace.Tracer
	format    trace.Format
	heartbeat *trace.Heartbeat
}

// setupTracing reads the trace flags, attaches a tracer to the command's
// context and returns the handle used for cleanup and ring dumps.
func setupTracing(cmd *cobra.Command) (*tracing, error) {
	flags := cmd.Root().PersistentFlags()

	output, err := flags.GetString("trace")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := flags.GetString("trace-level")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	formatStr, err := flags.GetString("trace-format")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-format flag: %w", err)
	}
	modeStr, err := flags.GetString("trace-mode")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-mode flag: %w", err)
	}
	ringSize, err := flags.GetInt("trace-ring-size")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}
	interval, err := flags.GetDuration("trace-heartbeat")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, err
	}
	// A destination without a level means the user wants the phases.
	if level == trace.LevelOff && output != "" {
		level = trace.LevelPhase
	}
	if level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return &tracing{tracer: trace.Nop}, nil
	}

	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return nil, err
	}
	// Streaming somewhere was asked for explicitly.
	if output != "" && mode == trace.ModeRing {
		mode = trace.ModeBoth
	}
	format, err := trace.ParseFormat(formatStr)
	if err != nil {
		return nil, err
	}

	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		Format:     format,
		OutputPath: output,
		RingSize:   ringSize,
		Heartbeat:  interval,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))

	t := &tracing{tracer: tracer, format: format}
	if interval > 0 {
		t.heartbeat = trace.StartHeartbeat(tracer, interval)
	}
	return t, nil
}

// close stops the heartbeat and flushes the tracer.
func (t *tracing) close(errOut io.Writer) {
	if t.heartbeat != nil {
		t.heartbeat.Stop()
	}
	if err := t.tracer.Flush(); err != nil {
		fmt.Fprintf(errOut, "trace: flush error: %v\n", err)
	}
	if err := t.tracer.Close(); err != nil {
		fmt.Fprintf(errOut, "trace: close error: %v\n", err)
	}
}

// dumpRing writes the ring buffer, if the tracer keeps one. Called after a
// run with failures so the events leading up to them are visible.
func (t *tracing) dumpRing(w io.Writer) {
	var ring *trace.RingTracer
	switch tr := t.tracer.(type) {
	case *trace.RingTracer:
		ring = tr
	case *trace.MultiTracer:
		ring = tr.Ring()
	}
	if ring == nil {
		return
	}
	fmt.Fprintln(w, "trace: recent events")
	if err := ring.Dump(w, t.format); err != nil {
		fmt.Fprintf(w, "trace: dump error: %v\n", err)
	}
}
