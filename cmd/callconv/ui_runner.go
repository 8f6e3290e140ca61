package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"callconv/internal/catalog"
	"callconv/internal/driver"
	"callconv/internal/ui"
)

type runOutcome struct {
	result *driver.Result
	err    error
}

// runWithUI runs the driver while a progress view follows its events.
// Quitting the view early does not stop the run; the remaining events are
// drained so the driver never blocks on them.
func runWithUI(ctx context.Context, title string, cat *catalog.Catalog, opts driver.Options) (*driver.Result, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan runOutcome, 1)

	go func() {
		o := opts
		o.Events = events
		res, err := driver.Run(ctx, cat, o)
		outcomeCh <- runOutcome{result: res, err: err}
		close(events)
	}()

	names := make([]string, 0, len(cat.Functions))
	for _, fn := range cat.Functions {
		names = append(names, fn.Name)
	}
	if len(opts.Only) > 0 {
		names = names[:0]
		for _, name := range opts.Only {
			if fn, ok := cat.Function(name); ok {
				names = append(names, fn.Name)
			}
		}
	}
	program := tea.NewProgram(ui.NewProgressModel(title, names, events), tea.WithOutput(os.Stderr))
	_, uiErr := program.Run()
	for range events {
	}
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
