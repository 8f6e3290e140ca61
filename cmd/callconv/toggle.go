package main

import (
	"fmt"
	"os"
	"strings"
)

// toggle is the auto|on|off value behind --ui and --color.
type toggle uint8

const (
	toggleAuto toggle = iota
	toggleOn
	toggleOff
)

var toggleValues = map[string]toggle{
	"":     toggleAuto,
	"auto": toggleAuto,
	"on":   toggleOn,
	"off":  toggleOff,
}

func parseToggle(flag, value string) (toggle, error) {
	if t, ok := toggleValues[strings.ToLower(strings.TrimSpace(value))]; ok {
		return t, nil
	}
	return toggleAuto, fmt.Errorf("invalid --%s value %q (expected auto|on|off)", flag, value)
}

// enabled falls back to detect only in auto.
func (t toggle) enabled(detect func() bool) bool {
	switch t {
	case toggleOn:
		return true
	case toggleOff:
		return false
	default:
		return detect()
	}
}

// progressMinFunctions is the catalog size below which auto skips the
// live progress view.
const progressMinFunctions = 8

func showProgress(ui toggle, functions int) bool {
	return ui.enabled(func() bool {
		return functions > progressMinFunctions && isTerminal(os.Stdout) && isTerminal(os.Stdin)
	})
}
