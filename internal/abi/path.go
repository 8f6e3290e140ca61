package abi

import (
	"strconv"
	"strings"
)

// Path locates a member inside the value being classified. It is passed by
// value through the recursive walks and never mutated: every step returns a
// new Path.
type Path struct {
	steps []string
}

// Root starts a path at the named value.
func Root(name string) Path {
	return Path{steps: []string{name}}
}

// Field descends into a named record member or union alternative.
func (p Path) Field(name string) Path {
	if name == "" {
		name = "<anon>"
	}
	return p.with("." + name)
}

// Index descends into an array or complex element.
func (p Path) Index(i uint64) Path {
	return p.with("[" + strconv.FormatUint(i, 10) + "]")
}

func (p Path) with(step string) Path {
	steps := make([]string, len(p.steps), len(p.steps)+1)
	copy(steps, p.steps)
	return Path{steps: append(steps, step)}
}

// Depth is the number of steps below the root.
func (p Path) Depth() int {
	return max(len(p.steps)-1, 0)
}

func (p Path) String() string {
	return strings.Join(p.steps, "")
}
