package rules

import (
	"fmt"
	"sort"
	"strings"

	"callconv/internal/abi"
	"callconv/internal/layout"
)

// Options carries the per-target knobs read from configuration. Fields that
// do not apply to the selected target are ignored.
type Options struct {
	FirstClassAggregates bool
	RegParm              int
	SSE                  bool
	// SingleElementAsScalar is nil when unset; i386 then defaults to true.
	SingleElementAsScalar *bool
	SmallStructReturn     bool
	MaxRegisterAggregate  uint64
}

// Target bundles the data layout and the calling-convention rules chosen
// for one configuration.
type Target struct {
	Name   string
	Layout layout.Target
	Rules  abi.TargetABIRules
}

type entry struct {
	canonical string
	aliases   []string
	build     func(Options) Target
}

var registry = []entry{
	{
		canonical: "x86_64-unknown-linux-gnu",
		aliases:   []string{"amd64", "x86_64", "x86_64-linux-gnu", "x86-64"},
		build: func(o Options) Target {
			return Target{Layout: layout.X86_64LinuxGNU(), Rules: AMD64{FirstClassAggregates: o.FirstClassAggregates}}
		},
	},
	{
		canonical: "i386-unknown-linux-gnu",
		aliases:   []string{"i386", "i686", "x86", "i386-linux-gnu", "i686-unknown-linux-gnu"},
		build: func(o Options) Target {
			single := true
			if o.SingleElementAsScalar != nil {
				single = *o.SingleElementAsScalar
			}
			return Target{Layout: layout.I386LinuxGNU(), Rules: I386{
				RegParm:               o.RegParm,
				SSE:                   o.SSE,
				SingleElementAsScalar: single,
				SmallStructReturn:     o.SmallStructReturn,
				MaxRegisterAggregate:  o.MaxRegisterAggregate,
			}}
		},
	},
	{
		canonical: "mips-unknown-eabi",
		aliases:   []string{"mips", "mips-eabi", "mipseabi"},
		build: func(Options) Target {
			return Target{Layout: layout.MIPSEABI(), Rules: MIPSEABI{}}
		},
	},
}

// UnknownTargetError reports a triple no rule set is registered for.
type UnknownTargetError struct {
	Triple string
}

func (e *UnknownTargetError) Error() string {
	return fmt.Sprintf("unknown target %q (known: %s)", e.Triple, strings.Join(Names(), ", "))
}

// ForTarget selects the rule set for a triple or alias.
func ForTarget(triple string, opts Options) (Target, error) {
	key := strings.ToLower(strings.TrimSpace(triple))
	if key == "" {
		key = registry[0].canonical
	}
	for _, e := range registry {
		if e.canonical == key || containsString(e.aliases, key) {
			t := e.build(opts)
			t.Name = e.canonical
			return t, nil
		}
	}
	return Target{}, &UnknownTargetError{Triple: triple}
}

// Names lists canonical triples in sorted order.
func Names() []string {
	out := make([]string, 0, len(registry))
	for _, e := range registry {
		out = append(out, e.canonical)
	}
	sort.Strings(out)
	return out
}

// Aliases returns the accepted aliases of a canonical triple.
func Aliases(canonical string) []string {
	for _, e := range registry {
		if e.canonical == canonical {
			return append([]string(nil), e.aliases...)
		}
	}
	return nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
