package driver

import (
	"callconv/internal/diag"
	"callconv/internal/observ"
)

// Decision is how one parameter or the result crosses the call boundary.
type Decision struct {
	Name     string `msgpack:"name"`
	Type     string `msgpack:"type"`
	Size     uint64 `msgpack:"size"`
	Align    uint64 `msgpack:"align"`
	Kind     string `msgpack:"kind"`
	Strategy string `msgpack:"strategy"`
}

// CheckSummary is the outcome of a simulated round trip.
type CheckSummary struct {
	Operands int `msgpack:"operands"`
	Ops      int `msgpack:"ops"`
}

// FunctionReport is everything the driver learned about one function.
type FunctionReport struct {
	Name   string        `msgpack:"name"`
	Return Decision      `msgpack:"return"`
	Params []Decision    `msgpack:"params"`
	Callee string        `msgpack:"callee,omitempty"`
	Caller string        `msgpack:"caller,omitempty"`
	Check  *CheckSummary `msgpack:"check,omitempty"`
	Failed bool          `msgpack:"failed"`
	Cached bool          `msgpack:"-"`
}

// Result collects the reports of one run, in catalog order.
type Result struct {
	Target    string
	Mode      Mode
	Functions []FunctionReport
	Bag       *diag.Bag
	Timings   observ.Report
}

// Failed counts functions that could not be lowered.
func (r *Result) Failed() int {
	n := 0
	for _, f := range r.Functions {
		if f.Failed {
			n++
		}
	}
	return n
}
