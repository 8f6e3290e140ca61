package abi

import (
	"fmt"

	"callconv/internal/shape"
)

// UnsupportedShapeError is raised when no classification path applies.
type UnsupportedShapeError struct {
	Type   string
	Path   string
	Target string
	Reason string
}

func (e *UnsupportedShapeError) Error() string {
	return fmt.Sprintf("internal compiler error: unsupported shape %s (at %s) on %s: %s", e.Type, e.Path, e.Target, e.Reason)
}

// ConsistencyError is raised when the prologue and a call site disagree on
// how a value is passed.
type ConsistencyError struct {
	Subject string
	Callee  string
	Caller  string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("internal compiler error: %s: callee expects %s, caller computed %s", e.Subject, e.Callee, e.Caller)
}

// CoercionError is raised when a produced word cannot be cast to the slot
// the callee declared.
type CoercionError struct {
	Subject string
	From    string
	To      string
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("internal compiler error: %s: cannot coerce %s to %s", e.Subject, e.From, e.To)
}

func unsupported(s *shape.Shape, path Path, rules TargetABIRules, reason string) *UnsupportedShapeError {
	return &UnsupportedShapeError{Type: s.String(), Path: path.String(), Target: rules.Name(), Reason: reason}
}

// AssertSameStrategy panics with a ConsistencyError when the two sides disagree.
func AssertSameStrategy(subject string, callee, caller PassingStrategy) {
	if !callee.Equal(caller) {
		panic(&ConsistencyError{Subject: subject, Callee: callee.String(), Caller: caller.String()})
	}
}

// AssertSameReturn is AssertSameStrategy for results.
func AssertSameReturn(subject string, callee, caller ReturnStrategy) {
	if !callee.Equal(caller) {
		panic(&ConsistencyError{Subject: subject, Callee: callee.String(), Caller: caller.String()})
	}
}

// Recover converts an internal ABI panic into *errp. Use it deferred at the
// boundary where one function's lowering starts; unrelated panics propagate.
func Recover(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	switch e := r.(type) {
	case *UnsupportedShapeError:
		*errp = e
	case *ConsistencyError:
		*errp = e
	case *CoercionError:
		*errp = e
	default:
		panic(r)
	}
}
