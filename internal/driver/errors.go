package driver

import (
	"errors"
	"fmt"

	"callconv/internal/abi"
	"callconv/internal/diag"
	"callconv/internal/ir"
	"callconv/internal/layout"
	"callconv/internal/lower"
)

// lowerDiagnostic turns an error from classifying or lowering a function
// into an error diagnostic.
func lowerDiagnostic(subject string, err error) diag.Diagnostic {
	var (
		unsupported *abi.UnsupportedShapeError
		consistency *abi.ConsistencyError
		coercion    *abi.CoercionError
		roundTrip   *lower.RoundTripError
		memory      *ir.MemoryError
	)
	code := diag.UnknownCode
	switch {
	case errors.As(err, &unsupported):
		code = diag.ABIUnsupportedShape
	case errors.As(err, &consistency):
		code = diag.ABIConsistency
	case errors.As(err, &coercion):
		code = diag.ABICoercion
	case errors.As(err, &roundTrip):
		code = diag.ABIRoundTrip
	case errors.As(err, &memory):
		code = diag.ABIMemoryFault
	}
	d := diag.NewError(code, subject, err.Error())
	if unsupported != nil {
		d = d.WithNote(unsupported.Path, "leaf the target has no rule for")
	}
	return d
}

// layoutCode picks the code for a type whose layout failed. Incomplete
// types are a warning: they are lowered as a word-size integer.
func layoutCode(err error) (diag.Code, diag.Severity) {
	var le *layout.LayoutError
	if !errors.As(err, &le) {
		return diag.ABIDegradedShape, diag.SevWarning
	}
	switch le.Kind {
	case layout.LayoutErrRecursiveUnsized:
		return diag.LayRecursive, diag.SevError
	case layout.LayoutErrLengthConversion:
		return diag.LayLength, diag.SevError
	case layout.LayoutErrBitFieldWidth:
		return diag.LayBitFieldWidth, diag.SevError
	case layout.LayoutErrIncomplete:
		return diag.LayIncomplete, diag.SevWarning
	default:
		return diag.ABIDegradedShape, diag.SevWarning
	}
}

// panicError wraps a panic that was not an ABI error.
func panicError(r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("internal error: %w", err)
	}
	return fmt.Errorf("internal error: %v", r)
}
