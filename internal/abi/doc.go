// Package abi decides how values cross a call boundary.
//
// ClassifyArgument and ClassifyReturn turn a shape.Shape into a
// PassingStrategy or ReturnStrategy. They pattern-match the shape and ask the
// active TargetABIRules for aggregate-level decisions, recursing into members
// for shapes the target does not special-case. Both sides of a call (the
// callee prologue and the caller) run the same procedure; a RegisterBudget
// threaded through the calls is the only state that differs between
// parameters.
//
// Unsupported shapes, cross-side disagreement and illegal coercions are
// internal errors. They are raised with panic and turned back into errors at
// the driver boundary with Recover.
package abi
