// Package lower turns passing and return strategies into instructions.
//
// The callee side (MaterializePrologueArguments, BindReturnSlot, EmitReturn)
// and the caller side (MarshalCallArguments, PrepareCallReturn,
// FinishCallReturn) share one set of helpers that move register words
// between memory and values, so the bytes a caller loads are exactly the
// bytes the callee stores. Undersized tails always go through a temporary
// and are copied one byte at a time; no access ever touches memory past
// the value it belongs to.
package lower
