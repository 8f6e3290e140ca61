// Package ir is the small instruction set the lowering code emits into.
//
// Two builders implement it: Text prints an LLVM-like listing and Machine
// executes every operation on bounds-checked byte memory.
package ir

// Builder receives the instructions of one prologue or call sequence.
//
// Alignments are explicit on every memory operation and must be powers of
// two. Builders are not safe for concurrent use.
type Builder interface {
	// PtrType is the target pointer type.
	PtrType() Type
	// Param returns incoming value number i, typed t.
	Param(i int, t Type) Value
	// Undef returns a value of t with unspecified contents.
	Undef(t Type) Value
	// Alloca reserves size bytes of local storage and returns its address.
	Alloca(size, align uint64) Value
	Load(t Type, ptr Value, align uint64) Value
	Store(v, ptr Value, align uint64)
	// BitCast reinterprets v as t. The sizes must match.
	BitCast(v Value, t Type) Value
	// PtrAdd offsets a pointer by off bytes.
	PtrAdd(ptr Value, off uint64) Value
}

// AlignAt is the alignment guaranteed at byte offset off from a base
// aligned to align.
func AlignAt(align, off uint64) uint64 {
	if align == 0 {
		align = 1
	}
	if off == 0 {
		return align
	}
	return min(align, off&-off)
}
