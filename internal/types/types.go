package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	// KindIncomplete is a declared-but-never-defined type (opaque struct).
	KindIncomplete
	KindBool
	KindInt
	KindUint
	KindFloat
	KindPointer
	KindArray
	KindVector
	KindComplex
	KindStruct
	KindUnion
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindIncomplete:
		return "incomplete"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindPointer:
		return "pointer"
	case KindArray:
		return "array"
	case KindVector:
		return "vector"
	case KindComplex:
		return "complex"
	case KindStruct:
		return "struct"
	case KindUnion:
		return "union"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// IsAggregate reports kinds that are made of other types.
func (k Kind) IsAggregate() bool {
	switch k {
	case KindArray, KindComplex, KindStruct, KindUnion:
		return true
	default:
		return false
	}
}

// Width captures the precision of integers/floats in bits.
type Width uint8

const (
	WidthAny Width = 0
	Width8   Width = 8
	Width16  Width = 16
	Width32  Width = 32
	Width64  Width = 64
	// Width80 is the x87 extended precision format (long double).
	Width80  Width = 80
	Width128 Width = 128
)

// ArrayDynamicLength marks arrays whose length is only known at run time (T[]).
const ArrayDynamicLength = ^uint32(0)

// Type is a compact descriptor for any supported type.
type Type struct {
	Kind    Kind
	Elem    TypeID
	Count   uint32 // arrays and vectors (ArrayDynamicLength means variable length)
	Width   Width  // numeric primitives
	Payload uint32 // index into record storage for structs and unions
}

// Descriptor helpers ---------------------------------------------------------

// MakeInt describes a signed integer of the given width.
func MakeInt(width Width) Type {
	return Type{Kind: KindInt, Width: width}
}

// MakeUint describes an unsigned integer type.
func MakeUint(width Width) Type {
	return Type{Kind: KindUint, Width: width}
}

// MakeFloat describes a floating-point type.
func MakeFloat(width Width) Type {
	return Type{Kind: KindFloat, Width: width}
}

// MakeArray describes an array of element type. Use ArrayDynamicLength
// for variable-length arrays (T[]).
func MakeArray(elem TypeID, count uint32) Type {
	return Type{Kind: KindArray, Elem: elem, Count: count}
}

// MakeVector describes a SIMD vector of count lanes.
func MakeVector(elem TypeID, count uint32) Type {
	return Type{Kind: KindVector, Elem: elem, Count: count}
}

// MakeComplex describes _Complex elem.
func MakeComplex(elem TypeID) Type {
	return Type{Kind: KindComplex, Elem: elem}
}

// MakePointer describes a raw pointer.
func MakePointer(elem TypeID) Type {
	return Type{Kind: KindPointer, Elem: elem}
}
