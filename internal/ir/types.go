package ir

import (
	"fmt"

	"callconv/internal/abi"
)

// TypeKind is the tag of an IR value type.
type TypeKind uint8

const (
	TInvalid TypeKind = iota
	TInt
	TFloat
	TVector
	TPtr
	// TBytes is an opaque aggregate passed as one first-class value.
	TBytes
)

// Type is a machine-level value type. Types are small comparable values;
// two types are the same slot type only if every field matches.
type Type struct {
	Kind TypeKind
	// Size is the number of bytes a load or store of the type touches.
	Size uint64
	// Lanes and Float describe vector element layout.
	Lanes uint64
	Float bool
	// Signed distinguishes otherwise identical integer slots.
	Signed bool
}

// Int returns an integer type of n bytes.
func Int(n uint64) Type { return Type{Kind: TInt, Size: n} }

// SignedInt returns a signed integer type of n bytes.
func SignedInt(n uint64) Type { return Type{Kind: TInt, Size: n, Signed: true} }

// Float returns a floating-point type of n bytes (4, 8 or 10).
func Float(n uint64) Type { return Type{Kind: TFloat, Size: n, Float: true} }

// Ptr returns a pointer type of n bytes.
func Ptr(n uint64) Type { return Type{Kind: TPtr, Size: n} }

// Bytes returns an opaque aggregate type of n bytes.
func Bytes(n uint64) Type { return Type{Kind: TBytes, Size: n} }

// Vector returns a vector of lanes elements totalling n bytes.
func Vector(n, lanes uint64, float bool) Type {
	return Type{Kind: TVector, Size: n, Lanes: lanes, Float: float}
}

// IsIntLike reports integer and pointer types.
func (t Type) IsIntLike() bool {
	return t.Kind == TInt || t.Kind == TPtr
}

// Lane is the element type of a vector.
func (t Type) Lane() Type {
	if t.Kind != TVector || t.Lanes == 0 {
		return t
	}
	w := t.Size / t.Lanes
	if t.Float {
		return Float(w)
	}
	return Int(w)
}

func (t Type) String() string {
	switch t.Kind {
	case TInt:
		s := fmt.Sprintf("i%d", t.Size*8)
		if t.Signed {
			s = "s" + s
		}
		return s
	case TFloat:
		switch t.Size {
		case 4:
			return "float"
		case 8:
			return "double"
		case 10:
			return "x86_fp80"
		}
		return fmt.Sprintf("f%d", t.Size*8)
	case TVector:
		return fmt.Sprintf("<%d x %s>", t.Lanes, t.Lane())
	case TPtr:
		return "ptr"
	case TBytes:
		return fmt.Sprintf("[%d x i8]", t.Size)
	default:
		return "invalid"
	}
}

// Word returns the register type of a word kind.
func Word(k abi.WordKind) Type {
	switch {
	case k.IsInteger():
		return Int(k.Bytes())
	case k.IsFloat():
		return Float(k.Bytes())
	case k.IsVector():
		lanes, _ := k.Lanes()
		float := k == abi.WordV2F32 || k == abi.WordV4F32 || k == abi.WordV2F64
		return Vector(k.Bytes(), lanes, float)
	default:
		return Type{}
	}
}

// Value is an SSA value produced by a Builder. The zero Value is invalid.
type Value struct {
	ID   int
	Type Type
}

// Valid reports whether v was produced by a builder.
func (v Value) Valid() bool { return v.ID > 0 }
