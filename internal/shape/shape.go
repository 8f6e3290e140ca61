// Package shape describes how a type looks to a calling convention: an
// immutable tree of scalars, vectors, records, unions, arrays and complex
// numbers annotated with sizes and offsets for one target.
package shape

import (
	"fmt"

	"callconv/internal/types"
)

// Kind is the tag of a Shape.
type Kind uint8

const (
	Scalar Kind = iota
	Vector
	Record
	Union
	Array
	Complex
)

func (k Kind) String() string {
	switch k {
	case Scalar:
		return "scalar"
	case Vector:
		return "vector"
	case Record:
		return "record"
	case Union:
		return "union"
	case Array:
		return "array"
	case Complex:
		return "complex"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// ScalarKind classifies leaf values.
type ScalarKind uint8

const (
	Int ScalarKind = iota
	Pointer
	Float
)

func (k ScalarKind) String() string {
	switch k {
	case Int:
		return "int"
	case Pointer:
		return "ptr"
	case Float:
		return "float"
	default:
		return fmt.Sprintf("ScalarKind(%d)", k)
	}
}

// Field is one member of a record or one alternative of a union.
type Field struct {
	Name   string
	Shape  *Shape
	Offset uint64
	// BitOffset/BitWidth are set for bit-fields; BitOffset counts from Offset.
	BitOffset uint32
	BitWidth  uint32
	Present   types.Presence
}

// Shape is shared and never mutated after Model.ShapeOf returns it.
type Shape struct {
	Kind  Kind
	Name  string
	Size  uint64
	Align uint64

	// Scalar payload.
	Scalar ScalarKind
	Bits   uint32
	Signed bool

	// Vector, Array and Complex payload.
	Elem  *Shape
	Count uint64

	// Record and Union payload.
	Fields    []Field
	Packed    bool
	Qualified bool

	VariableLength bool
	// Degraded marks shapes substituted for incomplete or malformed types.
	Degraded bool
}

func (s *Shape) String() string {
	if s == nil {
		return "void"
	}
	if s.Name != "" {
		return s.Name
	}
	return s.Kind.String()
}

// IsLongDouble reports the x87 extended scalar.
func (s *Shape) IsLongDouble() bool {
	return s != nil && s.Kind == Scalar && s.Scalar == Float && s.Bits == 80
}

// IsAggregate reports shapes made of other shapes.
func (s *Shape) IsAggregate() bool {
	if s == nil {
		return false
	}
	switch s.Kind {
	case Record, Union, Array, Complex:
		return true
	default:
		return false
	}
}

// SingleElement returns the only member of a one-field record or a
// one-element array.
func (s *Shape) SingleElement() (*Shape, bool) {
	switch {
	case s == nil:
		return nil, false
	case s.Kind == Record && len(s.Fields) == 1 && s.Fields[0].BitWidth == 0:
		return s.Fields[0].Shape, true
	case s.Kind == Array && s.Count == 1:
		return s.Elem, true
	default:
		return nil, false
	}
}

// Selected returns the union alternative that represents the union when
// classified field by field: the first statically present alternative of a
// qualified union, otherwise the largest one.
func (s *Shape) Selected() (Field, bool) {
	if s == nil || s.Kind != Union || len(s.Fields) == 0 {
		return Field{}, false
	}
	if s.Qualified {
		for _, f := range s.Fields {
			if f.Present == types.PresenceTrue {
				return f, true
			}
		}
	}
	best := s.Fields[0]
	for _, f := range s.Fields[1:] {
		if f.Shape.Size > best.Shape.Size {
			best = f
		}
	}
	return best, true
}
