package abi

import (
	"fmt"
	"slices"
)

// PassingKind tags a PassingStrategy.
type PassingKind uint8

const (
	ByRegister PassingKind = iota
	ByValueInMemory
	ByInvisibleReference
	FirstClassAggregateValue
	// Dropped is a zero-sized value: no operand and no register.
	Dropped
)

func (k PassingKind) String() string {
	switch k {
	case ByRegister:
		return "ByRegister"
	case ByValueInMemory:
		return "ByValueInMemory"
	case ByInvisibleReference:
		return "ByInvisibleReference"
	case FirstClassAggregateValue:
		return "FirstClassAggregateValue"
	case Dropped:
		return "Dropped"
	default:
		return fmt.Sprintf("PassingKind(%d)", k)
	}
}

// PassingStrategy is the decision for one parameter.
type PassingStrategy struct {
	Kind  PassingKind
	Words []LegalizedWord // ByRegister
	Align uint64          // ByValueInMemory
}

// Equal compares strategies word by word.
func (p PassingStrategy) Equal(o PassingStrategy) bool {
	return p.Kind == o.Kind && p.Align == o.Align && slices.Equal(p.Words, o.Words)
}

func (p PassingStrategy) String() string {
	switch p.Kind {
	case ByRegister:
		return "ByRegister(" + FormatWords(p.Words) + ")"
	case ByValueInMemory:
		return fmt.Sprintf("ByValueInMemory(align=%d)", p.Align)
	default:
		return p.Kind.String()
	}
}

func inRegisters(words []LegalizedWord) PassingStrategy {
	return PassingStrategy{Kind: ByRegister, Words: words}
}

func inMemory(align uint64) PassingStrategy {
	if align == 0 {
		align = 1
	}
	return PassingStrategy{Kind: ByValueInMemory, Align: align}
}

// ReturnKind tags a ReturnStrategy.
type ReturnKind uint8

const (
	ReturnVoid ReturnKind = iota
	ScalarRegister
	ScalarFromAggregateBits
	MultipleRegisters
	ShadowPointer
)

func (k ReturnKind) String() string {
	switch k {
	case ReturnVoid:
		return "Void"
	case ScalarRegister:
		return "ScalarRegister"
	case ScalarFromAggregateBits:
		return "ScalarFromAggregateBits"
	case MultipleRegisters:
		return "MultipleRegisters"
	case ShadowPointer:
		return "ShadowPointer"
	default:
		return fmt.Sprintf("ReturnKind(%d)", k)
	}
}

// ReturnStrategy is the decision for a function result.
//
// ScalarRegister and ScalarFromAggregateBits carry exactly one word; for the
// latter it is the power-of-two integer container loaded at Offset.
type ReturnStrategy struct {
	Kind                 ReturnKind
	Words                []LegalizedWord
	Offset               uint64
	CalleeReturnsPointer bool
}

// Equal compares strategies word by word.
func (r ReturnStrategy) Equal(o ReturnStrategy) bool {
	return r.Kind == o.Kind && r.Offset == o.Offset &&
		r.CalleeReturnsPointer == o.CalleeReturnsPointer && slices.Equal(r.Words, o.Words)
}

// IsShadow reports whether the callee receives a hidden destination pointer.
func (r ReturnStrategy) IsShadow() bool {
	return r.Kind == ShadowPointer
}

func (r ReturnStrategy) String() string {
	switch r.Kind {
	case ScalarRegister:
		return "ScalarRegister(" + FormatWords(r.Words) + ")"
	case ScalarFromAggregateBits:
		return fmt.Sprintf("ScalarFromAggregateBits(offset=%d, %s)", r.Offset, FormatWords(r.Words))
	case MultipleRegisters:
		return "MultipleRegisters(" + FormatWords(r.Words) + ")"
	case ShadowPointer:
		return fmt.Sprintf("ShadowPointer(returnsPointer=%t)", r.CalleeReturnsPointer)
	default:
		return r.Kind.String()
	}
}
