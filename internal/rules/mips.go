package rules

import (
	"callconv/internal/abi"
	"callconv/internal/shape"
)

// MIPSEABI implements the 32-bit MIPS EABI with a 64-bit FPU: aggregates
// larger than a word go by reference-to-copy, everything else in a0-a7 and
// f12-f19.
type MIPSEABI struct{}

var _ abi.TargetABIRules = MIPSEABI{}

func (MIPSEABI) Name() string          { return "mips-eabi" }
func (MIPSEABI) WordSize() uint64      { return 4 }
func (MIPSEABI) Registers() (int, int) { return 8, 8 }

// SupportsScalar: no x87 format and no 128-bit integers.
func (MIPSEABI) SupportsScalar(s *shape.Shape) bool {
	if s.Scalar == shape.Float {
		return s.Bits == 32 || s.Bits == 64
	}
	return s.Bits <= 64
}

func (MIPSEABI) ScalarWord(s *shape.Shape) (abi.LegalizedWord, bool) {
	if s.Kind != shape.Scalar {
		return abi.LegalizedWord{}, false
	}
	if s.Scalar != shape.Float && s.Size > 4 {
		return abi.LegalizedWord{}, false
	}
	return abi.NaturalWord(s)
}

func (MIPSEABI) FirstClassAggregate(*shape.Shape) bool { return false }

func (MIPSEABI) ShouldPassAggregateInMixedRegisters(*shape.Shape) ([]abi.LegalizedWord, bool) {
	return nil, false
}

// ShouldPassAggregateInMemory applies the one-word threshold. Doubleword
// scalars wrapped in an aggregate still travel in a register pair.
func (MIPSEABI) ShouldPassAggregateInMemory(s *shape.Shape) bool {
	if s.Kind == shape.Scalar {
		return false
	}
	if s.Size <= 4 {
		return false
	}
	return !isDoublewordScalar(s)
}

func isDoublewordScalar(s *shape.Shape) bool {
	for s.Size == 8 {
		if s.Kind == shape.Scalar {
			return true
		}
		inner, ok := s.SingleElement()
		if !ok {
			return false
		}
		s = inner
	}
	return false
}

func (MIPSEABI) ShouldPassInIntegerRegisters(s *shape.Shape) abi.IntegerPlan {
	return abi.IntegerPlan{OK: true, ByteSize: roundUp(s.Size, 4)}
}

func (MIPSEABI) PartiallyAvailable(words []abi.LegalizedWord, budget *abi.RegisterBudget, isShadowReturn bool) bool {
	return abi.PartiallyAvailable(words, budget, isShadowReturn)
}

func (MIPSEABI) VectorReturnAsScalar(*shape.Shape) bool { return false }

func (MIPSEABI) MultipleReturnRegisters(*shape.Shape) ([]abi.LegalizedWord, bool) {
	return nil, false
}

// SmallAggregateReturnInRegister: records of at most one word come back in v0.
func (MIPSEABI) SmallAggregateReturnInRegister() bool { return true }

func (MIPSEABI) ShadowReturnsPointer() bool { return false }
