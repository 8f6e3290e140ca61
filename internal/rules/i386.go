package rules

import (
	"callconv/internal/abi"
	"callconv/internal/shape"
)

// I386 implements the i386 System V convention with the usual GCC knobs.
type I386 struct {
	// RegParm passes the first N integer words in EAX, EDX and ECX.
	RegParm int
	// SSE passes 16-byte vectors as vector words instead of in memory.
	SSE bool
	// SingleElementAsScalar passes a one-member record or array as its member.
	SingleElementAsScalar bool
	// SmallStructReturn returns aggregates of at most 4 bytes in EAX.
	SmallStructReturn bool
	// MaxRegisterAggregate is the largest aggregate passed as integer words.
	MaxRegisterAggregate uint64
}

var _ abi.TargetABIRules = I386{}

func (I386) Name() string     { return "i386-sysv" }
func (I386) WordSize() uint64 { return 4 }

func (r I386) Registers() (int, int) {
	return min(max(r.RegParm, 0), 3), 0
}

func (I386) SupportsScalar(s *shape.Shape) bool {
	if s.Scalar == shape.Float {
		return s.Bits == 32 || s.Bits == 64 || s.Bits == 80
	}
	return s.Bits <= 128
}

func (r I386) ScalarWord(s *shape.Shape) (abi.LegalizedWord, bool) {
	switch s.Kind {
	case shape.Scalar:
		if s.Scalar != shape.Float && s.Size > 4 {
			return abi.LegalizedWord{}, false
		}
	case shape.Vector:
		if s.Size == 8 || (s.Size == 16 && r.SSE) {
			return abi.NaturalWord(s)
		}
		return abi.LegalizedWord{}, false
	}
	return abi.NaturalWord(s)
}

func (I386) FirstClassAggregate(*shape.Shape) bool { return false }

func (I386) ShouldPassAggregateInMixedRegisters(*shape.Shape) ([]abi.LegalizedWord, bool) {
	return nil, false
}

func (r I386) ShouldPassAggregateInMemory(s *shape.Shape) bool {
	if s.Kind == shape.Scalar {
		return false
	}
	limit := r.MaxRegisterAggregate
	if limit == 0 {
		limit = 16
	}
	return s.Size > limit || s.Kind == shape.Vector
}

func (r I386) ShouldPassInIntegerRegisters(s *shape.Shape) abi.IntegerPlan {
	if r.SingleElementAsScalar && !s.Packed {
		if _, ok := s.SingleElement(); ok {
			return abi.IntegerPlan{}
		}
	}
	return abi.IntegerPlan{OK: true, ByteSize: roundUp(s.Size, 4)}
}

func (I386) PartiallyAvailable(words []abi.LegalizedWord, budget *abi.RegisterBudget, isShadowReturn bool) bool {
	return abi.PartiallyAvailable(words, budget, isShadowReturn)
}

// VectorReturnAsScalar returns MMX-sized vectors in EDX:EAX.
func (I386) VectorReturnAsScalar(s *shape.Shape) bool {
	return s.Size == 8
}

func (I386) MultipleReturnRegisters(*shape.Shape) ([]abi.LegalizedWord, bool) {
	return nil, false
}

func (r I386) SmallAggregateReturnInRegister() bool { return r.SmallStructReturn }

func (I386) ShadowReturnsPointer() bool { return true }

func roundUp(n, align uint64) uint64 {
	if align <= 1 {
		return n
	}
	return (n + align - 1) / align * align
}
