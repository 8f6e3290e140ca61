package rules

import (
	"callconv/internal/abi"
	"callconv/internal/shape"
)

// AMD64 implements the System V x86-64 calling convention.
type AMD64 struct {
	// FirstClassAggregates passes small all-float records (two or three
	// floats, or two doubles) as one aggregate value.
	FirstClassAggregates bool
}

var _ abi.TargetABIRules = AMD64{}

func (AMD64) Name() string          { return "amd64-sysv" }
func (AMD64) WordSize() uint64      { return 8 }
func (AMD64) Registers() (int, int) { return 6, 8 }

func (AMD64) SupportsScalar(s *shape.Shape) bool {
	if s.Scalar == shape.Float {
		return s.Bits == 32 || s.Bits == 64 || s.Bits == 80
	}
	return s.Bits <= 128
}

func (AMD64) ScalarWord(s *shape.Shape) (abi.LegalizedWord, bool) {
	switch {
	case s.IsLongDouble():
		return abi.LegalizedWord{}, false
	case s.Kind == shape.Scalar && s.Scalar != shape.Float && s.Size > 8:
		return abi.LegalizedWord{}, false
	case s.Kind == shape.Vector && s.Size > 16:
		return abi.LegalizedWord{}, false
	}
	return abi.NaturalWord(s)
}

func (r AMD64) FirstClassAggregate(s *shape.Shape) bool {
	if !r.FirstClassAggregates || s.Kind != shape.Record || s.Packed {
		return false
	}
	var bits uint32
	for _, f := range s.Fields {
		fs := f.Shape
		if f.BitWidth != 0 || fs.Kind != shape.Scalar || fs.Scalar != shape.Float || fs.IsLongDouble() {
			return false
		}
		if bits != 0 && fs.Bits != bits {
			return false
		}
		bits = fs.Bits
	}
	n := len(s.Fields)
	return (bits == 32 && (n == 2 || n == 3)) || (bits == 64 && n == 2)
}

func (AMD64) ShouldPassAggregateInMixedRegisters(s *shape.Shape) ([]abi.LegalizedWord, bool) {
	eb := classifyEightbytes(s)
	return eb.words(false)
}

// ShouldPassAggregateInMemory is reached only when the eightbyte
// classification failed, which on this target always means memory.
func (AMD64) ShouldPassAggregateInMemory(s *shape.Shape) bool {
	return s.Size > 0
}

func (AMD64) ShouldPassInIntegerRegisters(*shape.Shape) abi.IntegerPlan {
	return abi.IntegerPlan{}
}

func (AMD64) PartiallyAvailable(words []abi.LegalizedWord, budget *abi.RegisterBudget, isShadowReturn bool) bool {
	return abi.PartiallyAvailable(words, budget, isShadowReturn)
}

func (AMD64) VectorReturnAsScalar(*shape.Shape) bool { return false }

func (AMD64) MultipleReturnRegisters(s *shape.Shape) ([]abi.LegalizedWord, bool) {
	if s.Kind == shape.Complex && s.Elem.IsLongDouble() {
		// st0 and st1.
		half := s.Size / 2
		return []abi.LegalizedWord{
			{Kind: abi.WordX87, Size: half},
			{Kind: abi.WordX87, Size: half},
		}, true
	}
	eb := classifyEightbytes(s)
	return eb.words(true)
}

func (AMD64) SmallAggregateReturnInRegister() bool { return false }

// ShadowReturnsPointer: %rax holds the hidden pointer on return.
func (AMD64) ShadowReturnsPointer() bool { return true }
