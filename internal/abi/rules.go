package abi

import "callconv/internal/shape"

// IntegerPlan is the answer of the integer-register rule.
type IntegerPlan struct {
	OK bool
	// ByteSize is the number of bytes to cover with integer words. It may
	// exceed the shape size when the target knows the tail is padding.
	ByteSize uint64
	// CheckAlign keeps each word naturally aligned within the value.
	CheckAlign bool
}

// TargetABIRules is the per-target policy consulted by the classifier.
// Implementations are selected once per configuration and are stateless.
type TargetABIRules interface {
	Name() string
	// WordSize is the general-purpose register width in bytes.
	WordSize() uint64
	// Registers is the number of integer and vector argument registers.
	Registers() (ints, vecs int)

	// SupportsScalar rejects leaf scalars the target cannot express.
	SupportsScalar(s *shape.Shape) bool
	// ScalarWord returns the word of a scalar or vector that fits one register.
	ScalarWord(s *shape.Shape) (LegalizedWord, bool)
	FirstClassAggregate(s *shape.Shape) bool
	ShouldPassAggregateInMixedRegisters(s *shape.Shape) ([]LegalizedWord, bool)
	ShouldPassAggregateInMemory(s *shape.Shape) bool
	ShouldPassInIntegerRegisters(s *shape.Shape) IntegerPlan
	PartiallyAvailable(words []LegalizedWord, budget *RegisterBudget, isShadowReturn bool) bool

	VectorReturnAsScalar(s *shape.Shape) bool
	MultipleReturnRegisters(s *shape.Shape) ([]LegalizedWord, bool)
	SmallAggregateReturnInRegister() bool
	ShadowReturnsPointer() bool
}
