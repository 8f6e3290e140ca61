package abi

import (
	"callconv/internal/shape"
)

// ClassifyArgument decides how a parameter of shape s is passed. The budget
// is updated with the registers the decision claims and may only turn a
// register decision into ByValueInMemory.
func ClassifyArgument(s *shape.Shape, rules TargetABIRules, budget *RegisterBudget) PassingStrategy {
	path := Root(s.String())
	requireSupported(s, rules, path)
	return classifyArgument(s, rules, budget, path)
}

func classifyArgument(s *shape.Shape, rules TargetABIRules, budget *RegisterBudget, path Path) PassingStrategy {
	if s.VariableLength {
		return PassingStrategy{Kind: ByInvisibleReference}
	}
	if s.Size == 0 {
		return PassingStrategy{Kind: Dropped}
	}

	if s.Kind == shape.Scalar || s.Kind == shape.Vector {
		if w, ok := rules.ScalarWord(s); ok {
			words := []LegalizedWord{w}
			budget.Consume(words)
			return inRegisters(words)
		}
	}

	if rules.FirstClassAggregate(s) {
		if words, ok := rules.ShouldPassAggregateInMixedRegisters(s); ok {
			budget.Consume(words)
		}
		return PassingStrategy{Kind: FirstClassAggregateValue}
	}

	if words, ok := rules.ShouldPassAggregateInMixedRegisters(s); ok {
		return commit(words, s, rules, budget)
	}

	if rules.ShouldPassAggregateInMemory(s) {
		return inMemory(s.Align)
	}

	if plan := rules.ShouldPassInIntegerRegisters(s); plan.OK {
		words := IntegerWords(s.Size, plan.ByteSize, s.Align, rules.WordSize(), plan.CheckAlign)
		return commit(words, s, rules, budget)
	}

	if s.IsAggregate() {
		return classifyMembers(s, rules, budget, path)
	}
	panic(unsupported(s, path, rules, "no passing rule applies"))
}

func commit(words []LegalizedWord, s *shape.Shape, rules TargetABIRules, budget *RegisterBudget) PassingStrategy {
	if rules.PartiallyAvailable(words, budget, budget.ShadowReturn) {
		return inMemory(s.Align)
	}
	budget.Consume(words)
	return inRegisters(words)
}

// classifyMembers decomposes an aggregate member by member. Members are
// classified against a scratch budget that is committed only when every
// member lands in registers.
func classifyMembers(s *shape.Shape, rules TargetABIRules, budget *RegisterBudget, path Path) PassingStrategy {
	scratch := budget.Clone()
	var words []LegalizedWord
	cursor := uint64(0)

	member := func(m *shape.Shape, offset uint64, at Path) bool {
		if offset < cursor {
			panic(unsupported(s, at, rules, "overlapping members"))
		}
		if offset > cursor {
			words = append(words, LegalizedWord{Size: offset - cursor, Padding: true})
		}
		st := classifyArgument(m, rules, scratch, at)
		switch st.Kind {
		case Dropped:
		case ByRegister:
			words = append(words, st.Words...)
		default:
			return false
		}
		cursor = offset + m.Size
		return true
	}

	ok := true
	switch s.Kind {
	case shape.Record:
		for _, f := range s.Fields {
			if f.BitWidth != 0 {
				panic(unsupported(s, path.Field(f.Name), rules, "bit-field needs an integer rule"))
			}
			if ok = member(f.Shape, f.Offset, path.Field(f.Name)); !ok {
				break
			}
		}
	case shape.Union:
		f, _ := s.Selected()
		ok = member(f.Shape, 0, path.Field(f.Name))
	case shape.Array, shape.Complex:
		for i := uint64(0); i < s.Count; i++ {
			if ok = member(s.Elem, i*s.Elem.Size, path.Index(i)); !ok {
				break
			}
		}
	}
	if !ok {
		return inMemory(s.Align)
	}
	if s.Size > cursor {
		words = append(words, LegalizedWord{Size: s.Size - cursor, Padding: true})
	}
	*budget = *scratch
	return inRegisters(words)
}

// IntegerWords greedily covers byteSize bytes from the front with the
// largest integer words up to maxWord. Words are clipped to size, so a word
// past the end of the data becomes an undersized tail.
func IntegerWords(size, byteSize, align, maxWord uint64, checkAlign bool) []LegalizedWord {
	var words []LegalizedWord
	for off := uint64(0); off < byteSize && off < size; {
		w := uint64(8)
		for ; w > 1; w /= 2 {
			if w > maxWord || w > byteSize-off {
				continue
			}
			if checkAlign && (off%w != 0 || align < w) {
				continue
			}
			break
		}
		covered := min(w, size-off)
		words = append(words, LegalizedWord{Kind: IntegerWord(w), Size: covered})
		off += w
	}
	return words
}

// ClassifyReturn decides how a result of shape s is returned. A nil or
// zero-sized shape is a void result.
func ClassifyReturn(s *shape.Shape, rules TargetABIRules) ReturnStrategy {
	if s == nil || (s.Size == 0 && !s.VariableLength) {
		return ReturnStrategy{Kind: ReturnVoid}
	}
	path := Root(s.String())
	requireSupported(s, rules, path)
	shadow := ReturnStrategy{Kind: ShadowPointer, CalleeReturnsPointer: rules.ShadowReturnsPointer()}
	if s.VariableLength {
		return shadow
	}

	switch s.Kind {
	case shape.Scalar:
		w, ok := NaturalWord(s)
		if !ok {
			panic(unsupported(s, path, rules, "scalar has no return register"))
		}
		return ReturnStrategy{Kind: ScalarRegister, Words: []LegalizedWord{w}}
	case shape.Vector:
		if rules.VectorReturnAsScalar(s) {
			return aggregateBits(s)
		}
		if w, ok := rules.ScalarWord(s); ok {
			return ReturnStrategy{Kind: ScalarRegister, Words: []LegalizedWord{w}}
		}
		return shadow
	}

	if words, ok := rules.MultipleReturnRegisters(s); ok {
		return ReturnStrategy{Kind: MultipleRegisters, Words: words}
	}
	if rules.SmallAggregateReturnInRegister() && s.Size <= rules.WordSize() {
		return aggregateBits(s)
	}
	return shadow
}

// aggregateBits returns the value as one integer of the next power-of-two
// size, read from the start of the aggregate.
func aggregateBits(s *shape.Shape) ReturnStrategy {
	n := uint64(1)
	for n < s.Size {
		n <<= 1
	}
	w := LegalizedWord{Kind: IntegerWord(n), Size: s.Size}
	return ReturnStrategy{Kind: ScalarFromAggregateBits, Words: []LegalizedWord{w}}
}

// requireSupported walks every leaf and raises an UnsupportedShapeError for
// the first one the target rejects.
func requireSupported(s *shape.Shape, rules TargetABIRules, path Path) {
	switch s.Kind {
	case shape.Scalar:
		if !rules.SupportsScalar(s) {
			panic(unsupported(s, path, rules, "scalar not representable on this target"))
		}
	case shape.Vector, shape.Array, shape.Complex:
		if s.Elem == nil {
			panic(unsupported(s, path, rules, "missing element shape"))
		}
		requireSupported(s.Elem, rules, path.Index(0))
	case shape.Record, shape.Union:
		for _, f := range s.Fields {
			requireSupported(f.Shape, rules, path.Field(f.Name))
		}
	default:
		panic(unsupported(s, path, rules, "unknown shape kind "+s.Kind.String()))
	}
}
