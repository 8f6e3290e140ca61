package abi

// RegisterBudget counts the argument registers already claimed at one call
// site or in one prologue. Create a fresh budget per function or call and
// never share it between goroutines.
type RegisterBudget struct {
	IntegerUsed  int
	VectorUsed   int
	IntegerTotal int
	VectorTotal  int
	// ShadowReturn reserves one integer register for the hidden result pointer.
	ShadowReturn bool
}

// NewRegisterBudget returns an empty budget sized for the target.
func NewRegisterBudget(rules TargetABIRules, ret ReturnStrategy) *RegisterBudget {
	ints, vecs := rules.Registers()
	return &RegisterBudget{
		IntegerTotal: ints,
		VectorTotal:  vecs,
		ShadowReturn: ret.IsShadow(),
	}
}

// Free reports the registers still available. isShadowReturn reserves the
// first integer register.
func (b *RegisterBudget) Free(isShadowReturn bool) (ints, vecs int) {
	ints = b.IntegerTotal - b.IntegerUsed
	if isShadowReturn {
		ints--
	}
	return max(ints, 0), max(b.VectorTotal-b.VectorUsed, 0)
}

// Clone copies the counters.
func (b *RegisterBudget) Clone() *RegisterBudget {
	c := *b
	return &c
}

// Consume claims the registers a decomposition needs, saturating at the totals.
func (b *RegisterBudget) Consume(words []LegalizedWord) {
	ints, vecs := RegistersNeeded(words)
	b.IntegerUsed = min(b.IntegerUsed+ints, b.IntegerTotal)
	b.VectorUsed = min(b.VectorUsed+vecs, b.VectorTotal)
}

// RegistersNeeded counts the integer and vector registers of a decomposition.
// Padding, x87 words and trailing lanes need none.
func RegistersNeeded(words []LegalizedWord) (ints, vecs int) {
	for _, w := range words {
		switch {
		case w.Padding, w.SharesRegister(), w.Kind == WordX87:
		case w.Kind == WordI128:
			ints += 2
		case w.Kind.IsInteger():
			ints++
		default:
			vecs++
		}
	}
	return ints, vecs
}

// PartiallyAvailable is the shared "some but not all registers are free"
// test. A decomposition that finds none of its registers free is not partial:
// it goes to the stack word by word.
func PartiallyAvailable(words []LegalizedWord, b *RegisterBudget, isShadowReturn bool) bool {
	if b == nil {
		return false
	}
	needInts, needVecs := RegistersNeeded(words)
	freeInts, freeVecs := b.Free(isShadowReturn)
	partial := func(need, free int) bool {
		return need > 0 && free > 0 && free < need
	}
	if partial(needInts, freeInts) || partial(needVecs, freeVecs) {
		return true
	}
	// Split across both files with one of them exhausted.
	return needInts > 0 && needVecs > 0 && (freeInts == 0) != (freeVecs == 0)
}
