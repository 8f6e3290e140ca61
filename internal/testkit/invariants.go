package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"callconv/internal/abi"
	"callconv/internal/shape"
)

// CheckDecomposition verifies the register decomposition of a value of size
// bytes:
// 1) every byte is covered exactly once
// 2) at most one padding word, and it is the last one
// 3) data words read or write at least one byte
func CheckDecomposition(words []abi.LegalizedWord, size uint64) error {
	n, err := safecast.Conv[int](size)
	if err != nil {
		return fmt.Errorf("size overflow: %w", err)
	}
	if total := abi.WordsSize(words); total != size {
		return fmt.Errorf("%s covers %d bytes, want %d", abi.FormatWords(words), total, size)
	}
	covered := make([]bool, n)
	for i, w := range words {
		if w.Size == 0 {
			return fmt.Errorf("word %d (%s) covers no bytes", i, w)
		}
		if w.Padding {
			if i != len(words)-1 {
				return fmt.Errorf("padding word %d is not trailing in %s", i, abi.FormatWords(words))
			}
		} else if w.Container() == 0 {
			return fmt.Errorf("word %d has no container", i)
		}
	}
	for i, off := range abi.Offsets(words) {
		end := off + words[i].Size
		if end > size {
			return fmt.Errorf("word %d [%d,%d) runs past %d bytes", i, off, end, size)
		}
		for b := off; b < end; b++ {
			if covered[b] {
				return fmt.Errorf("byte %d covered twice", b)
			}
			covered[b] = true
		}
	}
	for b, ok := range covered {
		if !ok {
			return fmt.Errorf("byte %d not covered by %s", b, abi.FormatWords(words))
		}
	}
	return nil
}

// CheckStrategy applies CheckDecomposition to register strategies and the
// trivial invariants of the other kinds.
func CheckStrategy(st abi.PassingStrategy, s *shape.Shape) error {
	switch st.Kind {
	case abi.ByRegister:
		if err := CheckDecomposition(st.Words, s.Size); err != nil {
			return fmt.Errorf("%s: %w", s, err)
		}
	case abi.ByValueInMemory:
		if st.Align == 0 || st.Align&(st.Align-1) != 0 {
			return fmt.Errorf("%s: alignment %d is not a power of two", s, st.Align)
		}
	case abi.Dropped:
		if s.Size != 0 || len(st.Words) != 0 {
			return fmt.Errorf("%s: dropped value has size %d", s, s.Size)
		}
	}
	return nil
}

// CheckReturn verifies the word-carrying return strategies.
func CheckReturn(rs abi.ReturnStrategy, s *shape.Shape) error {
	switch rs.Kind {
	case abi.MultipleRegisters:
		if err := CheckDecomposition(rs.Words, s.Size); err != nil {
			return fmt.Errorf("%s: %w", s, err)
		}
	case abi.ScalarRegister, abi.ScalarFromAggregateBits:
		if len(rs.Words) != 1 {
			return fmt.Errorf("%s: %s carries %d words", s, rs.Kind, len(rs.Words))
		}
		if rs.Words[0].Size+rs.Offset > s.Size {
			return fmt.Errorf("%s: scalar reads past the value", s)
		}
	}
	return nil
}
