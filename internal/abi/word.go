package abi

import (
	"fmt"
	"strings"

	"callconv/internal/shape"
)

// WordKind is the machine type of one register-sized chunk.
type WordKind uint8

const (
	WordNone WordKind = iota
	WordI8
	WordI16
	WordI32
	WordI64
	WordI128
	WordF32
	WordF64
	WordX87
	WordV2F32
	WordV2I32
	WordV4F32
	WordV2F64
	WordV4I32
	WordV2I64
	WordV8I16
	WordV16I8
)

var wordNames = [...]string{
	WordNone:  "none",
	WordI8:    "i8",
	WordI16:   "i16",
	WordI32:   "i32",
	WordI64:   "i64",
	WordI128:  "i128",
	WordF32:   "f32",
	WordF64:   "f64",
	WordX87:   "x86_fp80",
	WordV2F32: "v2f32",
	WordV2I32: "v2i32",
	WordV4F32: "v4f32",
	WordV2F64: "v2f64",
	WordV4I32: "v4i32",
	WordV2I64: "v2i64",
	WordV8I16: "v8i16",
	WordV16I8: "v16i8",
}

func (k WordKind) String() string {
	if int(k) < len(wordNames) {
		return wordNames[k]
	}
	return fmt.Sprintf("WordKind(%d)", k)
}

// Bytes is the number of bytes the machine value holds.
func (k WordKind) Bytes() uint64 {
	switch k {
	case WordI8:
		return 1
	case WordI16:
		return 2
	case WordI32, WordF32:
		return 4
	case WordI64, WordF64, WordV2F32, WordV2I32:
		return 8
	case WordX87:
		return 10
	case WordI128, WordV4F32, WordV2F64, WordV4I32, WordV2I64, WordV8I16, WordV16I8:
		return 16
	default:
		return 0
	}
}

// IsInteger reports words carried in general-purpose registers.
func (k WordKind) IsInteger() bool {
	return k >= WordI8 && k <= WordI128
}

// IsVector reports words made of lanes.
func (k WordKind) IsVector() bool {
	return k >= WordV2F32
}

// IsFloat reports scalar floating-point words.
func (k WordKind) IsFloat() bool {
	return k == WordF32 || k == WordF64 || k == WordX87
}

// Lanes returns the lane count and lane width in bytes of a vector word.
func (k WordKind) Lanes() (count, width uint64) {
	switch k {
	case WordV2F32, WordV2I32:
		return 2, 4
	case WordV4F32, WordV4I32:
		return 4, 4
	case WordV2F64, WordV2I64:
		return 2, 8
	case WordV8I16:
		return 8, 2
	case WordV16I8:
		return 16, 1
	default:
		return 1, k.Bytes()
	}
}

// LegalizedWord is one register-sized chunk of a decomposed value.
//
// Size is the number of bytes of the original value the word covers. It is
// smaller than the container for an undersized tail and larger when the slot
// ends in padding the register does not carry. A word with InLane set holds
// a single lane of a vector register; lanes after the first share the
// register of the preceding word.
type LegalizedWord struct {
	Kind    WordKind
	Size    uint64
	Padding bool
	InLane  bool
	Lane    uint8
}

// Container is the number of bytes the word reads or writes in memory.
func (w LegalizedWord) Container() uint64 {
	if w.Padding {
		return 0
	}
	if w.InLane {
		_, width := w.Kind.Lanes()
		return width
	}
	return w.Kind.Bytes()
}

// SharesRegister reports a lane word that rides in the previous word's register.
func (w LegalizedWord) SharesRegister() bool {
	return w.InLane && w.Lane > 0
}

func (w LegalizedWord) String() string {
	switch {
	case w.Padding:
		return fmt.Sprintf("pad%d", w.Size)
	case w.InLane:
		return fmt.Sprintf("%s-lane%d", w.Kind, w.Lane)
	case w.Size != w.Kind.Bytes():
		return fmt.Sprintf("%s:%d", w.Kind, w.Size)
	default:
		return w.Kind.String()
	}
}

// FormatWords renders a decomposition as "[i64, f64]".
func FormatWords(words []LegalizedWord) string {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = w.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// IntegerWord returns the smallest integer container holding n bytes.
func IntegerWord(n uint64) WordKind {
	switch {
	case n <= 1:
		return WordI8
	case n <= 2:
		return WordI16
	case n <= 4:
		return WordI32
	case n <= 8:
		return WordI64
	default:
		return WordI128
	}
}

// VectorWord maps a vector of count elements to its register kind.
func VectorWord(elem *shape.Shape, count uint64) WordKind {
	if elem == nil {
		return WordNone
	}
	bytes := elem.Size * count
	if elem.Scalar == shape.Float {
		switch {
		case elem.Bits == 32 && bytes == 8:
			return WordV2F32
		case elem.Bits == 32 && bytes == 16:
			return WordV4F32
		case elem.Bits == 64 && bytes == 16:
			return WordV2F64
		}
		return WordNone
	}
	switch {
	case bytes == 8:
		return WordV2I32
	case bytes != 16:
		return WordNone
	case elem.Size == 1:
		return WordV16I8
	case elem.Size == 2:
		return WordV8I16
	case elem.Size == 4:
		return WordV4I32
	default:
		return WordV2I64
	}
}

// NaturalWord is the machine word of a scalar or vector shape as a whole.
func NaturalWord(s *shape.Shape) (LegalizedWord, bool) {
	switch {
	case s == nil:
		return LegalizedWord{}, false
	case s.Kind == shape.Scalar && s.Scalar == shape.Float:
		switch s.Bits {
		case 32:
			return LegalizedWord{Kind: WordF32, Size: s.Size}, true
		case 64:
			return LegalizedWord{Kind: WordF64, Size: s.Size}, true
		case 80:
			return LegalizedWord{Kind: WordX87, Size: s.Size}, true
		}
	case s.Kind == shape.Scalar:
		if s.Size == 0 || s.Size > 16 {
			return LegalizedWord{}, false
		}
		return LegalizedWord{Kind: IntegerWord(s.Size), Size: s.Size}, true
	case s.Kind == shape.Vector:
		if k := VectorWord(s.Elem, s.Count); k != WordNone {
			return LegalizedWord{Kind: k, Size: s.Size}, true
		}
	}
	return LegalizedWord{}, false
}

// WordsSize sums the covered bytes of a decomposition.
func WordsSize(words []LegalizedWord) uint64 {
	var n uint64
	for _, w := range words {
		n += w.Size
	}
	return n
}

// Offsets returns the starting byte of every word in a decomposition.
func Offsets(words []LegalizedWord) []uint64 {
	out := make([]uint64, len(words))
	var off uint64
	for i, w := range words {
		out[i] = off
		off += w.Size
	}
	return out
}
