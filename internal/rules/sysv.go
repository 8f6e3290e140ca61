package rules

import (
	"callconv/internal/abi"
	"callconv/internal/shape"
)

const eightbyte = 8

// leaf is one scalar (or whole vector) placed at an absolute offset.
type leaf struct {
	offset uint64
	size   uint64
	shape  *shape.Shape
}

// eightbytes holds the per-window classes and the leaves that produced them.
type eightbytes struct {
	size    uint64
	classes []abi.RegisterClass
	leaves  []leaf
}

// classifyEightbytes runs the System V eightbyte algorithm over s. The walk
// carries its position as an (offset, path) pair passed by value.
func classifyEightbytes(s *shape.Shape) eightbytes {
	n := (s.Size + eightbyte - 1) / eightbyte
	eb := eightbytes{size: s.Size, classes: make([]abi.RegisterClass, n)}
	if s.Size > 2*eightbyte || s.VariableLength {
		for i := range eb.classes {
			eb.classes[i] = abi.Memory
		}
		return eb
	}
	eb.walk(s, 0, abi.Root(s.String()))
	abi.PostMerge(eb.classes, s.Size)
	return eb
}

func (eb *eightbytes) mark(from, to uint64, class abi.RegisterClass) {
	for i := from / eightbyte; i*eightbyte < to && int(i) < len(eb.classes); i++ {
		eb.classes[i] = abi.Merge(eb.classes[i], class)
	}
}

func (eb *eightbytes) walk(s *shape.Shape, base uint64, path abi.Path) {
	if s.Size == 0 {
		return
	}
	if s.Align > 0 && base%s.Align != 0 {
		// Packed records can leave members misaligned.
		eb.mark(base, base+s.Size, abi.Memory)
		return
	}
	switch s.Kind {
	case shape.Scalar:
		eb.leaves = append(eb.leaves, leaf{offset: base, size: s.Size, shape: s})
		switch {
		case s.IsLongDouble():
			eb.mark(base, base+eightbyte, abi.X87)
			eb.mark(base+eightbyte, base+s.Size, abi.X87Up)
		case s.Scalar == shape.Float:
			eb.mark(base, base+s.Size, abi.SSE)
		default:
			eb.mark(base, base+s.Size, abi.Integer)
		}
	case shape.Vector:
		eb.leaves = append(eb.leaves, leaf{offset: base, size: s.Size, shape: s})
		switch {
		case s.Size <= eightbyte:
			eb.mark(base, base+s.Size, abi.SSE)
		case s.Size == 2*eightbyte:
			eb.mark(base, base+eightbyte, abi.SSE)
			eb.mark(base+eightbyte, base+s.Size, abi.SSEUp)
		default:
			eb.mark(base, base+s.Size, abi.Memory)
		}
	case shape.Complex:
		if s.Elem.IsLongDouble() {
			eb.mark(base, base+s.Size, abi.ComplexX87)
			return
		}
		eb.walk(s.Elem, base, path.Index(0))
		eb.walk(s.Elem, base+s.Elem.Size, path.Index(1))
	case shape.Array:
		for i := uint64(0); i < s.Count; i++ {
			eb.walk(s.Elem, base+i*s.Elem.Size, path.Index(i))
		}
	case shape.Record:
		for _, f := range s.Fields {
			if f.BitWidth != 0 {
				start := base + f.Offset + uint64(f.BitOffset)/8
				end := base + f.Offset + (uint64(f.BitOffset)+uint64(f.BitWidth)+7)/8
				eb.leaves = append(eb.leaves, leaf{offset: start, size: end - start, shape: f.Shape})
				eb.mark(start, end, abi.Integer)
				continue
			}
			eb.walk(f.Shape, base+f.Offset, path.Field(f.Name))
		}
	case shape.Union:
		if s.Qualified {
			if f, ok := s.Selected(); ok {
				eb.walk(f.Shape, base, path.Field(f.Name))
			}
			return
		}
		for _, f := range s.Fields {
			eb.walk(f.Shape, base, path.Field(f.Name))
		}
	}
}

func (eb *eightbytes) hasClass(classes ...abi.RegisterClass) bool {
	for _, c := range eb.classes {
		for _, want := range classes {
			if c == want {
				return true
			}
		}
	}
	return false
}

// leavesIn returns the leaves starting inside eightbyte i.
func (eb *eightbytes) leavesIn(i int) []leaf {
	lo := uint64(i) * eightbyte
	var out []leaf
	for _, l := range eb.leaves {
		if l.offset >= lo && l.offset < lo+eightbyte {
			out = append(out, l)
		}
	}
	return out
}

// dataEnd is the end of the last byte of data in eightbyte i, relative to it.
func (eb *eightbytes) dataEnd(i int) uint64 {
	lo := uint64(i) * eightbyte
	hi := min(lo+eightbyte, eb.size)
	end := uint64(0)
	for _, l := range eb.leaves {
		if l.offset >= hi || l.offset+l.size <= lo {
			continue
		}
		end = max(end, min(l.offset+l.size, hi)-lo)
	}
	if end == 0 {
		end = hi - lo
	}
	return end
}

// words turns the classes into a decomposition. It fails when any window is
// MEMORY, or when an x87 class appears and forReturn is false.
func (eb *eightbytes) words(forReturn bool) ([]abi.LegalizedWord, bool) {
	if eb.hasClass(abi.Memory) {
		return nil, false
	}
	if !forReturn && eb.hasClass(abi.X87, abi.X87Up, abi.ComplexX87) {
		return nil, false
	}
	var out []abi.LegalizedWord
	for i := 0; i < len(eb.classes); i++ {
		slot := min(uint64(eightbyte), eb.size-uint64(i)*eightbyte)
		switch eb.classes[i] {
		case abi.NoClass:
			out = append(out, abi.LegalizedWord{Size: slot, Padding: true})
		case abi.Integer:
			out = append(out, abi.LegalizedWord{Kind: abi.IntegerWord(eb.dataEnd(i)), Size: slot})
		case abi.SSE:
			if i+1 < len(eb.classes) && eb.classes[i+1] == abi.SSEUp {
				next := min(uint64(eightbyte), eb.size-uint64(i+1)*eightbyte)
				out = append(out, abi.LegalizedWord{Kind: eb.wideVector(i), Size: slot + next})
				i++
				continue
			}
			out = append(out, eb.sseWords(i, slot)...)
		case abi.X87:
			size := slot
			if i+1 < len(eb.classes) && eb.classes[i+1] == abi.X87Up {
				size += min(uint64(eightbyte), eb.size-uint64(i+1)*eightbyte)
				i++
			}
			out = append(out, abi.LegalizedWord{Kind: abi.WordX87, Size: size})
		default:
			return nil, false
		}
	}
	return out, true
}

// wideVector names the 128-bit register built from an SSE+SSEUP pair.
func (eb *eightbytes) wideVector(i int) abi.WordKind {
	for _, l := range eb.leavesIn(i) {
		if l.shape.Kind == shape.Vector {
			if k := abi.VectorWord(l.shape.Elem, l.shape.Count); k != abi.WordNone {
				return k
			}
		}
	}
	return abi.WordV2I64
}

// sseWords decomposes one SSE eightbyte that is not merged with the next.
// Two floats sharing the window become lanes of one vector register.
func (eb *eightbytes) sseWords(i int, slot uint64) []abi.LegalizedWord {
	lo := uint64(i) * eightbyte
	leaves := eb.leavesIn(i)
	var upperFloat bool
	for _, l := range leaves {
		if l.shape.Kind == shape.Vector {
			k := abi.VectorWord(l.shape.Elem, l.shape.Count)
			if k == abi.WordNone {
				k = abi.WordF64
				if l.size <= 4 {
					k = abi.WordF32
				}
			}
			return []abi.LegalizedWord{{Kind: k, Size: slot}}
		}
		if l.shape.Bits == 64 {
			return []abi.LegalizedWord{{Kind: abi.WordF64, Size: slot}}
		}
		if l.offset-lo >= 4 {
			upperFloat = true
		}
	}
	if upperFloat && slot > 4 {
		return []abi.LegalizedWord{
			{Kind: abi.WordV4F32, Size: 4, InLane: true, Lane: 0},
			{Kind: abi.WordV4F32, Size: slot - 4, InLane: true, Lane: 1},
		}
	}
	return []abi.LegalizedWord{{Kind: abi.WordF32, Size: slot}}
}
