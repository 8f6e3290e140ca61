package lower

import (
	"callconv/internal/abi"
	"callconv/internal/ir"
	"callconv/internal/shape"
)

type lane struct {
	off   uint64
	index uint64
	size  uint64
}

// regSlot is one register of a decomposition: a plain word at off, or a
// vector register assembled from lane words.
type regSlot struct {
	word  abi.LegalizedWord
	off   uint64
	lanes []lane
}

func (r regSlot) typ() ir.Type {
	return ir.Word(r.word.Kind)
}

func (r regSlot) tail() bool {
	return r.lanes == nil && r.word.Size < r.typ().Size
}

// registers groups a decomposition into the registers that carry it.
// Padding words produce none; lane words after the first join the slot of
// the preceding lane word.
func registers(words []abi.LegalizedWord) []regSlot {
	offs := abi.Offsets(words)
	var out []regSlot
	for i, w := range words {
		l := lane{off: offs[i], index: uint64(w.Lane), size: w.Size}
		switch {
		case w.Padding:
		case w.SharesRegister() && len(out) > 0 && out[len(out)-1].lanes != nil:
			last := &out[len(out)-1]
			last.lanes = append(last.lanes, l)
		case w.InLane:
			out = append(out, regSlot{word: w, off: offs[i], lanes: []lane{l}})
		default:
			out = append(out, regSlot{word: w, off: offs[i]})
		}
	}
	return out
}

// slotTypes is the declared type of every incoming value of a parameter.
func slotTypes(s *shape.Shape, st abi.PassingStrategy, ptr ir.Type) []ir.Type {
	switch st.Kind {
	case abi.ByRegister:
		regs := registers(st.Words)
		out := make([]ir.Type, len(regs))
		for j, r := range regs {
			out[j] = r.typ()
		}
		if len(regs) == 1 && s.Kind == shape.Scalar && !regs[0].tail() {
			switch {
			case s.Scalar == shape.Pointer && out[0].Size == ptr.Size:
				out[0] = ptr
			case s.Scalar == shape.Int && s.Signed && out[0].Kind == ir.TInt:
				out[0].Signed = true
			}
		}
		return out
	case abi.ByValueInMemory, abi.ByInvisibleReference:
		return []ir.Type{ptr}
	case abi.FirstClassAggregateValue:
		return []ir.Type{ir.Bytes(s.Size)}
	default:
		return nil
	}
}

// scratchAlign is the alignment of a temporary holding one register.
func scratchAlign(size uint64) uint64 {
	a := uint64(1)
	for a*2 <= size && a < 16 {
		a *= 2
	}
	return a
}

// storeSlot writes register value v into base, which is aligned to align.
func storeSlot(b ir.Builder, r regSlot, v ir.Value, base ir.Value, align uint64) {
	t := v.Type
	switch {
	case r.lanes != nil:
		tmp := b.Alloca(t.Size, scratchAlign(t.Size))
		b.Store(v, tmp, scratchAlign(t.Size))
		lt := r.typ().Lane()
		for _, l := range r.lanes {
			src := b.PtrAdd(tmp, l.index*lt.Size)
			dst := b.PtrAdd(base, l.off)
			if l.size < lt.Size {
				copyBytes(b, dst, src, l.size)
				continue
			}
			x := b.Load(lt, src, ir.AlignAt(scratchAlign(t.Size), l.index*lt.Size))
			b.Store(x, dst, ir.AlignAt(align, l.off))
		}
	case r.tail():
		tmp := b.Alloca(t.Size, scratchAlign(t.Size))
		b.Store(v, tmp, scratchAlign(t.Size))
		copyBytes(b, b.PtrAdd(base, r.off), tmp, r.word.Size)
	default:
		b.Store(v, b.PtrAdd(base, r.off), ir.AlignAt(align, r.off))
	}
}

// loadSlot reads one register from base, which is aligned to align.
func loadSlot(b ir.Builder, r regSlot, base ir.Value, align uint64) ir.Value {
	t := r.typ()
	switch {
	case r.lanes != nil:
		tmp := b.Alloca(t.Size, scratchAlign(t.Size))
		b.Store(b.Undef(t), tmp, scratchAlign(t.Size))
		lt := t.Lane()
		for _, l := range r.lanes {
			src := b.PtrAdd(base, l.off)
			dst := b.PtrAdd(tmp, l.index*lt.Size)
			if l.size < lt.Size {
				copyBytes(b, dst, src, l.size)
				continue
			}
			x := b.Load(lt, src, ir.AlignAt(align, l.off))
			b.Store(x, dst, ir.AlignAt(scratchAlign(t.Size), l.index*lt.Size))
		}
		return b.Load(t, tmp, scratchAlign(t.Size))
	case r.tail():
		tmp := b.Alloca(t.Size, scratchAlign(t.Size))
		b.Store(b.Undef(t), tmp, scratchAlign(t.Size))
		copyBytes(b, tmp, b.PtrAdd(base, r.off), r.word.Size)
		return b.Load(t, tmp, scratchAlign(t.Size))
	default:
		return b.Load(t, b.PtrAdd(base, r.off), ir.AlignAt(align, r.off))
	}
}

func loadRegisters(b ir.Builder, regs []regSlot, base ir.Value, align uint64) []ir.Value {
	out := make([]ir.Value, len(regs))
	for i, r := range regs {
		out[i] = loadSlot(b, r, base, align)
	}
	return out
}

// copyBytes moves n bytes one i8 at a time.
func copyBytes(b ir.Builder, dst, src ir.Value, n uint64) {
	for i := uint64(0); i < n; i++ {
		x := b.Load(ir.Int(1), b.PtrAdd(src, i), 1)
		b.Store(x, b.PtrAdd(dst, i), 1)
	}
}

// copyMemory moves n bytes in 8-byte chunks followed by single bytes.
func copyMemory(b ir.Builder, dst, src ir.Value, n uint64) {
	off := uint64(0)
	for ; off+8 <= n; off += 8 {
		x := b.Load(ir.Int(8), b.PtrAdd(src, off), 1)
		b.Store(x, b.PtrAdd(dst, off), 1)
	}
	copyBytes(b, b.PtrAdd(dst, off), b.PtrAdd(src, off), n-off)
}

// coerce casts a produced word to the slot type the callee declared.
func coerce(b ir.Builder, subject string, v ir.Value, want ir.Type) ir.Value {
	if v.Type == want {
		return v
	}
	if v.Type.IsIntLike() && want.IsIntLike() && v.Type.Size == want.Size {
		return b.BitCast(v, want)
	}
	panic(&abi.CoercionError{Subject: subject, From: v.Type.String(), To: want.String()})
}
