package layout

import (
	"fortio.org/safecast"

	"callconv/internal/types"
)

func (e *LayoutEngine) computeLayout(id types.TypeID, state *layoutState) (TypeLayout, *LayoutError) {
	if id == types.NoTypeID || e.Types == nil {
		return TypeLayout{Size: 0, Align: 1}, nil
	}
	tt, ok := e.Types.Lookup(id)
	if !ok {
		return TypeLayout{Size: 0, Align: 1}, nil
	}

	switch tt.Kind {
	case types.KindBool:
		return TypeLayout{Size: 1, Align: 1}, nil

	case types.KindInt, types.KindUint:
		if tt.Width == types.WidthAny {
			return e.ptrLayout(), nil
		}
		l := scalarLayoutBytes(int(tt.Width) / 8)
		if tt.Width == types.Width64 {
			l.Align = e.Target.Int64Align
		}
		return l, nil

	case types.KindFloat:
		switch tt.Width {
		case types.Width64:
			return TypeLayout{Size: 8, Align: e.Target.DoubleAlign}, nil
		case types.Width80:
			return TypeLayout{Size: e.Target.LongDoubleSize, Align: e.Target.LongDoubleAlign}, nil
		case types.WidthAny:
			return e.ptrLayout(), nil
		default:
			return scalarLayoutBytes(int(tt.Width) / 8), nil
		}

	case types.KindPointer:
		return e.ptrLayout(), nil

	case types.KindIncomplete:
		return TypeLayout{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrIncomplete, Type: id}

	case types.KindArray:
		if tt.Count == types.ArrayDynamicLength {
			el, err := e.layoutOf(tt.Elem, state)
			return TypeLayout{Size: 0, Align: maxInt(1, el.Align)}, err
		}
		return e.arrayFixedLayout(id, tt.Elem, tt.Count, state)

	case types.KindVector:
		l, err := e.arrayFixedLayout(id, tt.Elem, tt.Count, state)
		if err != nil {
			return l, err
		}
		l.Align = vectorAlign(l.Size, e.Target.MaxVectorAlign)
		l.Size = roundUp(l.Size, l.Align)
		return l, nil

	case types.KindComplex:
		return e.arrayFixedLayout(id, tt.Elem, 2, state)

	case types.KindStruct:
		return e.structLayoutWithAttrs(id, state)

	case types.KindUnion:
		return e.unionLayout(id, state)

	default:
		return TypeLayout{Size: 0, Align: 1}, nil
	}
}

func (e *LayoutEngine) ptrLayout() TypeLayout {
	ptrSize := e.Target.PtrSize
	ptrAlign := e.Target.PtrAlign
	if ptrSize <= 0 {
		ptrSize = 8
	}
	if ptrAlign <= 0 {
		ptrAlign = ptrSize
	}
	return TypeLayout{Size: ptrSize, Align: ptrAlign}
}

func scalarLayoutBytes(size int) TypeLayout {
	if size <= 0 {
		return TypeLayout{Size: 0, Align: 1}
	}
	return TypeLayout{Size: size, Align: size}
}

func roundUp(n, align int) int {
	if align <= 1 {
		return n
	}
	r := n % align
	if r == 0 {
		return n
	}
	return n + (align - r)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// vectorAlign is the next power of two of the vector size, capped by the target.
func vectorAlign(size, limit int) int {
	a := 1
	for a < size {
		a <<= 1
	}
	if limit > 0 && a > limit {
		a = limit
	}
	return a
}

func (e *LayoutEngine) arrayFixedLayout(id, elem types.TypeID, length uint32, state *layoutState) (TypeLayout, *LayoutError) {
	elemLayout, err := e.layoutOf(elem, state)
	if err != nil {
		return TypeLayout{Size: 0, Align: 1}, err
	}
	elemAlign := maxInt(1, elemLayout.Align)
	stride := roundUp(elemLayout.Size, elemAlign)
	n, convErr := safecast.Conv[int](length)
	if convErr != nil {
		return TypeLayout{Size: 0, Align: elemAlign}, &LayoutError{Kind: LayoutErrLengthConversion, Type: id, Err: convErr}
	}
	if stride > 0 && n > (1<<40)/stride {
		return TypeLayout{Size: 0, Align: elemAlign}, &LayoutError{Kind: LayoutErrLengthConversion, Type: id}
	}
	return TypeLayout{
		Size:  stride * n,
		Align: elemAlign,
	}, nil
}

func (e *LayoutEngine) structLayoutWithAttrs(id types.TypeID, state *layoutState) (TypeLayout, *LayoutError) {
	info, ok := e.Types.Record(id)
	if !ok || !info.Defined() {
		return TypeLayout{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrIncomplete, Type: id}
	}
	attrs := info.Attrs
	if attrs.Packed && attrs.AlignOverride != nil {
		panic("invalid layout attrs: packed conflicts with align")
	}
	fields := info.Fields
	offsets := make([]int, len(fields))
	aligns := make([]int, len(fields))
	bits := make([]int, len(fields))

	// Track position in bits so bit-fields can share storage units.
	pos := 0
	align := 1
	for i := range fields {
		fl, err := e.layoutOf(fields[i].Type, state)
		if err != nil {
			return TypeLayout{Size: 0, Align: 1}, err
		}
		fAlign := fl.Align
		if attrs.Packed {
			fAlign = 1
		} else if fields[i].Attrs.AlignOverride != nil {
			fAlign = maxInt(fAlign, *fields[i].Attrs.AlignOverride)
		}
		fAlign = maxInt(1, fAlign)

		if w := int(fields[i].BitWidth); w > 0 {
			unitBits := fl.Size * 8
			if w > unitBits {
				return TypeLayout{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrBitFieldWidth, Type: id, Value: int64(w)}
			}
			if !attrs.Packed && pos/unitBits != (pos+w-1)/unitBits {
				pos = roundUp(pos, unitBits)
			}
			unitStart := pos / 8
			if !attrs.Packed {
				unitStart = (pos / unitBits) * fl.Size
			}
			offsets[i] = unitStart
			bits[i] = pos - unitStart*8
			aligns[i] = fAlign
			pos += w
			align = maxInt(align, fAlign)
			continue
		}

		byteOff := roundUp((pos+7)/8, fAlign)
		offsets[i] = byteOff
		aligns[i] = fAlign
		pos = (byteOff + fl.Size) * 8
		align = maxInt(align, fAlign)
	}
	size := roundUp((pos+7)/8, align)

	if attrs.AlignOverride != nil {
		align = maxInt(align, *attrs.AlignOverride)
		size = roundUp(size, align)
	}
	return TypeLayout{
		Size:            size,
		Align:           align,
		FieldOffsets:    offsets,
		FieldAligns:     aligns,
		FieldBitOffsets: bits,
	}, nil
}

func (e *LayoutEngine) unionLayout(id types.TypeID, state *layoutState) (TypeLayout, *LayoutError) {
	info, ok := e.Types.Record(id)
	if !ok || !info.Defined() {
		return TypeLayout{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrIncomplete, Type: id}
	}
	attrs := info.Attrs
	size := 0
	align := 1
	offsets := make([]int, len(info.Fields))
	aligns := make([]int, len(info.Fields))
	for i, f := range info.Fields {
		fl, err := e.layoutOf(f.Type, state)
		if err != nil {
			return TypeLayout{Size: 0, Align: 1}, err
		}
		fAlign := fl.Align
		if attrs.Packed {
			fAlign = 1
		} else if f.Attrs.AlignOverride != nil {
			fAlign = maxInt(fAlign, *f.Attrs.AlignOverride)
		}
		aligns[i] = maxInt(1, fAlign)
		size = maxInt(size, fl.Size)
		align = maxInt(align, aligns[i])
	}
	if attrs.AlignOverride != nil {
		align = maxInt(align, *attrs.AlignOverride)
	}
	return TypeLayout{
		Size:            roundUp(size, align),
		Align:           align,
		FieldOffsets:    offsets,
		FieldAligns:     aligns,
		FieldBitOffsets: make([]int, len(info.Fields)),
	}, nil
}
