package types

// LayoutAttrs describes layout-affecting attributes applied to a record declaration.
//
// These attributes are validated by the catalog loader; layout computation must not emit diagnostics.
type LayoutAttrs struct {
	Packed        bool
	AlignOverride *int // nil when no align = N is present
}

// FieldLayoutAttrs describes layout-affecting attributes applied to a record field.
type FieldLayoutAttrs struct {
	AlignOverride *int
}

func (a LayoutAttrs) clone() LayoutAttrs {
	a.AlignOverride = cloneIntPtr(a.AlignOverride)
	return a
}

func cloneIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Align is a convenience for building an AlignOverride.
func Align(n int) *int {
	return &n
}
