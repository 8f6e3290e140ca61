package lower

import (
	"testing"

	"callconv/internal/layout"
	"callconv/internal/rules"
	"callconv/internal/shape"
	"callconv/internal/types"
)

type fixture struct {
	t      *testing.T
	target rules.Target
	in     *types.Interner
	model  *shape.Model
	b      types.Builtins
}

func newFixture(t *testing.T, triple string, opts rules.Options) *fixture {
	t.Helper()
	target, err := rules.ForTarget(triple, opts)
	if err != nil {
		t.Fatalf("ForTarget(%q): %v", triple, err)
	}
	in := types.NewInterner()
	return &fixture{
		t:      t,
		target: target,
		in:     in,
		model:  shape.NewModel(in, layout.New(target.Layout, in)),
		b:      in.Builtins(),
	}
}

func (f *fixture) ptrSize() uint64 { return uint64(f.target.Layout.PtrSize) }

type member struct {
	name string
	typ  types.TypeID
}

func (f *fixture) record(name string, attrs types.LayoutAttrs, fields ...member) *shape.Shape {
	id := f.in.RegisterStruct(name)
	rf := make([]types.RecordField, len(fields))
	for i, m := range fields {
		rf[i] = types.RecordField{Name: m.name, Type: m.typ}
	}
	f.in.SetRecordFields(id, rf, attrs)
	return f.model.ShapeOf(id)
}

func (f *fixture) strct(name string, fields ...member) *shape.Shape {
	return f.record(name, types.LayoutAttrs{}, fields...)
}

func (f *fixture) of(t types.Type) *shape.Shape {
	return f.model.ShapeOf(f.in.Intern(t))
}

func (f *fixture) shape(id types.TypeID) *shape.Shape {
	return f.model.ShapeOf(id)
}

func m(name string, typ types.TypeID) member {
	return member{name: name, typ: typ}
}

// zoo returns signatures exercising every strategy the target produces.
func (f *fixture) zoo(wide bool) []Signature {
	b := f.b
	pair := f.strct("Pair", m("a", b.Int), m("b", b.Int))
	dbl := f.strct("Dbl", m("a", b.Double), m("b", b.Double))
	mixed := f.strct("Mixed", m("i", b.Int), m("d", b.Double))
	chars := f.strct("Chars", m("a", b.Char), m("b", b.Char), m("c", b.Char))
	floats := f.strct("Floats", m("a", b.Float), m("b", b.Float), m("c", b.Float))
	big := f.strct("Big", m("a", b.Long), m("b", b.Long), m("c", b.Long), m("d", b.Long), m("e", b.Long), m("f", b.Long))
	empty := f.strct("Empty")
	ptr := f.of(types.MakePointer(b.Int))
	arr := f.strct("Arr", m("v", f.in.Intern(types.MakeArray(b.Short, 3))))
	vec := f.of(types.MakeVector(b.Float, 4))
	cfloat := f.of(types.MakeComplex(b.Float))
	packed := f.record("Packed", types.LayoutAttrs{Packed: true}, m("c", b.Char), m("l", b.Long))
	wrapped := f.strct("Wrapped", m("d", b.Double))

	sigs := []Signature{
		{Name: "pair", Result: pair, Params: []*shape.Shape{pair, dbl}},
		{Name: "mixed", Result: mixed, Params: []*shape.Shape{mixed, chars}},
		{Name: "chars", Result: chars, Params: []*shape.Shape{chars, f.shape(b.Bool), f.shape(b.Short)}},
		{Name: "floats", Result: floats, Params: []*shape.Shape{floats, floats}},
		{Name: "big", Result: big, Params: []*shape.Shape{big, empty, ptr}},
		{Name: "scalars", Result: f.shape(b.Double), Params: []*shape.Shape{
			f.shape(b.Int), f.shape(b.Long), f.shape(b.Float), f.shape(b.Double), f.shape(b.UChar),
		}},
		{Name: "arrays", Result: arr, Params: []*shape.Shape{arr, vec, cfloat}},
		{Name: "packed", Result: packed, Params: []*shape.Shape{packed, wrapped}},
		{Name: "void", Params: []*shape.Shape{empty, f.shape(b.VoidPtr)}},
		{Name: "pressure", Result: f.shape(b.Int), Params: []*shape.Shape{
			f.shape(b.Long), f.shape(b.Long), f.shape(b.Long), f.shape(b.Long), f.shape(b.Long), pair, mixed, dbl,
		}},
	}
	if wide {
		ld := f.shape(b.LongDouble)
		sigs = append(sigs,
			Signature{Name: "extended", Result: ld, Params: []*shape.Shape{ld, f.shape(b.Int128)}},
			Signature{Name: "cld", Result: f.of(types.MakeComplex(b.LongDouble)), Params: []*shape.Shape{f.shape(b.Int128)}},
		)
	}
	return sigs
}
