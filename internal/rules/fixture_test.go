package rules

import (
	"testing"

	"callconv/internal/layout"
	"callconv/internal/shape"
	"callconv/internal/types"
)

// fixture declares C-like types against one target layout.
type fixture struct {
	t     *testing.T
	in    *types.Interner
	model *shape.Model
	b     types.Builtins
}

func newFixture(t *testing.T, target layout.Target) *fixture {
	t.Helper()
	in := types.NewInterner()
	return &fixture{
		t:     t,
		in:    in,
		model: shape.NewModel(in, layout.New(target, in)),
		b:     in.Builtins(),
	}
}

type fieldDecl struct {
	name string
	typ  types.TypeID
}

func (f *fixture) record(name string, attrs types.LayoutAttrs, fields ...fieldDecl) types.TypeID {
	id := f.in.RegisterStruct(name)
	rf := make([]types.RecordField, len(fields))
	for i, fd := range fields {
		rf[i] = types.RecordField{Name: fd.name, Type: fd.typ}
	}
	f.in.SetRecordFields(id, rf, attrs)
	return id
}

func (f *fixture) strct(name string, fields ...fieldDecl) *shape.Shape {
	return f.model.ShapeOf(f.record(name, types.LayoutAttrs{}, fields...))
}

func (f *fixture) array(elem types.TypeID, n uint32) types.TypeID {
	return f.in.Intern(types.MakeArray(elem, n))
}

func (f *fixture) vector(elem types.TypeID, n uint32) types.TypeID {
	return f.in.Intern(types.MakeVector(elem, n))
}

func (f *fixture) complex(elem types.TypeID) types.TypeID {
	return f.in.Intern(types.MakeComplex(elem))
}

func (f *fixture) shape(id types.TypeID) *shape.Shape {
	return f.model.ShapeOf(id)
}

func fd(name string, typ types.TypeID) fieldDecl {
	return fieldDecl{name: name, typ: typ}
}
