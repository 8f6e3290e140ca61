package rules

import (
	"errors"
	"testing"

	"callconv/internal/abi"
	"callconv/internal/layout"
	"callconv/internal/shape"
	"callconv/internal/testkit"
	"callconv/internal/types"
)

func TestForTargetAliases(t *testing.T) {
	cases := map[string]string{
		"":          "x86_64-unknown-linux-gnu",
		"amd64":     "x86_64-unknown-linux-gnu",
		"X86_64":    "x86_64-unknown-linux-gnu",
		"i686":      "i386-unknown-linux-gnu",
		"mips-eabi": "mips-unknown-eabi",
	}
	for alias, want := range cases {
		tgt, err := ForTarget(alias, Options{})
		if err != nil {
			t.Fatalf("ForTarget(%q): %v", alias, err)
		}
		if tgt.Name != want || tgt.Layout.Triple != want {
			t.Fatalf("ForTarget(%q) = %s/%s, want %s", alias, tgt.Name, tgt.Layout.Triple, want)
		}
	}
	_, err := ForTarget("riscv64", Options{})
	var ute *UnknownTargetError
	if !errors.As(err, &ute) || ute.Triple != "riscv64" {
		t.Fatalf("expected UnknownTargetError, got %v", err)
	}
}

func TestForTargetSingleElementDefault(t *testing.T) {
	tgt, _ := ForTarget("i386", Options{})
	if r, ok := tgt.Rules.(I386); !ok || !r.SingleElementAsScalar {
		t.Fatalf("i386 should default to single-element scalars: %+v", tgt.Rules)
	}
	off := false
	tgt, _ = ForTarget("i386", Options{SingleElementAsScalar: &off, RegParm: 2})
	if r := tgt.Rules.(I386); r.SingleElementAsScalar || r.RegParm != 2 {
		t.Fatalf("options not applied: %+v", r)
	}
}

// zoo builds a spread of shapes for property checks on every target.
func zoo(f *fixture) []*shape.Shape {
	b := f.b
	ptr := f.in.Intern(types.MakePointer(b.Char))
	u := f.in.RegisterUnion("U", false)
	f.in.SetRecordFields(u, []types.RecordField{
		{Name: "c", Type: f.array(b.Char, 6)},
		{Name: "f", Type: b.Float},
	}, types.LayoutAttrs{})
	flags := f.in.RegisterStruct("Flags")
	f.in.SetRecordFields(flags, []types.RecordField{
		{Name: "a", Type: b.UInt, BitWidth: 3},
		{Name: "b", Type: b.UInt, BitWidth: 7},
		{Name: "d", Type: b.Double},
	}, types.LayoutAttrs{})
	ids := []types.TypeID{
		b.Bool, b.Char, b.Short, b.Int, b.Long, b.Float, b.Double, ptr,
		f.record("P", types.LayoutAttrs{}, fd("a", b.Int), fd("b", b.Int)),
		f.record("Q", types.LayoutAttrs{}, fd("a", b.Double), fd("b", b.Double)),
		f.record("R", types.LayoutAttrs{}, fd("c", b.Char), fd("d", b.Double), fd("s", b.Short)),
		f.record("S", types.LayoutAttrs{}, fd("f", b.Float), fd("g", b.Float), fd("h", b.Float)),
		f.record("T", types.LayoutAttrs{}, fd("p", ptr), fd("f", b.Float)),
		f.record("C5", types.LayoutAttrs{}, fd("c", f.array(b.Char, 5))),
		f.record("Al", types.LayoutAttrs{AlignOverride: types.Align(16)}, fd("d", b.Double)),
		f.record("Pk", types.LayoutAttrs{Packed: true}, fd("c", b.Char), fd("i", b.Int)),
		f.record("Nest", types.LayoutAttrs{}, fd("inner", f.record("In", types.LayoutAttrs{}, fd("x", b.Short))), fd("y", b.Float)),
		f.record("E", types.LayoutAttrs{}),
		u, flags,
		f.array(b.Short, 3),
		f.complex(b.Float), f.complex(b.Double),
		f.vector(b.Float, 2), f.vector(b.Int, 4),
	}
	out := make([]*shape.Shape, len(ids))
	for i, id := range ids {
		out[i] = f.shape(id)
	}
	return out
}

func TestClassificationProperties(t *testing.T) {
	for _, name := range Names() {
		tgt, err := ForTarget(name, Options{FirstClassAggregates: true, SSE: true})
		if err != nil {
			t.Fatal(err)
		}
		f := newFixture(t, tgt.Layout)
		for _, s := range zoo(f) {
			first := abi.ClassifyArgument(s, tgt.Rules, abi.NewRegisterBudget(tgt.Rules, abi.ReturnStrategy{}))
			again := abi.ClassifyArgument(s, tgt.Rules, abi.NewRegisterBudget(tgt.Rules, abi.ReturnStrategy{}))
			if !first.Equal(again) {
				t.Errorf("%s %s: not idempotent: %s vs %s", name, s, first, again)
			}
			if err := testkit.CheckStrategy(first, s); err != nil {
				t.Errorf("%s: %v (%s)", name, err, first)
			}
			if err := testkit.CheckReturn(abi.ClassifyReturn(s, tgt.Rules), s); err != nil {
				t.Errorf("%s return: %v", name, err)
			}
		}
	}
}

func TestBudgetOnlyMakesDecisionsStricter(t *testing.T) {
	tgt, _ := ForTarget("amd64", Options{})
	f := newFixture(t, layout.X86_64LinuxGNU())
	for _, s := range zoo(f) {
		free := abi.ClassifyArgument(s, tgt.Rules, abi.NewRegisterBudget(tgt.Rules, abi.ReturnStrategy{}))
		for used := 0; used <= 6; used++ {
			budget := abi.NewRegisterBudget(tgt.Rules, abi.ReturnStrategy{})
			budget.IntegerUsed = used
			budget.VectorUsed = used
			got := abi.ClassifyArgument(s, tgt.Rules, budget)
			if got.Equal(free) {
				continue
			}
			if free.Kind != abi.ByRegister || got.Kind != abi.ByValueInMemory {
				t.Fatalf("%s with %d used: %s -> %s is not a downgrade", s, used, free, got)
			}
		}
	}
}
