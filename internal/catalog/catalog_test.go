package catalog

import (
	"errors"
	"strings"
	"testing"

	"callconv/internal/types"
)

func TestLoadSample(t *testing.T) {
	cat, err := Load("testdata/sample.toml", Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cat.Target.Name != "x86_64-unknown-linux-gnu" {
		t.Errorf("target = %q", cat.Target.Name)
	}
	if len(cat.Declared) != 6 || len(cat.Functions) != 3 {
		t.Fatalf("declared %d types and %d functions", len(cat.Declared), len(cat.Functions))
	}

	in := cat.Types
	swap, ok := cat.Function("swap")
	if !ok {
		t.Fatal("swap not found")
	}
	if got := in.Describe(swap.Result); got != "struct Pair" {
		t.Errorf("swap result = %q", got)
	}

	walk, _ := cat.Function("walk")
	want := []string{"struct Node*", "vector float x4", "_Complex double"}
	for i, p := range walk.Params {
		if got := in.Describe(p.Type); got != want[i] {
			t.Errorf("walk param %d = %q, want %q", i, got, want[i])
		}
	}

	tail, _ := cat.Function("tail")
	if tail.Result != types.NoTypeID {
		t.Errorf("void result = %v", tail.Result)
	}
	if tt := in.MustLookup(tail.Params[0].Type); tt.Kind != types.KindArray || tt.Count != types.ArrayDynamicLength {
		t.Errorf("char[] = %+v", tt)
	}

	maybe, _ := in.Named("Maybe")
	info, _ := in.Record(maybe)
	if !info.Qualified || info.Fields[1].Present != types.PresenceTrue {
		t.Errorf("Maybe = %+v", info)
	}
	flags, _ := in.Named("Flags")
	info, _ = in.Record(flags)
	if len(info.Fields) != 3 || info.Fields[1].Name != "" || info.Fields[2].BitWidth != 4 {
		t.Errorf("Flags = %+v", info.Fields)
	}
	tight, _ := in.Named("Tight")
	info, _ = in.Record(tight)
	if !info.Attrs.Packed {
		t.Error("Tight not packed")
	}
}

func TestLongFollowsTarget(t *testing.T) {
	const doc = `
[[function]]
name = "f"
params = [{ type = "long" }, { type = "size_t" }, { type = "long long" }]
`
	widths := map[string][3]types.Width{
		"amd64": {types.Width64, types.Width64, types.Width64},
		"i386":  {types.Width32, types.Width32, types.Width64},
	}
	for triple, want := range widths {
		cat, err := Parse("inline", doc, Options{Triple: triple})
		if err != nil {
			t.Fatalf("%s: %v", triple, err)
		}
		for i, p := range cat.Functions[0].Params {
			if got := cat.Types.MustLookup(p.Type).Width; got != want[i] {
				t.Errorf("%s param %d width = %d, want %d", triple, i, got, want[i])
			}
		}
	}
}

func TestNamesAreNormalized(t *testing.T) {
	const composed, decomposed = "caf\u00e9", "cafe\u0301"
	doc := "[[type]]\nname = \"" + composed + "\"\nfields = [{ name = \"x\", type = \"int\" }]\n" +
		"[[function]]\nname = \"f\"\nparams = [{ type = \"" + decomposed + "\" }]\n"
	cat, err := Parse("inline", doc, Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	id, ok := cat.Types.Named(composed)
	if !ok || cat.Functions[0].Params[0].Type != id {
		t.Errorf("decomposed spelling resolved to %v, want %v", cat.Functions[0].Params[0].Type, id)
	}

	dup := "[[type]]\nname = \"" + composed + "\"\n[[type]]\nname = \"" + decomposed + "\"\n"
	_, err = Parse("inline", dup, Options{})
	expectKinds(t, err, ErrDuplicateName)
}

func TestCatalogErrors(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want []ErrorKind
	}{
		{"syntax", "[[type]\n", []ErrorKind{ErrParse}},
		{"unknown key", "[target]\ntriple = \"amd64\"\ncolour = 1\n", []ErrorKind{ErrUnknownKey}},
		{"unknown target", "[target]\ntriple = \"vax\"\n", []ErrorKind{ErrBadTarget}},
		{"regparm", "[target]\ntriple = \"i386\"\nregparm = 5\n", []ErrorKind{ErrBadTarget}},
		{"missing triple", "[target]\nsse = true\n", []ErrorKind{ErrMissingField}},
		{"unknown type", "[[function]]\nname = \"f\"\nparams = [{ type = \"Nope\" }]\n", []ErrorKind{ErrUnknownType}},
		{"bad ref", "[[function]]\nname = \"f\"\nparams = [{ type = \"int[x]\" }]\n", []ErrorKind{ErrBadTypeRef}},
		{"void param", "[[function]]\nname = \"f\"\nparams = [{ type = \"void\" }]\n", []ErrorKind{ErrBadTypeRef}},
		{"complex int", "[[function]]\nname = \"f\"\nresult = \"_Complex int\"\n", []ErrorKind{ErrBadTypeRef}},
		{"vector lanes", "[[function]]\nname = \"f\"\nresult = \"vector float x3\"\n", []ErrorKind{ErrBadTypeRef}},
		{"builtin name", "[[type]]\nname = \"int\"\n", []ErrorKind{ErrDuplicateName}},
		{"dup function", "[[function]]\nname = \"f\"\n[[function]]\nname = \"f\"\n", []ErrorKind{ErrDuplicateName}},
		{"packed align", "[[type]]\nname = \"S\"\npacked = true\nalign = 8\n", []ErrorKind{ErrBadValue}},
		{"bits", "[[type]]\nname = \"S\"\nfields = [{ name = \"b\", type = \"int\", bits = 300 }]\n", []ErrorKind{ErrBadValue}},
		{"float bits", "[[type]]\nname = \"S\"\nfields = [{ name = \"b\", type = \"float\", bits = 3 }]\n", []ErrorKind{ErrBadValue}},
		{"present", "[[type]]\nname = \"S\"\nfields = [{ name = \"b\", type = \"int\", present = \"true\" }]\n", []ErrorKind{ErrBadValue}},
		{"kind", "[[type]]\nname = \"S\"\nkind = \"enum\"\n", []ErrorKind{ErrBadValue}},
		{"unnamed", "[[type]]\nname = \"S\"\nfields = [{ type = \"int\" }]\n", []ErrorKind{ErrMissingField}},
		{"struct vs union", "[[type]]\nname = \"U\"\nkind = \"union\"\n[[function]]\nname = \"f\"\nresult = \"struct U\"\n", []ErrorKind{ErrBadTypeRef}},
		{
			"collects all",
			"[[function]]\nname = \"f\"\nparams = [{ type = \"A\" }, { type = \"B\" }]\n",
			[]ErrorKind{ErrUnknownType, ErrUnknownType},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Parse(c.name, c.doc, Options{})
			expectKinds(t, err, c.want...)
		})
	}
}

func TestErrorMessage(t *testing.T) {
	_, err := Parse("cat.toml", "[[function]]\nname = \"f\"\nparams = [{ name = \"x\", type = \"Nope*\" }]\n", Options{})
	var ce *Error
	if !errors.As(err, &ce) {
		t.Fatalf("error %v is not a *Error", err)
	}
	msg := ce.Error()
	for _, want := range []string{"cat.toml", `function "f" param "x"`, `undeclared type "Nope"`} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q lacks %q", msg, want)
		}
	}
}

func expectKinds(t *testing.T, err error, want ...ErrorKind) {
	t.Helper()
	var errs Errors
	if !errors.As(err, &errs) {
		t.Fatalf("got %v, want catalog errors %v", err, want)
	}
	if len(errs) != len(want) {
		t.Fatalf("got %d errors (%v), want %v", len(errs), err, want)
	}
	for i, e := range errs {
		if e.Kind != want[i] {
			t.Errorf("error %d kind = %s, want %s (%v)", i, e.Kind, want[i], e)
		}
	}
}
