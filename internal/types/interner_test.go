package types

import (
	"sync"
	"testing"
)

func TestInternerBuiltins(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	if b.Int == NoTypeID || b.Double == NoTypeID || b.LongDouble == NoTypeID {
		t.Fatalf("builtins not initialized")
	}
	ld, _ := in.Lookup(b.LongDouble)
	if ld.Kind != KindFloat || ld.Width != Width80 {
		t.Fatalf("expected 80-bit float, got %v/%d", ld.Kind, ld.Width)
	}
}

func TestInternerDeduplicatesDescriptors(t *testing.T) {
	in := NewInterner()
	elem := in.Builtins().Int
	arr1 := in.Intern(MakeArray(elem, 5))
	arr2 := in.Intern(MakeArray(elem, 5))
	if arr1 != arr2 {
		t.Fatalf("array types should be deduplicated")
	}
	if in.Intern(MakeArray(elem, 6)) == arr1 {
		t.Fatalf("array length must affect identity")
	}
}

func TestRecordsAreNominal(t *testing.T) {
	in := NewInterner()
	a := in.RegisterStruct("A")
	b := in.RegisterStruct("B")
	if a == b {
		t.Fatalf("distinct records must not share an id")
	}
	fields := []RecordField{{Name: "x", Type: in.Builtins().Int}}
	in.SetRecordFields(a, fields, LayoutAttrs{Packed: true})
	info, ok := in.Record(a)
	if !ok || !info.Defined() || len(info.Fields) != 1 || !info.Attrs.Packed {
		t.Fatalf("unexpected record info %+v", info)
	}
	if got, ok := in.Named("A"); !ok || got != a {
		t.Fatalf("Named(A) = %d, %v", got, ok)
	}
	if rb, _ := in.Record(b); rb.Defined() {
		t.Fatalf("B has no fields yet")
	}
}

func TestDescribe(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	s := in.RegisterStruct("Pair")
	cases := []struct {
		id   TypeID
		want string
	}{
		{b.Int, "int"},
		{b.ULong, "unsigned long"},
		{in.Intern(MakePointer(b.Char)), "char*"},
		{in.Intern(MakeArray(b.Int, 5)), "int[5]"},
		{in.Intern(MakeComplex(b.Double)), "_Complex double"},
		{in.Intern(MakeVector(b.Float, 4)), "vector float x4"},
		{in.Intern(MakeArray(s, ArrayDynamicLength)), "struct Pair[]"},
	}
	for _, tc := range cases {
		if got := in.Describe(tc.id); got != tc.want {
			t.Errorf("Describe(%d) = %q, want %q", tc.id, got, tc.want)
		}
	}
}

func TestInternConcurrent(t *testing.T) {
	in := NewInterner()
	elem := in.Builtins().Double
	var wg sync.WaitGroup
	ids := make([]TypeID, 16)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = in.Intern(MakeArray(elem, 3))
		}(i)
	}
	wg.Wait()
	for _, id := range ids[1:] {
		if id != ids[0] {
			t.Fatalf("concurrent interning produced different ids: %v", ids)
		}
	}
}
