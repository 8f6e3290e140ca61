package abi

import "testing"

func TestMerge(t *testing.T) {
	cases := []struct {
		a, b, want RegisterClass
	}{
		{Integer, Integer, Integer},
		{NoClass, SSE, SSE},
		{SSE, NoClass, SSE},
		{SSE, Memory, Memory},
		{SSE, Integer, Integer},
		{X87, SSE, Memory},
		{SSE, SSEUp, SSE},
	}
	for _, tc := range cases {
		if got := Merge(tc.a, tc.b); got != tc.want {
			t.Errorf("Merge(%s, %s) = %s, want %s", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestPostMerge(t *testing.T) {
	cases := []struct {
		in   []RegisterClass
		size uint64
		want []RegisterClass
	}{
		{[]RegisterClass{Integer, Memory}, 16, []RegisterClass{Memory, Memory}},
		{[]RegisterClass{SSE, X87Up}, 16, []RegisterClass{Memory, Memory}},
		{[]RegisterClass{X87, X87Up}, 16, []RegisterClass{X87, X87Up}},
		{[]RegisterClass{Integer, SSEUp}, 16, []RegisterClass{Integer, SSE}},
		{[]RegisterClass{SSE, SSEUp, SSEUp, SSEUp}, 32, []RegisterClass{SSE, SSEUp, SSEUp, SSEUp}},
		{[]RegisterClass{SSE, SSEUp, Integer}, 24, []RegisterClass{Memory, Memory, Memory}},
	}
	for _, tc := range cases {
		got := append([]RegisterClass(nil), tc.in...)
		PostMerge(got, tc.size)
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("PostMerge(%v) = %v, want %v", tc.in, got, tc.want)
				break
			}
		}
	}
}

func TestIntegerWords(t *testing.T) {
	cases := []struct {
		size, byteSize, align, maxWord uint64
		check                          bool
		want                           string
	}{
		{8, 8, 8, 8, true, "[i64]"},
		{12, 12, 4, 8, true, "[i32, i32, i32]"},
		{12, 12, 4, 8, false, "[i64, i32]"},
		{3, 3, 1, 8, true, "[i8, i8, i8]"},
		{3, 3, 1, 8, false, "[i16, i8]"},
		{3, 4, 1, 4, false, "[i32:3]"},
		{6, 8, 2, 4, false, "[i32, i32:2]"},
		{0, 0, 1, 8, true, "[]"},
	}
	for _, tc := range cases {
		got := FormatWords(IntegerWords(tc.size, tc.byteSize, tc.align, tc.maxWord, tc.check))
		if got != tc.want {
			t.Errorf("IntegerWords(%d,%d,%d,%d,%v) = %s, want %s", tc.size, tc.byteSize, tc.align, tc.maxWord, tc.check, got, tc.want)
		}
	}
}

func TestPathIsImmutable(t *testing.T) {
	root := Root("struct S")
	a := root.Field("a")
	b := root.Field("b").Index(2)
	if root.String() != "struct S" || a.String() != "struct S.a" || b.String() != "struct S.b[2]" {
		t.Fatalf("unexpected paths %q %q %q", root, a, b)
	}
	if b.Depth() != 2 || root.Depth() != 0 {
		t.Fatalf("unexpected depths %d %d", b.Depth(), root.Depth())
	}
}

func TestRegistersNeeded(t *testing.T) {
	words := []LegalizedWord{
		{Kind: WordV4F32, Size: 4, InLane: true, Lane: 0},
		{Kind: WordV4F32, Size: 4, InLane: true, Lane: 1},
		{Kind: WordI64, Size: 8},
		{Kind: WordI128, Size: 16},
		{Size: 8, Padding: true},
		{Kind: WordX87, Size: 16},
	}
	ints, vecs := RegistersNeeded(words)
	if ints != 3 || vecs != 1 {
		t.Fatalf("RegistersNeeded = %d ints, %d vecs", ints, vecs)
	}
	b := &RegisterBudget{IntegerTotal: 6, VectorTotal: 8, IntegerUsed: 5}
	b.Consume(words)
	if b.IntegerUsed != 6 || b.VectorUsed != 1 {
		t.Fatalf("Consume must saturate: %+v", b)
	}
}

func TestStrategyEqualAndString(t *testing.T) {
	a := PassingStrategy{Kind: ByRegister, Words: []LegalizedWord{{Kind: WordI64, Size: 8}}}
	b := PassingStrategy{Kind: ByRegister, Words: []LegalizedWord{{Kind: WordI64, Size: 8}}}
	if !a.Equal(b) {
		t.Fatalf("identical strategies differ")
	}
	b.Words[0].Size = 7
	if a.Equal(b) {
		t.Fatalf("word size must matter")
	}
	if got := b.String(); got != "ByRegister([i64:7])" {
		t.Fatalf("String() = %q", got)
	}
}

func TestAssertSameStrategyPanics(t *testing.T) {
	var err error
	func() {
		defer Recover(&err)
		AssertSameStrategy("f.p0", PassingStrategy{Kind: Dropped}, inMemory(8))
	}()
	if _, ok := err.(*ConsistencyError); !ok {
		t.Fatalf("expected ConsistencyError, got %v", err)
	}
}
