package lower

import (
	"errors"
	"strings"
	"testing"

	"callconv/internal/abi"
	"callconv/internal/ir"
	"callconv/internal/rules"
	"callconv/internal/shape"
	"callconv/internal/types"
)

type targetCase struct {
	name   string
	triple string
	opts   rules.Options
	wide   bool
}

var targetCases = []targetCase{
	{"amd64", "x86_64-unknown-linux-gnu", rules.Options{}, true},
	{"amd64 first-class", "amd64", rules.Options{FirstClassAggregates: true}, true},
	{"i386", "i386", rules.Options{}, true},
	{"i386 regparm", "i686", rules.Options{RegParm: 3, SSE: true, SmallStructReturn: true, MaxRegisterAggregate: 8}, true},
	{"mips", "mips-eabi", rules.Options{}, false},
}

func TestRoundTrip(t *testing.T) {
	for _, tc := range targetCases {
		f := newFixture(t, tc.triple, tc.opts)
		for _, sig := range f.zoo(tc.wide) {
			res, err := Check(f.target.Rules, sig, f.ptrSize())
			if err != nil {
				t.Errorf("%s: %s: %v", tc.name, sig.Name, err)
				continue
			}
			if res.Ops == 0 {
				t.Errorf("%s: %s: nothing executed", tc.name, sig.Name)
			}
		}
	}
}

func TestPrologueMatchesPrototype(t *testing.T) {
	for _, tc := range targetCases {
		f := newFixture(t, tc.triple, tc.opts)
		r := f.target.Rules
		for _, sig := range f.zoo(tc.wide) {
			tx := ir.NewText(f.ptrSize())
			ret := abi.ClassifyReturn(sig.Result, r)
			pro := MaterializePrologueArguments(tx, r, ret, sig, NewCursor(tx), abi.NewRegisterBudget(r, ret))
			want := PrototypeOf(r, sig, tx.PtrType())
			if !pro.Proto.Return.Equal(want.Return) {
				t.Errorf("%s: %s: return %s vs %s", tc.name, sig.Name, pro.Proto.Return, want.Return)
			}
			for i := range sig.Params {
				if !pro.Proto.Params[i].Equal(want.Params[i]) {
					t.Errorf("%s: %s.%d: %s vs %s", tc.name, sig.Name, i, pro.Proto.Params[i], want.Params[i])
				}
				if len(pro.Params[i].Incoming) != len(want.Slots[i]) {
					t.Errorf("%s: %s.%d: consumed %d values, declared %d", tc.name, sig.Name, i,
						len(pro.Params[i].Incoming), len(want.Slots[i]))
				}
			}
		}
	}
}

func TestMarshalStrategies(t *testing.T) {
	f := newFixture(t, "amd64", rules.Options{})
	r := f.target.Rules
	b := f.b
	pair := f.strct("Pair", m("a", b.Int), m("b", b.Int))
	big := f.strct("Big", m("a", b.Long), m("b", b.Long), m("c", b.Long))

	mach := ir.NewMachine(8)
	pairAddr := mach.Alloca(pair.Size, pair.Align)
	bigAddr := mach.Alloca(big.Size, big.Align)
	args := []Arg{
		{Name: "p", Shape: pair, Value: pairAddr, Address: true},
		{Name: "big", Shape: big, Value: bigAddr, Address: true},
		{Name: "empty", Shape: f.strct("Empty")},
	}
	ops := MarshalCallArguments(mach, r, args, nil, abi.NewRegisterBudget(r, abi.ReturnStrategy{}))
	if len(ops) != 2 {
		t.Fatalf("got %d operands, want 2", len(ops))
	}
	if ops[0].Value.Type != ir.Int(8) || ops[0].ByAddress {
		t.Errorf("pair operand %+v", ops[0])
	}
	if !ops[1].ByAddress || ops[1].Value != bigAddr || ops[1].Arg != 1 {
		t.Errorf("big operand %+v", ops[1])
	}
}

func TestMarshalSpillsBareValues(t *testing.T) {
	f := newFixture(t, "amd64", rules.Options{})
	r := f.target.Rules
	pair := f.strct("Pair", m("a", f.b.Int), m("b", f.b.Int))

	mach := ir.NewMachine(8)
	v := mach.Const(ir.Bytes(8), []byte{1, 0, 0, 0, 2, 0, 0, 0})
	ops := MarshalCallArguments(mach, r, []Arg{{Shape: pair, Value: v}}, nil, abi.NewRegisterBudget(r, abi.ReturnStrategy{}))
	if len(ops) != 1 {
		t.Fatalf("got %d operands", len(ops))
	}
	if got := mach.Bytes(ops[0].Value); string(got) != string(mach.Bytes(v)) {
		t.Fatalf("word bytes % x, want % x", got, mach.Bytes(v))
	}
}

func TestInvisibleReferenceCopiesAliasedArgument(t *testing.T) {
	f := newFixture(t, "amd64", rules.Options{})
	r := f.target.Rules
	vla := f.of(types.MakeArray(f.b.Int, types.ArrayDynamicLength))
	if !vla.VariableLength {
		t.Fatalf("expected a variable-length shape, got %+v", vla)
	}

	mach := ir.NewMachine(8)
	addr := mach.Alloca(vla.Size, vla.Align)
	for _, alias := range []bool{false, true} {
		ops := MarshalCallArguments(mach, r, []Arg{{Shape: vla, Value: addr, Address: true, MayAlias: alias}}, nil,
			abi.NewRegisterBudget(r, abi.ReturnStrategy{}))
		if len(ops) != 1 || !ops[0].NoAlias {
			t.Fatalf("alias=%t: operands %+v", alias, ops)
		}
		if same := ops[0].Value == addr; same == alias {
			t.Errorf("alias=%t: operand reuses caller storage: %t", alias, same)
		}
	}
}

func TestTailCopiedByteByByte(t *testing.T) {
	f := newFixture(t, "amd64", rules.Options{})
	r := f.target.Rules
	chars := f.strct("Chars", m("a", f.b.Char), m("b", f.b.Char), m("c", f.b.Char))
	sig := Signature{Name: "take", Params: []*shape.Shape{chars}}

	tx := ir.NewText(8)
	MaterializePrologueArguments(tx, r, abi.ReturnStrategy{}, sig, NewCursor(tx), abi.NewRegisterBudget(r, abi.ReturnStrategy{}))
	body := tx.Body()
	if n := strings.Count(body, "load i8"); n != 3 {
		t.Errorf("got %d byte loads, want 3:\n%s", n, body)
	}
	if strings.Contains(body, "store i32 %arg0, ptr %v1,") {
		t.Errorf("tail stored with a wide store:\n%s", body)
	}

	// The same bytes through the machine: a 4-byte store into the 3-byte
	// slot would fault.
	mach := ir.NewMachine(8)
	word := mach.Const(ir.Int(4), []byte{7, 8, 9, 0})
	mach.Feed(word)
	pro := MaterializePrologueArguments(mach, r, abi.ReturnStrategy{}, sig, NewCursor(mach), abi.NewRegisterBudget(r, abi.ReturnStrategy{}))
	if got := mach.Read(pro.Params[0].Storage, 3); string(got) != "\x07\x08\x09" {
		t.Fatalf("stored % x", got)
	}
}

func TestCoercion(t *testing.T) {
	f := newFixture(t, "amd64", rules.Options{})
	r := f.target.Rules
	ptr := f.of(types.MakePointer(f.b.Int))
	sig := Signature{Name: "f", Params: []*shape.Shape{ptr, f.shape(f.b.Int)}}

	tx := ir.NewText(8)
	proto := PrototypeOf(r, sig, tx.PtrType())
	if proto.Slots[0][0] != tx.PtrType() || !proto.Slots[1][0].Signed {
		t.Fatalf("declared slots %v", proto.Slots)
	}
	p := tx.Alloca(8, 8)
	i := tx.Alloca(4, 4)
	args := []Arg{{Shape: ptr, Value: p, Address: true}, {Shape: f.shape(f.b.Int), Value: i, Address: true}}
	ops := MarshalCallArguments(tx, r, args, proto, abi.NewRegisterBudget(r, abi.ReturnStrategy{}))
	if ops[0].Value.Type != tx.PtrType() || ops[1].Value.Type != ir.SignedInt(4) {
		t.Fatalf("operands not coerced: %+v", ops)
	}
	if n := strings.Count(tx.Body(), "bitcast"); n != 2 {
		t.Errorf("got %d bitcasts, want 2", n)
	}

	proto.Slots[1][0] = ir.Float(4)
	var err error
	func() {
		defer abi.Recover(&err)
		MarshalCallArguments(tx, r, args, proto, abi.NewRegisterBudget(r, abi.ReturnStrategy{}))
	}()
	var ce *abi.CoercionError
	if !errors.As(err, &ce) || ce.To != "float" {
		t.Fatalf("expected CoercionError to float, got %v", err)
	}
}

func TestPrototypeMismatch(t *testing.T) {
	f := newFixture(t, "amd64", rules.Options{})
	r := f.target.Rules
	ints := f.strct("Ints", m("a", f.b.Long), m("b", f.b.Long))
	dbls := f.strct("Dbls", m("a", f.b.Double), m("b", f.b.Double))
	proto := PrototypeOf(r, Signature{Name: "g", Params: []*shape.Shape{dbls}}, ir.Ptr(8))

	tx := ir.NewText(8)
	cases := []struct {
		name string
		args []Arg
	}{
		{"strategy", []Arg{{Name: "x", Shape: ints, Value: tx.Alloca(16, 8), Address: true}}},
		{"arity", nil},
	}
	for _, tc := range cases {
		var err error
		func() {
			defer abi.Recover(&err)
			MarshalCallArguments(tx, r, tc.args, proto, abi.NewRegisterBudget(r, abi.ReturnStrategy{}))
		}()
		var ce *abi.ConsistencyError
		if !errors.As(err, &ce) {
			t.Errorf("%s: expected ConsistencyError, got %v", tc.name, err)
		}
	}
}

func TestCallReturnMustMatchPrototype(t *testing.T) {
	f := newFixture(t, "amd64", rules.Options{})
	r := f.target.Rules
	pair := f.strct("Pair", m("a", f.b.Int), m("b", f.b.Int))
	sig := Signature{Name: "make", Result: pair}
	proto := PrototypeOf(r, sig, ir.Ptr(8))
	if got := CallReturnStrategy(r, sig, proto); !got.Equal(proto.Return) {
		t.Fatalf("call site %s, prototype %s", got, proto.Return)
	}

	proto.Return = abi.ReturnStrategy{Kind: abi.ShadowPointer, CalleeReturnsPointer: true}
	var err error
	func() {
		defer abi.Recover(&err)
		CallReturnStrategy(r, sig, proto)
	}()
	var ce *abi.ConsistencyError
	if !errors.As(err, &ce) || ce.Subject != "make.return" {
		t.Fatalf("expected ConsistencyError for make.return, got %v", err)
	}
}

func TestReturnProtocol(t *testing.T) {
	f := newFixture(t, "amd64", rules.Options{})
	r := f.target.Rules
	big := f.strct("Big", m("a", f.b.Long), m("b", f.b.Long), m("c", f.b.Long))
	ret := abi.ClassifyReturn(big, r)
	if ret.Kind != abi.ShadowPointer || !ret.CalleeReturnsPointer {
		t.Fatalf("got %s", ret)
	}

	mach := ir.NewMachine(8)
	dest := mach.Alloca(big.Size, big.Align)
	direct := PrepareCallReturn(mach, ret, big, dest, false)
	if direct.Hidden == nil || direct.Hidden.Value != dest || direct.Hidden.Arg != -1 {
		t.Fatalf("safe destination not passed in place: %+v", direct.Hidden)
	}

	aliased := PrepareCallReturn(mach, ret, big, dest, true)
	if aliased.Hidden.Value == dest {
		t.Fatalf("aliased destination passed in place")
	}
	mach.Write(aliased.Hidden.Value, []byte(strings.Repeat("x", int(big.Size))))
	if got := FinishCallReturn(mach, aliased, nil); got != dest {
		t.Fatalf("result left in %v", got)
	}
	if got := string(mach.Read(dest, big.Size)); got != strings.Repeat("x", int(big.Size)) {
		t.Fatalf("destination holds %q", got)
	}
}

func TestEmitReturnScalarFromAggregateBits(t *testing.T) {
	f := newFixture(t, "mips", rules.Options{})
	r := f.target.Rules
	chars := f.strct("Chars", m("a", f.b.Char), m("b", f.b.Char), m("c", f.b.Char))
	ret := abi.ClassifyReturn(chars, r)
	if ret.String() != "ScalarFromAggregateBits(offset=0, [i32:3])" {
		t.Fatalf("got %s", ret)
	}

	mach := ir.NewMachine(4)
	slot := BindReturnSlot(mach, ret, chars, NewCursor(mach))
	mach.Write(slot.Ptr, []byte{1, 2, 3})
	vals := EmitReturn(mach, slot)
	if len(vals) != 1 || vals[0].Type != ir.Int(4) {
		t.Fatalf("returned %+v", vals)
	}
	if got := mach.Bytes(vals[0]); string(got[:3]) != "\x01\x02\x03" {
		t.Fatalf("returned bytes % x", got)
	}
}

func TestListing(t *testing.T) {
	f := newFixture(t, "amd64", rules.Options{})
	r := f.target.Rules
	big := f.strct("Big", m("a", f.b.Long), m("b", f.b.Long), m("c", f.b.Long))
	pair := f.strct("Pair", m("a", f.b.Int), m("b", f.b.Int))
	sig := Signature{Name: "make", Result: big, Params: []*shape.Shape{pair, big}, ParamNames: []string{"p", "q"}}

	callee, caller, err := Listing(r, sig, 8)
	if err != nil {
		t.Fatalf("Listing: %v", err)
	}
	for _, want := range []string{"define ptr @make(ptr %arg0, i64 %arg1, ptr %arg2)", "ret ptr %arg0"} {
		if !strings.Contains(callee, want) {
			t.Errorf("callee lacks %q:\n%s", want, callee)
		}
	}
	for _, want := range []string{"define void @call_make(", "sret", "byval", "call ptr @make("} {
		if !strings.Contains(caller, want) {
			t.Errorf("caller lacks %q:\n%s", want, caller)
		}
	}
}
