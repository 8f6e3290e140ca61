package lower

import (
	"bytes"
	"fmt"

	"callconv/internal/abi"
	"callconv/internal/ir"
)

// RoundTripError reports bytes that changed on their way through a call.
type RoundTripError struct {
	Subject string
	Want    []byte
	Got     []byte
}

func (e *RoundTripError) Error() string {
	return fmt.Sprintf("%s: round trip changed bytes: sent % x, got % x", e.Subject, e.Want, e.Got)
}

// CheckResult summarizes one simulated call.
type CheckResult struct {
	Proto    *Prototype
	Operands int
	Ops      int
}

// Check simulates a call of sig. The caller marshals patterned arguments,
// the callee materializes them and marshals them again from its own
// storage, and the callee's result travels back to the caller. Operand
// bytes must survive unchanged and so must every byte the return carries.
// Internal ABI errors and out-of-bounds accesses are returned as errors.
func Check(rules abi.TargetABIRules, sig Signature, ptrSize uint64) (res CheckResult, err error) {
	defer recoverMemory(&err)
	defer abi.Recover(&err)

	m := ir.NewMachine(ptrSize)
	proto := PrototypeOf(rules, sig, m.PtrType())
	ret := proto.Return
	res.Proto = proto

	args := make([]Arg, len(sig.Params))
	for i, s := range sig.Params {
		p := m.Alloca(s.Size, s.Align)
		m.Write(p, pattern(i, s.Size))
		args[i] = Arg{Name: sig.ParamName(i), Shape: s, Value: p, Address: true}
	}
	callRet := CallReturnStrategy(rules, sig, proto)
	call := PrepareCallReturn(m, callRet, sig.Result, ir.Value{}, false)
	ops := MarshalCallArguments(m, rules, args, proto, abi.NewRegisterBudget(rules, callRet))
	incoming := Values(ops)
	if call.Hidden != nil {
		incoming = append([]ir.Value{call.Hidden.Value}, incoming...)
	}
	res.Operands = len(incoming)

	m.Feed(incoming...)
	in := NewCursor(m)
	pro := MaterializePrologueArguments(m, rules, ret, sig, in, abi.NewRegisterBudget(rules, ret))
	if in.Consumed() != len(incoming) {
		return res, &abi.ConsistencyError{
			Subject: sig.Name,
			Callee:  fmt.Sprintf("%d incoming values", in.Consumed()),
			Caller:  fmt.Sprintf("%d operands", len(incoming)),
		}
	}
	for i := range proto.Params {
		abi.AssertSameStrategy(sig.subject(i), pro.Proto.Params[i], proto.Params[i])
	}

	again := make([]Arg, len(pro.Params))
	for i, p := range pro.Params {
		again[i] = Arg{Name: p.Name, Shape: p.Shape, Value: p.Storage, Address: true}
	}
	ops2 := MarshalCallArguments(m, rules, again, pro.Proto, abi.NewRegisterBudget(rules, ret))
	if err := compareOperands(m, sig, ops, ops2); err != nil {
		return res, err
	}

	if ret.Kind != abi.ReturnVoid {
		size := sig.Result.Size
		m.Write(pro.Return.Ptr, pattern(len(sig.Params), size))
		results := EmitReturn(m, pro.Return)
		if want := ResultTypes(m, ret); len(want) != len(results) {
			return res, &abi.ConsistencyError{
				Subject: "return " + sig.Result.String(),
				Callee:  fmt.Sprintf("%d results", len(results)),
				Caller:  fmt.Sprintf("%d results", len(want)),
			}
		}
		dest := FinishCallReturn(m, call, results)
		sent := m.Read(pro.Return.Ptr, size)
		got := m.Read(dest, size)
		for _, r := range returnedRanges(ret, size) {
			if !bytes.Equal(sent[r[0]:r[1]], got[r[0]:r[1]]) {
				return res, &RoundTripError{Subject: sig.Name + ".return", Want: sent[r[0]:r[1]], Got: got[r[0]:r[1]]}
			}
		}
	}
	res.Ops = m.Ops()
	return res, nil
}

func compareOperands(m *ir.Machine, sig Signature, first, second []Operand) error {
	if len(first) != len(second) {
		return &abi.ConsistencyError{
			Subject: sig.Name,
			Callee:  fmt.Sprintf("%d operands", len(second)),
			Caller:  fmt.Sprintf("%d operands", len(first)),
		}
	}
	for i := range first {
		a, b := first[i], second[i]
		subject := sig.subject(a.Arg)
		var want, got []byte
		if a.ByAddress || a.NoAlias {
			size := sig.Params[a.Arg].Size
			want, got = m.Read(a.Value, size), m.Read(b.Value, size)
		} else {
			want, got = m.Bytes(a.Value), m.Bytes(b.Value)
		}
		if !bytes.Equal(want, got) {
			return &RoundTripError{Subject: subject, Want: want, Got: got}
		}
	}
	return nil
}

// returnedRanges are the byte ranges of the result a return carries.
func returnedRanges(strat abi.ReturnStrategy, size uint64) [][2]uint64 {
	if strat.Kind == abi.ShadowPointer {
		return [][2]uint64{{0, size}}
	}
	var out [][2]uint64
	for _, r := range returnRegisters(strat) {
		if r.lanes != nil {
			for _, l := range r.lanes {
				out = append(out, [2]uint64{l.off, l.off + l.size})
			}
			continue
		}
		n := min(r.word.Size, r.typ().Size)
		out = append(out, [2]uint64{r.off, min(r.off+n, size)})
	}
	return out
}

func pattern(seed int, n uint64) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(seed*37 + i*7 + 1)
	}
	return out
}

func recoverMemory(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	if e, ok := r.(*ir.MemoryError); ok {
		*errp = e
		return
	}
	panic(r)
}
