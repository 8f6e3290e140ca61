package lower

import (
	"fmt"

	"callconv/internal/abi"
	"callconv/internal/ir"
	"callconv/internal/shape"
)

// ReturnSlot is the storage a callee builds its result in.
type ReturnSlot struct {
	Strategy abi.ReturnStrategy
	Shape    *shape.Shape
	// Ptr is invalid for void results.
	Ptr ir.Value
}

// BindReturnSlot gives the callee the storage its result is built in: the
// incoming hidden pointer for a shadow return, local storage otherwise.
func BindReturnSlot(b ir.Builder, strat abi.ReturnStrategy, s *shape.Shape, in *Cursor) ReturnSlot {
	slot := ReturnSlot{Strategy: strat, Shape: s}
	switch strat.Kind {
	case abi.ReturnVoid:
	case abi.ShadowPointer:
		slot.Ptr = in.Next(b.PtrType())
	default:
		slot.Ptr = b.Alloca(s.Size, s.Align)
	}
	return slot
}

// returnRegisters lists the registers of a register return.
func returnRegisters(strat abi.ReturnStrategy) []regSlot {
	switch strat.Kind {
	case abi.ScalarRegister, abi.MultipleRegisters:
		return registers(strat.Words)
	case abi.ScalarFromAggregateBits:
		return []regSlot{{word: strat.Words[0], off: strat.Offset}}
	default:
		return nil
	}
}

// ResultTypes is the register signature of a call's results.
func ResultTypes(b ir.Builder, strat abi.ReturnStrategy) []ir.Type {
	if strat.Kind == abi.ShadowPointer {
		if strat.CalleeReturnsPointer {
			return []ir.Type{b.PtrType()}
		}
		return nil
	}
	regs := returnRegisters(strat)
	out := make([]ir.Type, len(regs))
	for i, r := range regs {
		out[i] = r.typ()
	}
	return out
}

// EmitReturn loads the values the callee returns from its slot.
func EmitReturn(b ir.Builder, slot ReturnSlot) []ir.Value {
	switch slot.Strategy.Kind {
	case abi.ReturnVoid:
		return nil
	case abi.ShadowPointer:
		if slot.Strategy.CalleeReturnsPointer {
			return []ir.Value{slot.Ptr}
		}
		return nil
	default:
		return loadRegisters(b, returnRegisters(slot.Strategy), slot.Ptr, slot.Shape.Align)
	}
}

// CallReturnStrategy classifies the result of sig at a call site. When
// proto is given, the decision must match the callee's or a
// ConsistencyError is raised.
func CallReturnStrategy(rules abi.TargetABIRules, sig Signature, proto *Prototype) abi.ReturnStrategy {
	ret := abi.ClassifyReturn(sig.Result, rules)
	if proto != nil {
		abi.AssertSameReturn(sig.Name+".return", proto.Return, ret)
	}
	return ret
}

// CallReturn tracks where a call's result lands on the caller side.
type CallReturn struct {
	Strategy abi.ReturnStrategy
	Shape    *shape.Shape
	// Dest holds the result after FinishCallReturn.
	Dest ir.Value
	// Hidden is the shadow pointer operand; it goes first.
	Hidden *Operand
	// temp is the shadow destination used when Dest cannot be.
	temp ir.Value
}

// PrepareCallReturn chooses where the callee writes the result. The
// caller's dest is handed to the callee directly only when it is valid and
// nothing else can observe it during the call.
func PrepareCallReturn(b ir.Builder, strat abi.ReturnStrategy, s *shape.Shape, dest ir.Value, mayAlias bool) CallReturn {
	cr := CallReturn{Strategy: strat, Shape: s, Dest: dest}
	switch strat.Kind {
	case abi.ReturnVoid:
		cr.Dest = ir.Value{}
	case abi.ShadowPointer:
		hidden := dest
		if !dest.Valid() || mayAlias {
			cr.temp = b.Alloca(s.Size, s.Align)
			hidden = cr.temp
			if !dest.Valid() {
				cr.Dest = cr.temp
			}
		}
		cr.Hidden = &Operand{Value: hidden, Arg: -1}
	default:
		if !dest.Valid() {
			cr.Dest = b.Alloca(s.Size, s.Align)
		}
	}
	return cr
}

// FinishCallReturn stores register results into the destination, or
// copies the shadow temporary into it, and returns the destination.
func FinishCallReturn(b ir.Builder, call CallReturn, results []ir.Value) ir.Value {
	switch call.Strategy.Kind {
	case abi.ReturnVoid:
		return ir.Value{}
	case abi.ShadowPointer:
		if call.temp.Valid() && call.temp != call.Dest {
			copyMemory(b, call.Dest, call.temp, call.Shape.Size)
		}
		return call.Dest
	}
	regs := returnRegisters(call.Strategy)
	if len(regs) != len(results) {
		panic(&abi.ConsistencyError{
			Subject: "return " + call.Shape.String(),
			Callee:  fmt.Sprintf("%d result registers", len(results)),
			Caller:  fmt.Sprintf("%d result registers", len(regs)),
		})
	}
	for i, r := range regs {
		storeSlot(b, r, results[i], call.Dest, call.Shape.Align)
	}
	return call.Dest
}
