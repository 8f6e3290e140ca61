package lower

import (
	"callconv/internal/abi"
	"callconv/internal/ir"
)

// Listing renders the prologue of sig and a caller that forwards its
// arguments by address. The caller's arguments are treated as possibly
// aliased, so invisible references are copied first.
func Listing(rules abi.TargetABIRules, sig Signature, ptrSize uint64) (callee, caller string, err error) {
	defer abi.Recover(&err)

	tx := ir.NewText(ptrSize)
	ret := abi.ClassifyReturn(sig.Result, rules)
	tx.Comment("return %s", ret)
	pro := MaterializePrologueArguments(tx, rules, ret, sig, NewCursor(tx), abi.NewRegisterBudget(rules, ret))
	tx.Ret(EmitReturn(tx, pro.Return))
	callee = tx.Render(sig.Name)

	cx := ir.NewText(ptrSize)
	args := make([]Arg, len(sig.Params))
	for i, s := range sig.Params {
		cx.Comment("%s: %s", sig.ParamName(i), pro.Params[i].Strategy)
		args[i] = Arg{
			Name:     sig.ParamName(i),
			Shape:    s,
			Value:    cx.Param(i, cx.PtrType()),
			Address:  true,
			MayAlias: true,
		}
	}
	callRet := CallReturnStrategy(rules, sig, pro.Proto)
	var dest ir.Value
	if callRet.Kind != abi.ReturnVoid {
		dest = cx.Param(len(sig.Params), cx.PtrType())
	}
	call := PrepareCallReturn(cx, callRet, sig.Result, dest, false)
	ops := MarshalCallArguments(cx, rules, args, pro.Proto, abi.NewRegisterBudget(rules, callRet))
	if call.Hidden != nil {
		ops = append([]Operand{*call.Hidden}, ops...)
	}
	callArgs := make([]ir.CallArg, len(ops))
	for i, o := range ops {
		callArgs[i] = ir.CallArg{Value: o.Value, Attrs: o.Attrs()}
	}
	results := cx.Call(sig.Name, callArgs, ResultTypes(cx, callRet))
	FinishCallReturn(cx, call, results)
	cx.Ret(nil)
	caller = cx.Render("call_" + sig.Name)
	return callee, caller, nil
}
