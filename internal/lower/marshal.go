package lower

import (
	"fmt"

	"callconv/internal/abi"
	"callconv/internal/ir"
	"callconv/internal/shape"
)

// Arg is an evaluated call argument.
type Arg struct {
	Name  string
	Shape *shape.Shape
	Value ir.Value
	// Address marks Value as the address of the argument rather than the
	// argument itself.
	Address bool
	// MayAlias is set when the callee could observe other references to
	// the argument's memory.
	MayAlias bool
}

// Operand is one outgoing value of a call.
type Operand struct {
	Value ir.Value
	// Arg is the index of the argument the operand belongs to, or -1 for
	// the hidden return pointer.
	Arg int
	// ByAddress passes a pointer the callee copies from.
	ByAddress bool
	// NoAlias passes a pointer nothing else refers to during the call.
	NoAlias bool
}

// Attrs renders the operand markers as call attributes.
func (o Operand) Attrs() []string {
	var out []string
	if o.ByAddress {
		out = append(out, "byval")
	}
	if o.NoAlias {
		out = append(out, "noalias")
	}
	if o.Arg < 0 {
		out = append(out, "sret")
	}
	return out
}

// MarshalCallArguments produces the operands of a call. When proto is not
// nil every decision is checked against the callee's and each register
// word is cast to the slot type the callee declared.
func MarshalCallArguments(b ir.Builder, rules abi.TargetABIRules, args []Arg, proto *Prototype, budget *abi.RegisterBudget) []Operand {
	if proto != nil && len(proto.Params) != len(args) {
		panic(&abi.ConsistencyError{
			Subject: proto.Name,
			Callee:  fmt.Sprintf("%d parameters", len(proto.Params)),
			Caller:  fmt.Sprintf("%d arguments", len(args)),
		})
	}
	var ops []Operand
	for i, a := range args {
		subject := argSubject(proto, a, i)
		st := abi.ClassifyArgument(a.Shape, rules, budget)
		var slots []ir.Type
		if proto != nil {
			abi.AssertSameStrategy(subject, proto.Params[i], st)
			slots = proto.Slots[i]
		}
		s := a.Shape

		switch st.Kind {
		case abi.ByRegister:
			addr := addressOf(b, a)
			for j, r := range registers(st.Words) {
				v := loadSlot(b, r, addr, s.Align)
				if slots != nil {
					v = coerce(b, subject, v, slots[j])
				}
				ops = append(ops, Operand{Value: v, Arg: i})
			}
		case abi.ByValueInMemory:
			ops = append(ops, Operand{Value: addressOf(b, a), Arg: i, ByAddress: true})
		case abi.ByInvisibleReference:
			addr := addressOf(b, a)
			if a.MayAlias {
				tmp := b.Alloca(s.Size, s.Align)
				copyMemory(b, tmp, addr, s.Size)
				addr = tmp
			}
			ops = append(ops, Operand{Value: addr, Arg: i, NoAlias: true})
		case abi.FirstClassAggregateValue:
			v := b.Load(ir.Bytes(s.Size), addressOf(b, a), s.Align)
			ops = append(ops, Operand{Value: v, Arg: i})
		case abi.Dropped:
		}
	}
	return ops
}

func argSubject(proto *Prototype, a Arg, i int) string {
	name := a.Name
	if name == "" {
		name = fmt.Sprintf("arg%d", i)
	}
	if proto != nil {
		return proto.Name + "." + name
	}
	return name
}

// addressOf spills a bare value to a temporary.
func addressOf(b ir.Builder, a Arg) ir.Value {
	if a.Address {
		return a.Value
	}
	tmp := b.Alloca(a.Shape.Size, a.Shape.Align)
	b.Store(a.Value, tmp, a.Shape.Align)
	return tmp
}

// Values extracts the operand values in order.
func Values(ops []Operand) []ir.Value {
	out := make([]ir.Value, len(ops))
	for i, o := range ops {
		out[i] = o.Value
	}
	return out
}
