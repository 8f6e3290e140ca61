package lower

import (
	"fmt"

	"callconv/internal/abi"
	"callconv/internal/ir"
	"callconv/internal/shape"
)

// Signature is a function type as seen by the lowering code.
type Signature struct {
	Name   string
	Result *shape.Shape
	Params []*shape.Shape
	// ParamNames is optional; missing names are generated.
	ParamNames []string
}

// ParamName returns the display name of parameter i.
func (s Signature) ParamName(i int) string {
	if i < len(s.ParamNames) && s.ParamNames[i] != "" {
		return s.ParamNames[i]
	}
	return fmt.Sprintf("arg%d", i)
}

func (s Signature) subject(i int) string {
	return s.Name + "." + s.ParamName(i)
}

// Cursor hands out the incoming values of a prologue in order.
type Cursor struct {
	b    ir.Builder
	next int
}

// NewCursor starts at the first incoming value.
func NewCursor(b ir.Builder) *Cursor {
	return &Cursor{b: b}
}

// Next binds the next incoming value as type t.
func (c *Cursor) Next(t ir.Type) ir.Value {
	v := c.b.Param(c.next, t)
	c.next++
	return v
}

// Consumed is the number of incoming values bound so far.
func (c *Cursor) Consumed() int { return c.next }

// Prototype is the callee's view of every parameter. Call sites compare
// their own decisions against it.
type Prototype struct {
	Name   string
	Return abi.ReturnStrategy
	Params []abi.PassingStrategy
	// Slots holds the declared type of each incoming value per parameter.
	Slots [][]ir.Type
}

// PrototypeOf classifies a signature with a fresh budget.
func PrototypeOf(rules abi.TargetABIRules, sig Signature, ptr ir.Type) *Prototype {
	ret := abi.ClassifyReturn(sig.Result, rules)
	budget := abi.NewRegisterBudget(rules, ret)
	p := &Prototype{Name: sig.Name, Return: ret}
	for _, s := range sig.Params {
		st := abi.ClassifyArgument(s, rules, budget)
		p.Params = append(p.Params, st)
		p.Slots = append(p.Slots, slotTypes(s, st, ptr))
	}
	return p
}

// Param is a materialized parameter.
type Param struct {
	Name     string
	Shape    *shape.Shape
	Strategy abi.PassingStrategy
	// Storage is the address the callee reads the parameter from.
	Storage ir.Value
	// Incoming lists the incoming value numbers the parameter consumed.
	Incoming []int
}

// Prologue is the result of materializing a function's arguments.
type Prologue struct {
	Return ReturnSlot
	Params []Param
	Proto  *Prototype
}

// MaterializePrologueArguments binds the incoming values of a function to
// addressable storage, one Param per signature parameter. A shadow return
// pointer, when ret asks for one, is the first incoming value.
func MaterializePrologueArguments(b ir.Builder, rules abi.TargetABIRules, ret abi.ReturnStrategy, sig Signature, in *Cursor, budget *abi.RegisterBudget) Prologue {
	pro := Prologue{
		Return: BindReturnSlot(b, ret, sig.Result, in),
		Proto:  &Prototype{Name: sig.Name, Return: ret},
	}
	for i, s := range sig.Params {
		st := abi.ClassifyArgument(s, rules, budget)
		slots := slotTypes(s, st, b.PtrType())
		p := Param{Name: sig.ParamName(i), Shape: s, Strategy: st}
		first := in.Consumed()

		switch st.Kind {
		case abi.ByRegister:
			p.Storage = b.Alloca(s.Size, s.Align)
			for j, r := range registers(st.Words) {
				storeSlot(b, r, in.Next(slots[j]), p.Storage, s.Align)
			}
		case abi.ByValueInMemory, abi.ByInvisibleReference:
			p.Storage = in.Next(slots[0])
		case abi.FirstClassAggregateValue:
			p.Storage = b.Alloca(s.Size, s.Align)
			b.Store(in.Next(slots[0]), p.Storage, s.Align)
		case abi.Dropped:
			p.Storage = b.Alloca(0, 1)
		}

		for k := first; k < in.Consumed(); k++ {
			p.Incoming = append(p.Incoming, k)
		}
		pro.Params = append(pro.Params, p)
		pro.Proto.Params = append(pro.Proto.Params, st)
		pro.Proto.Slots = append(pro.Proto.Slots, slots)
	}
	return pro
}
