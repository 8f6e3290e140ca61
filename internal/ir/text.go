package ir

import (
	"fmt"
	"sort"
	"strings"
)

// CallArg is one operand of a printed call with its parameter attributes.
type CallArg struct {
	Value Value
	Attrs []string
}

// Text is a Builder that prints an LLVM-like listing.
type Text struct {
	buf     strings.Builder
	ptrSize uint64
	next    int
	names   map[int]string
	params  map[int]Value
	ret     []Type
}

// NewText returns an empty listing for a target with ptrSize-byte pointers.
func NewText(ptrSize uint64) *Text {
	return &Text{
		ptrSize: ptrSize,
		names:   make(map[int]string),
		params:  make(map[int]Value),
	}
}

func (t *Text) PtrType() Type { return Ptr(t.ptrSize) }

func (t *Text) value(ty Type, name string) Value {
	t.next++
	v := Value{ID: t.next, Type: ty}
	if name == "" {
		name = fmt.Sprintf("%%v%d", t.next)
	}
	t.names[v.ID] = name
	return v
}

func (t *Text) name(v Value) string {
	if n, ok := t.names[v.ID]; ok {
		return n
	}
	return "<invalid>"
}

func (t *Text) Param(i int, ty Type) Value {
	if v, ok := t.params[i]; ok {
		if v.Type != ty {
			panic(fmt.Sprintf("ir: param %d retyped from %s to %s", i, v.Type, ty))
		}
		return v
	}
	v := t.value(ty, fmt.Sprintf("%%arg%d", i))
	t.params[i] = v
	return v
}

func (t *Text) Undef(ty Type) Value {
	return t.value(ty, "undef")
}

func (t *Text) Alloca(size, align uint64) Value {
	v := t.value(t.PtrType(), "")
	fmt.Fprintf(&t.buf, "  %s = alloca [%d x i8], align %d\n", t.name(v), size, align)
	return v
}

func (t *Text) Load(ty Type, ptr Value, align uint64) Value {
	v := t.value(ty, "")
	fmt.Fprintf(&t.buf, "  %s = load %s, ptr %s, align %d\n", t.name(v), ty, t.name(ptr), align)
	return v
}

func (t *Text) Store(v, ptr Value, align uint64) {
	fmt.Fprintf(&t.buf, "  store %s %s, ptr %s, align %d\n", v.Type, t.name(v), t.name(ptr), align)
}

func (t *Text) BitCast(v Value, ty Type) Value {
	if v.Type.Size != ty.Size {
		panic(fmt.Sprintf("ir: bitcast %s to %s changes size", v.Type, ty))
	}
	out := t.value(ty, "")
	fmt.Fprintf(&t.buf, "  %s = bitcast %s %s to %s\n", t.name(out), v.Type, t.name(v), ty)
	return out
}

func (t *Text) PtrAdd(ptr Value, off uint64) Value {
	if off == 0 {
		return ptr
	}
	v := t.value(t.PtrType(), "")
	fmt.Fprintf(&t.buf, "  %s = getelementptr i8, ptr %s, i64 %d\n", t.name(v), t.name(ptr), off)
	return v
}

// Comment adds a line comment to the listing.
func (t *Text) Comment(format string, args ...any) {
	fmt.Fprintf(&t.buf, "  ; %s\n", fmt.Sprintf(format, args...))
}

// Call prints a call and returns one value per result type.
func (t *Text) Call(callee string, args []CallArg, results []Type) []Value {
	ops := make([]string, len(args))
	for i, a := range args {
		attrs := ""
		if len(a.Attrs) > 0 {
			attrs = " " + strings.Join(a.Attrs, " ")
		}
		ops[i] = fmt.Sprintf("%s%s %s", a.Value.Type, attrs, t.name(a.Value))
	}
	call := fmt.Sprintf("call %s @%s(%s)", formatResults(results), callee, strings.Join(ops, ", "))
	if len(results) == 0 {
		fmt.Fprintf(&t.buf, "  %s\n", call)
		return nil
	}
	agg := t.value(Type{}, "")
	fmt.Fprintf(&t.buf, "  %s = %s\n", t.name(agg), call)
	if len(results) == 1 {
		v := t.value(results[0], t.name(agg))
		return []Value{v}
	}
	out := make([]Value, len(results))
	for i, ty := range results {
		out[i] = t.value(ty, "")
		fmt.Fprintf(&t.buf, "  %s = extractvalue %s %s, %d\n", t.name(out[i]), formatResults(results), t.name(agg), i)
	}
	return out
}

// Ret terminates the listing with the given register results.
func (t *Text) Ret(vals []Value) {
	t.ret = make([]Type, len(vals))
	for i, v := range vals {
		t.ret[i] = v.Type
	}
	switch len(vals) {
	case 0:
		t.buf.WriteString("  ret void\n")
	case 1:
		fmt.Fprintf(&t.buf, "  ret %s %s\n", vals[0].Type, t.name(vals[0]))
	default:
		ty := formatResults(t.ret)
		acc := "undef"
		for i, v := range vals {
			next := t.value(Type{}, "")
			fmt.Fprintf(&t.buf, "  %s = insertvalue %s %s, %s %s, %d\n", t.name(next), ty, acc, v.Type, t.name(v), i)
			acc = t.name(next)
		}
		fmt.Fprintf(&t.buf, "  ret %s %s\n", ty, acc)
	}
}

// Render wraps the listing in a function definition.
func (t *Text) Render(name string) string {
	idx := make([]int, 0, len(t.params))
	for i := range t.params {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	params := make([]string, len(idx))
	for j, i := range idx {
		v := t.params[i]
		params[j] = fmt.Sprintf("%s %s", v.Type, t.name(v))
	}
	var out strings.Builder
	fmt.Fprintf(&out, "define %s @%s(%s) {\n", formatResults(t.ret), name, strings.Join(params, ", "))
	out.WriteString("entry:\n")
	out.WriteString(t.buf.String())
	out.WriteString("}\n")
	return out.String()
}

// Body returns the instructions emitted so far without a header.
func (t *Text) Body() string {
	return t.buf.String()
}

func formatResults(ts []Type) string {
	switch len(ts) {
	case 0:
		return "void"
	case 1:
		return ts[0].String()
	}
	parts := make([]string, len(ts))
	for i, ty := range ts {
		parts[i] = ty.String()
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}
