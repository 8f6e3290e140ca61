package ir

import (
	"encoding/binary"
	"fmt"

	"fortio.org/safecast"
)

// MemoryError is raised by Machine when an access leaves the region its
// pointer belongs to or breaks the declared alignment.
type MemoryError struct {
	Op     string
	Addr   uint64
	Size   uint64
	Align  uint64
	Region string
}

func (e *MemoryError) Error() string {
	if e.Region == "" {
		return fmt.Sprintf("ir: %s of %d bytes at %#x outside any allocation", e.Op, e.Size, e.Addr)
	}
	if e.Align != 0 {
		return fmt.Sprintf("ir: %s at %#x breaks align %d in %s", e.Op, e.Addr, e.Align, e.Region)
	}
	return fmt.Sprintf("ir: %s of %d bytes at %#x overruns %s", e.Op, e.Size, e.Addr, e.Region)
}

type region struct {
	base, size uint64
}

func (r region) String() string {
	return fmt.Sprintf("alloca[%#x,+%d)", r.base, r.size)
}

// arenaBase keeps address zero unused.
const arenaBase = 64

// Machine is a Builder that executes each operation immediately on a flat
// byte memory. Incoming values are supplied with Feed before a prologue
// runs; the same machine can run the caller and the callee so pointers
// passed between them stay valid.
type Machine struct {
	ptrSize uint64
	mem     []byte
	regions []region
	vals    [][]byte
	types   []Type
	args    []Value
	ops     int
}

// NewMachine returns an empty machine with ptrSize-byte pointers.
func NewMachine(ptrSize uint64) *Machine {
	return &Machine{
		ptrSize: ptrSize,
		mem:     make([]byte, arenaBase),
		vals:    [][]byte{nil},
		types:   []Type{{}},
	}
}

func (m *Machine) PtrType() Type { return Ptr(m.ptrSize) }

// Ops is the number of instructions executed so far.
func (m *Machine) Ops() int { return m.ops }

func (m *Machine) define(t Type, b []byte) Value {
	m.vals = append(m.vals, b)
	m.types = append(m.types, t)
	return Value{ID: len(m.vals) - 1, Type: t}
}

// Const creates a value from raw bytes.
func (m *Machine) Const(t Type, b []byte) Value {
	if uint64(len(b)) != t.Size {
		panic(fmt.Sprintf("ir: constant of %d bytes for %s", len(b), t))
	}
	return m.define(t, append([]byte(nil), b...))
}

// Bytes returns a copy of the contents of v.
func (m *Machine) Bytes(v Value) []byte {
	m.check(v)
	return append([]byte(nil), m.vals[v.ID]...)
}

func (m *Machine) check(v Value) {
	if v.ID <= 0 || v.ID >= len(m.vals) {
		panic(fmt.Sprintf("ir: value %d not defined on this machine", v.ID))
	}
}

// Feed replaces the incoming values returned by Param.
func (m *Machine) Feed(vals ...Value) {
	m.args = append(m.args[:0], vals...)
}

func (m *Machine) Param(i int, t Type) Value {
	m.ops++
	if i < 0 || i >= len(m.args) {
		panic(fmt.Sprintf("ir: param %d requested, %d fed", i, len(m.args)))
	}
	v := m.args[i]
	if v.Type.Size != t.Size {
		panic(fmt.Sprintf("ir: param %d is %s, callee reads %s", i, v.Type, t))
	}
	if v.Type != t {
		return m.define(t, append([]byte(nil), m.vals[v.ID]...))
	}
	return v
}

func (m *Machine) Undef(t Type) Value {
	return m.define(t, make([]byte, t.Size))
}

func (m *Machine) Alloca(size, align uint64) Value {
	m.ops++
	if align == 0 {
		align = 1
	}
	base := uint64(len(m.mem))
	base = (base + align - 1) &^ (align - 1)
	end := base + max(size, 1)
	n, err := safecast.Conv[int](end)
	if err != nil {
		panic(fmt.Sprintf("ir: alloca of %d bytes: %v", size, err))
	}
	m.mem = append(m.mem, make([]byte, n-len(m.mem))...)
	m.regions = append(m.regions, region{base: base, size: size})
	return m.define(m.PtrType(), m.encodeAddr(base))
}

func (m *Machine) encodeAddr(addr uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, addr)
	return b[:m.ptrSize]
}

// Addr decodes a pointer value.
func (m *Machine) Addr(ptr Value) uint64 {
	m.check(ptr)
	if ptr.Type.Kind != TPtr {
		panic(fmt.Sprintf("ir: %s used as a pointer", ptr.Type))
	}
	b := make([]byte, 8)
	copy(b, m.vals[ptr.ID])
	return binary.LittleEndian.Uint64(b)
}

// access validates [addr, addr+size) against the region containing addr.
func (m *Machine) access(op string, ptr Value, size, align uint64) []byte {
	addr := m.Addr(ptr)
	for i := len(m.regions) - 1; i >= 0; i-- {
		r := m.regions[i]
		if addr < r.base || addr >= r.base+max(r.size, 1) {
			continue
		}
		if addr+size > r.base+r.size {
			panic(&MemoryError{Op: op, Addr: addr, Size: size, Region: r.String()})
		}
		if align == 0 || addr%align != 0 {
			panic(&MemoryError{Op: op, Addr: addr, Size: size, Align: align, Region: r.String()})
		}
		return m.mem[addr : addr+size]
	}
	panic(&MemoryError{Op: op, Addr: addr, Size: size})
}

func (m *Machine) Load(t Type, ptr Value, align uint64) Value {
	m.ops++
	src := m.access("load", ptr, t.Size, align)
	return m.define(t, append([]byte(nil), src...))
}

func (m *Machine) Store(v, ptr Value, align uint64) {
	m.ops++
	m.check(v)
	dst := m.access("store", ptr, v.Type.Size, align)
	copy(dst, m.vals[v.ID])
}

func (m *Machine) BitCast(v Value, t Type) Value {
	m.ops++
	m.check(v)
	if v.Type.Size != t.Size {
		panic(fmt.Sprintf("ir: bitcast %s to %s changes size", v.Type, t))
	}
	return m.define(t, append([]byte(nil), m.vals[v.ID]...))
}

func (m *Machine) PtrAdd(ptr Value, off uint64) Value {
	m.ops++
	return m.define(m.PtrType(), m.encodeAddr(m.Addr(ptr)+off))
}

// Read copies n bytes starting at ptr.
func (m *Machine) Read(ptr Value, n uint64) []byte {
	return append([]byte(nil), m.access("read", ptr, n, 1)...)
}

// Write stores raw bytes at ptr.
func (m *Machine) Write(ptr Value, b []byte) {
	copy(m.access("write", ptr, uint64(len(b)), 1), b)
}
