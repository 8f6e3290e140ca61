package types

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"fortio.org/safecast"
)

// Builtins stores TypeIDs for the C-like primitive types.
type Builtins struct {
	Invalid    TypeID
	Bool       TypeID
	Char       TypeID
	UChar      TypeID
	Short      TypeID
	UShort     TypeID
	Int        TypeID
	UInt       TypeID
	Long       TypeID
	ULong      TypeID
	Int128     TypeID
	Float      TypeID
	Double     TypeID
	LongDouble TypeID
	VoidPtr    TypeID
}

// Interner provides stable TypeIDs by hashing structural descriptors.
// It is safe for concurrent use; nominal records are registered under the
// write lock and read through copies.
type Interner struct {
	mu       sync.RWMutex
	types    []Type
	index    map[typeKey]TypeID
	names    map[string]TypeID
	records  []RecordInfo
	builtins Builtins
}

// NewInterner constructs an interner seeded with built-in primitives.
func NewInterner() *Interner {
	in := &Interner{
		index: make(map[typeKey]TypeID, 64),
		names: make(map[string]TypeID, 32),
	}
	in.records = append(in.records, RecordInfo{}) // reserve 0 as invalid sentinel
	in.builtins.Invalid = in.internRaw(Type{Kind: KindInvalid})
	in.builtins.Bool = in.Intern(Type{Kind: KindBool, Width: Width8})
	in.builtins.Char = in.Intern(MakeInt(Width8))
	in.builtins.UChar = in.Intern(MakeUint(Width8))
	in.builtins.Short = in.Intern(MakeInt(Width16))
	in.builtins.UShort = in.Intern(MakeUint(Width16))
	in.builtins.Int = in.Intern(MakeInt(Width32))
	in.builtins.UInt = in.Intern(MakeUint(Width32))
	in.builtins.Long = in.Intern(MakeInt(Width64))
	in.builtins.ULong = in.Intern(MakeUint(Width64))
	in.builtins.Int128 = in.Intern(MakeInt(Width128))
	in.builtins.Float = in.Intern(MakeFloat(Width32))
	in.builtins.Double = in.Intern(MakeFloat(Width64))
	in.builtins.LongDouble = in.Intern(MakeFloat(Width80))
	in.builtins.VoidPtr = in.Intern(MakePointer(NoTypeID))
	return in
}

// Builtins returns TypeIDs for primitive types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Intern ensures the provided descriptor has a stable TypeID.
// Structs and unions are nominal and must go through RegisterStruct/RegisterUnion.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	if t.Kind == KindStruct || t.Kind == KindUnion {
		panic("types: records must be registered, not interned")
	}
	key := typeKey(t)
	in.mu.RLock()
	id, ok := in.index[key]
	in.mu.RUnlock()
	if ok {
		return id
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.index[key]; ok {
		return id
	}
	return in.internRaw(t)
}

// RegisterIncomplete records an opaque named type with no definition.
func (in *Interner) RegisterIncomplete(name string) TypeID {
	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.names[name]; ok {
		return id
	}
	slot := in.appendRecord(RecordInfo{Name: name})
	id := in.internRaw(Type{Kind: KindIncomplete, Payload: slot})
	in.names[name] = id
	return id
}

// internRaw adds the descriptor to the storage without consulting the map.
// Callers hold the write lock, except NewInterner.
func (in *Interner) internRaw(t Type) TypeID {
	lenTypes, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(lenTypes)
	in.types = append(in.types, t)
	if t.Kind != KindStruct && t.Kind != KindUnion && t.Kind != KindIncomplete {
		in.index[typeKey(t)] = id
	}
	return id
}

func (in *Interner) appendRecord(info RecordInfo) uint32 {
	slot, err := safecast.Conv[uint32](len(in.records))
	if err != nil {
		panic(fmt.Errorf("len(records) overflow: %w", err))
	}
	in.records = append(in.records, info)
	return slot
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

// Named resolves a record or incomplete type by its declared name.
func (in *Interner) Named(name string) (TypeID, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	id, ok := in.names[name]
	return id, ok
}

// Describe renders a C-like spelling of the type for diagnostics and reports.
func (in *Interner) Describe(id TypeID) string {
	var sb strings.Builder
	in.describe(&sb, id, 0)
	return sb.String()
}

func (in *Interner) describe(sb *strings.Builder, id TypeID, depth int) {
	tt, ok := in.Lookup(id)
	if !ok {
		if id == NoTypeID {
			sb.WriteString("void")
		} else {
			sb.WriteString("<invalid>")
		}
		return
	}
	if depth > 8 {
		sb.WriteString("...")
		return
	}
	switch tt.Kind {
	case KindBool:
		sb.WriteString("bool")
	case KindInt, KindUint:
		sb.WriteString(intName(tt.Kind == KindUint, tt.Width))
	case KindFloat:
		switch tt.Width {
		case Width32:
			sb.WriteString("float")
		case Width64:
			sb.WriteString("double")
		case Width80:
			sb.WriteString("long double")
		default:
			sb.WriteString("f" + strconv.Itoa(int(tt.Width)))
		}
	case KindPointer:
		in.describe(sb, tt.Elem, depth+1)
		sb.WriteByte('*')
	case KindArray:
		in.describe(sb, tt.Elem, depth+1)
		if tt.Count == ArrayDynamicLength {
			sb.WriteString("[]")
		} else {
			fmt.Fprintf(sb, "[%d]", tt.Count)
		}
	case KindVector:
		sb.WriteString("vector ")
		in.describe(sb, tt.Elem, depth+1)
		fmt.Fprintf(sb, " x%d", tt.Count)
	case KindComplex:
		sb.WriteString("_Complex ")
		in.describe(sb, tt.Elem, depth+1)
	case KindStruct, KindUnion, KindIncomplete:
		in.mu.RLock()
		name := ""
		if int(tt.Payload) < len(in.records) {
			name = in.records[tt.Payload].Name
		}
		in.mu.RUnlock()
		prefix := "struct "
		if tt.Kind == KindUnion {
			prefix = "union "
		}
		if name == "" {
			name = fmt.Sprintf("<anon#%d>", id)
		}
		sb.WriteString(prefix + name)
	default:
		sb.WriteString(tt.Kind.String())
	}
}

func intName(unsigned bool, w Width) string {
	var name string
	switch w {
	case Width8:
		name = "char"
	case Width16:
		name = "short"
	case Width32:
		name = "int"
	case Width64:
		name = "long"
	case Width128:
		name = "__int128"
	default:
		name = "i" + strconv.Itoa(int(w))
	}
	if unsigned {
		return "unsigned " + name
	}
	return name
}

type typeKey struct {
	Kind    Kind
	Elem    TypeID
	Count   uint32
	Width   Width
	Payload uint32
}
