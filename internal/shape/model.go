package shape

import (
	"errors"
	"fmt"
	"sync"

	"fortio.org/safecast"

	"callconv/internal/layout"
	"callconv/internal/types"
)

// Degradation records a type that was replaced by a word-size scalar.
type Degradation struct {
	Type   types.TypeID
	Name   string
	Reason error
}

// Model memoizes shapes by type identity. It may be shared between
// goroutines: lookups take the read lock and insertions the write lock.
type Model struct {
	Types  *types.Interner
	Layout *layout.LayoutEngine

	mu       sync.RWMutex
	cache    map[types.TypeID]*Shape
	degraded []Degradation
}

// NewModel binds a shape model to one interner and one target layout.
func NewModel(typesIn *types.Interner, le *layout.LayoutEngine) *Model {
	return &Model{
		Types:  typesIn,
		Layout: le,
		cache:  make(map[types.TypeID]*Shape, 128),
	}
}

// ShapeOf returns the shape of id. It never fails: incomplete, invalid and
// unlayoutable types map to an integer scalar of the target word size.
func (m *Model) ShapeOf(id types.TypeID) *Shape {
	m.mu.RLock()
	s, ok := m.cache[id]
	m.mu.RUnlock()
	if ok {
		return s
	}
	built, reason := m.build(id)
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.cache[id]; ok {
		return s
	}
	m.cache[id] = built
	// Only the goroutine that inserts records the degradation.
	if reason != nil {
		m.degraded = append(m.degraded, Degradation{Type: id, Name: built.Name, Reason: reason})
	}
	return built
}

// Degradations lists the types that ShapeOf had to replace.
func (m *Model) Degradations() []Degradation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Degradation(nil), m.degraded...)
}

// Len reports how many shapes are memoized.
func (m *Model) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.cache)
}

var errUnknownType = errors.New("unknown type id")

// build computes the shape of id. A non-nil reason means the shape is the
// degraded word-size scalar.
func (m *Model) build(id types.TypeID) (*Shape, error) {
	tt, ok := m.Types.Lookup(id)
	if !ok || tt.Kind == types.KindInvalid {
		return m.degrade(id, errUnknownType)
	}
	if tt.Kind == types.KindIncomplete {
		return m.degrade(id, &layout.LayoutError{Kind: layout.LayoutErrIncomplete, Type: id})
	}
	tl, err := m.Layout.LayoutOf(id)
	varLen := tt.Kind == types.KindArray && tt.Count == types.ArrayDynamicLength
	if err != nil && !varLen {
		return m.degrade(id, err)
	}
	s := &Shape{
		Name:  m.Types.Describe(id),
		Size:  toU64(tl.Size),
		Align: toU64(tl.Align),
	}

	switch tt.Kind {
	case types.KindBool:
		s.Kind, s.Scalar, s.Bits = Scalar, Int, 8
	case types.KindInt, types.KindUint:
		s.Kind, s.Scalar, s.Bits = Scalar, Int, uint32(tt.Width)
		s.Signed = tt.Kind == types.KindInt
		if tt.Width == types.WidthAny {
			s.Bits = uint32(m.wordBits())
		}
	case types.KindFloat:
		s.Kind, s.Scalar, s.Bits, s.Signed = Scalar, Float, uint32(tt.Width), true
	case types.KindPointer:
		s.Kind, s.Scalar, s.Bits = Scalar, Pointer, uint32(m.wordBits())
	case types.KindVector:
		s.Kind, s.Elem, s.Count = Vector, m.ShapeOf(tt.Elem), uint64(tt.Count)
	case types.KindComplex:
		s.Kind, s.Elem, s.Count = Complex, m.ShapeOf(tt.Elem), 2
	case types.KindArray:
		s.Kind, s.Elem = Array, m.ShapeOf(tt.Elem)
		if varLen {
			s.VariableLength = true
		} else {
			s.Count = uint64(tt.Count)
		}
	case types.KindStruct, types.KindUnion:
		m.fillRecord(s, id, tt.Kind, tl)
	default:
		return m.degrade(id, fmt.Errorf("kind %v has no shape", tt.Kind))
	}
	return s, nil
}

func (m *Model) fillRecord(s *Shape, id types.TypeID, kind types.Kind, tl layout.TypeLayout) {
	info, _ := m.Types.Record(id)
	s.Kind = Record
	if kind == types.KindUnion {
		s.Kind = Union
	}
	s.Packed = info.Attrs.Packed
	s.Qualified = info.Qualified
	s.Fields = make([]Field, len(info.Fields))
	for i, f := range info.Fields {
		child := m.ShapeOf(f.Type)
		s.Fields[i] = Field{
			Name:      f.Name,
			Shape:     child,
			Offset:    toU64(tl.FieldOffsets[i]),
			BitOffset: uint32(tl.FieldBitOffsets[i]),
			BitWidth:  uint32(f.BitWidth),
			Present:   f.Present,
		}
		// A record holding a variable-length member is variable length itself.
		if child.VariableLength {
			s.VariableLength = true
		}
	}
}

func (m *Model) degrade(id types.TypeID, reason error) (*Shape, error) {
	word := m.wordBits()
	s := &Shape{
		Kind:     Scalar,
		Name:     m.Types.Describe(id),
		Scalar:   Int,
		Bits:     uint32(word),
		Size:     uint64(word / 8),
		Align:    uint64(word / 8),
		Degraded: true,
	}
	return s, reason
}

func (m *Model) wordBits() int {
	ptr := 8
	if m.Layout != nil && m.Layout.Target.PtrSize > 0 {
		ptr = m.Layout.Target.PtrSize
	}
	return ptr * 8
}

func toU64(n int) uint64 {
	v, err := safecast.Conv[uint64](n)
	if err != nil {
		panic(fmt.Errorf("negative layout value %d: %w", n, err))
	}
	return v
}
