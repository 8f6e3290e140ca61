package types

// Presence is the compile-time state of a qualified union alternative.
type Presence uint8

const (
	PresenceUnknown Presence = iota
	PresenceTrue
	PresenceFalse
)

// RecordField describes one struct field or union alternative.
type RecordField struct {
	Name string
	Type TypeID
	// BitWidth is non-zero for bit-fields.
	BitWidth uint8
	Attrs    FieldLayoutAttrs
	// Present is only meaningful for alternatives of a qualified union.
	Present Presence
}

// RecordInfo stores metadata for struct and union types.
type RecordInfo struct {
	Name   string
	Fields []RecordField
	Attrs  LayoutAttrs
	// Qualified unions select one alternative by a presence predicate.
	Qualified bool
	defined   bool
}

// Defined reports whether fields were ever attached to the record.
func (r *RecordInfo) Defined() bool {
	return r != nil && r.defined
}

// RegisterStruct allocates a nominal struct slot and returns its TypeID.
// Fields are attached later so that self-referential declarations resolve.
func (in *Interner) RegisterStruct(name string) TypeID {
	return in.registerRecord(KindStruct, name)
}

// RegisterUnion allocates a nominal union slot and returns its TypeID.
func (in *Interner) RegisterUnion(name string, qualified bool) TypeID {
	id := in.registerRecord(KindUnion, name)
	in.mu.Lock()
	in.records[in.types[id].Payload].Qualified = qualified
	in.mu.Unlock()
	return id
}

func (in *Interner) registerRecord(kind Kind, name string) TypeID {
	in.mu.Lock()
	defer in.mu.Unlock()
	slot := in.appendRecord(RecordInfo{Name: name})
	id := in.internRaw(Type{Kind: kind, Payload: slot})
	if name != "" {
		in.names[name] = id
	}
	return id
}

// SetRecordFields stores the resolved fields and layout attributes for the record.
func (in *Interner) SetRecordFields(id TypeID, fields []RecordField, attrs LayoutAttrs) {
	in.mu.Lock()
	defer in.mu.Unlock()
	info := in.recordLocked(id)
	if info == nil {
		return
	}
	info.Fields = cloneFields(fields)
	info.Attrs = attrs.clone()
	info.defined = true
}

// Record returns a copy of the record metadata for id.
func (in *Interner) Record(id TypeID) (RecordInfo, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	info := in.recordLocked(id)
	if info == nil {
		return RecordInfo{}, false
	}
	out := *info
	out.Fields = cloneFields(info.Fields)
	return out, true
}

func (in *Interner) recordLocked(id TypeID) *RecordInfo {
	if id == NoTypeID || int(id) >= len(in.types) {
		return nil
	}
	tt := in.types[id]
	if tt.Kind != KindStruct && tt.Kind != KindUnion {
		return nil
	}
	if tt.Payload == 0 || int(tt.Payload) >= len(in.records) {
		return nil
	}
	return &in.records[tt.Payload]
}

func cloneFields(fields []RecordField) []RecordField {
	if len(fields) == 0 {
		return nil
	}
	out := make([]RecordField, len(fields))
	for i, f := range fields {
		f.Attrs.AlignOverride = cloneIntPtr(f.Attrs.AlignOverride)
		out[i] = f
	}
	return out
}
