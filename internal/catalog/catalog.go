package catalog

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"fortio.org/safecast"
	"github.com/BurntSushi/toml"
	"golang.org/x/text/unicode/norm"

	"callconv/internal/rules"
	"callconv/internal/types"
)

// Options override the [target] table.
type Options struct {
	Triple string
}

// Param is one formal parameter. Name may be empty.
type Param struct {
	Name string
	Type types.TypeID
}

// Function is a signature to lower. Result is types.NoTypeID for void.
type Function struct {
	Name   string
	Result types.TypeID
	Params []Param
}

// Catalog is a loaded and resolved callconv.toml.
type Catalog struct {
	Path      string
	Target    rules.Target
	Types     *types.Interner
	Declared  []types.TypeID // named types in declaration order
	Functions []Function
}

// Function finds a signature by name.
func (c *Catalog) Function(name string) (Function, bool) {
	name = normalize(name)
	for _, f := range c.Functions {
		if f.Name == name {
			return f, true
		}
	}
	return Function{}, false
}

// Load decodes and resolves the catalog at path.
func Load(path string, opts Options) (*Catalog, error) {
	var cfg fileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, Errors{{Kind: ErrParse, Path: path, Msg: "failed to parse TOML", Err: err}}
	}
	return resolve(path, &cfg, meta, opts)
}

// Parse is Load for an in-memory document; name is used in errors.
func Parse(name, data string, opts Options) (*Catalog, error) {
	var cfg fileConfig
	meta, err := toml.Decode(data, &cfg)
	if err != nil {
		return nil, Errors{{Kind: ErrParse, Path: name, Msg: "failed to parse TOML", Err: err}}
	}
	return resolve(name, &cfg, meta, opts)
}

type loader struct {
	path     string
	in       *types.Interner
	builtins map[string]types.TypeID
	errs     Errors
}

func (l *loader) fail(kind ErrorKind, subject, format string, args ...any) {
	l.errs = append(l.errs, &Error{Kind: kind, Path: l.path, Subject: subject, Msg: fmt.Sprintf(format, args...)})
}

func resolve(path string, cfg *fileConfig, meta toml.MetaData, opts Options) (*Catalog, error) {
	l := &loader{path: path, in: types.NewInterner()}

	undecoded := meta.Undecoded()
	sort.Slice(undecoded, func(i, j int) bool { return undecoded[i].String() < undecoded[j].String() })
	for _, key := range undecoded {
		l.fail(ErrUnknownKey, "", "unknown key %q", key.String())
	}

	target, ok := l.target(cfg.Target, meta, opts)
	if !ok {
		return nil, l.errs
	}
	l.builtins = builtinTypes(l.in, target.Layout.PtrSize == 8)

	cat := &Catalog{Path: path, Target: target, Types: l.in}
	cat.Declared = l.declare(cfg.Types)
	l.define(cfg.Types, cat.Declared)
	cat.Functions = l.functions(cfg.Functions)

	if len(l.errs) > 0 {
		return nil, l.errs
	}
	return cat, nil
}

func (l *loader) target(tc targetConfig, meta toml.MetaData, opts Options) (rules.Target, bool) {
	triple := tc.Triple
	if opts.Triple != "" {
		triple = opts.Triple
	}
	if meta.IsDefined("target") && !meta.IsDefined("target", "triple") && opts.Triple == "" {
		l.fail(ErrMissingField, "[target]", "missing triple")
	}
	if tc.RegParm < 0 || tc.RegParm > 3 {
		l.fail(ErrBadTarget, "[target]", "regparm must be between 0 and 3, got %d", tc.RegParm)
	}
	maxAgg, err := safecast.Conv[uint64](tc.MaxRegisterAggregate)
	if err != nil {
		l.fail(ErrBadTarget, "[target]", "max_register_aggregate must not be negative, got %d", tc.MaxRegisterAggregate)
	}
	if len(l.errs) > 0 {
		return rules.Target{}, false
	}
	t, err := rules.ForTarget(triple, rules.Options{
		FirstClassAggregates:  tc.FirstClassAggregates,
		RegParm:               tc.RegParm,
		SSE:                   tc.SSE,
		SingleElementAsScalar: tc.SingleElementAsScalar,
		SmallStructReturn:     tc.SmallStructReturn,
		MaxRegisterAggregate:  maxAgg,
	})
	if err != nil {
		l.errs = append(l.errs, &Error{Kind: ErrBadTarget, Path: l.path, Subject: "[target]", Msg: "cannot select rules", Err: err})
		return rules.Target{}, false
	}
	return t, true
}

// declare registers every named type before any field is resolved, so
// records may point at each other in any order.
func (l *loader) declare(decls []typeConfig) []types.TypeID {
	ids := make([]types.TypeID, len(decls))
	for i, tc := range decls {
		subject := fmt.Sprintf("type #%d", i+1)
		name := normalize(tc.Name)
		if name == "" {
			l.fail(ErrMissingField, subject, "missing name")
			continue
		}
		subject = fmt.Sprintf("type %q", name)
		if !isIdent(name) {
			l.fail(ErrBadValue, subject, "name is not an identifier")
			continue
		}
		if _, ok := l.builtins[name]; ok {
			l.fail(ErrDuplicateName, subject, "name shadows a builtin type")
			continue
		}
		if _, ok := l.in.Named(name); ok {
			l.fail(ErrDuplicateName, subject, "declared twice")
			continue
		}
		switch tc.Kind {
		case "", "struct":
			ids[i] = l.in.RegisterStruct(name)
		case "union":
			ids[i] = l.in.RegisterUnion(name, tc.Qualified)
		case "incomplete":
			ids[i] = l.in.RegisterIncomplete(name)
		default:
			l.fail(ErrBadValue, subject, "kind must be struct, union or incomplete, got %q", tc.Kind)
		}
	}
	return ids
}

func (l *loader) define(decls []typeConfig, ids []types.TypeID) {
	for i, tc := range decls {
		id := ids[i]
		if id == types.NoTypeID {
			continue
		}
		subject := fmt.Sprintf("type %q", normalize(tc.Name))
		if tc.Kind == "incomplete" {
			if len(tc.Fields) > 0 || tc.Packed || tc.Align != 0 {
				l.fail(ErrBadValue, subject, "an incomplete type has no fields or layout attributes")
			}
			continue
		}
		if tc.Qualified && tc.Kind != "union" {
			l.fail(ErrBadValue, subject, "only unions can be qualified")
		}

		var attrs types.LayoutAttrs
		attrs.Packed = tc.Packed
		if tc.Align != 0 {
			if tc.Packed {
				l.fail(ErrBadValue, subject, "packed conflicts with align")
			} else if !powerOfTwo(tc.Align) {
				l.fail(ErrBadValue, subject, "align must be a power of two, got %d", tc.Align)
			} else {
				attrs.AlignOverride = types.Align(tc.Align)
			}
		}

		fields := make([]types.RecordField, 0, len(tc.Fields))
		seen := make(map[string]bool, len(tc.Fields))
		for j, fc := range tc.Fields {
			f, ok := l.field(subject, j, fc, tc.Kind == "union" && tc.Qualified)
			if !ok {
				continue
			}
			if f.Name != "" {
				if seen[f.Name] {
					l.fail(ErrDuplicateName, subject, "field %q declared twice", f.Name)
					continue
				}
				seen[f.Name] = true
			}
			fields = append(fields, f)
		}
		l.in.SetRecordFields(id, fields, attrs)
	}
}

func (l *loader) field(owner string, idx int, fc fieldConfig, qualified bool) (types.RecordField, bool) {
	name := normalize(fc.Name)
	subject := fmt.Sprintf("%s field #%d", owner, idx+1)
	if name != "" {
		subject = fmt.Sprintf("%s field %q", owner, name)
		if !isIdent(name) {
			l.fail(ErrBadValue, subject, "name is not an identifier")
			return types.RecordField{}, false
		}
	}
	if strings.TrimSpace(fc.Type) == "" {
		l.fail(ErrMissingField, subject, "missing type")
		return types.RecordField{}, false
	}
	if name == "" && fc.Bits == 0 {
		l.fail(ErrMissingField, subject, "only bit-fields may be unnamed")
		return types.RecordField{}, false
	}
	id, ok := l.typeRef(subject, fc.Type, false)
	if !ok {
		return types.RecordField{}, false
	}
	f := types.RecordField{Name: name, Type: id}

	if fc.Bits != 0 {
		w, err := safecast.Conv[uint8](fc.Bits)
		if err != nil || w == 0 {
			l.fail(ErrBadValue, subject, "bits must be between 1 and 255, got %d", fc.Bits)
			return types.RecordField{}, false
		}
		if tt := l.in.MustLookup(id); tt.Kind != types.KindInt && tt.Kind != types.KindUint && tt.Kind != types.KindBool {
			l.fail(ErrBadValue, subject, "bit-field of non-integer type %s", l.in.Describe(id))
			return types.RecordField{}, false
		}
		f.BitWidth = w
	}
	if fc.Align != 0 {
		if !powerOfTwo(fc.Align) {
			l.fail(ErrBadValue, subject, "align must be a power of two, got %d", fc.Align)
			return types.RecordField{}, false
		}
		f.Attrs.AlignOverride = types.Align(fc.Align)
	}
	switch fc.Present {
	case "":
	case "true", "false", "unknown":
		if !qualified {
			l.fail(ErrBadValue, subject, "present only applies to alternatives of a qualified union")
			return types.RecordField{}, false
		}
		f.Present = map[string]types.Presence{
			"true":    types.PresenceTrue,
			"false":   types.PresenceFalse,
			"unknown": types.PresenceUnknown,
		}[fc.Present]
	default:
		l.fail(ErrBadValue, subject, "present must be true, false or unknown, got %q", fc.Present)
		return types.RecordField{}, false
	}
	return f, true
}

func (l *loader) functions(decls []functionConfig) []Function {
	out := make([]Function, 0, len(decls))
	seen := make(map[string]bool, len(decls))
	for i, fc := range decls {
		name := normalize(fc.Name)
		subject := fmt.Sprintf("function #%d", i+1)
		if name == "" {
			l.fail(ErrMissingField, subject, "missing name")
			continue
		}
		subject = fmt.Sprintf("function %q", name)
		if !isIdent(name) {
			l.fail(ErrBadValue, subject, "name is not an identifier")
			continue
		}
		if seen[name] {
			l.fail(ErrDuplicateName, subject, "declared twice")
			continue
		}
		seen[name] = true

		fn := Function{Name: name, Params: make([]Param, 0, len(fc.Params))}
		ok := true
		if r := strings.TrimSpace(fc.Result); r != "" {
			fn.Result, ok = l.typeRef(subject+" result", r, true)
		}
		for j, pc := range fc.Params {
			pname := normalize(pc.Name)
			psubject := fmt.Sprintf("%s param #%d", subject, j+1)
			if pname != "" {
				psubject = fmt.Sprintf("%s param %q", subject, pname)
			}
			if strings.TrimSpace(pc.Type) == "" {
				l.fail(ErrMissingField, psubject, "missing type")
				ok = false
				continue
			}
			id, pok := l.typeRef(psubject, pc.Type, false)
			ok = ok && pok
			fn.Params = append(fn.Params, Param{Name: pname, Type: id})
		}
		if ok {
			out = append(out, fn)
		}
	}
	return out
}

func normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func isIdent(s string) bool {
	for i, r := range s {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return s != ""
}

func powerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
