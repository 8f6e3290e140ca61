package catalog

import (
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"callconv/internal/types"
)

// builtinTypes maps C spellings to interned scalars. lp64 selects a
// 64-bit long.
func builtinTypes(in *types.Interner, lp64 bool) map[string]types.TypeID {
	b := in.Builtins()
	long, ulong := in.Intern(types.MakeInt(types.Width32)), in.Intern(types.MakeUint(types.Width32))
	if lp64 {
		long, ulong = b.Long, b.ULong
	}
	ll, ull := b.Long, b.ULong
	return map[string]types.TypeID{
		"bool": b.Bool, "_Bool": b.Bool,
		"char": b.Char, "signed char": b.Char, "unsigned char": b.UChar,
		"short": b.Short, "short int": b.Short, "unsigned short": b.UShort,
		"int": b.Int, "signed": b.Int, "signed int": b.Int, "unsigned": b.UInt, "unsigned int": b.UInt,
		"long": long, "long int": long, "unsigned long": ulong,
		"long long": ll, "unsigned long long": ull,
		"__int128": b.Int128, "unsigned __int128": in.Intern(types.MakeUint(types.Width128)),
		"int8_t": b.Char, "uint8_t": b.UChar,
		"int16_t": b.Short, "uint16_t": b.UShort,
		"int32_t": b.Int, "uint32_t": b.UInt,
		"int64_t": ll, "uint64_t": ull,
		"intptr_t": long, "uintptr_t": ulong, "size_t": ulong,
		"float": b.Float, "double": b.Double, "long double": b.LongDouble,
	}
}

type refError struct {
	kind ErrorKind
	msg  string
}

// typeRef resolves a reference and records a failure against subject.
// void is only accepted where allowVoid is set or behind a pointer.
func (l *loader) typeRef(subject, raw string, allowVoid bool) (types.TypeID, bool) {
	s := strings.Join(strings.Fields(norm.NFC.String(raw)), " ")
	id, void, err := l.parseRef(s)
	if err == nil && void && !allowVoid {
		err = &refError{ErrBadTypeRef, "void is only valid as a result or behind a pointer"}
	}
	if err != nil {
		l.fail(err.kind, subject, "%s in %q", err.msg, raw)
		return types.NoTypeID, false
	}
	return id, true
}

func (l *loader) parseRef(s string) (id types.TypeID, void bool, err *refError) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return types.NoTypeID, false, &refError{ErrBadTypeRef, "empty type"}

	case s == "void":
		return types.NoTypeID, true, nil

	case strings.HasSuffix(s, "*"):
		elem, _, err := l.parseRef(s[:len(s)-1])
		if err != nil {
			return types.NoTypeID, false, err
		}
		return l.in.Intern(types.MakePointer(elem)), false, nil

	case strings.HasSuffix(s, "]"):
		open := strings.LastIndexByte(s, '[')
		if open < 0 {
			return types.NoTypeID, false, &refError{ErrBadTypeRef, "unbalanced ']'"}
		}
		count := types.ArrayDynamicLength
		if n := strings.TrimSpace(s[open+1 : len(s)-1]); n != "" {
			v, perr := strconv.ParseUint(n, 10, 32)
			if perr != nil || uint32(v) == types.ArrayDynamicLength {
				return types.NoTypeID, false, &refError{ErrBadTypeRef, "bad array length " + strconv.Quote(n)}
			}
			count = uint32(v)
		}
		elem, err := l.value(s[:open])
		if err != nil {
			return types.NoTypeID, false, err
		}
		return l.in.Intern(types.MakeArray(elem, count)), false, nil

	case strings.HasPrefix(s, "vector "):
		rest := strings.TrimPrefix(s, "vector ")
		sp := strings.LastIndexByte(rest, ' ')
		if sp < 0 || !strings.HasPrefix(rest[sp+1:], "x") {
			return types.NoTypeID, false, &refError{ErrBadTypeRef, "vector needs a lane count like x4"}
		}
		n, perr := strconv.ParseUint(rest[sp+2:], 10, 32)
		if perr != nil || n == 0 || n&(n-1) != 0 {
			return types.NoTypeID, false, &refError{ErrBadTypeRef, "vector lane count must be a power of two"}
		}
		elem, err := l.value(rest[:sp])
		if err != nil {
			return types.NoTypeID, false, err
		}
		switch l.in.MustLookup(elem).Kind {
		case types.KindInt, types.KindUint, types.KindFloat, types.KindBool, types.KindPointer:
		default:
			return types.NoTypeID, false, &refError{ErrBadTypeRef, "vector lanes must be scalars"}
		}
		return l.in.Intern(types.MakeVector(elem, uint32(n))), false, nil

	case strings.HasPrefix(s, "_Complex "):
		elem, err := l.value(strings.TrimPrefix(s, "_Complex "))
		if err != nil {
			return types.NoTypeID, false, err
		}
		if l.in.MustLookup(elem).Kind != types.KindFloat {
			return types.NoTypeID, false, &refError{ErrBadTypeRef, "_Complex needs a floating-point element"}
		}
		return l.in.Intern(types.MakeComplex(elem)), false, nil
	}

	if id, ok := l.builtins[s]; ok {
		return id, false, nil
	}
	return l.named(s)
}

// value parses a reference that must denote a value type.
func (l *loader) value(s string) (types.TypeID, *refError) {
	id, void, err := l.parseRef(s)
	if err != nil {
		return types.NoTypeID, err
	}
	if void {
		return types.NoTypeID, &refError{ErrBadTypeRef, "void is not a value type"}
	}
	return id, nil
}

func (l *loader) named(s string) (types.TypeID, bool, *refError) {
	want := types.KindInvalid
	if rest, ok := strings.CutPrefix(s, "struct "); ok {
		s, want = rest, types.KindStruct
	} else if rest, ok := strings.CutPrefix(s, "union "); ok {
		s, want = rest, types.KindUnion
	}
	if !isIdent(s) {
		return types.NoTypeID, false, &refError{ErrBadTypeRef, "cannot parse " + strconv.Quote(s)}
	}
	id, ok := l.in.Named(s)
	if !ok {
		return types.NoTypeID, false, &refError{ErrUnknownType, "undeclared type " + strconv.Quote(s)}
	}
	got := l.in.MustLookup(id).Kind
	if want != types.KindInvalid && got != want && got != types.KindIncomplete {
		return types.NoTypeID, false, &refError{ErrBadTypeRef, s + " is a " + got.String() + ", not a " + want.String()}
	}
	return id, false, nil
}
