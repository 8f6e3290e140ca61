package catalog

import (
	"fmt"
	"strings"
)

// ErrorKind classifies catalog input errors.
type ErrorKind uint8

const (
	ErrParse ErrorKind = iota + 1
	ErrUnknownKey
	ErrUnknownType
	ErrDuplicateName
	ErrBadTypeRef
	ErrBadTarget
	ErrMissingField
	ErrBadValue
)

func (k ErrorKind) String() string {
	switch k {
	case ErrParse:
		return "parse"
	case ErrUnknownKey:
		return "unknown key"
	case ErrUnknownType:
		return "unknown type"
	case ErrDuplicateName:
		return "duplicate name"
	case ErrBadTypeRef:
		return "bad type reference"
	case ErrBadTarget:
		return "bad target"
	case ErrMissingField:
		return "missing field"
	case ErrBadValue:
		return "bad value"
	default:
		return fmt.Sprintf("ErrorKind(%d)", k)
	}
}

// Error is one problem in a catalog file. Subject names the table entry,
// for example `type "Pair" field "b"`.
type Error struct {
	Kind    ErrorKind
	Path    string
	Subject string
	Msg     string
	Err     error
}

func (e *Error) Error() string {
	var sb strings.Builder
	if e.Path != "" {
		sb.WriteString(e.Path)
		sb.WriteString(": ")
	}
	if e.Subject != "" {
		sb.WriteString(e.Subject)
		sb.WriteString(": ")
	}
	sb.WriteString(e.Msg)
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Errors collects every problem found in one file. Loading keeps going
// after the first error so a user can fix a catalog in one pass.
type Errors []*Error

func (es Errors) Error() string {
	switch len(es) {
	case 0:
		return "no errors"
	case 1:
		return es[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", es[0].Error(), len(es)-1)
}

// Unwrap exposes the individual errors to errors.Is and errors.As.
func (es Errors) Unwrap() []error {
	out := make([]error, len(es))
	for i, e := range es {
		out[i] = e
	}
	return out
}
