package driver

import (
	"errors"
	"io/fs"

	"callconv/internal/catalog"
	"callconv/internal/diag"
)

var catalogCodes = map[catalog.ErrorKind]diag.Code{
	catalog.ErrParse:         diag.CatParse,
	catalog.ErrUnknownKey:    diag.CatUnknownKey,
	catalog.ErrUnknownType:   diag.CatUnknownType,
	catalog.ErrDuplicateName: diag.CatDuplicateName,
	catalog.ErrBadTypeRef:    diag.CatBadTypeRef,
	catalog.ErrBadTarget:     diag.CatBadTarget,
	catalog.ErrMissingField:  diag.CatMissingField,
	catalog.ErrBadValue:      diag.CatBadValue,
}

// Load reads the catalog at path. Every problem in the file becomes one
// diagnostic; the catalog is nil when the bag has errors.
func Load(path string, opts catalog.Options, maxDiagnostics int) (*catalog.Catalog, *diag.Bag) {
	bag := diag.NewBag(maxDiagnostics)
	cat, err := catalog.Load(path, opts)
	if err == nil {
		return cat, bag
	}
	var errs catalog.Errors
	if !errors.As(err, &errs) {
		bag.Add(diag.NewError(diag.IOLoadFileError, path, err.Error()))
		return nil, bag
	}
	for _, e := range errs {
		code := catalogCodes[e.Kind]
		if e.Kind == catalog.ErrParse && errors.Is(e, fs.ErrNotExist) {
			code = diag.IOLoadFileError
		}
		subject := e.Subject
		if subject == "" {
			subject = path
		}
		msg := e.Msg
		if e.Err != nil {
			msg += ": " + e.Err.Error()
		}
		bag.Add(diag.NewError(code, subject, msg))
	}
	return nil, bag
}
