// Package driver runs a catalog through the lowering engine.
//
// Load turns a catalog file into a catalog.Catalog or a bag of
// diagnostics. Run builds the shapes of every selected function, reports
// the types it had to degrade, and then lowers the functions concurrently.
// Errors raised while lowering one function become diagnostics for that
// function and do not stop the others. Reports of successful functions
// can be kept in a DiskCache keyed by the function's full type structure.
package driver
