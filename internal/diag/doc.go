// Package diag defines the diagnostic model shared by the catalog loader,
// the layout engine and the lowering driver.
//
// A Diagnostic carries a Severity, a numeric Code with a stable string
// form (ABI1xxx for lowering, CAT2xxx for catalog input, LAY3xxx for
// layout), the Subject it is about and a short message. Notes add context
// and should say something the message does not.
//
// Producers report through a Reporter. BagReporter collects into a Bag,
// SyncReporter does the same for the driver's worker goroutines, and
// DedupReporter drops repeats before they reach either. Format renders a
// bag for the terminal.
package diag
