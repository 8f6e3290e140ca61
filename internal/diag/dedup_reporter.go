package diag

// DedupReporter forwards each distinct diagnostic once. Distinct means a
// different code, severity, subject or message; notes are ignored. It is
// not safe for concurrent use.
type DedupReporter struct {
	next Reporter
	seen map[dedupKey]struct{}
}

func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{next: next, seen: map[dedupKey]struct{}{}}
}

func (r *DedupReporter) Report(d Diagnostic) {
	key := keyOf(d)
	if _, dup := r.seen[key]; dup || r.next == nil {
		return
	}
	r.seen[key] = struct{}{}
	r.next.Report(d)
}

func keyOf(d Diagnostic) dedupKey {
	return dedupKey{code: d.Code, sev: d.Severity, subject: d.Subject, msg: d.Message}
}
