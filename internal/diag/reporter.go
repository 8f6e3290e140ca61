package diag

import "sync"

// Reporter receives diagnostics from the phases that produce them.
type Reporter interface {
	Report(d Diagnostic)
}

// BagReporter writes into a Bag.
type BagReporter struct{ Bag *Bag }

func (r BagReporter) Report(d Diagnostic) {
	if r.Bag == nil {
		return
	}
	r.Bag.Add(d)
}

// SyncReporter serializes reports from several goroutines into one Bag.
type SyncReporter struct {
	mu  sync.Mutex
	bag *Bag
}

// NewSyncReporter wraps bag.
func NewSyncReporter(bag *Bag) *SyncReporter {
	return &SyncReporter{bag: bag}
}

func (r *SyncReporter) Report(d Diagnostic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bag.Add(d)
}
