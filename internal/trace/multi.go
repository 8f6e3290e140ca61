package trace

import "errors"

// MultiTracer sends every event to several tracers, typically a stream
// and a ring.
type MultiTracer struct {
	tracers []Tracer
	level   Level
}

func NewMultiTracer(level Level, tracers ...Tracer) *MultiTracer {
	return &MultiTracer{tracers: tracers, level: level}
}

// Emit gives each child its own copy; children assign their own Seq.
func (t *MultiTracer) Emit(ev *Event) {
	for _, child := range t.tracers {
		cp := *ev
		child.Emit(&cp)
	}
}

func (t *MultiTracer) Flush() error {
	var errs []error
	for _, child := range t.tracers {
		errs = append(errs, child.Flush())
	}
	return errors.Join(errs...)
}

func (t *MultiTracer) Close() error {
	var errs []error
	for _, child := range t.tracers {
		errs = append(errs, child.Close())
	}
	return errors.Join(errs...)
}

func (t *MultiTracer) Level() Level  { return t.level }
func (t *MultiTracer) Enabled() bool { return t.level > LevelOff }

// Ring is the first ring child, or nil.
func (t *MultiTracer) Ring() *RingTracer {
	for _, child := range t.tracers {
		if r, ok := child.(*RingTracer); ok {
			return r
		}
	}
	return nil
}
