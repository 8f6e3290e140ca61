package driver

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"callconv/internal/abi"
	"callconv/internal/catalog"
	"callconv/internal/diag"
	"callconv/internal/layout"
	"callconv/internal/lower"
	"callconv/internal/observ"
	"callconv/internal/shape"
	"callconv/internal/trace"
	"callconv/internal/types"
)

// Mode selects how far each function is taken.
type Mode uint8

const (
	ModeClassify Mode = iota + 1 // strategies only
	ModeLower                    // plus prologue and call listings
	ModeCheck                    // plus a simulated round trip
)

func (m Mode) String() string {
	switch m {
	case ModeClassify:
		return "classify"
	case ModeLower:
		return "lower"
	case ModeCheck:
		return "check"
	default:
		return fmt.Sprintf("Mode(%d)", m)
	}
}

// Options configure Run.
type Options struct {
	Mode           Mode
	Jobs           int        // <= 0 means GOMAXPROCS
	MaxDiagnostics int        // <= 0 keeps every diagnostic
	Cache          *DiskCache // nil disables caching
	Timer          *observ.Timer
	// Events receives progress; Run never closes it.
	Events chan<- Event
	// Only restricts the run to the named functions.
	Only []string
}

// Run classifies every selected function of cat and, depending on the
// mode, lowers and checks it. Functions are processed concurrently; each
// has its own register budgets and builders. Lowering failures become
// diagnostics in the result. Run only returns an error for an unknown
// function name or a cancelled context.
func Run(ctx context.Context, cat *catalog.Catalog, opts Options) (*Result, error) {
	if opts.Mode == 0 {
		opts.Mode = ModeClassify
	}
	timer := opts.Timer
	if timer == nil {
		timer = observ.NewTimer()
	}
	fns, err := selectFunctions(cat, opts.Only)
	if err != nil {
		return nil, err
	}

	tr := trace.FromContext(ctx)
	root := trace.Begin(tr, trace.ScopeDriver, "run:"+opts.Mode.String(), trace.Parent(ctx))
	defer root.End("")
	bag := diag.NewBag(opts.MaxDiagnostics)

	emit(ctx, opts.Events, Event{Kind: EventPhase, Name: "classify"})
	endClassify := timer.Track("classify")
	span := trace.Begin(tr, trace.ScopeDriver, "classify", root.ID())
	model := shape.NewModel(cat.Types, layout.New(cat.Target.Layout, cat.Types))
	sigs := make([]lower.Signature, len(fns))
	for i, fn := range fns {
		sigs[i] = signature(model, fn)
	}
	reportDegradations(diag.NewDedupReporter(diag.BagReporter{Bag: bag}), model)
	span.End(fmt.Sprintf("%d shapes", model.Len()))
	endClassify(fmt.Sprintf("%d shapes", model.Len()))

	emit(ctx, opts.Events, Event{Kind: EventPhase, Name: "lower"})
	endLower := timer.Track("lower")
	span = trace.Begin(tr, trace.ScopeDriver, "lower", root.ID())
	w := &worker{
		cat:    cat,
		mode:   opts.Mode,
		tracer: tr,
		cache:  &cacheGuard{cache: opts.Cache},
		report: diag.NewSyncReporter(bag),
	}
	reports := make([]FunctionReport, len(fns))
	emit(ctx, opts.Events, Event{Kind: EventPlanned, Total: len(fns)})

	if len(fns) > 0 {
		jobs := opts.Jobs
		if jobs <= 0 {
			jobs = runtime.GOMAXPROCS(0)
		}
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(min(jobs, len(fns)))
		for i := range fns {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				emit(gctx, opts.Events, Event{Kind: EventStarted, Name: fns[i].Name, Index: i, Total: len(fns)})
				reports[i] = w.function(fns[i], sigs[i], span.ID())
				emit(gctx, opts.Events, Event{
					Kind:   EventFinished,
					Name:   fns[i].Name,
					Index:  i,
					Total:  len(fns),
					Failed: reports[i].Failed,
					Cached: reports[i].Cached,
				})
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			span.End("cancelled")
			return nil, err
		}
	}

	if d, ok := w.cache.warning(); ok {
		bag.Add(d)
	}
	bag.Sort()
	bag.Dedup()
	cached := w.cached.Load()
	span.End(fmt.Sprintf("%d functions, %d cached", len(fns), cached))
	endLower(fmt.Sprintf("%d functions, %d cached", len(fns), cached))

	return &Result{
		Target:    cat.Target.Name,
		Mode:      opts.Mode,
		Functions: reports,
		Bag:       bag,
		Timings:   timer.Report(),
	}, nil
}

func selectFunctions(cat *catalog.Catalog, only []string) ([]catalog.Function, error) {
	if len(only) == 0 {
		return cat.Functions, nil
	}
	out := make([]catalog.Function, 0, len(only))
	for _, name := range only {
		fn, ok := cat.Function(name)
		if !ok {
			return nil, fmt.Errorf("unknown function %q", name)
		}
		out = append(out, fn)
	}
	return out, nil
}

func signature(model *shape.Model, fn catalog.Function) lower.Signature {
	sig := lower.Signature{
		Name:       fn.Name,
		Params:     make([]*shape.Shape, len(fn.Params)),
		ParamNames: make([]string, len(fn.Params)),
	}
	if fn.Result != types.NoTypeID {
		sig.Result = model.ShapeOf(fn.Result)
	}
	for i, p := range fn.Params {
		sig.Params[i] = model.ShapeOf(p.Type)
		sig.ParamNames[i] = p.Name
	}
	return sig
}

func reportDegradations(r diag.Reporter, model *shape.Model) {
	for _, d := range model.Degradations() {
		code, sev := layoutCode(d.Reason)
		msg := d.Reason.Error()
		if sev == diag.SevWarning {
			msg = "lowered as a word-size integer: " + msg
		}
		r.Report(diag.New(sev, code, d.Name, msg))
	}
}

func emit(ctx context.Context, ch chan<- Event, ev Event) {
	if ch == nil {
		return
	}
	select {
	case ch <- ev:
	case <-ctx.Done():
	}
}

type worker struct {
	cat    *catalog.Catalog
	mode   Mode
	tracer trace.Tracer
	cache  *cacheGuard
	report diag.Reporter
	cached atomic.Int64
}

// function classifies and lowers fn. Failures are reported, never returned.
func (w *worker) function(fn catalog.Function, sig lower.Signature, parent uint64) FunctionReport {
	span := trace.Begin(w.tracer, trace.ScopeFunction, "function:"+fn.Name, parent)

	var key Digest
	if w.cache.usable() {
		key = cacheKey(w.cat, w.mode, fn)
		if rep, ok := w.cache.get(key); ok {
			rep.Cached = true
			w.cached.Add(1)
			span.End("cached")
			return *rep
		}
	}

	rep := FunctionReport{Name: fn.Name}
	if err := w.lower(&rep, fn, sig, span.ID()); err != nil {
		rep.Failed = true
		span.WithExtra("error", err.Error()).End("failed")
		w.report.Report(lowerDiagnostic(fn.Name, err))
		return rep
	}
	w.cache.put(key, &rep)
	span.End("ok")
	return rep
}

func (w *worker) lower(rep *FunctionReport, fn catalog.Function, sig lower.Signature, span uint64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()
	defer abi.Recover(&err)

	rules := w.cat.Target.Rules
	ret := abi.ClassifyReturn(sig.Result, rules)
	rep.Return = w.decision("return", fn.Result, sig.Result, ret.Kind.String(), ret.String())
	trace.Point(w.tracer, trace.ScopeParam, "return:"+fn.Name, ret.String(), span)

	budget := abi.NewRegisterBudget(rules, ret)
	rep.Params = make([]Decision, len(sig.Params))
	for i, s := range sig.Params {
		st := abi.ClassifyArgument(s, rules, budget)
		name := sig.ParamName(i)
		rep.Params[i] = w.decision(name, fn.Params[i].Type, s, st.Kind.String(), st.String())
		trace.Point(w.tracer, trace.ScopeParam, "param:"+fn.Name+"."+name, st.String(), span)
	}

	ptrSize := uint64(w.cat.Target.Layout.PtrSize)
	switch w.mode {
	case ModeLower:
		rep.Callee, rep.Caller, err = lower.Listing(rules, sig, ptrSize)
	case ModeCheck:
		var res lower.CheckResult
		res, err = lower.Check(rules, sig, ptrSize)
		if err == nil {
			rep.Check = &CheckSummary{Operands: res.Operands, Ops: res.Ops}
		}
	}
	return err
}

func (w *worker) decision(name string, id types.TypeID, s *shape.Shape, kind, strategy string) Decision {
	d := Decision{Name: name, Type: w.cat.Types.Describe(id), Kind: kind, Strategy: strategy}
	if s != nil {
		d.Size, d.Align = s.Size, s.Align
	}
	return d
}

// cacheGuard turns the cache off after its first failure and remembers
// the failure for one warning.
type cacheGuard struct {
	cache    *DiskCache
	disabled atomic.Bool
	once     sync.Once
	err      error
}

func (g *cacheGuard) usable() bool {
	return g.cache != nil && !g.disabled.Load()
}

func (g *cacheGuard) fail(err error) {
	g.once.Do(func() { g.err = err })
	g.disabled.Store(true)
}

func (g *cacheGuard) get(key Digest) (*FunctionReport, bool) {
	rep, ok, err := g.cache.Get(key)
	if err != nil {
		g.fail(err)
		return nil, false
	}
	return rep, ok
}

func (g *cacheGuard) put(key Digest, rep *FunctionReport) {
	if !g.usable() {
		return
	}
	if err := g.cache.Put(key, rep); err != nil {
		g.fail(err)
	}
}

func (g *cacheGuard) warning() (diag.Diagnostic, bool) {
	if !g.disabled.Load() {
		return diag.Diagnostic{}, false
	}
	return diag.NewWarning(diag.IOCacheError, g.cache.Dir(), "cache disabled for this run: "+g.err.Error()), true
}
