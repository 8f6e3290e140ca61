// Package trace records spans for a callconv run.
//
// A run opens one driver span per phase (load, classify, lower, report),
// one function span per catalog entry, and at LevelDebug one point per
// parameter or result decision. Events go to a StreamTracer, which writes
// them as they happen, to a RingTracer, which keeps the last few thousand
// for a dump after an internal error, or to both through a MultiTracer.
//
// Tracers travel through the driver in a context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopeFunction, "function:make", parent)
//	defer span.End("")
package trace
