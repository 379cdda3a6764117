// Package trace records the steps of a check as nested spans.
//
// A check opens one run span and one stage span per step of the
// orchestrator; engine installation and queries open detail spans below
// their stage. Events are written as they happen, as text or NDJSON:
//
//	tsdoctor check --trace=- --trace-level=stage
//	tsdoctor check --trace=trace.ndjson --trace-level=detail
//
// The tracer travels in the context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span, ctx := trace.Start(ctx, trace.ScopeStage, "load-engine")
//	defer span.End("")
package trace
