package trace

import (
	"context"
	"sync/atomic"
	"time"
)

var spanIDs atomic.Uint64

// Span tracks one logical operation between Begin and End.
type Span struct {
	tracer   Tracer
	id       uint64
	parentID uint64
	depth    int
	scope    Scope
	name     string
	started  time.Time
	extra    map[string]string
}

// Begin starts a span under parent (nil for a root span) and emits its
// begin event. A disabled tracer or a filtered scope yields an inert span.
func Begin(t Tracer, scope Scope, name string, parent *Span) *Span {
	if t == nil || !t.Enabled() || !t.Level().ShouldEmit(scope) {
		return &Span{tracer: Nop, parentID: parent.ID(), depth: parent.nextDepth()}
	}
	s := &Span{
		tracer:   t,
		id:       spanIDs.Add(1),
		parentID: parent.ID(),
		depth:    parent.nextDepth(),
		scope:    scope,
		name:     name,
		started:  time.Now(),
	}
	t.Emit(&Event{
		Time:     s.started,
		Kind:     KindSpanBegin,
		Scope:    scope,
		SpanID:   s.id,
		ParentID: s.parentID,
		Depth:    s.depth,
		Name:     name,
	})
	return s
}

// Start begins a span whose parent is the span carried by ctx and returns a
// context carrying the new span.
func Start(ctx context.Context, scope Scope, name string) (*Span, context.Context) {
	parent := SpanFromContext(ctx)
	s := Begin(FromContext(ctx), scope, name, parent)
	if s.id == 0 {
		// Inert spans keep the parent so deeper spans still nest correctly.
		return s, ctx
	}
	return s, context.WithValue(ctx, spanCtxKey{}, s)
}

// End emits the end event and returns the span's duration.
func (s *Span) End(detail string) time.Duration {
	if s == nil || s.tracer == nil || !s.tracer.Enabled() {
		return 0
	}
	now := time.Now()
	dur := now.Sub(s.started)
	s.tracer.Emit(&Event{
		Time:     now,
		Kind:     KindSpanEnd,
		Scope:    s.scope,
		SpanID:   s.id,
		ParentID: s.parentID,
		Depth:    s.depth,
		Name:     s.name,
		Detail:   detail,
		Elapsed:  dur,
		Extra:    s.extra,
	})
	return dur
}

// WithExtra adds a key-value pair to the end event.
func (s *Span) WithExtra(key, value string) *Span {
	if s == nil || s.tracer == nil || !s.tracer.Enabled() {
		return s
	}
	if s.extra == nil {
		s.extra = make(map[string]string)
	}
	s.extra[key] = value
	return s
}

// Point emits an instant event inside the span.
func (s *Span) Point(name, detail string) {
	if s == nil || s.tracer == nil || !s.tracer.Enabled() || !s.tracer.Level().ShouldEmit(ScopeDetail) {
		return
	}
	s.tracer.Emit(&Event{
		Time:     time.Now(),
		Kind:     KindPoint,
		Scope:    ScopeDetail,
		SpanID:   s.id,
		ParentID: s.id,
		Depth:    s.depth + 1,
		Name:     name,
		Detail:   detail,
	})
}

// ID returns the span ID, 0 for nil or inert spans.
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}

func (s *Span) nextDepth() int {
	if s == nil {
		return 0
	}
	return s.depth + 1
}
