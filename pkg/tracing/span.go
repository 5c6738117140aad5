// Package tracing records a per-run tree of timed spans carried on the
// context. A run opens the root span; build stages hang child spans off it.
// The finished tree is written to slog in one pass.
package tracing

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type contextKey struct{}

type Span struct {
	Name     string
	RunID    string
	Start    time.Time
	Duration time.Duration
	Err      error

	mu       sync.Mutex
	children []*Span
	attrs    []any
}

// Start opens a span. It becomes a child of the span already in ctx, or a
// root span for runID when there is none.
func Start(ctx context.Context, name, runID string) (context.Context, *Span) {
	s := &Span{Name: name, RunID: runID, Start: time.Now()}
	if parent := FromContext(ctx); parent != nil {
		s.RunID = parent.RunID
		parent.mu.Lock()
		parent.children = append(parent.children, s)
		parent.mu.Unlock()
	}
	return context.WithValue(ctx, contextKey{}, s), s
}

// FromContext returns the innermost span, or nil.
func FromContext(ctx context.Context) *Span {
	s, _ := ctx.Value(contextKey{}).(*Span)
	return s
}

// End closes the span. A nil span is ignored so callers need not check.
func (s *Span) End(err error) {
	if s == nil {
		return
	}
	s.Duration = time.Since(s.Start)
	s.Err = err
}

// SetAttr adds a key/value pair logged with the span.
func (s *Span) SetAttr(key string, value any) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.attrs = append(s.attrs, key, value)
	s.mu.Unlock()
}

// Children returns the direct child spans in start order.
func (s *Span) Children() []*Span {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Span(nil), s.children...)
}

// Log writes the span and its descendants, depth first, at debug level.
func (s *Span) Log(logger *slog.Logger) {
	s.log(logger, "", 0)
}

func (s *Span) log(logger *slog.Logger, parent string, depth int) {
	path := s.Name
	if parent != "" {
		path = parent + "/" + s.Name
	}
	attrs := []any{"run_id", s.RunID, "span", path, "depth", depth, "duration_ms", s.Duration.Milliseconds()}
	if s.Err != nil {
		attrs = append(attrs, "error", s.Err)
	}
	s.mu.Lock()
	attrs = append(attrs, s.attrs...)
	children := s.children
	s.mu.Unlock()
	logger.Debug("span", attrs...)
	for _, c := range children {
		c.log(logger, path, depth+1)
	}
}
