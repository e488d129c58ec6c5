package observability

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Span times one unit of work such as a request, a dataset load or a
// dashboard computation. Finished spans are logged at debug level; there is
// no exporter.
type Span struct {
	TraceID   string
	SpanID    string
	ParentID  string
	Operation string
	Start     time.Time
	Duration  time.Duration
	Tags      map[string]string
	Err       error
}

type spanContextKey struct{}

// StartSpan starts a span, nested under the span in ctx when there is one.
func StartSpan(ctx context.Context, operation string) (context.Context, *Span) {
	span := &Span{
		SpanID:    hexID()[:16],
		Operation: operation,
		Start:     time.Now(),
		Tags:      make(map[string]string),
	}
	if parent := GetSpan(ctx); parent != nil {
		span.ParentID = parent.SpanID
		span.TraceID = parent.TraceID
	} else {
		span.TraceID = hexID()
	}
	return context.WithValue(ctx, spanContextKey{}, span), span
}

// End records the duration and logs the span.
func (s *Span) End(logger *slog.Logger) {
	s.Duration = time.Since(s.Start)
	if logger != nil {
		logger.Debug("span finished", "span", s)
	}
}

func (s *Span) SetTag(key, value string) {
	if s.Tags == nil {
		s.Tags = make(map[string]string)
	}
	s.Tags[key] = value
}

func (s *Span) SetError(err error) {
	s.Err = err
}

func (s *Span) Status() string {
	if s.Err != nil {
		return "ERROR"
	}
	return "OK"
}

func (s *Span) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("trace_id", s.TraceID),
		slog.String("span_id", s.SpanID),
		slog.String("operation", s.Operation),
		slog.String("status", s.Status()),
		slog.Duration("duration", s.Duration),
	}
	if s.ParentID != "" {
		attrs = append(attrs, slog.String("parent_id", s.ParentID))
	}
	for k, v := range s.Tags {
		attrs = append(attrs, slog.String(k, v))
	}
	if s.Err != nil {
		attrs = append(attrs, slog.String("error", s.Err.Error()))
	}
	return slog.GroupValue(attrs...)
}

func GetSpan(ctx context.Context) *Span {
	if span, ok := ctx.Value(spanContextKey{}).(*Span); ok {
		return span
	}
	return nil
}

func hexID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NewRequestID returns a random request identifier.
func NewRequestID() string {
	return uuid.NewString()
}
