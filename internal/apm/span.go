package apm

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span is a thin wrapper over trace.Span with error recording helpers.
type Span interface {
	SetAttributes(attrs ...attribute.KeyValue)
	RecordError(err error)
	AddEvent(name string, attrs ...attribute.KeyValue)
	End()
	TraceID() string
}

type openSpan struct {
	span trace.Span
}

// NewSpan wraps a trace.Span.
func NewSpan(span trace.Span) Span {
	return &openSpan{span: span}
}

func (s *openSpan) SetAttributes(attrs ...attribute.KeyValue) {
	s.span.SetAttributes(attrs...)
}

func (s *openSpan) RecordError(err error) {
	if err == nil {
		return
	}
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

func (s *openSpan) AddEvent(name string, attrs ...attribute.KeyValue) {
	s.span.AddEvent(name, trace.WithAttributes(attrs...))
}

func (s *openSpan) End() {
	s.span.End()
}

func (s *openSpan) TraceID() string {
	sc := s.span.SpanContext()
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

// TraceIDFromSpan is a logger.TraceIDFn-compatible helper.
func TraceIDFromSpan(span Span) string {
	return span.TraceID()
}
