package api

import (
	"context"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName       = "notevault-api/api"
	notesSpanName    = "notes.list"
	notesEventName   = "notes.list.metrics"
	notesEventDomain = "notevault"
	notesRoute       = "/api/notes"
)

// listRequestMetrics collects timing and outcome fields for the note list
// route and emits them both as a structured log entry and as a span event.
type listRequestMetrics struct {
	logger *log.Logger
	span   trace.Span
	start  time.Time

	notesReturned int
	errorStage    string
}

func newListRequestMetrics(ctx context.Context, logger *log.Logger) (*listRequestMetrics, context.Context) {
	m := &listRequestMetrics{logger: logger, start: time.Now()}
	if ctx == nil {
		return m, nil
	}
	spanCtx, span := otel.Tracer(tracerName).Start(ctx, notesSpanName)
	m.span = span
	return m, spanCtx
}

func (m *listRequestMetrics) SetNotesReturned(count int) {
	if count < 0 {
		count = 0
	}
	m.notesReturned = count
}

func (m *listRequestMetrics) SetErrorStage(stage string) {
	if stage == "" {
		return
	}
	m.errorStage = stage
}

// Log finishes the span and writes the observability event.
func (m *listRequestMetrics) Log(status int, err error) {
	if m == nil {
		return
	}
	totalMillis := durationToMillis(time.Since(m.start))
	severityText, severityNumber := severityForStatus(status, err)

	attrs := []attribute.KeyValue{
		attribute.String("http.route", notesRoute),
		attribute.Int("http.status_code", status),
		attribute.Float64("notevault.notes.total_ms", totalMillis),
		attribute.Int("notevault.notes.notes_returned", m.notesReturned),
	}
	if m.errorStage != "" {
		attrs = append(attrs, attribute.String("notevault.notes.error_stage", m.errorStage))
	}

	var traceID string
	if m.span != nil {
		m.span.SetAttributes(attrs...)
		eventAttrs := append([]attribute.KeyValue{
			attribute.String("event.name", notesEventName),
			attribute.String("event.domain", notesEventDomain),
			attribute.String("severity_text", severityText),
		}, attrs...)
		if err != nil {
			eventAttrs = append(eventAttrs, attribute.String("error.message", err.Error()))
		}
		m.span.AddEvent("observability.event", trace.WithAttributes(eventAttrs...))
		if err != nil || status >= http.StatusInternalServerError {
			desc := "request failed"
			if err != nil {
				desc = err.Error()
			}
			m.span.SetStatus(codes.Error, desc)
		} else {
			m.span.SetStatus(codes.Ok, "")
		}
		if sc := m.span.SpanContext(); sc.HasTraceID() {
			traceID = sc.TraceID().String()
		}
		m.span.End()
	}

	if m.logger == nil {
		return
	}
	fields := log.Fields{
		"event.name":      notesEventName,
		"event.domain":    notesEventDomain,
		"severity_text":   severityText,
		"severity_number": severityNumber,
		"attributes": map[string]any{
			"http.route":                     notesRoute,
			"http.status_code":               status,
			"notevault.notes.total_ms":       totalMillis,
			"notevault.notes.notes_returned": m.notesReturned,
			"notevault.notes.error_stage":    m.errorStage,
		},
	}
	if traceID != "" {
		fields["trace_id"] = traceID
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	m.logger.WithFields(fields).Info("observability.event")
}

func severityForStatus(status int, err error) (string, int) {
	switch {
	case err != nil && status < http.StatusBadRequest:
		return "ERROR", 17
	case status >= http.StatusInternalServerError:
		return "ERROR", 17
	case status >= http.StatusBadRequest:
		return "WARN", 13
	default:
		return "INFO", 9
	}
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
