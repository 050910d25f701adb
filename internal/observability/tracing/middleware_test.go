package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupExporter(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.ForceFlush(context.Background())
		otel.SetTracerProvider(sdktrace.NewTracerProvider())
	})
	return exporter
}

func TestMiddleware_CreatesSpanWithNormalizedName(t *testing.T) {
	exporter := setupExporter(t)

	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/tracks/8f2c1a", nil))

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	span := spans[0]
	if span.Name != "GET /api/tracks/:id" {
		t.Errorf("span name = %q, want %q", span.Name, "GET /api/tracks/:id")
	}

	var gotStatus int64
	var gotPath string
	for _, attr := range span.Attributes {
		switch attr.Key {
		case "http.status_code":
			gotStatus = attr.Value.AsInt64()
		case "http.path":
			gotPath = attr.Value.AsString()
		}
	}
	if gotStatus != 200 {
		t.Errorf("http.status_code = %d, want 200", gotStatus)
	}
	if gotPath != "/api/tracks/8f2c1a" {
		t.Errorf("http.path = %q, want raw path", gotPath)
	}
}

func TestMiddleware_SetsTraceIDHeader(t *testing.T) {
	setupExporter(t)

	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rr.Header().Get("X-Trace-Id") == "" {
		t.Error("X-Trace-Id header not set")
	}
}

func TestMiddleware_MarksServerErrors(t *testing.T) {
	exporter := setupExporter(t)

	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/playlists", nil))

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	marked := false
	for _, attr := range spans[0].Attributes {
		if attr.Key == "error" && attr.Value.AsBool() {
			marked = true
		}
	}
	if !marked {
		t.Error("5xx response did not mark the span as error")
	}
}
