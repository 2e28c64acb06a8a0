package telemetry_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"

	"loadgate/internal/config"
	"loadgate/internal/telemetry"
)

func TestInitTracerDisabledIsNoop(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := telemetry.InitTracer(config.Telemetry{Traces: false}, &buf, nil)
	if err != nil {
		t.Fatalf("InitTracer returned error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown returned error: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

func TestInitTracerExportsSpans(t *testing.T) {
	previous := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	var buf bytes.Buffer
	shutdown, err := telemetry.InitTracer(config.Telemetry{Traces: true, ServiceName: "loadgate-test"}, &buf, nil)
	if err != nil {
		t.Fatalf("InitTracer returned error: %v", err)
	}

	_, span := otel.Tracer("loadgate/test").Start(context.Background(), "evaluate")
	span.End()

	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown returned error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"Name": "evaluate"`) {
		t.Fatalf("expected span in output, got %q", out)
	}
	if !strings.Contains(out, "loadgate-test") {
		t.Fatalf("expected service name in output, got %q", out)
	}
}
