package telemetry

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"loadgate/internal/config"
	"loadgate/internal/logging"
)

// ShutdownFunc flushes and stops the tracer provider.
type ShutdownFunc func(context.Context) error

const fallbackServiceName = "loadgate"

func noopShutdown(context.Context) error { return nil }

// InitTracer installs a stdout-exporting tracer provider when traces are
// enabled. When disabled the global no-op provider is left in place and the
// returned shutdown does nothing. A nil writer defaults to stderr.
func InitTracer(cfg config.Telemetry, w io.Writer, logger *slog.Logger) (ShutdownFunc, error) {
	if !cfg.Traces {
		return noopShutdown, nil
	}
	if w == nil {
		w = os.Stderr
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = fallbackServiceName
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			"",
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	logger.Debug("opentelemetry initialized", logging.String("service", serviceName))

	return tp.Shutdown, nil
}
