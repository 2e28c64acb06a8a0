// Package telemetry wires OpenTelemetry tracing for a single CLI run.
//
// Spans come from the otelhttp transport on the dispatch client and from the
// pipeline stages. With traces disabled nothing is exported.
package telemetry
