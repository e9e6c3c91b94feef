// Package telemetry provides OpenTelemetry instrumentation for boardd.
//
// # Overview
//
// This package implements distributed tracing and metrics collection using the
// OpenTelemetry Go SDK. It exports telemetry data over OTLP to a collector;
// both gRPC and http/protobuf transports are supported.
//
// # Usage
//
// Create a telemetry instance from the application config:
//
//	tel, err := telemetry.New(ctx, telemetry.FromConfig(cfg.Observability))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tel.Shutdown(ctx)
//
// New also installs the providers globally, so instrumented packages that
// resolve tracers and meters through the otel globals pick them up without
// being handed a handle.
//
// # Configuration
//
//	observability:
//	  enable_telemetry: true
//	  service_name: "boardd"
//	  otlp_endpoint: "localhost:4317"
//
// # Error Handling
//
// Telemetry failures do not crash the application. If a provider cannot be
// initialized the instance degrades gracefully and the affected signal falls
// back to no-op; Health reports the reason.
//
// # Testing
//
// Use TestTelemetry for in-memory span and metric capture:
//
//	tt := telemetry.NewTestTelemetry()
//	tracer := tt.Tracer("test")
//	_, span := tracer.Start(ctx, "board.render")
//	span.End()
//	tt.AssertSpanExists(t, "board.render")
package telemetry
