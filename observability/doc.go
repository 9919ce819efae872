// Package observability wires OpenTelemetry tracing and metrics for
// transcription calls.
//
//	shutdown, err := observability.Setup(ctx, cfg.Observability, "speechkit", version)
//	defer shutdown(context.Background())
//
//	metrics, _ := observability.NewMetrics(observability.Meter("speechkit"))
//	metrics.RecordTranscription(ctx, "whispercli", "ok", elapsed)
//
// Both exporters speak OTLP over HTTP. With neither enabled Setup installs
// nothing and the global no-op providers stay in place.
package observability
