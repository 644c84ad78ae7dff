// Package telemetry provides observability instrumentation for quicksetup.
//
// It integrates structured logging (zerolog), tracing (OpenTelemetry),
// metrics (Prometheus) and an in-process event publisher.
//
// # Usage
//
//	cfg := telemetry.DefaultConfig()
//	tel, err := telemetry.NewTelemetry(cfg)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
// # Metrics
//
// quicksetup is a short-lived process, so metrics are not served over HTTP.
// When Metrics.TextfilePath is set, Shutdown writes every collected series in
// the node_exporter textfile format:
//
//	quicksetup_commands_executed_total{tag="exec",outcome="ok"} 3
//	quicksetup_includes_total{result="skipped"} 1
//
// # Events
//
// Events are delivered synchronously to subscribers. The CLI subscribes the
// run history recorder so that every command outcome lands in SQLite.
package telemetry
