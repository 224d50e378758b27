// Package observability provides structured logging, Prometheus metrics,
// and health probes for the identity bridge.
//
// Logging uses stdlib slog with a JSON handler:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("component", "idp").Info("admin token acquired")
//
// Metrics are registered on a dedicated registry and exposed via the
// /metrics endpoint:
//
//	metrics := observability.NewMetrics(prometheus.NewRegistry())
//	handler := metrics.InstrumentHandler(router)
package observability
