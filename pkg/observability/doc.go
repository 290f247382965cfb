// Package observability provides structured logging, Prometheus metrics,
// OpenTelemetry tracing, health probes and graceful shutdown.
//
// # Structured Logging
//
// Loggers are logrus loggers configured from the observability config:
//
//	logger, err := observability.NewLogger("info", observability.FormatJSON, os.Stdout)
//	logger.WithField("port", 8000).Info("server started")
//
// Handlers retrieve the request scoped entry installed by
// httputil.LoggingMiddleware:
//
//	observability.FromContext(r.Context()).WithError(err).Error("create story failed")
//
// # Prometheus Metrics
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	router.Use(observability.HTTPMetricsMiddleware(metrics))
//	metrics.RecordAuth(observability.AuthResultMismatch)
//
// # Health Checks
//
//	checker := observability.NewHealthChecker(db, redisClient, version)
//	observability.RegisterHealthRoutes(healthMux, checker)
//
// # OpenTelemetry
//
//	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
//		Enabled:     true,
//		Endpoint:    "otel-collector:4317",
//		ServiceName: "snooze-api",
//	}, logger)
//	handler = observability.TraceHandler(router, "snooze-api")
//
// # Related Packages
//
//   - pkg/config: Observability configuration
//   - pkg/httputil: Request logging middleware
package observability
