package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"

	"github.com/platinummonkey/snooze/pkg/contextkeys"
)

// Log output formats
const (
	FormatJSON = "json"
	FormatText = "text"
)

// NewLogger creates a logrus logger writing to output in the given format.
// A nil output writes to stdout.
func NewLogger(level, format string, output io.Writer) (*logrus.Logger, error) {
	if output == nil {
		output = os.Stdout
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	logger := logrus.New()
	logger.SetOutput(output)
	logger.SetLevel(lvl)

	switch strings.ToLower(format) {
	case "", FormatJSON:
		logger.SetFormatter(&logrus.JSONFormatter{})
	case FormatText:
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("invalid log format %q (must be %s or %s)", format, FormatJSON, FormatText)
	}

	return logger, nil
}

// SetLevel changes the level of logger at runtime. Used by the config watcher.
func SetLevel(logger *logrus.Logger, level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if logger.GetLevel() != lvl {
		logger.SetLevel(lvl)
		logger.WithField("level", lvl.String()).Info("log level changed")
	}
	return nil
}

var fallbackLogger = logrus.StandardLogger()

// FromContext returns the request scoped entry stored by the logging
// middleware, enriched with the authenticated user and trace ids when known.
func FromContext(ctx context.Context) *logrus.Entry {
	entry, ok := ctx.Value(contextkeys.LoggerKey).(*logrus.Entry)
	if !ok || entry == nil {
		entry = logrus.NewEntry(fallbackLogger)
		if requestID := contextkeys.GetRequestID(ctx); requestID != "" {
			entry = entry.WithField("request_id", requestID)
		}
	}

	if userID := contextkeys.GetUserID(ctx); userID != "" {
		entry = entry.WithField("user", userID)
	}

	return WithTraceContext(ctx, entry)
}

// WithTraceContext adds trace and span ids to entry when ctx carries a
// recording span.
func WithTraceContext(ctx context.Context, entry *logrus.Entry) *logrus.Entry {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return entry
	}

	spanCtx := span.SpanContext()
	return entry.WithFields(logrus.Fields{
		"trace_id": spanCtx.TraceID().String(),
		"span_id":  spanCtx.SpanID().String(),
	})
}
