package observability

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const serviceName = "qacoverage-api-server"

// Setup configures slog and tracing. Without an OTLP endpoint it installs a
// plain text handler and tracing stays off. The returned function flushes and
// shuts down the providers.
func Setup(ctx context.Context, otlpEndpoint string) (func(context.Context) error, error) {
	if otlpEndpoint == "" {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
		return func(context.Context) error { return nil }, nil
	}

	logExporter, err := otlploghttp.New(ctx, otlploghttp.WithEndpoint(otlpEndpoint), otlploghttp.WithInsecure())
	if err != nil {
		return nil, fmt.Errorf("creating OTLP log exporter: %w", err)
	}
	loggerProvider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
	)
	slog.SetDefault(otelslog.NewLogger(serviceName, otelslog.WithLoggerProvider(loggerProvider)))

	traceExporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(otlpEndpoint), otlptracehttp.WithInsecure())
	if err != nil {
		return nil, fmt.Errorf("creating OTLP trace exporter: %w", err)
	}
	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
	)
	otel.SetTracerProvider(tracerProvider)

	return func(shutdownCtx context.Context) error {
		tErr := tracerProvider.Shutdown(shutdownCtx)
		lErr := loggerProvider.Shutdown(shutdownCtx)
		if tErr != nil {
			return tErr
		}
		return lErr
	}, nil
}
