package observability

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/harshag68/AgentDevelopment/internal/logger"
)

// TracerName is the instrumentation scope used by the store.
const TracerName = "github.com/harshag68/AgentDevelopment/internal/store"

// TracingConfig selects a span exporter.
type TracingConfig struct {
	// Exporter is "none" (default) or "stdout". stdout spans go to stderr.
	Exporter    string
	ServiceName string
	Version     string
}

// InitTracing installs a global tracer provider. With the "none" exporter
// the global no-op provider is left in place. The returned function flushes
// and shuts the provider down.
func InitTracing(ctx context.Context, log *logger.Logger, cfg TracingConfig) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	switch strings.ToLower(strings.TrimSpace(cfg.Exporter)) {
	case "", "none":
		return noop, nil
	case "stdout":
	default:
		return noop, fmt.Errorf("observability: unknown tracing exporter %q", cfg.Exporter)
	}

	name := cfg.ServiceName
	if name == "" {
		name = "manuel"
	}
	res, err := resource.New(ctx, resource.WithAttributes(
		attribute.String("service.name", name),
		attribute.String("service.version", cfg.Version),
	))
	if err != nil {
		log.Warn("otel resource init failed (continuing)", "error", err)
		res = resource.Default()
	}
	exp, err := stdouttrace.New(stdouttrace.WithWriter(os.Stderr))
	if err != nil {
		return noop, fmt.Errorf("observability: stdout exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	log.Info("otel tracing initialized", "service", name, "exporter", "stdout")
	return tp.Shutdown, nil
}
