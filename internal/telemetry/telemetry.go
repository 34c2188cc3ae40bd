package telemetry

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/akylbek/coworking-payments"

// Logger is replaced by InitTelemetry; until then it discards everything.
var Logger = zap.NewNop()

var tracerProvider *sdktrace.TracerProvider

// InitTelemetry sets up the zap logger and the OTel tracer provider. Spans
// are exported over OTLP/HTTP only when otlpEndpoint is set.
func InitTelemetry(serviceName string, production bool, otlpEndpoint string) error {
	var err error
	if production {
		Logger, err = zap.NewProduction()
	} else {
		Logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	Logger = Logger.With(zap.String("service", serviceName))

	res := resource.NewSchemaless(attribute.String("service.name", serviceName))
	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}

	if otlpEndpoint != "" {
		exporterOpts, err := exporterOptions(otlpEndpoint)
		if err != nil {
			return err
		}
		exporter, err := otlptracehttp.New(context.Background(), exporterOpts...)
		if err != nil {
			return fmt.Errorf("failed to create trace exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	tracerProvider = sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return nil
}

// exporterOptions maps a collector base URL such as http://jaeger:4318 onto
// the exporter, appending the traces path.
func exporterOptions(endpoint string) ([]otlptracehttp.Option, error) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid OTLP endpoint %q", endpoint)
	}

	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(u.Host),
		otlptracehttp.WithURLPath(strings.TrimRight(u.Path, "/") + "/v1/traces"),
	}
	if u.Scheme == "http" {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return opts, nil
}

func Shutdown(ctx context.Context) {
	if tracerProvider != nil {
		if err := tracerProvider.Shutdown(ctx); err != nil {
			Logger.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	_ = Logger.Sync()
}

func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// TraceID returns the active trace id or an empty string.
func TraceID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

// TracingMiddleware starts a server span per request, continuing any
// incoming W3C trace context.
func TracingMiddleware() gin.HandlerFunc {
	tracer := Tracer()
	return func(c *gin.Context) {
		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		ctx, span := tracer.Start(ctx, c.Request.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Request.Method),
				attribute.String("http.route", route),
			),
		)
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.status_code", status))
		if status >= 500 {
			span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", status))
		}
	}
}
