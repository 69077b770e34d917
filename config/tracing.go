package config

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/akeren/waitlist-foundry/internal/log"
	"github.com/akeren/waitlist-foundry/pkg/utils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
)

const defaultOTLPTracesPath = "/v1/traces"

// TracingConfig drives the OTLP/HTTP exporter. Disabled unless OTEL_TRACES_ENABLED is true.
type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Endpoint    string
	Environment string
	SampleRatio float64
}

func NewTracingConfig(appEnv string) *TracingConfig {
	return &TracingConfig{
		Enabled:     utils.IsTracingEnabled(),
		ServiceName: utils.OTelServiceName(),
		Endpoint:    utils.GetEnvTrimmedOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318"),
		Environment: appEnv,
		SampleRatio: parseSampleRatio(utils.GetEnvTrimmed("OTEL_TRACES_SAMPLER_ARG")),
	}
}

// parseSampleRatio clamps to [0,1]; anything unparsable samples everything.
func parseSampleRatio(raw string) float64 {
	if raw == "" {
		return 1
	}

	ratio, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 1
	}

	switch {
	case ratio < 0:
		return 0
	case ratio > 1:
		return 1
	}

	return ratio
}

func (tc *TracingConfig) sampler() trace.Sampler {
	if tc.SampleRatio >= 1 {
		return trace.ParentBased(trace.AlwaysSample())
	}

	return trace.ParentBased(trace.TraceIDRatioBased(tc.SampleRatio))
}

func (tc *TracingConfig) resourceAttributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String("service.name", tc.ServiceName)}

	if tc.Environment != "" {
		attrs = append(attrs, attribute.String("deployment.environment", tc.Environment))
	}

	return attrs
}

// Setup installs the global tracer provider and returns its shutdown hook.
// A nil hook with a nil error means tracing is off.
func (tc *TracingConfig) Setup(ctx context.Context, logger *log.Logger) (func(context.Context) error, error) {
	if !tc.Enabled {
		return nil, nil
	}

	target, err := parseOTLPEndpoint(tc.Endpoint)
	if err != nil {
		return nil, err
	}

	exporter, err := otlptracehttp.New(ctx, target.options()...)
	if err != nil {
		return nil, fmt.Errorf("setup tracing exporter: %w", err)
	}

	res, err := resource.New(ctx, resource.WithAttributes(tc.resourceAttributes()...))
	if err != nil {
		return nil, fmt.Errorf("setup tracing resource: %w", err)
	}

	provider := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(tc.sampler()),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	logger.Info("Tracing exporter installed",
		"service", tc.ServiceName,
		"endpoint", tc.Endpoint,
		"sample_ratio", tc.SampleRatio,
	)

	return provider.Shutdown, nil
}

type otlpTarget struct {
	hostPort string
	path     string
	insecure bool
}

func (t otlpTarget) options() []otlptracehttp.Option {
	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(t.hostPort),
		otlptracehttp.WithURLPath(t.path),
	}

	if t.insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	return opts
}

// parseOTLPEndpoint accepts "http(s)://host:port[/path]" or a bare "host:port".
// Bare endpoints are plain http.
func parseOTLPEndpoint(raw string) (otlpTarget, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return otlpTarget{}, fmt.Errorf("empty OTLP endpoint")
	}

	if !strings.Contains(raw, "://") {
		if strings.ContainsAny(raw, "/?#") {
			return otlpTarget{}, fmt.Errorf("OTLP endpoint %q has a path but no scheme; use http://host:port/path", raw)
		}
		return otlpTarget{hostPort: raw, path: defaultOTLPTracesPath, insecure: true}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return otlpTarget{}, fmt.Errorf("invalid OTLP endpoint %q: %w", raw, err)
	}

	if u.Host == "" {
		return otlpTarget{}, fmt.Errorf("invalid OTLP endpoint %q: missing host", raw)
	}

	var insecure bool
	switch strings.ToLower(u.Scheme) {
	case "http":
		insecure = true
	case "https":
	default:
		return otlpTarget{}, fmt.Errorf("OTLP endpoint %q: scheme %q is not http or https", raw, u.Scheme)
	}

	path := u.EscapedPath()
	if path == "" || path == "/" {
		path = defaultOTLPTracesPath
	}

	return otlpTarget{hostPort: u.Host, path: path, insecure: insecure}, nil
}
