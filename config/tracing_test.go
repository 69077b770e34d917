package config

import (
	"context"
	"testing"

	"github.com/akeren/waitlist-foundry/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOTLPEndpoint(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    otlpTarget
		wantErr bool
	}{
		{name: "http default path", raw: "http://collector:4318", want: otlpTarget{hostPort: "collector:4318", path: "/v1/traces", insecure: true}},
		{name: "https custom path", raw: "https://otel.example.com/ingest/traces", want: otlpTarget{hostPort: "otel.example.com", path: "/ingest/traces"}},
		{name: "bare host port", raw: " collector:4318 ", want: otlpTarget{hostPort: "collector:4318", path: "/v1/traces", insecure: true}},
		{name: "bare with path", raw: "collector:4318/v1/traces", wantErr: true},
		{name: "grpc scheme", raw: "grpc://collector:4317", wantErr: true},
		{name: "missing host", raw: "http:///v1/traces", wantErr: true},
		{name: "empty", raw: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseOTLPEndpoint(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSampleRatio(t *testing.T) {
	assert.Equal(t, 1.0, parseSampleRatio(""))
	assert.Equal(t, 1.0, parseSampleRatio("half"))
	assert.Equal(t, 0.25, parseSampleRatio("0.25"))
	assert.Equal(t, 0.0, parseSampleRatio("-2"))
	assert.Equal(t, 1.0, parseSampleRatio("7"))
}

func TestNewTracingConfig_FromEnvironment(t *testing.T) {
	t.Setenv("OTEL_TRACES_ENABLED", "true")
	t.Setenv("OTEL_SERVICE_NAME", "waitlist-api")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.5")

	tc := NewTracingConfig("staging")

	assert.True(t, tc.Enabled)
	assert.Equal(t, "waitlist-api", tc.ServiceName)
	assert.Equal(t, 0.5, tc.SampleRatio)
	assert.Len(t, tc.resourceAttributes(), 2)
}

func TestTracingConfig_SetupDisabledIsNoop(t *testing.T) {
	tc := &TracingConfig{Enabled: false, Endpoint: "not a url"}

	shutdown, err := tc.Setup(context.Background(), log.NewLoggerWithJSONOutput())

	assert.NoError(t, err)
	assert.Nil(t, shutdown)
}
