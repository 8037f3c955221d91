package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitCarriesSharedFields(t *testing.T) {
	out := split(Config{
		ServiceName:          "apotek",
		Environment:          "development",
		Version:              "1.2.0",
		LogLevel:             "info",
		LogFormat:            "json",
		OtelEnabled:          true,
		OtelExporterEndpoint: "collector:4317",
		OtelExporterProtocol: "grpc",
		OtelSamplingRatio:    0.5,
	})

	assert.Equal(t, "apotek", out.Logger.ServiceName)
	assert.True(t, out.Logger.IncludeStackOnError)
	assert.Equal(t, "1.2.0", out.Tracing.ServiceVersion)
	assert.Equal(t, 0.5, out.Tracing.SamplingRatio)
	assert.True(t, out.Metrics.Enabled)
	assert.Equal(t, "collector:4317", out.Metrics.ExporterEndpoint)
}
