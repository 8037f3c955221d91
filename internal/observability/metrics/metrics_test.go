package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("medicine_id", "42"),
		attribute.String("source_type", "sale"),
		attribute.String("user", "alice"),
	)
	if len(attrs) != 1 {
		t.Fatalf("expected 1 attribute, got %d", len(attrs))
	}
	if attrs[0].Key != "source_type" {
		t.Fatalf("expected source_type to be retained, got %s", attrs[0].Key)
	}
}

func TestDomainCounters(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := New(Config{ServiceName: "apotek-test"}, provider)
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordSaleCreated(ctx, 2)
	m.RecordReturnCreated(ctx)
	m.RecordActivityDropped(ctx, "queue_full")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	totals := map[string]int64{}
	for _, scope := range rm.ScopeMetrics {
		for _, mm := range scope.Metrics {
			sum, ok := mm.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				totals[mm.Name] += dp.Value
			}
		}
	}

	assert.Equal(t, int64(1), totals["apotek_sales_created_total"])
	assert.Equal(t, int64(1), totals["apotek_returns_created_total"])
	assert.Equal(t, int64(3), totals["apotek_stock_adjustments_total"])
	assert.Equal(t, int64(1), totals["apotek_activity_dropped_total"])
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordSaleCreated(context.Background(), 1)
	m.RecordConflict(context.Background(), "sale")
}

func TestJobMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewJobMetrics(registry)

	m.IncRun("low_stock_scan")
	m.IncRun("low_stock_scan")
	m.IncError("low_stock_scan", context.DeadlineExceeded)
	m.IncError("low_stock_scan", errors.New("boom"))

	assert.Equal(t, float64(2), testutil.ToFloat64(m.runs.WithLabelValues("low_stock_scan")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.errors.WithLabelValues("low_stock_scan", JobErrorTypeDeadlineExceeded)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.errors.WithLabelValues("low_stock_scan", JobErrorTypeUnknown)))

	again := NewJobMetrics(registry)
	again.IncRun("low_stock_scan")
	assert.Equal(t, float64(3), testutil.ToFloat64(m.runs.WithLabelValues("low_stock_scan")))
}
