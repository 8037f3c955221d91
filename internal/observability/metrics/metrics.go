package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes the stock engine instruments. A nil *Metrics records
// nothing, so services may run without one in tests.
type Metrics struct {
	salesCreated      metric.Int64Counter
	returnsCreated    metric.Int64Counter
	stockAdjustments  metric.Int64Counter
	ledgerConflicts   metric.Int64Counter
	activityPublished metric.Int64Counter
	activityWritten   metric.Int64Counter
	activityDropped   metric.Int64Counter
	lowStockScans     metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				log.Info("shutting down meter provider")
				return provider.Shutdown(ctx)
			},
		})
	}

	log.Info("metrics initialized",
		zap.String("endpoint", cfg.ExporterEndpoint),
		zap.String("protocol", cfg.ExporterProtocol),
	)

	return provider, nil
}

// New registers the domain instruments on the provider's meter.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "apotek"
	}
	meter := provider.Meter(name)

	m := &Metrics{}
	counters := []struct {
		name string
		dst  *metric.Int64Counter
	}{
		{"apotek_sales_created_total", &m.salesCreated},
		{"apotek_returns_created_total", &m.returnsCreated},
		{"apotek_stock_adjustments_total", &m.stockAdjustments},
		{"apotek_stock_conflicts_total", &m.ledgerConflicts},
		{"apotek_activity_published_total", &m.activityPublished},
		{"apotek_activity_written_total", &m.activityWritten},
		{"apotek_activity_dropped_total", &m.activityDropped},
		{"apotek_low_stock_scans_total", &m.lowStockScans},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name)
		if err != nil {
			return nil, fmt.Errorf("register %s: %w", c.name, err)
		}
		*c.dst = counter
	}

	return m, nil
}

func (m *Metrics) RecordSaleCreated(ctx context.Context, lines int) {
	if m == nil {
		return
	}
	m.salesCreated.Add(ctx, 1)
	m.stockAdjustments.Add(ctx, int64(lines), metric.WithAttributes(attribute.String("source_type", "sale")))
}

func (m *Metrics) RecordReturnCreated(ctx context.Context) {
	if m == nil {
		return
	}
	m.returnsCreated.Add(ctx, 1)
	m.stockAdjustments.Add(ctx, 1, metric.WithAttributes(attribute.String("source_type", "return")))
}

// RecordStockAdjustment counts adjustments not tied to a sale or return.
func (m *Metrics) RecordStockAdjustment(ctx context.Context, sourceType string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("source_type", strings.TrimSpace(sourceType)))
	m.stockAdjustments.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordConflict(ctx context.Context, operation string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("operation", strings.TrimSpace(operation)))
	m.ledgerConflicts.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordActivityPublished(ctx context.Context) {
	if m == nil {
		return
	}
	m.activityPublished.Add(ctx, 1)
}

func (m *Metrics) RecordActivityWritten(ctx context.Context) {
	if m == nil {
		return
	}
	m.activityWritten.Add(ctx, 1)
}

func (m *Metrics) RecordActivityDropped(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("reason", strings.TrimSpace(reason)))
	m.activityDropped.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordLowStockScan(ctx context.Context, found int) {
	if m == nil {
		return
	}
	outcome := "clear"
	if found > 0 {
		outcome = "low_stock"
	}
	m.lowStockScans.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"source_type": {},
	"operation":   {},
	"reason":      {},
	"outcome":     {},
	"job":         {},
}

// FilterAttributes strips labels outside the allow list. Medicine, sale
// and user identifiers never become metric labels.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
