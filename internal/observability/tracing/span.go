package tracing

import (
	"context"
	"errors"

	"github.com/smallbiznis/apotek/internal/apperror"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const instrumentation = "github.com/smallbiznis/apotek"

// Start opens an internal span named after the operation.
func Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(instrumentation).Start(ctx, name, trace.WithAttributes(attrs...))
}

// End closes span, marking it failed for infrastructure errors only.
// Business rejections such as insufficient stock keep an ok status and
// carry their kind as an attribute.
func End(span trace.Span, err error) {
	if err != nil {
		kind := apperror.KindOf(err)
		span.SetAttributes(attribute.String("error.kind", string(kind)))
		if kind == apperror.KindStoreUnavailable || kind == apperror.KindTimeout || kind == apperror.KindUnknown {
			span.RecordError(SafeError(err))
			span.SetStatus(codes.Error, string(kind))
		}
	}
	span.End()
}

// ExtractContext reads W3C trace headers from an inbound carrier.
func ExtractContext(ctx context.Context, carrier propagation.TextMapCarrier) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}

// SafeError strips the error chain down to its kind so SQL text and
// bound values stay out of exported spans.
func SafeError(err error) error {
	if err == nil {
		return nil
	}
	return errors.New(string(apperror.KindOf(err)))
}
