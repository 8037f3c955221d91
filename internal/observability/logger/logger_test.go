package logger

import (
	"context"
	"testing"

	obscontext "github.com/smallbiznis/apotek/internal/observability/context"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithContextAddsRequestFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core)

	ctx := obscontext.WithRequestID(context.Background(), "req-1")
	ctx = obscontext.WithActingUser(ctx, "cashier")

	WithContext(ctx, base).Info("hello")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "cashier", fields["acting_user"])
	_, hasTrace := fields["trace_id"]
	assert.False(t, hasTrace)
}

func TestOperationFromSQL(t *testing.T) {
	assert.Equal(t, "UPDATE", operationFromSQL(`UPDATE "medicines" SET quantity = 3`))
	assert.Equal(t, "SELECT", operationFromSQL("with x as (select 1) select * from x"))
	assert.Equal(t, "UNKNOWN", operationFromSQL(""))
}

func TestNormalizeFormat(t *testing.T) {
	assert.Equal(t, "console", normalizeFormat(" Console "))
	assert.Equal(t, "json", normalizeFormat("logfmt"))
}
