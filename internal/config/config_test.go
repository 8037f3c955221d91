package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ACTIVITY_QUEUE", "REDIS")
	t.Setenv("DATABASE_MAX_OPEN_CONN", "not-a-number")
	t.Setenv("LOW_STOCK_SCAN_ENABLED", "off")
	t.Setenv("NODE_ID", "3")

	cfg := Load()

	assert.Equal(t, ActivityQueueRedis, cfg.Activity.Queue)
	assert.Equal(t, 20, cfg.DBMaxOpenConn)
	assert.False(t, cfg.LowStockScanEnabled)
	assert.True(t, cfg.MigrateOnStart)
	assert.Equal(t, int64(3), cfg.NodeID)
}

func TestNormalizeQueue(t *testing.T) {
	assert.Equal(t, ActivityQueueMemory, normalizeQueue(""))
	assert.Equal(t, ActivityQueueMemory, normalizeQueue("kafka"))
	assert.Equal(t, ActivityQueueRedis, normalizeQueue(" redis "))
}

func TestValidateStoreDefaults(t *testing.T) {
	cfg := DefaultStoreDefaults()
	assert.NoError(t, validateStoreDefaults(cfg))

	cfg.TaxRate = decimal.NewFromInt(101)
	assert.Error(t, validateStoreDefaults(cfg))

	cfg = DefaultStoreDefaults()
	cfg.Currency = " "
	assert.Error(t, validateStoreDefaults(cfg))
}

func TestStaticStoreDefaultsHolder(t *testing.T) {
	defaults := DefaultStoreDefaults()
	defaults.TaxRate = decimal.RequireFromString("7.5")

	holder := NewStaticStoreDefaultsHolder(defaults)

	got := holder.Get()
	assert.Equal(t, "City Pharmacy", got.PharmacyName)
	assert.True(t, got.TaxRate.Equal(decimal.RequireFromString("7.5")))
}
