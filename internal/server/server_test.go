package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	adjustmentservice "github.com/smallbiznis/apotek/internal/adjustment/service"
	"github.com/smallbiznis/apotek/internal/apperror"
	auditrepository "github.com/smallbiznis/apotek/internal/audit/repository"
	auditservice "github.com/smallbiznis/apotek/internal/audit/service"
	"github.com/smallbiznis/apotek/internal/clock"
	"github.com/smallbiznis/apotek/internal/config"
	"github.com/smallbiznis/apotek/internal/dbtest"
	directoryrepository "github.com/smallbiznis/apotek/internal/directory/repository"
	directoryservice "github.com/smallbiznis/apotek/internal/directory/service"
	inventoryrepository "github.com/smallbiznis/apotek/internal/inventory/repository"
	inventoryservice "github.com/smallbiznis/apotek/internal/inventory/service"
	obslogger "github.com/smallbiznis/apotek/internal/observability/logger"
	refundrepository "github.com/smallbiznis/apotek/internal/refund/repository"
	refundservice "github.com/smallbiznis/apotek/internal/refund/service"
	reportrepository "github.com/smallbiznis/apotek/internal/report/repository"
	reportservice "github.com/smallbiznis/apotek/internal/report/service"
	salerepository "github.com/smallbiznis/apotek/internal/sale/repository"
	saleservice "github.com/smallbiznis/apotek/internal/sale/service"
	settingsrepository "github.com/smallbiznis/apotek/internal/settings/repository"
	settingsservice "github.com/smallbiznis/apotek/internal/settings/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	engine    *gin.Engine
	publisher *dbtest.Publisher
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	conn := dbtest.Open(t)
	log := zap.NewNop()
	clk := clock.NewFakeClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	publisher := &dbtest.Publisher{}
	auditRepo := auditrepository.Provide()
	recorder := auditservice.NewRecorder(auditservice.RecorderParams{
		Log: log, GenID: node, Clock: clk, Repo: auditRepo, Publisher: publisher,
	})
	directory := directoryservice.NewService(directoryservice.Params{
		DB: conn, Log: log, Clock: clk, Repo: directoryrepository.Provide(), Recorder: recorder,
	})

	defaults := config.DefaultStoreDefaults()
	defaults.TaxRate = decimal.NewFromInt(10)
	settings := settingsservice.NewService(settingsservice.Params{
		DB: conn, Log: log, Clock: clk, Repo: settingsrepository.Provide(),
		Defaults: config.NewStaticStoreDefaultsHolder(defaults), Recorder: recorder,
	})

	medicines := inventoryrepository.Provide()
	ledger := inventoryservice.NewLedger(inventoryservice.LedgerParams{Clock: clk, Repo: medicines})
	inventory := inventoryservice.NewService(inventoryservice.Params{
		DB: conn, Log: log, Clock: clk, Repo: medicines, Ledger: ledger, Recorder: recorder, Directory: directory,
	})

	sales := salerepository.Provide()
	sale := saleservice.NewService(saleservice.Params{
		DB: conn, Log: log, Clock: clk, Repo: sales, Ledger: ledger,
		Recorder: recorder, Settings: settings, Directory: directory,
	})
	refund := refundservice.NewService(refundservice.Params{
		DB: conn, Log: log, Clock: clk, Repo: refundrepository.Provide(), Sales: sales,
		Ledger: ledger, Recorder: recorder, Directory: directory,
	})
	adjustment := adjustmentservice.NewService(adjustmentservice.Params{
		DB: conn, Log: log, Clock: clk, Medicines: medicines, Ledger: ledger,
		Recorder: recorder, Directory: directory,
	})
	report := reportservice.NewService(reportservice.Params{
		DB: conn, Clock: clk, Repo: reportrepository.Provide(), Medicines: medicines, Sales: sale,
	})
	audit := auditservice.NewService(auditservice.Params{DB: conn, Log: log, Repo: auditRepo})

	srv := NewServer(ServerParams{
		Gin:           NewEngine(),
		SaleSvc:       sale,
		RefundSvc:     refund,
		InventorySvc:  inventory,
		AdjustmentSvc: adjustment,
		AuditSvc:      audit,
		DirectorySvc:  directory,
		SettingsSvc:   settings,
		ReportSvc:     report,
	})

	return &testServer{engine: srv.Engine(), publisher: publisher}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(obslogger.ActingUserHeader, "alice")
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type idEnvelope struct {
	Data struct {
		ID int64 `json:"id"`
	} `json:"data"`
}

type errorEnvelope struct {
	Error struct {
		Type      string         `json:"type"`
		Retryable bool           `json:"retryable"`
		Details   map[string]any `json:"details"`
		Errors    []struct {
			Field string `json:"field"`
		} `json:"errors"`
	} `json:"error"`
}

func (s *testServer) createMedicine(t *testing.T, quantity, minimum int, price string) int64 {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/v1/medicines", map[string]any{
		"name":          "Paracetamol 500mg",
		"quantity":      quantity,
		"minimum_stock": minimum,
		"unit_price":    price,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[idEnvelope](t, rec).Data.ID
}

func TestSaleReturnFlow(t *testing.T) {
	s := newTestServer(t)
	medicineID := s.createMedicine(t, 10, 5, "2.00")

	rec := s.do(t, http.MethodPost, "/v1/sales", map[string]any{
		"items": []map[string]any{{"medicine_id": medicineID, "quantity": 7, "unit_price": "2.00"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[struct {
		Data struct {
			SaleID   int64           `json:"sale_id"`
			Subtotal decimal.Decimal `json:"subtotal"`
			Tax      decimal.Decimal `json:"tax"`
			Total    decimal.Decimal `json:"total"`
		} `json:"data"`
	}](t, rec)
	assert.True(t, created.Data.Subtotal.Equal(decimal.RequireFromString("14.00")))
	assert.True(t, created.Data.Tax.Equal(decimal.RequireFromString("1.40")))
	assert.True(t, created.Data.Total.Equal(decimal.RequireFromString("15.40")))

	rec = s.do(t, http.MethodGet, "/v1/sales/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sale := decode[struct {
		Data struct {
			CreatedBy string `json:"created_by"`
			Items     []struct {
				Quantity int `json:"quantity"`
			} `json:"items"`
		} `json:"data"`
	}](t, rec)
	assert.Equal(t, "alice", sale.Data.CreatedBy)
	require.Len(t, sale.Data.Items, 1)
	assert.Equal(t, 7, sale.Data.Items[0].Quantity)

	rec = s.do(t, http.MethodPost, "/v1/sales", map[string]any{
		"items": []map[string]any{{"medicine_id": medicineID, "quantity": 4, "unit_price": "2.00"}},
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	oversell := decode[errorEnvelope](t, rec)
	assert.Equal(t, "insufficient_stock", oversell.Error.Type)
	assert.EqualValues(t, 3, oversell.Error.Details["available"])
	assert.EqualValues(t, 4, oversell.Error.Details["requested"])

	rec = s.do(t, http.MethodPost, "/v1/returns", map[string]any{
		"medicine_id": medicineID, "quantity": 2, "sale_id": created.Data.SaleID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	refund := decode[struct {
		Data struct {
			RefundAmount decimal.Decimal `json:"refund_amount"`
		} `json:"data"`
	}](t, rec)
	assert.True(t, refund.Data.RefundAmount.Equal(decimal.RequireFromString("4.00")))

	rec = s.do(t, http.MethodPost, "/v1/returns", map[string]any{
		"medicine_id": medicineID, "quantity": 6, "sale_id": created.Data.SaleID,
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	exceeded := decode[errorEnvelope](t, rec)
	assert.Equal(t, "return_exceeds_sale", exceeded.Error.Type)
	assert.EqualValues(t, 5, exceeded.Error.Details["remaining"])

	rec = s.do(t, http.MethodGet, "/v1/medicines/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	medicine := decode[struct {
		Data struct {
			Quantity int    `json:"quantity"`
			Status   string `json:"status"`
		} `json:"data"`
	}](t, rec)
	assert.Equal(t, 5, medicine.Data.Quantity)
	assert.Equal(t, "ok", medicine.Data.Status)

	rec = s.do(t, http.MethodGet, "/v1/stock-adjustments?medicine_id=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	adjustments := decode[struct {
		Data struct {
			Adjustments []struct {
				Reason string `json:"reason"`
			} `json:"adjustments"`
		} `json:"data"`
	}](t, rec)
	assert.Len(t, adjustments.Data.Adjustments, 3)

	assert.Contains(t, s.publisher.Actions(), "Sale 1 created: 15.40")
}

func TestStockRoutes(t *testing.T) {
	s := newTestServer(t)
	medicineID := s.createMedicine(t, 10, 5, "2.00")
	path := "/v1/medicines/1"

	rec := s.do(t, http.MethodPost, path+"/stock", map[string]any{"new_quantity": 4})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, path+"/movements", map[string]any{"direction": "in", "quantity": 6})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, path+"/movements", map[string]any{"direction": "out", "quantity": 11})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPatch, path, map[string]any{"name": "Paracetamol 650mg", "quantity": 12})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	edited := decode[struct {
		Data struct {
			ID       int64  `json:"id"`
			Name     string `json:"name"`
			Quantity int    `json:"quantity"`
		} `json:"data"`
		Changed bool `json:"changed"`
	}](t, rec)
	assert.Equal(t, medicineID, edited.Data.ID)
	assert.Equal(t, "Paracetamol 650mg", edited.Data.Name)
	assert.Equal(t, 12, edited.Data.Quantity)
	assert.True(t, edited.Changed)

	rec = s.do(t, http.MethodGet, "/v1/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	dashboard := decode[struct {
		Data struct {
			TotalMedicines int64 `json:"total_medicines"`
			LowStockCount  int64 `json:"low_stock_count"`
		} `json:"data"`
	}](t, rec)
	assert.Equal(t, int64(1), dashboard.Data.TotalMedicines)
	assert.Equal(t, int64(0), dashboard.Data.LowStockCount)
}

func TestSettingsAndDirectoryRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPut, "/v1/settings", map[string]any{
		"pharmacy_name": "Corner Pharmacy", "tax_rate": "7.5", "currency": "idr",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/v1/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	settings := decode[struct {
		Data struct {
			Currency string          `json:"currency"`
			TaxRate  decimal.Decimal `json:"tax_rate"`
		} `json:"data"`
	}](t, rec)
	assert.Equal(t, "IDR", settings.Data.Currency)
	assert.True(t, settings.Data.TaxRate.Equal(decimal.RequireFromString("7.5")))

	rec = s.do(t, http.MethodPost, "/v1/suppliers", map[string]any{"name": "Kimia Farma"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPut, "/v1/suppliers/1/active", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPut, "/v1/suppliers/1/active", map[string]any{"active": false})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/v1/customers", map[string]any{
		"name": "Budi", "phone": "081234567890", "email": "budi@example.com",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/v1/customers?q=budi", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	customers := decode[struct {
		Data struct {
			Customers []struct {
				Name string `json:"name"`
			} `json:"customers"`
		} `json:"data"`
	}](t, rec)
	require.Len(t, customers.Data.Customers, 1)
	assert.Equal(t, "Budi", customers.Data.Customers[0].Name)
}

func TestDirectoryUpdateAndReportRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/v1/customers", map[string]any{
		"name": "Budi", "phone": "081234567890", "email": "budi@example.com",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPatch, "/v1/customers/1", map[string]any{"email": "budi@apotek.id"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	customer := decode[struct {
		Data struct {
			Email string `json:"email"`
		} `json:"data"`
		Changed bool `json:"changed"`
	}](t, rec)
	assert.True(t, customer.Changed)
	assert.Equal(t, "budi@apotek.id", customer.Data.Email)

	rec = s.do(t, http.MethodPost, "/v1/suppliers", map[string]any{"name": "Andi"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = s.do(t, http.MethodPatch, "/v1/suppliers/1", map[string]any{"company": "Kimia Farma", "active": false})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	supplier := decode[struct {
		Data struct {
			Company string `json:"company"`
			Active  bool   `json:"active"`
		} `json:"data"`
	}](t, rec)
	assert.Equal(t, "Kimia Farma", supplier.Data.Company)
	assert.False(t, supplier.Data.Active)

	medicineID := s.createMedicine(t, 10, 5, "2.00")
	rec = s.do(t, http.MethodPost, "/v1/sales", map[string]any{
		"customer_id": 1,
		"items":       []any{map[string]any{"medicine_id": medicineID, "quantity": 7, "unit_price": "2.00"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/v1/reports/sales?period=week", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sales := decode[struct {
		Data struct {
			Period       string          `json:"period"`
			TotalSales   int64           `json:"total_sales"`
			TotalRevenue decimal.Decimal `json:"total_revenue"`
			Recent       []struct {
				CustomerName string `json:"customer_name"`
			} `json:"recent"`
		} `json:"data"`
	}](t, rec)
	assert.Equal(t, "week", sales.Data.Period)
	assert.Equal(t, int64(1), sales.Data.TotalSales)
	assert.Equal(t, "15.40", sales.Data.TotalRevenue.StringFixed(2))
	require.Len(t, sales.Data.Recent, 1)
	assert.Equal(t, "Budi", sales.Data.Recent[0].CustomerName)

	rec = s.do(t, http.MethodGet, "/v1/reports/stock", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	stock := decode[struct {
		Data struct {
			TotalValue    decimal.Decimal `json:"total_value"`
			LowStockCount int64           `json:"low_stock_count"`
		} `json:"data"`
	}](t, rec)
	assert.Equal(t, "6.00", stock.Data.TotalValue.StringFixed(2))
	assert.Equal(t, int64(1), stock.Data.LowStockCount)

	rec = s.do(t, http.MethodGet, "/v1/reports/customers", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	customers := decode[struct {
		Data struct {
			TotalSpending decimal.Decimal `json:"total_spending"`
			TopCustomers  []struct {
				Name string `json:"name"`
			} `json:"top_customers"`
		} `json:"data"`
	}](t, rec)
	assert.Equal(t, "15.40", customers.Data.TotalSpending.StringFixed(2))
	require.Len(t, customers.Data.TopCustomers, 1)
	assert.Equal(t, "Budi", customers.Data.TopCustomers[0].Name)

	assert.Contains(t, s.publisher.Actions(), "Customer 1 updated: Budi")
	assert.Contains(t, s.publisher.Actions(), "Supplier 1 updated: Andi")
}

func TestRequestErrors(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		kind   string
	}{
		{"unknown medicine", http.MethodGet, "/v1/medicines/99", nil, http.StatusNotFound, "not_found"},
		{"bad id", http.MethodGet, "/v1/sales/abc", nil, http.StatusBadRequest, "validation_error"},
		{"malformed body", http.MethodPost, "/v1/sales", "{", http.StatusBadRequest, "validation_error"},
		{"empty cart", http.MethodPost, "/v1/sales", map[string]any{"items": []any{}}, http.StatusBadRequest, "invalid_quantity"},
		{"zero return", http.MethodPost, "/v1/returns", map[string]any{"medicine_id": 1, "quantity": 0}, http.StatusBadRequest, "invalid_quantity"},
		{"sub-cent price", http.MethodPost, "/v1/medicines", map[string]any{"name": "A", "unit_price": "0.335"}, http.StatusBadRequest, "invalid_input"},
		{"unknown period", http.MethodGet, "/v1/reports/sales?period=year", nil, http.StatusBadRequest, "invalid_input"},
		{"unknown customer update", http.MethodPatch, "/v1/customers/9", map[string]any{"name": "X"}, http.StatusNotFound, "not_found"},
		{"unknown route", http.MethodGet, "/v1/nothing", nil, http.StatusNotFound, "not_found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.do(t, tc.method, tc.path, tc.body)
			require.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.Equal(t, tc.kind, decode[errorEnvelope](t, rec).Error.Type)
		})
	}
}

func TestMapError(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		status    int
		retryable bool
	}{
		{"conflict", apperror.Conflict("medicine", 1), http.StatusConflict, true},
		{"timeout", &apperror.StoreError{Kind: apperror.KindTimeout, Op: "create sale", Err: context.DeadlineExceeded}, http.StatusGatewayTimeout, true},
		{"unavailable", &apperror.StoreError{Kind: apperror.KindStoreUnavailable, Op: "create sale", Err: errors.New("dial tcp")}, http.StatusServiceUnavailable, false},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, payload := mapError(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.retryable, payload.Retryable)
		})
	}
}

func TestClassifyErrorForLog(t *testing.T) {
	errorType, code := classifyErrorForLog(&apperror.InsufficientStockError{MedicineID: 1, Available: 3, Requested: 4})
	assert.Equal(t, "business_error", errorType)
	assert.Equal(t, "insufficient_stock", code)

	errorType, _ = classifyErrorForLog(errors.New("boom"))
	assert.Equal(t, "internal_error", errorType)
}
