package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/apotek/internal/apperror"
	auditrepository "github.com/smallbiznis/apotek/internal/audit/repository"
	auditservice "github.com/smallbiznis/apotek/internal/audit/service"
	"github.com/smallbiznis/apotek/internal/clock"
	"github.com/smallbiznis/apotek/internal/dbtest"
	"github.com/smallbiznis/apotek/internal/directory/domain"
	"github.com/smallbiznis/apotek/internal/directory/repository"
	"github.com/smallbiznis/apotek/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (domain.Service, *gorm.DB, *dbtest.Publisher) {
	t.Helper()

	conn := dbtest.Open(t)
	clk := clock.NewFakeClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	publisher := &dbtest.Publisher{}
	recorder := auditservice.NewRecorder(auditservice.RecorderParams{
		Log:       zap.NewNop(),
		GenID:     node,
		Clock:     clk,
		Repo:      auditrepository.Provide(),
		Publisher: publisher,
	})
	svc := NewService(Params{
		DB:       conn,
		Log:      zap.NewNop(),
		Clock:    clk,
		Repo:     repository.Provide(),
		Recorder: recorder,
	})
	return svc, conn, publisher
}

func TestCreateCustomer(t *testing.T) {
	svc, conn, publisher := newTestService(t)
	ctx := context.Background()

	customer, err := svc.CreateCustomer(ctx, domain.CreateCustomerRequest{
		Name:  "  Budi Santoso ",
		Phone: "081234567890",
		Email: "budi@example.com",
		User:  "cashier",
	})
	require.NoError(t, err)
	assert.Equal(t, "Budi Santoso", customer.Name)

	got, err := svc.GetCustomer(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, customer.ID, got.ID)
	require.NoError(t, svc.EnsureCustomer(ctx, conn, customer.ID))

	events := publisher.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "Customer 1 added: Budi Santoso", events[0].Action)
	assert.Equal(t, "****7890", events[0].Metadata["phone"])
	assert.Equal(t, "****.com", events[0].Metadata["email"])
}

func TestCreateCustomerRequiresContactFields(t *testing.T) {
	svc, _, _ := newTestService(t)

	tests := []struct {
		name  string
		req   domain.CreateCustomerRequest
		field string
	}{
		{"name", domain.CreateCustomerRequest{Phone: "1", Email: "a@b.c"}, "name"},
		{"phone", domain.CreateCustomerRequest{Name: "A", Email: "a@b.c"}, "phone"},
		{"email", domain.CreateCustomerRequest{Name: "A", Phone: "1"}, "email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateCustomer(context.Background(), tt.req)
			require.ErrorIs(t, err, apperror.ErrInvalidInput)

			var validation *apperror.ValidationError
			require.ErrorAs(t, err, &validation)
			assert.Equal(t, tt.field, validation.Field)
		})
	}
}

func TestUnknownReferences(t *testing.T) {
	svc, conn, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.GetCustomer(ctx, 9)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.ErrorIs(t, svc.EnsureCustomer(ctx, conn, 9), apperror.ErrNotFound)

	_, err = svc.GetSupplier(ctx, 9)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.ErrorIs(t, svc.EnsureSupplier(ctx, conn, 9), apperror.ErrNotFound)

	_, err = svc.SetSupplierActive(ctx, 9, false, "")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestSearchCustomers(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	for _, req := range []domain.CreateCustomerRequest{
		{Name: "Budi", Phone: "0811", Email: "budi@example.com"},
		{Name: "Siti", Phone: "0822", Email: "siti@example.com"},
		{Name: "Agus", Phone: "0833", Email: "AGUS@mail.id"},
	} {
		_, err := svc.CreateCustomer(ctx, req)
		require.NoError(t, err)
	}

	resp, err := svc.ListCustomers(ctx, domain.ListRequest{Query: "EXAMPLE"})
	require.NoError(t, err)
	require.Len(t, resp.Customers, 2)
	assert.Equal(t, "Siti", resp.Customers[0].Name)
	assert.Equal(t, "Budi", resp.Customers[1].Name)

	resp, err = svc.ListCustomers(ctx, domain.ListRequest{Query: "agus@"})
	require.NoError(t, err)
	require.Len(t, resp.Customers, 1)

	page, err := svc.ListCustomers(ctx, domain.ListRequest{Pagination: pagination.Pagination{PageSize: 1}})
	require.NoError(t, err)
	require.Len(t, page.Customers, 1)
	assert.True(t, page.HasMore)
	assert.Equal(t, "Agus", page.Customers[0].Name)
}

func TestSuppliers(t *testing.T) {
	svc, conn, publisher := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateSupplier(ctx, domain.CreateSupplierRequest{})
	require.ErrorIs(t, err, apperror.ErrInvalidInput)

	supplier, err := svc.CreateSupplier(ctx, domain.CreateSupplierRequest{Name: "Andi", Company: "Kimia Farma"})
	require.NoError(t, err)
	assert.True(t, supplier.Active)
	require.NoError(t, svc.EnsureSupplier(ctx, conn, supplier.ID))

	resp, err := svc.ListSuppliers(ctx, domain.ListRequest{Query: "kimia"})
	require.NoError(t, err)
	require.Len(t, resp.Suppliers, 1)

	updated, err := svc.SetSupplierActive(ctx, supplier.ID, false, "manager")
	require.NoError(t, err)
	assert.False(t, updated.Active)

	assert.Equal(t, []string{
		"Supplier 1 added: Andi",
		"Supplier 1 status set to inactive",
	}, publisher.Actions())
}

func TestUpdateCustomer(t *testing.T) {
	svc, _, publisher := newTestService(t)
	ctx := context.Background()

	customer, err := svc.CreateCustomer(ctx, domain.CreateCustomerRequest{
		Name: "Budi", Phone: "0811", Email: "budi@example.com",
	})
	require.NoError(t, err)

	phone := " 0899 "
	updated, changed, err := svc.UpdateCustomer(ctx, domain.UpdateCustomerRequest{ID: customer.ID, Phone: &phone, User: "cashier"})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "0899", updated.Phone)
	assert.Equal(t, "Budi", updated.Name)

	got, err := svc.GetCustomer(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "0899", got.Phone)
	assert.Equal(t, "budi@example.com", got.Email)

	_, changed, err = svc.UpdateCustomer(ctx, domain.UpdateCustomerRequest{ID: customer.ID, Phone: &phone})
	require.NoError(t, err)
	assert.False(t, changed)

	blank := " "
	_, _, err = svc.UpdateCustomer(ctx, domain.UpdateCustomerRequest{ID: customer.ID, Email: &blank})
	require.ErrorIs(t, err, apperror.ErrInvalidInput)

	_, _, err = svc.UpdateCustomer(ctx, domain.UpdateCustomerRequest{ID: 42, Phone: &phone})
	require.ErrorIs(t, err, apperror.ErrNotFound)

	assert.Equal(t, []string{
		"Customer 1 added: Budi",
		"Customer 1 updated: Budi",
	}, publisher.Actions())
}

func TestUpdateSupplier(t *testing.T) {
	svc, _, publisher := newTestService(t)
	ctx := context.Background()

	supplier, err := svc.CreateSupplier(ctx, domain.CreateSupplierRequest{Name: "Andi", Company: "Kimia Farma"})
	require.NoError(t, err)

	company := ""
	email := "andi@medika.co.id"
	inactive := false
	updated, changed, err := svc.UpdateSupplier(ctx, domain.UpdateSupplierRequest{
		ID:      supplier.ID,
		Company: &company,
		Email:   &email,
		Active:  &inactive,
		User:    "manager",
	})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Empty(t, updated.Company)
	assert.Equal(t, email, updated.Email)
	assert.False(t, updated.Active)

	got, err := svc.GetSupplier(ctx, supplier.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)
	assert.Equal(t, email, got.Email)

	blank := ""
	_, _, err = svc.UpdateSupplier(ctx, domain.UpdateSupplierRequest{ID: supplier.ID, Name: &blank})
	require.ErrorIs(t, err, apperror.ErrInvalidInput)

	_, _, err = svc.UpdateSupplier(ctx, domain.UpdateSupplierRequest{ID: 7, Email: &email})
	require.ErrorIs(t, err, apperror.ErrNotFound)

	assert.Equal(t, []string{
		"Supplier 1 added: Andi",
		"Supplier 1 updated: Andi",
	}, publisher.Actions())
}
