package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/smallbiznis/apotek/internal/apperror"
	auditdomain "github.com/smallbiznis/apotek/internal/audit/domain"
	"github.com/smallbiznis/apotek/internal/clock"
	"github.com/smallbiznis/apotek/internal/directory/domain"
	"github.com/smallbiznis/apotek/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	Repo     domain.Repository
	Recorder auditdomain.Recorder
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	repo     domain.Repository
	recorder auditdomain.Recorder
}

func NewService(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("directory.service"),
		clock:    p.Clock,
		repo:     p.Repo,
		recorder: p.Recorder,
	}
}

func (s *Service) CreateCustomer(ctx context.Context, req domain.CreateCustomerRequest) (*domain.Customer, error) {
	customer := domain.Customer{
		Name:      strings.TrimSpace(req.Name),
		Phone:     strings.TrimSpace(req.Phone),
		Email:     strings.TrimSpace(req.Email),
		CreatedBy: strings.TrimSpace(req.User),
		CreatedAt: s.clock.Now(),
	}
	switch {
	case customer.Name == "":
		return nil, apperror.InvalidInput("name", "is required")
	case customer.Phone == "":
		return nil, apperror.InvalidInput("phone", "is required")
	case customer.Email == "":
		return nil, apperror.InvalidInput("email", "is required")
	}

	if err := s.repo.InsertCustomer(ctx, s.db, &customer); err != nil {
		return nil, apperror.FromStore("create customer", err)
	}

	s.recorder.RecordActivity(ctx, req.User, fmt.Sprintf("Customer %d added: %s", customer.ID, customer.Name), map[string]any{
		"customer_id": int64(customer.ID),
		"phone":       customer.Phone,
		"email":       customer.Email,
	})
	return &customer, nil
}

func (s *Service) GetCustomer(ctx context.Context, id domain.CustomerID) (*domain.Customer, error) {
	customer, err := s.repo.FindCustomer(ctx, s.db, id)
	if err != nil {
		return nil, apperror.FromStore("get customer", err)
	}
	if customer == nil {
		return nil, apperror.NotFound("customer", int64(id))
	}
	return customer, nil
}

func (s *Service) ListCustomers(ctx context.Context, req domain.ListRequest) (domain.ListCustomersResponse, error) {
	filter, err := searchFilter(req)
	if err != nil {
		return domain.ListCustomersResponse{}, err
	}
	items, err := s.repo.SearchCustomers(ctx, s.db, filter)
	if err != nil {
		return domain.ListCustomersResponse{}, apperror.FromStore("list customers", err)
	}

	items, info := pagination.BuildCursorPageInfo(items, filter.Limit, func(item *domain.Customer) int64 { return int64(item.ID) })
	resp := domain.ListCustomersResponse{PageInfo: info, Customers: make([]domain.Customer, 0, len(items))}
	for _, item := range items {
		resp.Customers = append(resp.Customers, *item)
	}
	return resp, nil
}

func (s *Service) UpdateCustomer(ctx context.Context, req domain.UpdateCustomerRequest) (*domain.Customer, bool, error) {
	var (
		customer *domain.Customer
		changed  bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.FindCustomer(ctx, tx, req.ID)
		if err != nil {
			return apperror.FromStore("load customer", err)
		}
		if current == nil {
			return apperror.NotFound("customer", int64(req.ID))
		}
		customer = current

		for _, f := range []struct {
			field string
			dst   *string
			src   *string
		}{
			{"name", &customer.Name, req.Name},
			{"phone", &customer.Phone, req.Phone},
			{"email", &customer.Email, req.Email},
		} {
			set, err := assignRequired(f.field, f.dst, f.src)
			if err != nil {
				return err
			}
			changed = changed || set
		}
		if !changed {
			return nil
		}

		ok, err := s.repo.UpdateCustomer(ctx, tx, customer)
		if err != nil {
			return apperror.FromStore("update customer", err)
		}
		if !ok {
			return apperror.NotFound("customer", int64(req.ID))
		}
		return nil
	})
	if err != nil {
		return nil, false, apperror.FromStore("update customer", err)
	}

	if changed {
		s.recorder.RecordActivity(ctx, req.User, fmt.Sprintf("Customer %d updated: %s", customer.ID, customer.Name), map[string]any{
			"customer_id": int64(customer.ID),
			"phone":       customer.Phone,
			"email":       customer.Email,
		})
	}
	return customer, changed, nil
}

func (s *Service) CreateSupplier(ctx context.Context, req domain.CreateSupplierRequest) (*domain.Supplier, error) {
	supplier := domain.Supplier{
		Name:      strings.TrimSpace(req.Name),
		Company:   strings.TrimSpace(req.Company),
		Phone:     strings.TrimSpace(req.Phone),
		Email:     strings.TrimSpace(req.Email),
		Active:    true,
		CreatedBy: strings.TrimSpace(req.User),
		CreatedAt: s.clock.Now(),
	}
	if supplier.Name == "" {
		return nil, apperror.InvalidInput("name", "is required")
	}

	if err := s.repo.InsertSupplier(ctx, s.db, &supplier); err != nil {
		return nil, apperror.FromStore("create supplier", err)
	}

	s.recorder.RecordActivity(ctx, req.User, fmt.Sprintf("Supplier %d added: %s", supplier.ID, supplier.Name), map[string]any{
		"supplier_id": int64(supplier.ID),
	})
	return &supplier, nil
}

func (s *Service) GetSupplier(ctx context.Context, id domain.SupplierID) (*domain.Supplier, error) {
	supplier, err := s.repo.FindSupplier(ctx, s.db, id)
	if err != nil {
		return nil, apperror.FromStore("get supplier", err)
	}
	if supplier == nil {
		return nil, apperror.NotFound("supplier", int64(id))
	}
	return supplier, nil
}

func (s *Service) ListSuppliers(ctx context.Context, req domain.ListRequest) (domain.ListSuppliersResponse, error) {
	filter, err := searchFilter(req)
	if err != nil {
		return domain.ListSuppliersResponse{}, err
	}
	items, err := s.repo.SearchSuppliers(ctx, s.db, filter)
	if err != nil {
		return domain.ListSuppliersResponse{}, apperror.FromStore("list suppliers", err)
	}

	items, info := pagination.BuildCursorPageInfo(items, filter.Limit, func(item *domain.Supplier) int64 { return int64(item.ID) })
	resp := domain.ListSuppliersResponse{PageInfo: info, Suppliers: make([]domain.Supplier, 0, len(items))}
	for _, item := range items {
		resp.Suppliers = append(resp.Suppliers, *item)
	}
	return resp, nil
}

func (s *Service) UpdateSupplier(ctx context.Context, req domain.UpdateSupplierRequest) (*domain.Supplier, bool, error) {
	var (
		supplier *domain.Supplier
		changed  bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.FindSupplier(ctx, tx, req.ID)
		if err != nil {
			return apperror.FromStore("load supplier", err)
		}
		if current == nil {
			return apperror.NotFound("supplier", int64(req.ID))
		}
		supplier = current

		set, err := assignRequired("name", &supplier.Name, req.Name)
		if err != nil {
			return err
		}
		changed = set
		changed = assignOptional(&supplier.Company, req.Company) || changed
		changed = assignOptional(&supplier.Phone, req.Phone) || changed
		changed = assignOptional(&supplier.Email, req.Email) || changed
		if req.Active != nil && *req.Active != supplier.Active {
			supplier.Active = *req.Active
			changed = true
		}
		if !changed {
			return nil
		}

		ok, err := s.repo.UpdateSupplier(ctx, tx, supplier)
		if err != nil {
			return apperror.FromStore("update supplier", err)
		}
		if !ok {
			return apperror.NotFound("supplier", int64(req.ID))
		}
		return nil
	})
	if err != nil {
		return nil, false, apperror.FromStore("update supplier", err)
	}

	if changed {
		s.recorder.RecordActivity(ctx, req.User, fmt.Sprintf("Supplier %d updated: %s", supplier.ID, supplier.Name), map[string]any{
			"supplier_id": int64(supplier.ID),
			"active":      supplier.Active,
		})
	}
	return supplier, changed, nil
}

func (s *Service) SetSupplierActive(ctx context.Context, id domain.SupplierID, active bool, user string) (*domain.Supplier, error) {
	updated, err := s.repo.SetSupplierActive(ctx, s.db, id, active)
	if err != nil {
		return nil, apperror.FromStore("set supplier status", err)
	}
	if !updated {
		return nil, apperror.NotFound("supplier", int64(id))
	}

	status := "inactive"
	if active {
		status = "active"
	}
	s.recorder.RecordActivity(ctx, user, fmt.Sprintf("Supplier %d status set to %s", id, status), nil)
	return s.GetSupplier(ctx, id)
}

func (s *Service) EnsureCustomer(ctx context.Context, db *gorm.DB, id domain.CustomerID) error {
	customer, err := s.repo.FindCustomer(ctx, db, id)
	if err != nil {
		return apperror.FromStore("find customer", err)
	}
	if customer == nil {
		return apperror.NotFound("customer", int64(id))
	}
	return nil
}

func (s *Service) EnsureSupplier(ctx context.Context, db *gorm.DB, id domain.SupplierID) error {
	supplier, err := s.repo.FindSupplier(ctx, db, id)
	if err != nil {
		return apperror.FromStore("find supplier", err)
	}
	if supplier == nil {
		return apperror.NotFound("supplier", int64(id))
	}
	return nil
}

// assignRequired copies a trimmed, non-empty src into dst and reports
// whether the value changed. A nil src leaves dst alone.
func assignRequired(field string, dst, src *string) (bool, error) {
	if src == nil {
		return false, nil
	}
	v := strings.TrimSpace(*src)
	if v == "" {
		return false, apperror.InvalidInput(field, "is required")
	}
	if v == *dst {
		return false, nil
	}
	*dst = v
	return true, nil
}

func assignOptional(dst, src *string) bool {
	if src == nil {
		return false
	}
	v := strings.TrimSpace(*src)
	if v == *dst {
		return false
	}
	*dst = v
	return true
}

func searchFilter(req domain.ListRequest) (domain.SearchFilter, error) {
	beforeID, err := req.BeforeID()
	if err != nil {
		return domain.SearchFilter{}, apperror.InvalidInput("page_token", err.Error())
	}
	return domain.SearchFilter{
		Query:    req.Query,
		BeforeID: beforeID,
		Limit:    req.Limit(),
	}, nil
}
