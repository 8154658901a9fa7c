package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"tokosepatu/backend/internal/domain"
	"tokosepatu/backend/internal/ledger"
	"tokosepatu/backend/internal/store"
)

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	product, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return domain.Product{}, storeErr(err, domain.EntityProduct, id, "")
	}
	return *product, nil
}

func (s *Service) GetProductByCode(ctx context.Context, code string) (domain.Product, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	product, err := s.repo.GetProductByCode(ctx, code)
	if err != nil {
		return domain.Product{}, storeErr(err, domain.EntityProduct, code, "")
	}
	return *product, nil
}

func (s *Service) ListLowStockProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListLowStockProducts(ctx)
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Product{}, err
	}

	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	req.Name = strings.TrimSpace(req.Name)
	if req.Code == "" || req.Name == "" {
		return domain.Product{}, domain.InvalidRequest("product code and name are required")
	}
	if req.Price.IsNegative() {
		return domain.Product{}, domain.InvalidRequest("price cannot be negative")
	}
	if !domain.IsMoneyAmount(req.Price) {
		return domain.Product{}, domain.InvalidRequest("price must not have more than 2 decimal places")
	}
	if req.InitialStock < 0 || req.LowStockThreshold < 0 {
		return domain.Product{}, domain.InvalidRequest("stock values cannot be negative")
	}

	created, err := s.repo.CreateProduct(ctx, domain.Product{
		Code:              req.Code,
		Name:              req.Name,
		Description:       strings.TrimSpace(req.Description),
		Price:             req.Price,
		ImageURL:          strings.TrimSpace(req.ImageURL),
		Gender:            req.Gender,
		Type:              req.Type,
		Variety:           req.Variety,
		AccessoryType:     req.AccessoryType,
		CurrentStock:      req.InitialStock,
		LowStockThreshold: req.LowStockThreshold,
	})
	if err != nil {
		return domain.Product{}, storeErr(err, domain.EntityProduct, req.Code, "product code already exists: "+req.Code)
	}
	s.audit(ctx, "product_create", zap.Int64("product_id", created.ID), zap.String("product_code", created.Code))
	return *created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id int64, req domain.ProductUpdateRequest) (domain.Product, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Product{}, err
	}

	existing, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return domain.Product{}, storeErr(err, domain.EntityProduct, id, "")
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Product{}, domain.InvalidRequest("product name cannot be empty")
		}
		updated.Name = name
	}
	if req.Description != nil {
		updated.Description = strings.TrimSpace(*req.Description)
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return domain.Product{}, domain.InvalidRequest("price cannot be negative")
		}
		if !domain.IsMoneyAmount(*req.Price) {
			return domain.Product{}, domain.InvalidRequest("price must not have more than 2 decimal places")
		}
		updated.Price = *req.Price
	}
	if req.ImageURL != nil {
		updated.ImageURL = strings.TrimSpace(*req.ImageURL)
	}
	if req.Gender != nil {
		updated.Gender = *req.Gender
	}
	if req.Type != nil {
		updated.Type = *req.Type
	}
	if req.Variety != nil {
		updated.Variety = *req.Variety
	}
	if req.AccessoryType != nil {
		updated.AccessoryType = *req.AccessoryType
	}
	if req.LowStockThreshold != nil {
		if *req.LowStockThreshold < 0 {
			return domain.Product{}, domain.InvalidRequest("low stock threshold cannot be negative")
		}
		updated.LowStockThreshold = *req.LowStockThreshold
	}

	saved, err := s.repo.UpdateProduct(ctx, updated)
	if err != nil {
		return domain.Product{}, storeErr(err, domain.EntityProduct, id, "product code already exists: "+updated.Code)
	}
	if !existing.Price.Equal(saved.Price) {
		s.audit(ctx, "product_price_change",
			zap.Int64("product_id", saved.ID),
			zap.String("old_price", existing.Price.StringFixed(2)),
			zap.String("new_price", saved.Price.StringFixed(2)),
		)
	}
	return *saved, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return storeErr(err, domain.EntityProduct, id, "product is referenced by recorded sales")
	}
	s.audit(ctx, "product_delete", zap.Int64("product_id", id))
	return nil
}

// RestockProduct applies a manual stock correction through the stock ledger.
func (s *Service) RestockProduct(ctx context.Context, id int64, req domain.RestockRequest) (domain.Product, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Product{}, err
	}
	if req.Delta == 0 {
		return domain.Product{}, domain.InvalidRequest("delta must not be zero")
	}

	var product *domain.Product
	err := s.repo.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		locked, err := tx.GetProductByIDForUpdate(ctx, id)
		if err != nil {
			return storeErr(err, domain.EntityProduct, id, "")
		}
		product, err = ledger.AdjustStock(ctx, tx, locked.Code, req.Delta)
		return err
	})
	if err != nil {
		return domain.Product{}, err
	}
	s.audit(ctx, "product_restock",
		zap.Int64("product_id", product.ID),
		zap.Int("delta", req.Delta),
		zap.Int("current_stock", product.CurrentStock),
	)
	return *product, nil
}

func (s *Service) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	return s.repo.ListCustomers(ctx)
}

func (s *Service) GetCustomer(ctx context.Context, id int64) (domain.Customer, error) {
	customer, err := s.repo.GetCustomerByID(ctx, id)
	if err != nil {
		return domain.Customer{}, storeErr(err, domain.EntityCustomer, id, "")
	}
	return *customer, nil
}

// CreateCustomer opens a loyalty account at zero points.
func (s *Service) CreateCustomer(ctx context.Context, req domain.CustomerRequest) (domain.Customer, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Customer{}, err
	}
	customer := customerFromRequest(req)
	customer.LoyaltyPoints = 0
	customer.LoyaltyTier = domain.TierFor(0)

	created, err := s.repo.CreateCustomer(ctx, customer)
	if err != nil {
		return domain.Customer{}, storeErr(err, domain.EntityCustomer, customer.Email, "customer email already exists: "+customer.Email)
	}
	s.audit(ctx, "customer_create", zap.Int64("customer_id", created.ID))
	return *created, nil
}

func (s *Service) UpdateCustomer(ctx context.Context, id int64, req domain.CustomerRequest) (domain.Customer, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Customer{}, err
	}
	customer := customerFromRequest(req)
	customer.ID = id

	saved, err := s.repo.UpdateCustomer(ctx, customer)
	if err != nil {
		return domain.Customer{}, storeErr(err, domain.EntityCustomer, id, "customer email already exists: "+customer.Email)
	}
	return *saved, nil
}

func (s *Service) DeleteCustomer(ctx context.Context, id int64) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	if err := s.repo.DeleteCustomer(ctx, id); err != nil {
		return storeErr(err, domain.EntityCustomer, id, "customer is referenced by recorded sales")
	}
	s.audit(ctx, "customer_delete", zap.Int64("customer_id", id))
	return nil
}

func customerFromRequest(req domain.CustomerRequest) domain.Customer {
	return domain.Customer{
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:       strings.TrimSpace(req.Phone),
		Address:     strings.TrimSpace(req.Address),
		City:        strings.TrimSpace(req.City),
		DateOfBirth: req.DateOfBirth,
	}
}

func (s *Service) ListEmployees(ctx context.Context) ([]domain.Employee, error) {
	return s.repo.ListEmployees(ctx)
}

func (s *Service) ListEmployeesByRole(ctx context.Context, role string) ([]domain.Employee, error) {
	return s.repo.ListEmployeesByRole(ctx, strings.TrimSpace(role))
}

func (s *Service) GetEmployee(ctx context.Context, id int64) (domain.Employee, error) {
	employee, err := s.repo.GetEmployeeByID(ctx, id)
	if err != nil {
		return domain.Employee{}, storeErr(err, domain.EntityEmployee, id, "")
	}
	return *employee, nil
}

func (s *Service) CreateEmployee(ctx context.Context, req domain.EmployeeRequest) (domain.Employee, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Employee{}, err
	}
	employee := employeeFromRequest(req)

	created, err := s.repo.CreateEmployee(ctx, employee)
	if err != nil {
		return domain.Employee{}, storeErr(err, domain.EntityEmployee, employee.Email, "employee email already exists: "+employee.Email)
	}
	s.audit(ctx, "employee_create", zap.Int64("employee_id", created.ID), zap.String("role", created.Role))
	return *created, nil
}

func (s *Service) UpdateEmployee(ctx context.Context, id int64, req domain.EmployeeRequest) (domain.Employee, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Employee{}, err
	}
	employee := employeeFromRequest(req)
	employee.ID = id

	saved, err := s.repo.UpdateEmployee(ctx, employee)
	if err != nil {
		return domain.Employee{}, storeErr(err, domain.EntityEmployee, id, "employee email already exists: "+employee.Email)
	}
	return *saved, nil
}

func (s *Service) DeleteEmployee(ctx context.Context, id int64) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	if err := s.repo.DeleteEmployee(ctx, id); err != nil {
		return storeErr(err, domain.EntityEmployee, id, "employee is referenced by recorded sales or refunds")
	}
	s.audit(ctx, "employee_delete", zap.Int64("employee_id", id))
	return nil
}

func employeeFromRequest(req domain.EmployeeRequest) domain.Employee {
	return domain.Employee{
		FirstName:     strings.TrimSpace(req.FirstName),
		LastName:      strings.TrimSpace(req.LastName),
		Email:         strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:         strings.TrimSpace(req.Phone),
		Address:       strings.TrimSpace(req.Address),
		City:          strings.TrimSpace(req.City),
		DateOfJoining: req.DateOfJoining,
		Branch:        strings.TrimSpace(req.Branch),
		Role:          strings.ToUpper(strings.TrimSpace(req.Role)),
	}
}

func (s *Service) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	return s.repo.ListSuppliers(ctx)
}

func (s *Service) GetSupplier(ctx context.Context, id int64) (domain.Supplier, error) {
	supplier, err := s.repo.GetSupplierByID(ctx, id)
	if err != nil {
		return domain.Supplier{}, storeErr(err, domain.EntitySupplier, id, "")
	}
	return *supplier, nil
}

func (s *Service) CreateSupplier(ctx context.Context, req domain.SupplierRequest) (domain.Supplier, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Supplier{}, err
	}
	supplier := supplierFromRequest(req)
	if supplier.Name == "" {
		return domain.Supplier{}, domain.InvalidRequest("supplier name is required")
	}

	created, err := s.repo.CreateSupplier(ctx, supplier)
	if err != nil {
		return domain.Supplier{}, storeErr(err, domain.EntitySupplier, supplier.Name, "supplier already exists")
	}
	s.audit(ctx, "supplier_create", zap.Int64("supplier_id", created.ID), zap.String("name", created.Name))
	return *created, nil
}

func (s *Service) UpdateSupplier(ctx context.Context, id int64, req domain.SupplierRequest) (domain.Supplier, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Supplier{}, err
	}
	supplier := supplierFromRequest(req)
	if supplier.Name == "" {
		return domain.Supplier{}, domain.InvalidRequest("supplier name is required")
	}
	supplier.ID = id

	saved, err := s.repo.UpdateSupplier(ctx, supplier)
	if err != nil {
		return domain.Supplier{}, storeErr(err, domain.EntitySupplier, id, "supplier already exists")
	}
	return *saved, nil
}

func (s *Service) DeleteSupplier(ctx context.Context, id int64) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	if err := s.repo.DeleteSupplier(ctx, id); err != nil {
		return storeErr(err, domain.EntitySupplier, id, "supplier is still referenced")
	}
	s.audit(ctx, "supplier_delete", zap.Int64("supplier_id", id))
	return nil
}

func supplierFromRequest(req domain.SupplierRequest) domain.Supplier {
	return domain.Supplier{
		Name:            strings.TrimSpace(req.Name),
		ContactPerson:   strings.TrimSpace(req.ContactPerson),
		Email:           strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:           strings.TrimSpace(req.Phone),
		Address:         strings.TrimSpace(req.Address),
		City:            strings.TrimSpace(req.City),
		Country:         strings.TrimSpace(req.Country),
		IsInternational: req.IsInternational,
	}
}

// audit writes an admin action to the log with the acting user attached.
func (s *Service) audit(ctx context.Context, action string, fields ...zap.Field) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}
	fields = append(fields,
		zap.String("action", action),
		zap.String("actor", actor.Username),
		zap.String("actor_role", actor.Role),
	)
	s.logger.Info("audit", fields...)
}
