package memory

import (
	"context"

	"tokosepatu/backend/internal/domain"
	"tokosepatu/backend/internal/store"
)

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return sortedValues(s.state.products, func(a, b domain.Product) int { return cmpInt64(a.ID, b.ID) }), nil
}

func (s *Store) GetProductByID(_ context.Context, id int64) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.state.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (s *Store) GetProductByCode(_ context.Context, code string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.state.productByCode(code)
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (s *Store) GetProductsByIDs(_ context.Context, ids []int64) (map[int64]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[int64]domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := s.state.products[id]; ok {
			result[id] = p
		}
	}
	return result, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.state.productByCode(product.Code); exists {
		return nil, store.ErrConflict
	}
	s.state.seq.product++
	product.ID = s.state.seq.product
	s.state.products[product.ID] = product
	return &product, nil
}

// UpdateProduct keeps the stored stock; stock is written only inside a unit of work.
func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.state.products[product.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if other, exists := s.state.productByCode(product.Code); exists && other.ID != product.ID {
		return nil, store.ErrConflict
	}
	product.CurrentStock = existing.CurrentStock
	s.state.products[product.ID] = product
	return &product, nil
}

func (s *Store) DeleteProduct(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.products[id]; !ok {
		return store.ErrNotFound
	}
	for _, sale := range s.state.sales {
		for _, item := range sale.Items {
			if item.ProductID == id {
				return store.ErrConflict
			}
		}
	}
	delete(s.state.products, id)
	return nil
}

func (s *Store) ListLowStockProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	low := make([]domain.Product, 0)
	for _, p := range sortedValues(s.state.products, func(a, b domain.Product) int { return cmpInt64(a.ID, b.ID) }) {
		if p.CurrentStock <= p.LowStockThreshold {
			low = append(low, p)
		}
	}
	return low, nil
}

func (s *Store) ListCustomers(_ context.Context) ([]domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return sortedValues(s.state.customers, func(a, b domain.Customer) int { return cmpInt64(a.ID, b.ID) }), nil
}

func (s *Store) GetCustomerByID(_ context.Context, id int64) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.state.customers[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (s *Store) GetCustomerByEmail(_ context.Context, email string) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.state.customers {
		if sameFold(c.Email, email) {
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) CreateCustomer(_ context.Context, customer domain.Customer) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.state.customers {
		if sameFold(c.Email, customer.Email) {
			return nil, store.ErrConflict
		}
	}
	s.state.seq.customer++
	customer.ID = s.state.seq.customer
	s.state.customers[customer.ID] = customer
	return &customer, nil
}

// UpdateCustomer keeps the stored loyalty balance and tier.
func (s *Store) UpdateCustomer(_ context.Context, customer domain.Customer) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.state.customers[customer.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	for _, c := range s.state.customers {
		if c.ID != customer.ID && sameFold(c.Email, customer.Email) {
			return nil, store.ErrConflict
		}
	}
	customer.LoyaltyPoints = existing.LoyaltyPoints
	customer.LoyaltyTier = existing.LoyaltyTier
	s.state.customers[customer.ID] = customer
	return &customer, nil
}

func (s *Store) DeleteCustomer(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.customers[id]; !ok {
		return store.ErrNotFound
	}
	for _, sale := range s.state.sales {
		if sale.CustomerID == id {
			return store.ErrConflict
		}
	}
	delete(s.state.customers, id)
	return nil
}

func (s *Store) ListEmployees(_ context.Context) ([]domain.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return sortedValues(s.state.employees, func(a, b domain.Employee) int { return cmpInt64(a.ID, b.ID) }), nil
}

func (s *Store) ListEmployeesByRole(_ context.Context, role string) ([]domain.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]domain.Employee, 0)
	for _, e := range sortedValues(s.state.employees, func(a, b domain.Employee) int { return cmpInt64(a.ID, b.ID) }) {
		if sameFold(e.Role, role) {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

func (s *Store) GetEmployeeByID(_ context.Context, id int64) (*domain.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.state.employees[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &e, nil
}

func (s *Store) CreateEmployee(_ context.Context, employee domain.Employee) (*domain.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.state.employees {
		if sameFold(e.Email, employee.Email) {
			return nil, store.ErrConflict
		}
	}
	s.state.seq.employee++
	employee.ID = s.state.seq.employee
	s.state.employees[employee.ID] = employee
	return &employee, nil
}

func (s *Store) UpdateEmployee(_ context.Context, employee domain.Employee) (*domain.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.employees[employee.ID]; !ok {
		return nil, store.ErrNotFound
	}
	for _, e := range s.state.employees {
		if e.ID != employee.ID && sameFold(e.Email, employee.Email) {
			return nil, store.ErrConflict
		}
	}
	s.state.employees[employee.ID] = employee
	return &employee, nil
}

func (s *Store) DeleteEmployee(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.employees[id]; !ok {
		return store.ErrNotFound
	}
	for _, sale := range s.state.sales {
		if sale.EmployeeID == id {
			return store.ErrConflict
		}
	}
	for _, refund := range s.state.refunds {
		if refund.ProcessedByEmployeeID == id {
			return store.ErrConflict
		}
	}
	delete(s.state.employees, id)
	return nil
}

func (s *Store) ListSuppliers(_ context.Context) ([]domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return sortedValues(s.state.suppliers, func(a, b domain.Supplier) int { return cmpInt64(a.ID, b.ID) }), nil
}

func (s *Store) GetSupplierByID(_ context.Context, id int64) (*domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sp, ok := s.state.suppliers[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &sp, nil
}

func (s *Store) CreateSupplier(_ context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.seq.supplier++
	supplier.ID = s.state.seq.supplier
	s.state.suppliers[supplier.ID] = supplier
	return &supplier, nil
}

func (s *Store) UpdateSupplier(_ context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.suppliers[supplier.ID]; !ok {
		return nil, store.ErrNotFound
	}
	s.state.suppliers[supplier.ID] = supplier
	return &supplier, nil
}

func (s *Store) DeleteSupplier(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.suppliers[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.state.suppliers, id)
	return nil
}
