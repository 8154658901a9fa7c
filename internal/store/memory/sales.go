package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tokosepatu/backend/internal/domain"
	"tokosepatu/backend/internal/store"
)

func (s *Store) GetSaleByID(_ context.Context, id int64) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, ok := s.state.sales[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	dup := cloneSale(sale)
	return &dup, nil
}

func (s *Store) ListSales(_ context.Context) ([]domain.Sale, error) {
	return s.filterSales(func(domain.Sale) bool { return true }), nil
}

func (s *Store) ListSalesByCustomer(_ context.Context, customerID int64) ([]domain.Sale, error) {
	return s.filterSales(func(sale domain.Sale) bool { return sale.CustomerID == customerID }), nil
}

func (s *Store) ListSalesByEmployee(_ context.Context, employeeID int64) ([]domain.Sale, error) {
	return s.filterSales(func(sale domain.Sale) bool { return sale.EmployeeID == employeeID }), nil
}

func (s *Store) ListSalesBetween(_ context.Context, from time.Time, to time.Time) ([]domain.Sale, error) {
	return s.filterSales(func(sale domain.Sale) bool {
		return !sale.SaleDateTime.Before(from) && !sale.SaleDateTime.After(to)
	}), nil
}

func (s *Store) filterSales(keep func(domain.Sale) bool) []domain.Sale {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Sale, 0)
	for _, sale := range s.state.sales {
		if keep(sale) {
			result = append(result, cloneSale(sale))
		}
	}
	slices.SortFunc(result, func(a, b domain.Sale) int {
		if c := a.SaleDateTime.Compare(b.SaleDateTime); c != 0 {
			return c
		}
		return cmpInt64(a.ID, b.ID)
	})
	return result
}

func (s *Store) GetRefundByID(_ context.Context, id int64) (*domain.Refund, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.state.refunds[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &r, nil
}

func (s *Store) GetRefundBySaleID(_ context.Context, saleID int64) (*domain.Refund, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.state.refunds {
		if r.SaleID == saleID {
			return &r, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) CountEntities(_ context.Context) (domain.EntityCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return domain.EntityCounts{
		Products:  int64(len(s.state.products)),
		Customers: int64(len(s.state.customers)),
		Employees: int64(len(s.state.employees)),
		Suppliers: int64(len(s.state.suppliers)),
		Sales:     int64(len(s.state.sales)),
	}, nil
}

func (s *Store) TotalRevenue(_ context.Context) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, sale := range s.state.sales {
		total = total.Add(sale.NetAmount)
	}
	return total, nil
}

func (s *Store) TopSellingProducts(_ context.Context, limit int) ([]domain.TopSellingItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byProduct := make(map[int64]*domain.TopSellingItem)
	for _, sale := range s.state.sales {
		for _, item := range sale.Items {
			agg, ok := byProduct[item.ProductID]
			if !ok {
				product := s.state.products[item.ProductID]
				agg = &domain.TopSellingItem{
					ProductID:    item.ProductID,
					ProductName:  product.Name,
					ProductCode:  product.Code,
					TotalRevenue: decimal.Zero,
				}
				byProduct[item.ProductID] = agg
			}
			agg.TotalQuantitySold += item.Quantity
			agg.TotalRevenue = agg.TotalRevenue.Add(item.Subtotal)
		}
	}

	items := make([]domain.TopSellingItem, 0, len(byProduct))
	for _, agg := range byProduct {
		items = append(items, *agg)
	}
	slices.SortFunc(items, func(a, b domain.TopSellingItem) int {
		if a.TotalQuantitySold != b.TotalQuantitySold {
			return b.TotalQuantitySold - a.TotalQuantitySold
		}
		return cmpInt64(a.ProductID, b.ProductID)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) DailySalesTotals(ctx context.Context, from time.Time, to time.Time) ([]domain.DailySalesTotal, error) {
	sales, err := s.ListSalesBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	totals := make([]domain.DailySalesTotal, 0)
	for _, sale := range sales {
		t := sale.SaleDateTime.UTC()
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		if n := len(totals); n > 0 && totals[n-1].Day.Equal(day) {
			totals[n-1].Amount = totals[n-1].Amount.Add(sale.NetAmount)
			totals[n-1].Count++
			continue
		}
		totals = append(totals, domain.DailySalesTotal{Day: day, Amount: sale.NetAmount, Count: 1})
	}
	return totals, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username := strings.ToLower(strings.TrimSpace(user.Username))
	if _, exists := s.state.usersByUsername[username]; exists {
		return store.ErrConflict
	}
	user.Username = username
	if user.Role == "" {
		user.Role = "cashier"
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.state.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return sortedValues(s.state.usersByUsername, func(a, b domain.UserAccount) int {
		return strings.Compare(a.Username, b.Username)
	}), nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username = strings.ToLower(strings.TrimSpace(username))
	user, exists := s.state.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.state.usersByUsername[username] = user
	return nil
}
