package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"tokosepatu/backend/internal/domain"
	"tokosepatu/backend/internal/store/memory"
)

func cashierCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "cashier", Role: "cashier"})
}

func TestCatalogWritesRequireAdmin(t *testing.T) {
	svc := New(memory.NewSeeded())

	_, err := svc.CreateProduct(cashierCtx(), domain.ProductCreateRequest{Code: "NEW00001", Name: "Sandals", Price: dec("20")})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.CreateCustomer(context.Background(), domain.CustomerRequest{FirstName: "A", LastName: "B", Email: "a@b.example"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	assert.ErrorIs(t, svc.DeleteSupplier(cashierCtx(), 1), domain.ErrForbidden)

	_, err = svc.RestockProduct(cashierCtx(), productFlats, domain.RestockRequest{Delta: 5})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.DashboardSummary(cashierCtx())
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestCreateProduct(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	svc := New(memory.NewSeeded(), WithLogger(zap.New(core)))

	created, err := svc.CreateProduct(adminCtx(), domain.ProductCreateRequest{
		Code:              " ssw00001 ",
		Name:              "Women's Running Shoes",
		Price:             dec("72.00"),
		Gender:            "W",
		InitialStock:      7,
		LowStockThreshold: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "SSW00001", created.Code)
	assert.Equal(t, 7, created.CurrentStock)

	byCode, err := svc.GetProductByCode(context.Background(), "ssw00001")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byCode.ID)

	audits := logs.FilterMessage("audit").AllUntimed()
	require.Len(t, audits, 1)
	assert.Equal(t, "product_create", audits[0].ContextMap()["action"])
	assert.Equal(t, "admin", audits[0].ContextMap()["actor"])

	_, err = svc.CreateProduct(adminCtx(), domain.ProductCreateRequest{Code: "FSM00001", Name: "Duplicate", Price: dec("1")})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = svc.CreateProduct(adminCtx(), domain.ProductCreateRequest{Code: "NEG00001", Name: "Negative", Price: dec("-1")})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = svc.CreateProduct(adminCtx(), domain.ProductCreateRequest{Code: "SUB00001", Name: "Sub-cent", Price: dec("19.995")})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestUpdateProductKeepsStock(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	svc := New(memory.NewSeeded(), WithLogger(zap.New(core)))

	price := dec("55.00")
	name := "Men's Oxford Shoes"
	updated, err := svc.UpdateProduct(adminCtx(), productFormalShoe, domain.ProductUpdateRequest{Name: &name, Price: &price})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.True(t, updated.Price.Equal(price))
	assert.Equal(t, 10, updated.CurrentStock)
	assert.Equal(t, "FSM00001", updated.Code)

	changes := logs.FilterField(zap.String("action", "product_price_change")).AllUntimed()
	require.Len(t, changes, 1)
	assert.Equal(t, "50.00", changes[0].ContextMap()["old_price"])

	_, err = svc.UpdateProduct(adminCtx(), 404, domain.ProductUpdateRequest{Name: &name})
	assert.ErrorIs(t, err, domain.NotFoundEntity(domain.EntityProduct))
}

func TestRestockProductGoesThroughLedger(t *testing.T) {
	svc := New(memory.NewSeeded())

	product, err := svc.RestockProduct(adminCtx(), productFlats, domain.RestockRequest{Delta: 12})
	require.NoError(t, err)
	assert.Equal(t, 15, product.CurrentStock)

	_, err = svc.RestockProduct(adminCtx(), productFlats, domain.RestockRequest{Delta: -16})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = svc.RestockProduct(adminCtx(), productFlats, domain.RestockRequest{Delta: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = svc.RestockProduct(adminCtx(), 404, domain.RestockRequest{Delta: 1})
	assert.ErrorIs(t, err, domain.NotFoundEntity(domain.EntityProduct))

	low, err := svc.ListLowStockProducts(context.Background())
	require.NoError(t, err)
	for _, p := range low {
		assert.NotEqual(t, productFlats, p.ID)
	}
}

func TestCreateCustomerStartsAtBronze(t *testing.T) {
	svc := New(memory.NewSeeded())

	created, err := svc.CreateCustomer(adminCtx(), domain.CustomerRequest{
		FirstName: "Dilani",
		LastName:  "Wickrama",
		Email:     "Dilani.W@Example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, created.LoyaltyPoints)
	assert.Equal(t, domain.TierBronze, created.LoyaltyTier)
	assert.Equal(t, "dilani.w@example.com", created.Email)

	_, err = svc.CreateCustomer(adminCtx(), domain.CustomerRequest{FirstName: "X", LastName: "Y", Email: "dilani.w@example.com"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	// profile edits never touch the loyalty balance
	updated, err := svc.UpdateCustomer(adminCtx(), customerNadeesha, domain.CustomerRequest{
		FirstName: "Nadeesha",
		LastName:  "Perera",
		Email:     "nadeesha.f@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "Perera", updated.LastName)
	assert.Equal(t, 620, updated.LoyaltyPoints)
	assert.Equal(t, domain.TierSilver, updated.LoyaltyTier)
}

func TestDeleteReferencedRowsConflict(t *testing.T) {
	f := newFixture(t)
	f.sell(t, customerKamal, "0", item(productFormalShoe, 1))

	assert.ErrorIs(t, f.svc.DeleteProduct(adminCtx(), productFormalShoe), domain.ErrConflict)
	assert.ErrorIs(t, f.svc.DeleteCustomer(adminCtx(), customerKamal), domain.ErrConflict)
	assert.ErrorIs(t, f.svc.DeleteEmployee(adminCtx(), employeeAdmin), domain.ErrConflict)

	require.NoError(t, f.svc.DeleteProduct(adminCtx(), productFlats))
	_, err := f.svc.GetProduct(context.Background(), productFlats)
	assert.ErrorIs(t, err, domain.NotFoundEntity(domain.EntityProduct))
}

func TestListEmployeesByRole(t *testing.T) {
	svc := New(memory.NewSeeded())

	admins, err := svc.ListEmployeesByRole(context.Background(), "admin")
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "Nimal", admins[0].FirstName)

	created, err := svc.CreateEmployee(adminCtx(), domain.EmployeeRequest{
		FirstName: "Kasun",
		LastName:  "Rathnayake",
		Email:     "kasun.r@example.com",
		Role:      "admin",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.EmployeeRoleAdmin, created.Role)
}

func TestSupplierLifecycle(t *testing.T) {
	svc := New(memory.NewSeeded())

	created, err := svc.CreateSupplier(adminCtx(), domain.SupplierRequest{Name: "Kandy Leather Works", Country: "Sri Lanka"})
	require.NoError(t, err)

	updated, err := svc.UpdateSupplier(adminCtx(), created.ID, domain.SupplierRequest{Name: "Kandy Leather Works", Country: "Sri Lanka", City: "Kandy"})
	require.NoError(t, err)
	assert.Equal(t, "Kandy", updated.City)

	require.NoError(t, svc.DeleteSupplier(adminCtx(), created.ID))
	_, err = svc.GetSupplier(context.Background(), created.ID)
	assert.ErrorIs(t, err, domain.NotFoundEntity(domain.EntitySupplier))
}

func TestDashboardSummary(t *testing.T) {
	f := newFixture(t)
	f.sell(t, customerKamal, "10.00", item(productFormalShoe, 2))
	f.clock.Advance(24 * time.Hour)
	f.sell(t, customerNadeesha, "0", item(productFormalShoe, 1), item(productHeels, 2))

	summary, err := f.svc.DashboardSummary(adminCtx())
	require.NoError(t, err)

	// 90.00 + 180.00
	assert.True(t, summary.TotalSalesRevenue.Equal(dec("270.00")))
	assert.True(t, summary.TotalProfit.Equal(dec("54.00")))
	assert.Equal(t, int64(2), summary.TotalSales)
	assert.Equal(t, int64(8), summary.TotalProducts)
	assert.Equal(t, int64(3), summary.TotalCustomers)
	assert.Equal(t, summary.TotalLowStockItems, len(summary.LowStockItems))

	require.NotEmpty(t, summary.TopSellingItems)
	assert.Equal(t, "FSM00001", summary.TopSellingItems[0].ProductCode)
	assert.Equal(t, 3, summary.TopSellingItems[0].TotalQuantitySold)

	require.Len(t, summary.DailySalesTrends, 2)
	assert.Equal(t, "2025-05-10", summary.DailySalesTrends[0].Date)
	assert.Equal(t, "2025-05-11", summary.DailySalesTrends[1].Date)
	assert.Equal(t, 1, summary.DailySalesTrends[1].TotalSalesCount)
}
