package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokosepatu/backend/internal/domain"
	"tokosepatu/backend/internal/events"
	"tokosepatu/backend/internal/ledger"
	"tokosepatu/backend/internal/store"
	"tokosepatu/backend/internal/store/memory"
)

// Seeded ids in memory.NewSeeded.
const (
	productFormalShoe int64 = 1 // FSM00001, 50.00, stock 10
	productHeels      int64 = 2 // FHW00001, 65.00, stock 8
	productFlats      int64 = 4 // CFW00001, 30.00, stock 3

	customerKamal    int64 = 1 // 0 points
	customerNadeesha int64 = 2 // 620 points

	employeeAdmin   int64 = 1
	employeeCashier int64 = 2
)

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingPublisher struct {
	mu        sync.Mutex
	completed []events.SaleCompleted
	refunded  []events.SaleRefunded
}

func (p *recordingPublisher) PublishSaleCompleted(_ context.Context, e events.SaleCompleted) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completed = append(p.completed, e)
	return nil
}

func (p *recordingPublisher) PublishSaleRefunded(_ context.Context, e events.SaleRefunded) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refunded = append(p.refunded, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

// stalledPublisher never gets an acknowledgement from its broker.
type stalledPublisher struct{}

func (p *stalledPublisher) PublishSaleCompleted(ctx context.Context, _ events.SaleCompleted) error {
	<-ctx.Done()
	return ctx.Err()
}

func (p *stalledPublisher) PublishSaleRefunded(ctx context.Context, _ events.SaleRefunded) error {
	<-ctx.Done()
	return ctx.Err()
}

func (p *stalledPublisher) Close() error { return nil }

type mapCache struct {
	mu      sync.Mutex
	records map[int64]domain.SaleRecord
	deleted []int64
}

func (c *mapCache) Get(_ context.Context, id int64) (*domain.SaleRecord, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.records[id]
	if !ok {
		return nil, false, nil
	}
	return &r, true, nil
}

func (c *mapCache) Set(_ context.Context, r *domain.SaleRecord, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records[r.ID] = *r
	return nil
}

func (c *mapCache) Delete(_ context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.records, id)
	c.deleted = append(c.deleted, id)
	return nil
}

type fixture struct {
	svc       *Service
	repo      *memory.Store
	clock     *fixedClock
	publisher *recordingPublisher
	cache     *mapCache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:      memory.NewSeeded(),
		clock:     &fixedClock{now: time.Date(2025, 5, 10, 9, 30, 0, 0, time.UTC)},
		publisher: &recordingPublisher{},
		cache:     &mapCache{records: map[int64]domain.SaleRecord{}},
	}
	f.svc = New(f.repo,
		WithClock(f.clock.Now),
		WithPublisher(f.publisher),
		WithSaleCache(f.cache, time.Minute),
	)
	return f
}

func adminCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "admin", Role: "admin"})
}

func (f *fixture) stock(t *testing.T, productID int64) int {
	t.Helper()
	p, err := f.repo.GetProductByID(context.Background(), productID)
	require.NoError(t, err)
	return p.CurrentStock
}

func (f *fixture) points(t *testing.T, customerID int64) (int, string) {
	t.Helper()
	c, err := f.repo.GetCustomerByID(context.Background(), customerID)
	require.NoError(t, err)
	return c.LoyaltyPoints, c.LoyaltyTier
}

func (f *fixture) sell(t *testing.T, customerID int64, discount string, items ...domain.SaleItemRequest) domain.SaleRecord {
	t.Helper()
	record, err := f.svc.CreateSale(context.Background(), domain.SaleRequest{
		CustomerID:    customerID,
		EmployeeID:    employeeAdmin,
		PaymentMethod: "Cash",
		Discount:      decimal.RequireFromString(discount),
		Items:         items,
	})
	require.NoError(t, err)
	return record
}

func item(productID int64, qty int) domain.SaleItemRequest {
	return domain.SaleItemRequest{ProductID: productID, Quantity: qty}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCreateSaleCashWithDiscount(t *testing.T) {
	f := newFixture(t)

	record := f.sell(t, customerKamal, "10.00", item(productFormalShoe, 2))

	assert.Regexp(t, `^INV-[0-9A-F]{8}$`, record.InvoiceNo)
	assert.True(t, record.TotalAmount.Equal(dec("100.00")))
	assert.True(t, record.NetAmount.Equal(dec("90.00")))
	assert.Equal(t, 9, record.LoyaltyPointsEarned)
	assert.Equal(t, domain.SaleStatusCompleted, record.Status)
	assert.Equal(t, domain.PaymentMethodCash, record.PaymentMethod)
	assert.Empty(t, record.CardPaymentDetails)
	assert.True(t, f.clock.Now().Equal(record.SaleDateTime))
	assert.Equal(t, "Kamal", record.CustomerFirstName)
	assert.Equal(t, "Perera", record.EmployeeLastName)

	require.Len(t, record.Items, 1)
	assert.Equal(t, "FSM00001", record.Items[0].ProductCode)
	assert.True(t, record.Items[0].UnitPrice.Equal(dec("50.00")))
	assert.True(t, record.Items[0].Subtotal.Equal(dec("100.00")))

	assert.Equal(t, 8, f.stock(t, productFormalShoe))
	points, tier := f.points(t, customerKamal)
	assert.Equal(t, 9, points)
	assert.Equal(t, domain.TierBronze, tier)

	require.Len(t, f.publisher.completed, 1)
	assert.Equal(t, record.ID, f.publisher.completed[0].SaleID)
}

func TestCreateSaleCardRecordsGatewayMarker(t *testing.T) {
	f := newFixture(t)

	record, err := f.svc.CreateSale(context.Background(), domain.SaleRequest{
		CustomerID:         customerKamal,
		EmployeeID:         employeeCashier,
		PaymentMethod:      "card",
		CardPaymentDetails: "VISA **** 4242",
		Items:              []domain.SaleItemRequest{item(productHeels, 1)},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentMethodCard, record.PaymentMethod)
	assert.Equal(t, "Processed via Dummy Gateway: VISA **** 4242", record.CardPaymentDetails)
}

func TestCreateSalePointsAreFloored(t *testing.T) {
	f := newFixture(t)

	// 9 x 42.50 = 382.50
	record := f.sell(t, customerNadeesha, "0", item(3, 9))
	assert.Equal(t, 38, record.LoyaltyPointsEarned)

	// 3 x 95.00 - 0.01 = 284.99
	record = f.sell(t, customerNadeesha, "0.01", item(6, 3))
	assert.Equal(t, 28, record.LoyaltyPointsEarned)

	points, tier := f.points(t, customerNadeesha)
	assert.Equal(t, 686, points)
	assert.Equal(t, domain.TierSilver, tier)
}

func TestCreateSaleUpgradesTier(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.repo.WithinTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		_, err := ledger.ApplyPointsDelta(ctx, tx, customerNadeesha, 370)
		return err
	}))

	f.sell(t, customerNadeesha, "0", item(productFormalShoe, 2))

	points, tier := f.points(t, customerNadeesha)
	assert.Equal(t, 1000, points)
	assert.Equal(t, domain.TierGold, tier)
}

func TestCreateSaleZeroPointsStillRecomputesTier(t *testing.T) {
	f := newFixture(t)

	// 1 x 4.00 earns nothing
	record := f.sell(t, customerKamal, "0", item(8, 1))
	assert.Equal(t, 0, record.LoyaltyPointsEarned)
	points, tier := f.points(t, customerKamal)
	assert.Equal(t, 0, points)
	assert.Equal(t, domain.TierBronze, tier)
}

func TestCreateSaleRejections(t *testing.T) {
	tests := []struct {
		name    string
		req     domain.SaleRequest
		wantErr error
	}{
		{
			name:    "unknown payment method",
			req:     domain.SaleRequest{CustomerID: customerKamal, EmployeeID: employeeAdmin, PaymentMethod: "Bitcoin", Items: []domain.SaleItemRequest{item(productFormalShoe, 1)}},
			wantErr: domain.ErrInvalidPaymentMethod,
		},
		{
			name:    "discount greater than total",
			req:     domain.SaleRequest{CustomerID: customerKamal, EmployeeID: employeeAdmin, PaymentMethod: "Cash", Discount: dec("100.01"), Items: []domain.SaleItemRequest{item(productFormalShoe, 2)}},
			wantErr: domain.ErrInvalidDiscount,
		},
		{
			name:    "unknown customer",
			req:     domain.SaleRequest{CustomerID: 404, EmployeeID: employeeAdmin, PaymentMethod: "Cash", Items: []domain.SaleItemRequest{item(productFormalShoe, 1)}},
			wantErr: domain.NotFoundEntity(domain.EntityCustomer),
		},
		{
			name:    "unknown employee",
			req:     domain.SaleRequest{CustomerID: customerKamal, EmployeeID: 404, PaymentMethod: "Cash", Items: []domain.SaleItemRequest{item(productFormalShoe, 1)}},
			wantErr: domain.NotFoundEntity(domain.EntityEmployee),
		},
		{
			name:    "unknown product after a valid one",
			req:     domain.SaleRequest{CustomerID: customerKamal, EmployeeID: employeeAdmin, PaymentMethod: "Cash", Items: []domain.SaleItemRequest{item(productFormalShoe, 1), item(404, 1)}},
			wantErr: domain.NotFoundEntity(domain.EntityProduct),
		},
		{
			name:    "no items",
			req:     domain.SaleRequest{CustomerID: customerKamal, EmployeeID: employeeAdmin, PaymentMethod: "Cash"},
			wantErr: domain.ErrInvalidRequest,
		},
		{
			name:    "zero quantity",
			req:     domain.SaleRequest{CustomerID: customerKamal, EmployeeID: employeeAdmin, PaymentMethod: "Cash", Items: []domain.SaleItemRequest{item(productFormalShoe, 0)}},
			wantErr: domain.ErrInvalidRequest,
		},
		{
			name:    "discount finer than cents",
			req:     domain.SaleRequest{CustomerID: customerKamal, EmployeeID: employeeAdmin, PaymentMethod: "Cash", Discount: dec("0.001"), Items: []domain.SaleItemRequest{item(productFormalShoe, 2)}},
			wantErr: domain.ErrInvalidRequest,
		},
		{
			name:    "payment method checked after stock",
			req:     domain.SaleRequest{CustomerID: customerKamal, EmployeeID: employeeAdmin, PaymentMethod: "Bitcoin", Items: []domain.SaleItemRequest{item(productFormalShoe, 11)}},
			wantErr: domain.ErrInsufficientStock,
		},
		{
			name:    "payment method checked after discount",
			req:     domain.SaleRequest{CustomerID: customerKamal, EmployeeID: employeeAdmin, PaymentMethod: "Bitcoin", Discount: dec("500"), Items: []domain.SaleItemRequest{item(productFormalShoe, 1)}},
			wantErr: domain.ErrInvalidDiscount,
		},
		{
			name:    "negative discount",
			req:     domain.SaleRequest{CustomerID: customerKamal, EmployeeID: employeeAdmin, PaymentMethod: "Cash", Discount: dec("-1"), Items: []domain.SaleItemRequest{item(productFormalShoe, 1)}},
			wantErr: domain.ErrInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			_, err := f.svc.CreateSale(context.Background(), tt.req)
			require.ErrorIs(t, err, tt.wantErr)

			assert.Equal(t, 10, f.stock(t, productFormalShoe))
			points, _ := f.points(t, customerKamal)
			assert.Equal(t, 0, points)
			sales, err := f.svc.ListSales(context.Background())
			require.NoError(t, err)
			assert.Empty(t, sales)
			assert.Empty(t, f.publisher.completed)
		})
	}
}

func TestCreateSaleInsufficientStockRollsBackEarlierItems(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateSale(context.Background(), domain.SaleRequest{
		CustomerID:    customerKamal,
		EmployeeID:    employeeAdmin,
		PaymentMethod: "Cash",
		Items: []domain.SaleItemRequest{
			item(productFormalShoe, 1),
			item(productHeels, 1),
			item(productFlats, 10),
		},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	var derr *domain.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "CFW00001", derr.ProductCode)

	assert.Equal(t, 10, f.stock(t, productFormalShoe))
	assert.Equal(t, 8, f.stock(t, productHeels))
	assert.Equal(t, 3, f.stock(t, productFlats))
	points, _ := f.points(t, customerKamal)
	assert.Equal(t, 0, points)
}

func TestCreateSaleRepeatedProductSeesEarlierDecrement(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateSale(context.Background(), domain.SaleRequest{
		CustomerID:    customerKamal,
		EmployeeID:    employeeAdmin,
		PaymentMethod: "Cash",
		Items:         []domain.SaleItemRequest{item(productFlats, 2), item(productFlats, 2)},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "available 1, requested 2")
	assert.Equal(t, 3, f.stock(t, productFlats))
}

func TestConcurrentSalesNeverOversell(t *testing.T) {
	f := newFixture(t)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.CreateSale(context.Background(), domain.SaleRequest{
				CustomerID:    customerKamal,
				EmployeeID:    employeeAdmin,
				PaymentMethod: "Cash",
				Items:         []domain.SaleItemRequest{item(productFlats, 1)},
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if errors.Is(err, domain.ErrInsufficientStock) {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, succeeded)
	assert.Equal(t, 7, rejected)
	assert.Equal(t, 0, f.stock(t, productFlats))
}

func TestCreateRefundReversesSale(t *testing.T) {
	f := newFixture(t)
	sale := f.sell(t, customerKamal, "10.00", item(productFormalShoe, 2), item(productHeels, 1))
	require.Equal(t, 15, sale.LoyaltyPointsEarned)

	f.clock.Advance(24 * time.Hour)
	refund, err := f.svc.CreateRefund(context.Background(), domain.RefundRequest{
		SaleID:                sale.ID,
		RefundAmount:          sale.NetAmount,
		Reason:                "wrong size",
		HasTags:               true,
		ProcessedByEmployeeID: employeeAdmin,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.RefundStatusApproved, refund.Status)
	assert.Equal(t, "Nimal Perera", refund.ProcessedByEmployeeName)
	assert.Equal(t, sale.InvoiceNo, refund.InvoiceNo)
	assert.True(t, f.clock.Now().Equal(refund.RefundDateTime))

	assert.Equal(t, 10, f.stock(t, productFormalShoe))
	assert.Equal(t, 8, f.stock(t, productHeels))
	points, tier := f.points(t, customerKamal)
	assert.Equal(t, 0, points)
	assert.Equal(t, domain.TierBronze, tier)

	got, ok, err := f.svc.GetSaleByID(context.Background(), sale.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.SaleStatusRefunded, got.Status)
	assert.Contains(t, f.cache.deleted, sale.ID)

	bySale, ok, err := f.svc.GetRefundBySaleID(context.Background(), sale.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, refund.ID, bySale.ID)

	byID, ok, err := f.svc.GetRefundByID(context.Background(), refund.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Nimal Perera", byID.ProcessedByEmployeeName)

	require.Len(t, f.publisher.refunded, 1)
	assert.Equal(t, 15, f.publisher.refunded[0].PointsReversed)
}

func TestCreateRefundPartialAmountStillReversesEverything(t *testing.T) {
	f := newFixture(t)
	sale := f.sell(t, customerKamal, "0", item(productFormalShoe, 3))

	_, err := f.svc.CreateRefund(context.Background(), domain.RefundRequest{
		SaleID:                sale.ID,
		RefundAmount:          dec("10.00"),
		Reason:                "scuffed",
		HasTags:               true,
		ProcessedByEmployeeID: employeeAdmin,
	})
	require.NoError(t, err)

	assert.Equal(t, 10, f.stock(t, productFormalShoe))
	points, _ := f.points(t, customerKamal)
	assert.Equal(t, 0, points)
}

func TestCreateRefundAllowsNegativeLoyaltyBalance(t *testing.T) {
	f := newFixture(t)
	sale := f.sell(t, customerKamal, "0", item(productFormalShoe, 2))

	// the customer spends some of the earned points elsewhere
	require.NoError(t, f.repo.WithinTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		_, err := ledger.ApplyPointsDelta(ctx, tx, customerKamal, -6)
		return err
	}))

	_, err := f.svc.CreateRefund(context.Background(), domain.RefundRequest{
		SaleID:                sale.ID,
		RefundAmount:          sale.NetAmount,
		Reason:                "changed mind",
		HasTags:               true,
		ProcessedByEmployeeID: employeeAdmin,
	})
	require.NoError(t, err)

	points, tier := f.points(t, customerKamal)
	assert.Equal(t, -6, points)
	assert.Equal(t, domain.TierBronze, tier)
}

func TestCreateRefundEligibility(t *testing.T) {
	tests := []struct {
		name    string
		age     time.Duration
		mutate  func(req *domain.RefundRequest)
		wantErr error
	}{
		{
			name:    "unknown sale",
			mutate:  func(req *domain.RefundRequest) { req.SaleID = 404 },
			wantErr: domain.NotFoundEntity(domain.EntitySale),
		},
		{
			name:    "four days old",
			age:     4 * 24 * time.Hour,
			wantErr: domain.ErrRefundWindowExpired,
		},
		{
			name:    "expired window wins over missing tags",
			age:     5 * 24 * time.Hour,
			mutate:  func(req *domain.RefundRequest) { req.HasTags = false },
			wantErr: domain.ErrRefundWindowExpired,
		},
		{
			name:    "tags removed",
			mutate:  func(req *domain.RefundRequest) { req.HasTags = false },
			wantErr: domain.ErrTagsRequired,
		},
		{
			name:    "amount above net",
			mutate:  func(req *domain.RefundRequest) { req.RefundAmount = dec("200.00") },
			wantErr: domain.ErrInvalidRefundAmount,
		},
		{
			name:    "amount finer than cents",
			mutate:  func(req *domain.RefundRequest) { req.RefundAmount = dec("0.001") },
			wantErr: domain.ErrInvalidRefundAmount,
		},
		{
			name:    "zero amount",
			mutate:  func(req *domain.RefundRequest) { req.RefundAmount = decimal.Zero },
			wantErr: domain.ErrInvalidRefundAmount,
		},
		{
			name:    "unknown employee",
			mutate:  func(req *domain.RefundRequest) { req.ProcessedByEmployeeID = 404 },
			wantErr: domain.NotFoundEntity(domain.EntityEmployee),
		},
		{
			name:    "employee is not an admin",
			mutate:  func(req *domain.RefundRequest) { req.ProcessedByEmployeeID = employeeCashier },
			wantErr: domain.ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			// 3 x 50.00 = 150.00 net
			sale := f.sell(t, customerKamal, "0", item(productFormalShoe, 3))
			f.clock.Advance(tt.age)

			req := domain.RefundRequest{
				SaleID:                sale.ID,
				RefundAmount:          dec("150.00"),
				Reason:                "defect",
				HasTags:               true,
				ProcessedByEmployeeID: employeeAdmin,
			}
			if tt.mutate != nil {
				tt.mutate(&req)
			}

			_, err := f.svc.CreateRefund(context.Background(), req)
			require.ErrorIs(t, err, tt.wantErr)

			assert.Equal(t, 7, f.stock(t, productFormalShoe))
			points, _ := f.points(t, customerKamal)
			assert.Equal(t, 15, points)
			_, ok, err := f.svc.GetRefundBySaleID(context.Background(), sale.ID)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestCreateRefundWindowCountsWholeDays(t *testing.T) {
	f := newFixture(t)
	sale := f.sell(t, customerKamal, "0", item(productFormalShoe, 1))

	f.clock.Advance(3*24*time.Hour + 23*time.Hour)
	_, err := f.svc.CreateRefund(context.Background(), domain.RefundRequest{
		SaleID:                sale.ID,
		RefundAmount:          sale.NetAmount,
		Reason:                "late but in window",
		HasTags:               true,
		ProcessedByEmployeeID: employeeAdmin,
	})
	assert.NoError(t, err)
}

func TestCreateRefundTwiceIsRejected(t *testing.T) {
	f := newFixture(t)
	sale := f.sell(t, customerKamal, "0", item(productFormalShoe, 1))
	req := domain.RefundRequest{
		SaleID:                sale.ID,
		RefundAmount:          sale.NetAmount,
		Reason:                "defect",
		HasTags:               true,
		ProcessedByEmployeeID: employeeAdmin,
	}

	_, err := f.svc.CreateRefund(context.Background(), req)
	require.NoError(t, err)
	_, err = f.svc.CreateRefund(context.Background(), req)
	require.ErrorIs(t, err, domain.ErrAlreadyRefunded)

	assert.Equal(t, 10, f.stock(t, productFormalShoe))
}

func TestRefundWindowIsConfigurable(t *testing.T) {
	f := newFixture(t)
	f.svc = New(f.repo, WithClock(f.clock.Now), WithRefundWindowDays(7))
	sale := f.sell(t, customerKamal, "0", item(productFormalShoe, 1))

	f.clock.Advance(6 * 24 * time.Hour)
	_, err := f.svc.CreateRefund(context.Background(), domain.RefundRequest{
		SaleID:                sale.ID,
		RefundAmount:          sale.NetAmount,
		Reason:                "defect",
		HasTags:               true,
		ProcessedByEmployeeID: employeeAdmin,
	})
	assert.NoError(t, err)
}

func TestSaleReadAccessors(t *testing.T) {
	f := newFixture(t)
	first := f.sell(t, customerKamal, "0", item(productFormalShoe, 1))
	f.clock.Advance(48 * time.Hour)
	second := f.sell(t, customerNadeesha, "0", item(productHeels, 1))
	ctx := context.Background()

	_, ok, err := f.svc.GetSaleByID(ctx, 404)
	require.NoError(t, err)
	assert.False(t, ok)

	got, ok, err := f.svc.GetSaleByID(ctx, first.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first.InvoiceNo, got.InvoiceNo)

	byCustomer, err := f.svc.GetSalesByCustomer(ctx, customerNadeesha)
	require.NoError(t, err)
	require.Len(t, byCustomer, 1)
	assert.Equal(t, second.ID, byCustomer[0].ID)

	none, err := f.svc.GetSalesByCustomer(ctx, 3)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	byEmployee, err := f.svc.GetSalesByEmployee(ctx, employeeAdmin)
	require.NoError(t, err)
	assert.Len(t, byEmployee, 2)

	inclusive, err := f.svc.GetSalesByDateRange(ctx, first.SaleDateTime, second.SaleDateTime)
	require.NoError(t, err)
	assert.Len(t, inclusive, 2)

	onlyFirst, err := f.svc.GetSalesByDateRange(ctx, first.SaleDateTime, first.SaleDateTime.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, onlyFirst, 1)
	assert.Equal(t, first.ID, onlyFirst[0].ID)

	_, ok, err = f.svc.GetRefundByID(ctx, 404)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetSaleByIDServesFromCache(t *testing.T) {
	f := newFixture(t)
	sale := f.sell(t, customerKamal, "0", item(productFormalShoe, 1))

	cached := f.cache.records[sale.ID]
	cached.InvoiceNo = "INV-CACHED00"
	f.cache.records[sale.ID] = cached

	got, ok, err := f.svc.GetSaleByID(context.Background(), sale.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "INV-CACHED00", got.InvoiceNo)
}

func TestCreateSaleReturnsWhenEventBrokerStalls(t *testing.T) {
	repo := memory.NewSeeded()
	svc := New(repo,
		WithPublisher(&stalledPublisher{}),
		WithPublishTimeout(50*time.Millisecond),
	)

	started := time.Now()
	sale, err := svc.CreateSale(context.Background(), domain.SaleRequest{
		CustomerID:    customerKamal,
		EmployeeID:    employeeAdmin,
		PaymentMethod: "Cash",
		Items:         []domain.SaleItemRequest{item(productFormalShoe, 1)},
	})
	require.NoError(t, err)
	assert.Less(t, time.Since(started), time.Second)

	started = time.Now()
	_, err = svc.CreateRefund(context.Background(), domain.RefundRequest{
		SaleID:                sale.ID,
		RefundAmount:          sale.NetAmount,
		Reason:                "wrong size",
		HasTags:               true,
		ProcessedByEmployeeID: employeeAdmin,
	})
	require.NoError(t, err)
	assert.Less(t, time.Since(started), time.Second)
}

func TestGetSaleByIDCachesOnlyRefundedSales(t *testing.T) {
	f := newFixture(t)
	sale := f.sell(t, customerKamal, "0", item(productFormalShoe, 1))
	require.NoError(t, f.cache.Delete(context.Background(), sale.ID))

	got, ok, err := f.svc.GetSaleByID(context.Background(), sale.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.SaleStatusCompleted, got.Status)
	assert.NotContains(t, f.cache.records, sale.ID, "completed sales read from the store are not cached")

	_, err = f.svc.CreateRefund(context.Background(), domain.RefundRequest{
		SaleID:                sale.ID,
		RefundAmount:          sale.NetAmount,
		Reason:                "scuffed",
		HasTags:               true,
		ProcessedByEmployeeID: employeeAdmin,
	})
	require.NoError(t, err)

	got, ok, err = f.svc.GetSaleByID(context.Background(), sale.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.SaleStatusRefunded, got.Status)
	require.Contains(t, f.cache.records, sale.ID)
	assert.Equal(t, domain.SaleStatusRefunded, f.cache.records[sale.ID].Status)
}
