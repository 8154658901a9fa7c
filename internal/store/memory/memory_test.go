package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokosepatu/backend/internal/domain"
	"tokosepatu/backend/internal/store"
)

func TestWithinTxDiscardsWritesOnError(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		p, err := tx.GetProductByCodeForUpdate(ctx, "FSM00001")
		if err != nil {
			return err
		}
		if err := tx.SetProductStock(ctx, p.ID, 0); err != nil {
			return err
		}
		if err := tx.SetCustomerLoyalty(ctx, 1, 999, domain.TierSilver); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	p, err := s.GetProductByCode(ctx, "FSM00001")
	require.NoError(t, err)
	assert.Equal(t, 10, p.CurrentStock)

	c, err := s.GetCustomerByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, c.LoyaltyPoints)
	assert.Equal(t, domain.TierBronze, c.LoyaltyTier)
}

func TestWithinTxHonoursCancelledContext(t *testing.T) {
	s := NewSeeded()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.WithinTx(ctx, func(context.Context, store.Tx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestInsertSaleAssignsIDsAndRejectsDuplicateInvoice(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	newSale := func() *domain.Sale {
		return &domain.Sale{
			InvoiceNo:    "INV-0000ABCD",
			CustomerID:   1,
			EmployeeID:   1,
			SaleDateTime: time.Now().UTC(),
			TotalAmount:  decimal.RequireFromString("50.00"),
			NetAmount:    decimal.RequireFromString("50.00"),
			Status:       domain.SaleStatusCompleted,
			Items: []domain.SaleItem{
				{ProductID: 1, Quantity: 1, UnitPrice: decimal.RequireFromString("50.00"), Subtotal: decimal.RequireFromString("50.00")},
			},
		}
	}

	first := newSale()
	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.InsertSale(ctx, first)
	}))
	assert.NotZero(t, first.ID)
	assert.Equal(t, first.ID, first.Items[0].SaleID)
	assert.NotZero(t, first.Items[0].ID)

	err := s.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		exists, err := tx.InvoiceExists(ctx, "INV-0000ABCD")
		require.NoError(t, err)
		assert.True(t, exists)
		return tx.InsertSale(ctx, newSale())
	})
	assert.ErrorIs(t, err, store.ErrConflict)

	// mutating the caller's copy must not leak into the store
	first.Items[0].Quantity = 99
	stored, err := s.GetSaleByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Items[0].Quantity)
}

func TestDeleteReferencedRowsConflict(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.InsertSale(ctx, &domain.Sale{
			InvoiceNo:  "INV-00000001",
			CustomerID: 2,
			EmployeeID: 2,
			Status:     domain.SaleStatusCompleted,
			Items:      []domain.SaleItem{{ProductID: 3, Quantity: 1}},
		})
	}))

	assert.ErrorIs(t, s.DeleteProduct(ctx, 3), store.ErrConflict)
	assert.ErrorIs(t, s.DeleteCustomer(ctx, 2), store.ErrConflict)
	assert.ErrorIs(t, s.DeleteEmployee(ctx, 2), store.ErrConflict)
	assert.NoError(t, s.DeleteProduct(ctx, 4))
	assert.ErrorIs(t, s.DeleteProduct(ctx, 4), store.ErrNotFound)
}

func TestInsertRefundOncePerSale(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	insert := func(ctx context.Context, tx store.Tx) error {
		return tx.InsertRefund(ctx, &domain.Refund{SaleID: 7, RefundAmount: decimal.NewFromInt(1), Status: domain.RefundStatusApproved})
	}
	require.NoError(t, s.WithinTx(ctx, insert))
	assert.ErrorIs(t, s.WithinTx(ctx, insert), store.ErrConflict)

	r, err := s.GetRefundBySaleID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, domain.RefundStatusApproved, r.Status)

	_, err = s.GetRefundBySaleID(ctx, 8)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdatesKeepLedgerOwnedFields(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	p, err := s.GetProductByID(ctx, 1)
	require.NoError(t, err)
	p.CurrentStock = 1000
	p.Name = "Renamed"
	updated, err := s.UpdateProduct(ctx, *p)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, 10, updated.CurrentStock)

	c, err := s.GetCustomerByID(ctx, 2)
	require.NoError(t, err)
	c.LoyaltyPoints = 0
	c.City = "Matara"
	cu, err := s.UpdateCustomer(ctx, *c)
	require.NoError(t, err)
	assert.Equal(t, 620, cu.LoyaltyPoints)
	assert.Equal(t, "Matara", cu.City)
}

func TestDailySalesTotalsGroupsByUTCDay(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()
	day1 := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	day2 := day1.Add(26 * time.Hour)

	for i, at := range []time.Time{day1, day1.Add(time.Hour), day2} {
		at := at
		invoice := []string{"INV-A", "INV-B", "INV-C"}[i]
		require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
			return tx.InsertSale(ctx, &domain.Sale{
				InvoiceNo:    invoice,
				CustomerID:   1,
				EmployeeID:   1,
				SaleDateTime: at,
				NetAmount:    decimal.NewFromInt(10),
				Status:       domain.SaleStatusCompleted,
			})
		}))
	}

	totals, err := s.DailySalesTotals(ctx, day1.Add(-time.Hour), day2)
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, 2, totals[0].Count)
	assert.True(t, totals[0].Amount.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, 1, totals[1].Count)

	revenue, err := s.TotalRevenue(ctx)
	require.NoError(t, err)
	assert.True(t, revenue.Equal(decimal.NewFromInt(30)))
}
