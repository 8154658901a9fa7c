// Package ledger holds the only code paths allowed to change product stock
// and customer loyalty balances. Both operate inside a caller-owned unit of
// work and lock the row they touch.
package ledger

import (
	"context"
	"errors"

	"tokosepatu/backend/internal/domain"
	"tokosepatu/backend/internal/store"
)

// AdjustStock applies a signed delta to a product's stock. The product is
// left untouched when the result would be negative.
func AdjustStock(ctx context.Context, tx store.Tx, productCode string, delta int) (*domain.Product, error) {
	product, err := tx.GetProductByCodeForUpdate(ctx, productCode)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domain.NotFound(domain.EntityProduct, productCode)
		}
		return nil, err
	}

	next := product.CurrentStock + delta
	if next < 0 {
		return nil, domain.InsufficientStock(product.Code, product.CurrentStock, -delta)
	}
	if delta == 0 {
		return product, nil
	}

	if err := tx.SetProductStock(ctx, product.ID, next); err != nil {
		return nil, err
	}
	product.CurrentStock = next
	return product, nil
}

// ApplyPointsDelta adds delta to a customer's points and recomputes the tier.
// Negative balances are not clamped.
func ApplyPointsDelta(ctx context.Context, tx store.Tx, customerID int64, delta int) (*domain.Customer, error) {
	customer, err := tx.GetCustomerByIDForUpdate(ctx, customerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domain.NotFound(domain.EntityCustomer, customerID)
		}
		return nil, err
	}

	points := customer.LoyaltyPoints + delta
	tier := domain.TierFor(points)
	if err := tx.SetCustomerLoyalty(ctx, customer.ID, points, tier); err != nil {
		return nil, err
	}
	customer.LoyaltyPoints = points
	customer.LoyaltyTier = tier
	return customer, nil
}
