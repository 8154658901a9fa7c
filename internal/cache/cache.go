package cache

import (
	"context"
	"strconv"
	"time"

	"tokosepatu/backend/internal/domain"
)

// SaleCache holds read-side sale views. Misses are reported as (nil, false, nil).
type SaleCache interface {
	Get(ctx context.Context, saleID int64) (*domain.SaleRecord, bool, error)
	Set(ctx context.Context, record *domain.SaleRecord, ttl time.Duration) error
	Delete(ctx context.Context, saleID int64) error
}

type NoopSaleCache struct{}

func (NoopSaleCache) Get(_ context.Context, _ int64) (*domain.SaleRecord, bool, error) {
	return nil, false, nil
}

func (NoopSaleCache) Set(_ context.Context, _ *domain.SaleRecord, _ time.Duration) error {
	return nil
}

func (NoopSaleCache) Delete(_ context.Context, _ int64) error {
	return nil
}

func saleKey(saleID int64) string {
	return "sale:" + strconv.FormatInt(saleID, 10)
}
