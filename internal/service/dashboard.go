package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"tokosepatu/backend/internal/domain"
)

const (
	topSellingLimit = 5
	trendDays       = 30
)

// profitMargin is a flat placeholder until product costs are tracked.
var profitMargin = decimal.RequireFromString("0.20")

func (s *Service) DashboardSummary(ctx context.Context) (domain.DashboardSummary, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.DashboardSummary{}, err
	}

	revenue, err := s.repo.TotalRevenue(ctx)
	if err != nil {
		return domain.DashboardSummary{}, err
	}
	counts, err := s.repo.CountEntities(ctx)
	if err != nil {
		return domain.DashboardSummary{}, err
	}
	lowStock, err := s.repo.ListLowStockProducts(ctx)
	if err != nil {
		return domain.DashboardSummary{}, err
	}
	top, err := s.repo.TopSellingProducts(ctx, topSellingLimit)
	if err != nil {
		return domain.DashboardSummary{}, err
	}

	now := s.now().UTC()
	from := startOfDay(now.AddDate(0, 0, -trendDays))
	daily, err := s.repo.DailySalesTotals(ctx, from, now)
	if err != nil {
		return domain.DashboardSummary{}, err
	}
	trends := make([]domain.SalesTrendPoint, 0, len(daily))
	for _, d := range daily {
		trends = append(trends, domain.SalesTrendPoint{
			Date:             d.Day.Format("2006-01-02"),
			TotalSalesAmount: d.Amount,
			TotalSalesCount:  d.Count,
		})
	}

	return domain.DashboardSummary{
		TotalSalesRevenue:  revenue,
		TotalProfit:        revenue.Mul(profitMargin).Round(2),
		TotalCustomers:     counts.Customers,
		TotalEmployees:     counts.Employees,
		TotalProducts:      counts.Products,
		TotalSuppliers:     counts.Suppliers,
		TotalSales:         counts.Sales,
		TotalLowStockItems: len(lowStock),
		LowStockItems:      lowStock,
		TopSellingItems:    top,
		DailySalesTrends:   trends,
	}, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
