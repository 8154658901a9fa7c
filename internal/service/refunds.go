package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"tokosepatu/backend/internal/domain"
	"tokosepatu/backend/internal/events"
	"tokosepatu/backend/internal/ledger"
	"tokosepatu/backend/internal/observability"
	"tokosepatu/backend/internal/store"
)

// CreateRefund approves a refund and reverses the whole sale: every item goes
// back to stock and the points the sale earned are taken back. The refunded
// amount does not scale the reversal.
func (s *Service) CreateRefund(ctx context.Context, req domain.RefundRequest) (domain.RefundRecord, error) {
	ctx, span := observability.StartSpan(ctx, "service.CreateRefund")
	defer span.End()
	span.SetAttributes(attribute.Int64("sale_id", req.SaleID))

	record, pointsReversed, err := s.createRefund(ctx, req)
	if err != nil {
		span.RecordError(err)
		observability.RefundRejectionsTotal.WithLabelValues(errorKind(err)).Inc()
		return domain.RefundRecord{}, err
	}

	observability.RefundsTotal.Inc()
	s.logger.Info("refund approved",
		zap.Int64("refund_id", record.ID),
		zap.Int64("sale_id", record.SaleID),
		zap.String("refund_amount", record.RefundAmount.StringFixed(2)),
	)

	if err := s.saleCache.Delete(ctx, record.SaleID); err != nil {
		s.logger.Warn("sale cache invalidation failed", zap.Int64("sale_id", record.SaleID), zap.Error(err))
	}
	pubCtx, cancel := s.publishContext(ctx)
	defer cancel()
	err = s.publisher.PublishSaleRefunded(pubCtx, events.SaleRefunded{
		BaseEvent:      events.BaseEvent{EventID: uuid.NewString(), Timestamp: s.now().UTC()},
		SaleID:         record.SaleID,
		RefundID:       record.ID,
		RefundAmount:   record.RefundAmount,
		ProcessedBy:    record.ProcessedByEmployeeID,
		PointsReversed: pointsReversed,
	})
	if err != nil {
		s.logger.Error("publish sale refunded event failed", zap.Int64("sale_id", record.SaleID), zap.Error(err))
	}
	return record, nil
}

func (s *Service) createRefund(ctx context.Context, req domain.RefundRequest) (domain.RefundRecord, int, error) {
	var (
		refund   domain.Refund
		sale     *domain.Sale
		employee *domain.Employee
	)
	err := s.repo.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		sale, err = tx.GetSaleByIDForUpdate(ctx, req.SaleID)
		if err != nil {
			return storeErr(err, domain.EntitySale, req.SaleID, "")
		}

		now := s.now().UTC()
		if wholeDaysBetween(sale.SaleDateTime, now) > s.refundWindowDays {
			return domain.RefundWindowExpired(s.refundWindowDays)
		}
		if !req.HasTags {
			return domain.TagsRequired()
		}
		if sale.Status == domain.SaleStatusRefunded {
			return domain.AlreadyRefunded(sale.ID)
		}
		if !req.RefundAmount.IsPositive() || !domain.IsMoneyAmount(req.RefundAmount) || req.RefundAmount.GreaterThan(sale.NetAmount) {
			return domain.InvalidRefundAmount()
		}

		employee, err = tx.GetEmployeeByID(ctx, req.ProcessedByEmployeeID)
		if err != nil {
			return storeErr(err, domain.EntityEmployee, req.ProcessedByEmployeeID, "")
		}
		if !strings.EqualFold(employee.Role, domain.EmployeeRoleAdmin) {
			return domain.AdminRequired()
		}

		refund = domain.Refund{
			SaleID:                sale.ID,
			RefundDateTime:        now,
			RefundAmount:          req.RefundAmount,
			Reason:                req.Reason,
			HasTags:               req.HasTags,
			ProcessedByEmployeeID: employee.ID,
			Status:                domain.RefundStatusApproved,
		}
		if err := tx.InsertRefund(ctx, &refund); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return domain.AlreadyRefunded(sale.ID)
			}
			return err
		}
		if err := tx.SetSaleStatus(ctx, sale.ID, domain.SaleStatusRefunded); err != nil {
			return err
		}

		if err := restock(ctx, tx, sale.Items); err != nil {
			return err
		}

		customer, err := ledger.ApplyPointsDelta(ctx, tx, sale.CustomerID, -sale.LoyaltyPointsEarned)
		if err != nil {
			return err
		}
		if customer.LoyaltyPoints < 0 {
			s.logger.Warn("loyalty balance went negative after refund",
				zap.Int64("customer_id", customer.ID),
				zap.Int("loyalty_points", customer.LoyaltyPoints),
			)
		}
		return nil
	})
	if err != nil {
		return domain.RefundRecord{}, 0, err
	}

	if refund.RefundAmount.LessThan(sale.NetAmount) {
		// partial refunds still reverse every item and all earned points
		s.logger.Warn("partial refund fully reversed sale",
			zap.Int64("sale_id", sale.ID),
			zap.String("refund_amount", refund.RefundAmount.StringFixed(2)),
			zap.String("net_amount", sale.NetAmount.StringFixed(2)),
		)
	}

	return toRefundRecord(refund, sale.InvoiceNo, employee), sale.LoyaltyPointsEarned, nil
}

// restock returns every item to stock, locking products in ascending id order.
func restock(ctx context.Context, tx store.Tx, items []domain.SaleItem) error {
	ordered := slices.Clone(items)
	slices.SortStableFunc(ordered, func(a, b domain.SaleItem) int {
		switch {
		case a.ProductID < b.ProductID:
			return -1
		case a.ProductID > b.ProductID:
			return 1
		default:
			return 0
		}
	})

	for _, item := range ordered {
		product, err := tx.GetProductByIDForUpdate(ctx, item.ProductID)
		if err != nil {
			return storeErr(err, domain.EntityProduct, item.ProductID, "")
		}
		if _, err := ledger.AdjustStock(ctx, tx, product.Code, item.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// wholeDaysBetween counts complete 24h periods from from to to.
func wholeDaysBetween(from time.Time, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	return int(to.Sub(from) / (24 * time.Hour))
}

// GetRefundByID reports (zero, false, nil) when the refund does not exist.
func (s *Service) GetRefundByID(ctx context.Context, id int64) (domain.RefundRecord, bool, error) {
	refund, err := s.repo.GetRefundByID(ctx, id)
	return s.refundView(ctx, refund, err)
}

// GetRefundBySaleID reports (zero, false, nil) when the sale has no refund.
func (s *Service) GetRefundBySaleID(ctx context.Context, saleID int64) (domain.RefundRecord, bool, error) {
	refund, err := s.repo.GetRefundBySaleID(ctx, saleID)
	return s.refundView(ctx, refund, err)
}

func (s *Service) refundView(ctx context.Context, refund *domain.Refund, err error) (domain.RefundRecord, bool, error) {
	if errors.Is(err, store.ErrNotFound) {
		return domain.RefundRecord{}, false, nil
	}
	if err != nil {
		return domain.RefundRecord{}, false, err
	}

	var invoice string
	sale, err := s.repo.GetSaleByID(ctx, refund.SaleID)
	switch {
	case err == nil:
		invoice = sale.InvoiceNo
	case !errors.Is(err, store.ErrNotFound):
		return domain.RefundRecord{}, false, err
	}

	employee, err := s.repo.GetEmployeeByID(ctx, refund.ProcessedByEmployeeID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return domain.RefundRecord{}, false, err
	}
	return toRefundRecord(*refund, invoice, employee), true, nil
}

func toRefundRecord(refund domain.Refund, invoiceNo string, employee *domain.Employee) domain.RefundRecord {
	record := domain.RefundRecord{
		ID:                    refund.ID,
		SaleID:                refund.SaleID,
		InvoiceNo:             invoiceNo,
		RefundDateTime:        refund.RefundDateTime,
		RefundAmount:          refund.RefundAmount,
		Reason:                refund.Reason,
		HasTags:               refund.HasTags,
		ProcessedByEmployeeID: refund.ProcessedByEmployeeID,
		Status:                refund.Status,
	}
	if employee != nil {
		record.ProcessedByEmployeeName = employee.DisplayName()
	}
	return record
}
