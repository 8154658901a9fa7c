package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"tokosepatu/backend/internal/domain"
	"tokosepatu/backend/internal/events"
	"tokosepatu/backend/internal/ledger"
	"tokosepatu/backend/internal/observability"
	"tokosepatu/backend/internal/store"
	"tokosepatu/backend/internal/xid"
)

const maxInvoiceAttempts = 10

// CreateSale records a sale as one unit of work: stock is decremented per
// item in input order, loyalty points are credited and the sale is stored.
// Nothing is kept when any step fails.
func (s *Service) CreateSale(ctx context.Context, req domain.SaleRequest) (domain.SaleRecord, error) {
	ctx, span := observability.StartSpan(ctx, "service.CreateSale")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("customer_id", req.CustomerID),
		attribute.Int("item_count", len(req.Items)),
	)

	record, err := s.createSale(ctx, req)
	if err != nil {
		span.RecordError(err)
		observability.SaleFailuresTotal.WithLabelValues(errorKind(err)).Inc()
		return domain.SaleRecord{}, err
	}

	observability.SalesCreatedTotal.Inc()
	observability.SaleNetAmount.Observe(record.NetAmount.InexactFloat64())
	s.logger.Info("sale completed",
		zap.Int64("sale_id", record.ID),
		zap.String("invoice_no", record.InvoiceNo),
		zap.String("net_amount", record.NetAmount.StringFixed(2)),
		zap.Int("loyalty_points_earned", record.LoyaltyPointsEarned),
	)

	s.cacheSale(ctx, &record)
	s.publishSaleCompleted(ctx, record)
	return record, nil
}

func (s *Service) createSale(ctx context.Context, req domain.SaleRequest) (domain.SaleRecord, error) {
	if len(req.Items) == 0 {
		return domain.SaleRecord{}, domain.InvalidRequest("sale must contain at least one item")
	}
	for _, item := range req.Items {
		if item.Quantity < 1 {
			return domain.SaleRecord{}, domain.InvalidRequest(fmt.Sprintf("quantity for product %d must be at least 1", item.ProductID))
		}
	}
	if req.Discount.IsNegative() {
		return domain.SaleRecord{}, domain.InvalidRequest("discount cannot be negative")
	}
	if !domain.IsMoneyAmount(req.Discount) {
		return domain.SaleRecord{}, domain.InvalidRequest("discount must not have more than 2 decimal places")
	}

	customer, err := s.repo.GetCustomerByID(ctx, req.CustomerID)
	if err != nil {
		return domain.SaleRecord{}, storeErr(err, domain.EntityCustomer, req.CustomerID, "")
	}
	employee, err := s.repo.GetEmployeeByID(ctx, req.EmployeeID)
	if err != nil {
		return domain.SaleRecord{}, storeErr(err, domain.EntityEmployee, req.EmployeeID, "")
	}

	var (
		sale     domain.Sale
		products map[int64]domain.Product
	)
	err = s.repo.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		locked, err := lockProducts(ctx, tx, req.Items)
		if err != nil {
			return err
		}

		total := decimal.Zero
		items := make([]domain.SaleItem, 0, len(req.Items))
		for _, line := range req.Items {
			product, ok := locked[line.ProductID]
			if !ok {
				return domain.NotFound(domain.EntityProduct, line.ProductID)
			}
			updated, err := ledger.AdjustStock(ctx, tx, product.Code, -line.Quantity)
			if err != nil {
				return err
			}
			locked[line.ProductID] = *updated

			subtotal := product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
			total = total.Add(subtotal)
			items = append(items, domain.SaleItem{
				ProductID: product.ID,
				Quantity:  line.Quantity,
				UnitPrice: product.Price,
				Subtotal:  subtotal,
			})
		}

		net := total.Sub(req.Discount)
		if net.IsNegative() {
			return domain.InvalidDiscount()
		}

		method, err := normalizePaymentMethod(req.PaymentMethod)
		if err != nil {
			return err
		}

		points := domain.PointsFor(net)
		if _, err := ledger.ApplyPointsDelta(ctx, tx, customer.ID, points); err != nil {
			return err
		}

		var cardMarker string
		if method == domain.PaymentMethodCard {
			cardMarker, err = s.payments.Process(ctx, req.CardPaymentDetails)
			if err != nil {
				return fmt.Errorf("card payment: %w", err)
			}
		}

		invoice, err := uniqueInvoice(ctx, tx)
		if err != nil {
			return err
		}

		sale = domain.Sale{
			InvoiceNo:           invoice,
			CustomerID:          customer.ID,
			EmployeeID:          employee.ID,
			SaleDateTime:        s.now().UTC(),
			TotalAmount:         total,
			Discount:            req.Discount,
			NetAmount:           net,
			PaymentMethod:       method,
			CardPaymentDetails:  cardMarker,
			LoyaltyPointsEarned: points,
			Status:              domain.SaleStatusCompleted,
			Items:               items,
		}
		if err := tx.InsertSale(ctx, &sale); err != nil {
			return err
		}
		products = locked
		return nil
	})
	if err != nil {
		return domain.SaleRecord{}, err
	}

	return toSaleRecord(sale, customer, employee, products), nil
}

// lockProducts locks every distinct product of the request in ascending id
// order. Unknown ids are left out of the result.
func lockProducts(ctx context.Context, tx store.Tx, lines []domain.SaleItemRequest) (map[int64]domain.Product, error) {
	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	slices.Sort(ids)
	ids = slices.Compact(ids)

	locked := make(map[int64]domain.Product, len(ids))
	for _, id := range ids {
		product, err := tx.GetProductByIDForUpdate(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		locked[id] = *product
	}
	return locked, nil
}

func uniqueInvoice(ctx context.Context, tx store.Tx) (string, error) {
	for attempt := 0; attempt < maxInvoiceAttempts; attempt++ {
		invoice := xid.Invoice()
		exists, err := tx.InvoiceExists(ctx, invoice)
		if err != nil {
			return "", err
		}
		if !exists {
			return invoice, nil
		}
	}
	return "", errors.New("could not allocate a unique invoice number")
}

func normalizePaymentMethod(method string) (string, error) {
	switch {
	case strings.EqualFold(strings.TrimSpace(method), domain.PaymentMethodCash):
		return domain.PaymentMethodCash, nil
	case strings.EqualFold(strings.TrimSpace(method), domain.PaymentMethodCard):
		return domain.PaymentMethodCard, nil
	default:
		return "", domain.InvalidPaymentMethod(method)
	}
}

// GetSaleByID reports (zero, false, nil) when the sale does not exist.
func (s *Service) GetSaleByID(ctx context.Context, id int64) (domain.SaleRecord, bool, error) {
	cached, ok, err := s.saleCache.Get(ctx, id)
	if err != nil {
		s.logger.Warn("sale cache read failed", zap.Int64("sale_id", id), zap.Error(err))
	}
	if ok && cached != nil {
		return *cached, true, nil
	}

	sale, err := s.repo.GetSaleByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.SaleRecord{}, false, nil
	}
	if err != nil {
		return domain.SaleRecord{}, false, err
	}

	records, err := s.hydrateSales(ctx, []domain.Sale{*sale})
	if err != nil {
		return domain.SaleRecord{}, false, err
	}
	// a completed sale read here may be refunded before Set lands, which
	// would outlive the refund's invalidation
	if records[0].Status == domain.SaleStatusRefunded {
		s.cacheSale(ctx, &records[0])
	}
	return records[0], true, nil
}

func (s *Service) ListSales(ctx context.Context) ([]domain.SaleRecord, error) {
	sales, err := s.repo.ListSales(ctx)
	if err != nil {
		return nil, err
	}
	return s.hydrateSales(ctx, sales)
}

func (s *Service) GetSalesByCustomer(ctx context.Context, customerID int64) ([]domain.SaleRecord, error) {
	sales, err := s.repo.ListSalesByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return s.hydrateSales(ctx, sales)
}

func (s *Service) GetSalesByEmployee(ctx context.Context, employeeID int64) ([]domain.SaleRecord, error) {
	sales, err := s.repo.ListSalesByEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return s.hydrateSales(ctx, sales)
}

// GetSalesByDateRange is inclusive on both ends.
func (s *Service) GetSalesByDateRange(ctx context.Context, start time.Time, end time.Time) ([]domain.SaleRecord, error) {
	sales, err := s.repo.ListSalesBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return s.hydrateSales(ctx, sales)
}

// hydrateSales resolves the customer, employee and product data each view needs.
func (s *Service) hydrateSales(ctx context.Context, sales []domain.Sale) ([]domain.SaleRecord, error) {
	records := make([]domain.SaleRecord, 0, len(sales))
	if len(sales) == 0 {
		return records, nil
	}

	productIDs := make([]int64, 0, len(sales))
	for _, sale := range sales {
		for _, item := range sale.Items {
			productIDs = append(productIDs, item.ProductID)
		}
	}
	slices.Sort(productIDs)
	products, err := s.repo.GetProductsByIDs(ctx, slices.Compact(productIDs))
	if err != nil {
		return nil, err
	}

	customers := make(map[int64]*domain.Customer)
	employees := make(map[int64]*domain.Employee)
	for _, sale := range sales {
		customer, ok := customers[sale.CustomerID]
		if !ok {
			customer, err = s.repo.GetCustomerByID(ctx, sale.CustomerID)
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				return nil, err
			}
			customers[sale.CustomerID] = customer
		}
		employee, ok := employees[sale.EmployeeID]
		if !ok {
			employee, err = s.repo.GetEmployeeByID(ctx, sale.EmployeeID)
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				return nil, err
			}
			employees[sale.EmployeeID] = employee
		}
		records = append(records, toSaleRecord(sale, customer, employee, products))
	}
	return records, nil
}

func toSaleRecord(sale domain.Sale, customer *domain.Customer, employee *domain.Employee, products map[int64]domain.Product) domain.SaleRecord {
	record := domain.SaleRecord{
		ID:                  sale.ID,
		InvoiceNo:           sale.InvoiceNo,
		CustomerID:          sale.CustomerID,
		EmployeeID:          sale.EmployeeID,
		SaleDateTime:        sale.SaleDateTime,
		TotalAmount:         sale.TotalAmount,
		Discount:            sale.Discount,
		NetAmount:           sale.NetAmount,
		PaymentMethod:       sale.PaymentMethod,
		CardPaymentDetails:  sale.CardPaymentDetails,
		LoyaltyPointsEarned: sale.LoyaltyPointsEarned,
		Status:              sale.Status,
		Items:               make([]domain.SaleItemRecord, 0, len(sale.Items)),
	}
	if customer != nil {
		record.CustomerFirstName = customer.FirstName
		record.CustomerLastName = customer.LastName
	}
	if employee != nil {
		record.EmployeeFirstName = employee.FirstName
		record.EmployeeLastName = employee.LastName
	}
	for _, item := range sale.Items {
		product := products[item.ProductID]
		record.Items = append(record.Items, domain.SaleItemRecord{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: product.Name,
			ProductCode: product.Code,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.Subtotal,
		})
	}
	return record
}

func (s *Service) cacheSale(ctx context.Context, record *domain.SaleRecord) {
	if err := s.saleCache.Set(ctx, record, s.saleCacheTTL); err != nil {
		s.logger.Warn("sale cache write failed", zap.Int64("sale_id", record.ID), zap.Error(err))
	}
}

func (s *Service) publishSaleCompleted(ctx context.Context, record domain.SaleRecord) {
	lines := make([]events.SaleLine, 0, len(record.Items))
	for _, item := range record.Items {
		lines = append(lines, events.SaleLine{
			ProductID:   item.ProductID,
			ProductCode: item.ProductCode,
			Quantity:    item.Quantity,
		})
	}

	ctx, cancel := s.publishContext(ctx)
	defer cancel()
	err := s.publisher.PublishSaleCompleted(ctx, events.SaleCompleted{
		BaseEvent:     events.BaseEvent{EventID: uuid.NewString(), Timestamp: s.now().UTC()},
		SaleID:        record.ID,
		InvoiceNo:     record.InvoiceNo,
		CustomerID:    record.CustomerID,
		EmployeeID:    record.EmployeeID,
		NetAmount:     record.NetAmount,
		PaymentMethod: record.PaymentMethod,
		PointsEarned:  record.LoyaltyPointsEarned,
		Items:         lines,
	})
	if err != nil {
		s.logger.Error("publish sale completed event failed", zap.Int64("sale_id", record.ID), zap.Error(err))
	}
}
