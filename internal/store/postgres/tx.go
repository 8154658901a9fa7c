package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"tokosepatu/backend/internal/domain"
	"tokosepatu/backend/internal/store"
)

type pgTx struct {
	tx *sqlx.Tx
}

var _ store.Tx = (*pgTx)(nil)

func (t *pgTx) GetProductByIDForUpdate(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	if err := t.tx.GetContext(ctx, &p, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id); err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (t *pgTx) GetProductByCodeForUpdate(ctx context.Context, code string) (*domain.Product, error) {
	var p domain.Product
	if err := t.tx.GetContext(ctx, &p, `SELECT `+productColumns+` FROM products WHERE product_code = $1 FOR UPDATE`, code); err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (t *pgTx) SetProductStock(ctx context.Context, id int64, stock int) error {
	return expectOneRow(t.tx.ExecContext(ctx, `UPDATE products SET current_stock = $2 WHERE id = $1`, id, stock))
}

func (t *pgTx) GetCustomerByIDForUpdate(ctx context.Context, id int64) (*domain.Customer, error) {
	var c domain.Customer
	if err := t.tx.GetContext(ctx, &c, `SELECT `+customerColumns+` FROM customers WHERE id = $1 FOR UPDATE`, id); err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (t *pgTx) SetCustomerLoyalty(ctx context.Context, id int64, points int, tier string) error {
	return expectOneRow(t.tx.ExecContext(ctx, `
		UPDATE customers SET loyalty_points = $2, loyalty_level = $3 WHERE id = $1
	`, id, points, tier))
}

func (t *pgTx) GetEmployeeByID(ctx context.Context, id int64) (*domain.Employee, error) {
	var e domain.Employee
	if err := t.tx.GetContext(ctx, &e, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id); err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

func (t *pgTx) InvoiceExists(ctx context.Context, invoiceNo string) (bool, error) {
	var exists bool
	err := t.tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM sales WHERE invoice_no = $1)`, invoiceNo)
	return exists, err
}

func (t *pgTx) InsertSale(ctx context.Context, sale *domain.Sale) error {
	err := t.tx.QueryRowxContext(ctx, `
		INSERT INTO sales (invoice_no, customer_id, employee_id, sale_date_time, total_amount, discount,
			net_amount, payment_method, card_payment_details, loyalty_points_earned, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING id
	`, sale.InvoiceNo, sale.CustomerID, sale.EmployeeID, sale.SaleDateTime, sale.TotalAmount, sale.Discount,
		sale.NetAmount, sale.PaymentMethod, sale.CardPaymentDetails, sale.LoyaltyPointsEarned, sale.Status,
	).Scan(&sale.ID)
	if err != nil {
		return translate(err)
	}

	for i := range sale.Items {
		item := &sale.Items[i]
		item.SaleID = sale.ID
		err := t.tx.QueryRowxContext(ctx, `
			INSERT INTO sale_items (sale_id, product_id, quantity, unit_price, subtotal)
			VALUES ($1,$2,$3,$4,$5)
			RETURNING id
		`, item.SaleID, item.ProductID, item.Quantity, item.UnitPrice, item.Subtotal).Scan(&item.ID)
		if err != nil {
			return translate(err)
		}
	}
	return nil
}

func (t *pgTx) GetSaleByIDForUpdate(ctx context.Context, id int64) (*domain.Sale, error) {
	var sale domain.Sale
	if err := t.tx.GetContext(ctx, &sale, `SELECT `+saleColumns+` FROM sales WHERE id = $1 FOR UPDATE`, id); err != nil {
		return nil, translate(err)
	}
	items := make([]domain.SaleItem, 0, 4)
	if err := t.tx.SelectContext(ctx, &items, `SELECT `+saleItemColumns+` FROM sale_items WHERE sale_id = $1 ORDER BY id`, id); err != nil {
		return nil, err
	}
	sale.Items = items
	return &sale, nil
}

func (t *pgTx) SetSaleStatus(ctx context.Context, id int64, status string) error {
	return expectOneRow(t.tx.ExecContext(ctx, `UPDATE sales SET status = $2 WHERE id = $1`, id, status))
}

func (t *pgTx) InsertRefund(ctx context.Context, refund *domain.Refund) error {
	err := t.tx.QueryRowxContext(ctx, `
		INSERT INTO refunds (sale_id, refund_date_time, refund_amount, reason, has_tags, processed_by_employee_id, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id
	`, refund.SaleID, refund.RefundDateTime, refund.RefundAmount, refund.Reason, refund.HasTags,
		refund.ProcessedByEmployeeID, refund.Status,
	).Scan(&refund.ID)
	return translate(err)
}
