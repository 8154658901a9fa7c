package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tokosepatu/backend/internal/domain"
	"tokosepatu/backend/internal/store"
)

const saleColumns = `id, invoice_no, customer_id, employee_id, sale_date_time, total_amount, discount, net_amount,
	payment_method, card_payment_details, loyalty_points_earned, status`

const saleItemColumns = `id, sale_id, product_id, quantity, unit_price, subtotal`

const refundColumns = `id, sale_id, refund_date_time, refund_amount, reason, has_tags, processed_by_employee_id, status`

func (s *Store) GetSaleByID(ctx context.Context, id int64) (*domain.Sale, error) {
	var sale domain.Sale
	if err := s.db.GetContext(ctx, &sale, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id); err != nil {
		return nil, translate(err)
	}
	sales := []domain.Sale{sale}
	if err := s.attachItems(ctx, sales); err != nil {
		return nil, err
	}
	return &sales[0], nil
}

func (s *Store) ListSales(ctx context.Context) ([]domain.Sale, error) {
	return s.selectSales(ctx, `ORDER BY sale_date_time, id`)
}

func (s *Store) ListSalesByCustomer(ctx context.Context, customerID int64) ([]domain.Sale, error) {
	return s.selectSales(ctx, `WHERE customer_id = $1 ORDER BY sale_date_time, id`, customerID)
}

func (s *Store) ListSalesByEmployee(ctx context.Context, employeeID int64) ([]domain.Sale, error) {
	return s.selectSales(ctx, `WHERE employee_id = $1 ORDER BY sale_date_time, id`, employeeID)
}

func (s *Store) ListSalesBetween(ctx context.Context, from time.Time, to time.Time) ([]domain.Sale, error) {
	return s.selectSales(ctx, `WHERE sale_date_time >= $1 AND sale_date_time <= $2 ORDER BY sale_date_time, id`, from, to)
}

func (s *Store) selectSales(ctx context.Context, clause string, args ...any) ([]domain.Sale, error) {
	sales := make([]domain.Sale, 0, 32)
	if err := s.db.SelectContext(ctx, &sales, `SELECT `+saleColumns+` FROM sales `+clause, args...); err != nil {
		return nil, err
	}
	if err := s.attachItems(ctx, sales); err != nil {
		return nil, err
	}
	return sales, nil
}

// attachItems loads the line items of every sale in one query.
func (s *Store) attachItems(ctx context.Context, sales []domain.Sale) error {
	if len(sales) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(sales))
	index := make(map[int64]int, len(sales))
	for i := range sales {
		ids = append(ids, sales[i].ID)
		index[sales[i].ID] = i
		sales[i].Items = make([]domain.SaleItem, 0, 4)
	}

	var items []domain.SaleItem
	err := s.db.SelectContext(ctx, &items, `
		SELECT `+saleItemColumns+`
		FROM sale_items
		WHERE sale_id = ANY($1)
		ORDER BY sale_id, id
	`, ids)
	if err != nil {
		return err
	}
	for _, item := range items {
		i := index[item.SaleID]
		sales[i].Items = append(sales[i].Items, item)
	}
	return nil
}

func (s *Store) GetRefundByID(ctx context.Context, id int64) (*domain.Refund, error) {
	var r domain.Refund
	if err := s.db.GetContext(ctx, &r, `SELECT `+refundColumns+` FROM refunds WHERE id = $1`, id); err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

func (s *Store) GetRefundBySaleID(ctx context.Context, saleID int64) (*domain.Refund, error) {
	var r domain.Refund
	if err := s.db.GetContext(ctx, &r, `SELECT `+refundColumns+` FROM refunds WHERE sale_id = $1`, saleID); err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

func (s *Store) CountEntities(ctx context.Context) (domain.EntityCounts, error) {
	var counts domain.EntityCounts
	err := s.db.GetContext(ctx, &counts, `
		SELECT
			(SELECT COUNT(*) FROM products)  AS products,
			(SELECT COUNT(*) FROM customers) AS customers,
			(SELECT COUNT(*) FROM employees) AS employees,
			(SELECT COUNT(*) FROM suppliers) AS suppliers,
			(SELECT COUNT(*) FROM sales)     AS sales
	`)
	return counts, err
}

func (s *Store) TotalRevenue(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.db.GetContext(ctx, &total, `SELECT COALESCE(SUM(net_amount), 0) FROM sales`)
	return total, err
}

func (s *Store) TopSellingProducts(ctx context.Context, limit int) ([]domain.TopSellingItem, error) {
	items := make([]domain.TopSellingItem, 0, limit)
	err := s.db.SelectContext(ctx, &items, `
		SELECT
			p.id AS product_id,
			p.name AS product_name,
			p.product_code AS product_code,
			SUM(si.quantity)::int AS total_quantity_sold,
			SUM(si.subtotal) AS total_revenue
		FROM sale_items si
		JOIN products p ON p.id = si.product_id
		GROUP BY p.id, p.name, p.product_code
		ORDER BY total_quantity_sold DESC, p.id
		LIMIT $1
	`, limit)
	return items, err
}

func (s *Store) DailySalesTotals(ctx context.Context, from time.Time, to time.Time) ([]domain.DailySalesTotal, error) {
	totals := make([]domain.DailySalesTotal, 0, 31)
	err := s.db.SelectContext(ctx, &totals, `
		SELECT
			date_trunc('day', sale_date_time AT TIME ZONE 'UTC') AS day,
			SUM(net_amount) AS amount,
			COUNT(*)::int AS count
		FROM sales
		WHERE sale_date_time >= $1 AND sale_date_time <= $2
		GROUP BY day
		ORDER BY day
	`, from, to)
	if err != nil {
		return nil, err
	}
	for i := range totals {
		d := totals[i].Day
		totals[i].Day = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	}
	return totals, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	user.Username = strings.ToLower(strings.TrimSpace(user.Username))
	if user.Role == "" {
		user.Role = "cashier"
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_users (username, password, role, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,now())
	`, user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	return translate(err)
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	users := make([]domain.UserAccount, 0, 16)
	err := s.db.SelectContext(ctx, &users, `
		SELECT username, password, role, active, created_at
		FROM app_users
		ORDER BY username ASC
	`)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].CreatedAt = users[i].CreatedAt.UTC()
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return store.ErrNotFound
	}
	return expectOneRow(s.db.ExecContext(ctx, `
		UPDATE app_users
		SET password = $2, updated_at = now()
		WHERE username = $1
	`, username, password))
}
