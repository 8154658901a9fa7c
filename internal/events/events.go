package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

const (
	TypeSaleCompleted = "sale.completed"
	TypeSaleRefunded  = "sale.refunded"
)

type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

type SaleLine struct {
	ProductID   int64  `json:"product_id"`
	ProductCode string `json:"product_code"`
	Quantity    int    `json:"quantity"`
}

type SaleCompleted struct {
	BaseEvent
	SaleID        int64           `json:"sale_id"`
	InvoiceNo     string          `json:"invoice_no"`
	CustomerID    int64           `json:"customer_id"`
	EmployeeID    int64           `json:"employee_id"`
	NetAmount     decimal.Decimal `json:"net_amount"`
	PaymentMethod string          `json:"payment_method"`
	PointsEarned  int             `json:"loyalty_points_earned"`
	Items         []SaleLine      `json:"items"`
}

type SaleRefunded struct {
	BaseEvent
	SaleID         int64           `json:"sale_id"`
	RefundID       int64           `json:"refund_id"`
	RefundAmount   decimal.Decimal `json:"refund_amount"`
	ProcessedBy    int64           `json:"processed_by_employee_id"`
	PointsReversed int             `json:"loyalty_points_reversed"`
}

// Publisher delivers events after the unit of work that produced them has
// committed. Delivery is best effort.
type Publisher interface {
	PublishSaleCompleted(ctx context.Context, event SaleCompleted) error
	PublishSaleRefunded(ctx context.Context, event SaleRefunded) error
	Close() error
}

type NoopPublisher struct{}

func (NoopPublisher) PublishSaleCompleted(context.Context, SaleCompleted) error { return nil }

func (NoopPublisher) PublishSaleRefunded(context.Context, SaleRefunded) error { return nil }

func (NoopPublisher) Close() error { return nil }
