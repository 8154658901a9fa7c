package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	SaleStatusCompleted = "COMPLETED"
	SaleStatusRefunded  = "REFUNDED"

	RefundStatusApproved = "APPROVED"

	PaymentMethodCash = "Cash"
	PaymentMethodCard = "Card"

	EmployeeRoleAdmin = "ADMIN"
)

type Product struct {
	ID                int64           `json:"id" db:"id"`
	Code              string          `json:"product_code" db:"product_code"`
	Name              string          `json:"name" db:"name"`
	Description       string          `json:"description" db:"description"`
	Price             decimal.Decimal `json:"price" db:"price"`
	ImageURL          string          `json:"image_url" db:"image_url"`
	Gender            string          `json:"gender" db:"gender"`
	Type              string          `json:"type" db:"type"`
	Variety           string          `json:"variety" db:"variety"`
	AccessoryType     string          `json:"accessory_type" db:"accessory_type"`
	CurrentStock      int             `json:"current_stock" db:"current_stock"`
	LowStockThreshold int             `json:"low_stock_threshold" db:"low_stock_threshold"`
}

type ProductCreateRequest struct {
	Code              string          `json:"product_code" validate:"required,max=32"`
	Name              string          `json:"name" validate:"required,max=200"`
	Description       string          `json:"description" validate:"max=2000"`
	Price             decimal.Decimal `json:"price"`
	ImageURL          string          `json:"image_url" validate:"omitempty,url"`
	Gender            string          `json:"gender" validate:"omitempty,oneof=M W"`
	Type              string          `json:"type"`
	Variety           string          `json:"variety"`
	AccessoryType     string          `json:"accessory_type"`
	InitialStock      int             `json:"initial_stock" validate:"gte=0"`
	LowStockThreshold int             `json:"low_stock_threshold" validate:"gte=0"`
}

// ProductUpdateRequest never carries stock; stock moves only through the ledger.
type ProductUpdateRequest struct {
	Name              *string          `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description       *string          `json:"description,omitempty" validate:"omitempty,max=2000"`
	Price             *decimal.Decimal `json:"price,omitempty"`
	ImageURL          *string          `json:"image_url,omitempty" validate:"omitempty,url"`
	Gender            *string          `json:"gender,omitempty" validate:"omitempty,oneof=M W"`
	Type              *string          `json:"type,omitempty"`
	Variety           *string          `json:"variety,omitempty"`
	AccessoryType     *string          `json:"accessory_type,omitempty"`
	LowStockThreshold *int             `json:"low_stock_threshold,omitempty" validate:"omitempty,gte=0"`
}

type RestockRequest struct {
	Delta int `json:"delta" validate:"ne=0"`
}

type Customer struct {
	ID            int64      `json:"id" db:"id"`
	FirstName     string     `json:"first_name" db:"first_name"`
	LastName      string     `json:"last_name" db:"last_name"`
	Email         string     `json:"email" db:"email"`
	Phone         string     `json:"phone" db:"phone"`
	Address       string     `json:"address" db:"address"`
	City          string     `json:"city" db:"city"`
	DateOfBirth   *time.Time `json:"dob,omitempty" db:"dob"`
	LoyaltyTier   string     `json:"loyalty_level" db:"loyalty_level"`
	LoyaltyPoints int        `json:"loyalty_points" db:"loyalty_points"`
}

func (c Customer) DisplayName() string {
	return joinName(c.FirstName, c.LastName)
}

// CustomerRequest is used for create and update. Loyalty fields are owned by
// the loyalty account and cannot be set here.
type CustomerRequest struct {
	FirstName   string     `json:"first_name" validate:"required,max=100"`
	LastName    string     `json:"last_name" validate:"required,max=100"`
	Email       string     `json:"email" validate:"required,email"`
	Phone       string     `json:"phone" validate:"max=32"`
	Address     string     `json:"address" validate:"max=255"`
	City        string     `json:"city" validate:"max=100"`
	DateOfBirth *time.Time `json:"dob,omitempty"`
}

type Employee struct {
	ID            int64      `json:"id" db:"id"`
	FirstName     string     `json:"first_name" db:"first_name"`
	LastName      string     `json:"last_name" db:"last_name"`
	Email         string     `json:"email" db:"email"`
	Phone         string     `json:"phone" db:"phone"`
	Address       string     `json:"address" db:"address"`
	City          string     `json:"city" db:"city"`
	DateOfJoining *time.Time `json:"date_of_joining,omitempty" db:"date_of_joining"`
	Branch        string     `json:"branch" db:"branch"`
	Role          string     `json:"role" db:"role"`
}

func (e Employee) DisplayName() string {
	return joinName(e.FirstName, e.LastName)
}

type EmployeeRequest struct {
	FirstName     string     `json:"first_name" validate:"required,max=100"`
	LastName      string     `json:"last_name" validate:"required,max=100"`
	Email         string     `json:"email" validate:"required,email"`
	Phone         string     `json:"phone" validate:"max=32"`
	Address       string     `json:"address" validate:"max=255"`
	City          string     `json:"city" validate:"max=100"`
	DateOfJoining *time.Time `json:"date_of_joining,omitempty"`
	Branch        string     `json:"branch" validate:"max=100"`
	Role          string     `json:"role" validate:"required,max=32"`
}

type Supplier struct {
	ID              int64  `json:"id" db:"id"`
	Name            string `json:"name" db:"name"`
	ContactPerson   string `json:"contact_person" db:"contact_person"`
	Email           string `json:"email" db:"email"`
	Phone           string `json:"phone" db:"phone"`
	Address         string `json:"address" db:"address"`
	City            string `json:"city" db:"city"`
	Country         string `json:"country" db:"country"`
	IsInternational bool   `json:"is_international" db:"is_international"`
}

type SupplierRequest struct {
	Name            string `json:"name" validate:"required,max=200"`
	ContactPerson   string `json:"contact_person" validate:"max=200"`
	Email           string `json:"email" validate:"omitempty,email"`
	Phone           string `json:"phone" validate:"max=32"`
	Address         string `json:"address" validate:"max=255"`
	City            string `json:"city" validate:"max=100"`
	Country         string `json:"country" validate:"max=100"`
	IsInternational bool   `json:"is_international"`
}

// Sale owns its items. Customer, employee and products are referenced by id.
type Sale struct {
	ID                  int64           `db:"id"`
	InvoiceNo           string          `db:"invoice_no"`
	CustomerID          int64           `db:"customer_id"`
	EmployeeID          int64           `db:"employee_id"`
	SaleDateTime        time.Time       `db:"sale_date_time"`
	TotalAmount         decimal.Decimal `db:"total_amount"`
	Discount            decimal.Decimal `db:"discount"`
	NetAmount           decimal.Decimal `db:"net_amount"`
	PaymentMethod       string          `db:"payment_method"`
	CardPaymentDetails  string          `db:"card_payment_details"`
	LoyaltyPointsEarned int             `db:"loyalty_points_earned"`
	Status              string          `db:"status"`
	Items               []SaleItem      `db:"-"`
}

type SaleItem struct {
	ID        int64           `db:"id"`
	SaleID    int64           `db:"sale_id"`
	ProductID int64           `db:"product_id"`
	Quantity  int             `db:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price"`
	Subtotal  decimal.Decimal `db:"subtotal"`
}

type Refund struct {
	ID                    int64           `db:"id"`
	SaleID                int64           `db:"sale_id"`
	RefundDateTime        time.Time       `db:"refund_date_time"`
	RefundAmount          decimal.Decimal `db:"refund_amount"`
	Reason                string          `db:"reason"`
	HasTags               bool            `db:"has_tags"`
	ProcessedByEmployeeID int64           `db:"processed_by_employee_id"`
	Status                string          `db:"status"`
}

type SaleItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

type SaleRequest struct {
	CustomerID         int64             `json:"customer_id" validate:"required,gt=0"`
	EmployeeID         int64             `json:"employee_id" validate:"required,gt=0"`
	PaymentMethod      string            `json:"payment_method" validate:"required"`
	CardPaymentDetails string            `json:"card_payment_details,omitempty"`
	Discount           decimal.Decimal   `json:"discount"`
	Items              []SaleItemRequest `json:"sale_items" validate:"required,min=1,dive"`
}

type SaleItemRecord struct {
	ID          int64           `json:"id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	ProductCode string          `json:"product_code"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type SaleRecord struct {
	ID                  int64            `json:"id"`
	InvoiceNo           string           `json:"invoice_no"`
	CustomerID          int64            `json:"customer_id"`
	CustomerFirstName   string           `json:"customer_first_name"`
	CustomerLastName    string           `json:"customer_last_name"`
	EmployeeID          int64            `json:"employee_id"`
	EmployeeFirstName   string           `json:"employee_first_name"`
	EmployeeLastName    string           `json:"employee_last_name"`
	SaleDateTime        time.Time        `json:"sale_date_time"`
	TotalAmount         decimal.Decimal  `json:"total_amount"`
	Discount            decimal.Decimal  `json:"discount"`
	NetAmount           decimal.Decimal  `json:"net_amount"`
	PaymentMethod       string           `json:"payment_method"`
	CardPaymentDetails  string           `json:"card_payment_details,omitempty"`
	LoyaltyPointsEarned int              `json:"loyalty_points_earned"`
	Status              string           `json:"status"`
	Items               []SaleItemRecord `json:"sale_items"`
}

type RefundRequest struct {
	SaleID                int64           `json:"sale_id" validate:"required,gt=0"`
	RefundAmount          decimal.Decimal `json:"refund_amount"`
	Reason                string          `json:"reason" validate:"required,max=500"`
	HasTags               bool            `json:"has_tags"`
	ProcessedByEmployeeID int64           `json:"processed_by_employee_id" validate:"required,gt=0"`
}

type RefundRecord struct {
	ID                      int64           `json:"id"`
	SaleID                  int64           `json:"sale_id"`
	InvoiceNo               string          `json:"invoice_no"`
	RefundDateTime          time.Time       `json:"refund_date_time"`
	RefundAmount            decimal.Decimal `json:"refund_amount"`
	Reason                  string          `json:"reason"`
	HasTags                 bool            `json:"has_tags"`
	ProcessedByEmployeeID   int64           `json:"processed_by_employee_id"`
	ProcessedByEmployeeName string          `json:"processed_by_employee_name"`
	Status                  string          `json:"status"`
}

type TopSellingItem struct {
	ProductID         int64           `json:"product_id" db:"product_id"`
	ProductName       string          `json:"product_name" db:"product_name"`
	ProductCode       string          `json:"product_code" db:"product_code"`
	TotalQuantitySold int             `json:"total_quantity_sold" db:"total_quantity_sold"`
	TotalRevenue      decimal.Decimal `json:"total_revenue" db:"total_revenue"`
}

type SalesTrendPoint struct {
	Date             string          `json:"date"`
	TotalSalesAmount decimal.Decimal `json:"total_sales_amount"`
	TotalSalesCount  int             `json:"total_sales_count"`
}

// DailySalesTotal is one aggregated day as returned by the store.
type DailySalesTotal struct {
	Day    time.Time       `db:"day"`
	Amount decimal.Decimal `db:"amount"`
	Count  int             `db:"count"`
}

type EntityCounts struct {
	Products  int64 `db:"products"`
	Customers int64 `db:"customers"`
	Employees int64 `db:"employees"`
	Suppliers int64 `db:"suppliers"`
	Sales     int64 `db:"sales"`
}

type DashboardSummary struct {
	TotalSalesRevenue  decimal.Decimal   `json:"total_sales_revenue"`
	TotalProfit        decimal.Decimal   `json:"total_profit"`
	TotalCustomers     int64             `json:"total_customers"`
	TotalEmployees     int64             `json:"total_employees"`
	TotalProducts      int64             `json:"total_products"`
	TotalSuppliers     int64             `json:"total_suppliers"`
	TotalSales         int64             `json:"total_sales"`
	TotalLowStockItems int               `json:"total_low_stock_items"`
	LowStockItems      []Product         `json:"low_stock_items"`
	TopSellingItems    []TopSellingItem  `json:"top_selling_items"`
	DailySalesTrends   []SalesTrendPoint `json:"daily_sales_trends"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=4,max=64"`
	Password string `json:"password" validate:"required,min=6,max=128"`
	Role     string `json:"role" validate:"omitempty,oneof=admin cashier"`
}

// UserView is the user account as exposed over the API.
type UserView struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type Actor struct {
	Username string
	Role     string
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string    `db:"username"`
	Password  string    `db:"password"`
	Role      string    `db:"role"`
	Active    bool      `db:"active"`
	CreatedAt time.Time `db:"created_at"`
}

func joinName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	default:
		return first + " " + last
	}
}
