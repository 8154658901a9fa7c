package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"tokosepatu/backend/internal/domain"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned on a unique or foreign-key violation.
	ErrConflict = errors.New("conflict")
)

// Repository is the persistence boundary. Single-row lookups return
// ErrNotFound when nothing matches; list lookups return an empty slice.
type Repository interface {
	// WithinTx runs fn as one atomic unit of work. Any error returned by fn
	// rolls back every write made through tx.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProductByID(ctx context.Context, id int64) (*domain.Product, error)
	GetProductByCode(ctx context.Context, code string) (*domain.Product, error)
	GetProductsByIDs(ctx context.Context, ids []int64) (map[int64]domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	ListLowStockProducts(ctx context.Context) ([]domain.Product, error)

	ListCustomers(ctx context.Context) ([]domain.Customer, error)
	GetCustomerByID(ctx context.Context, id int64) (*domain.Customer, error)
	GetCustomerByEmail(ctx context.Context, email string) (*domain.Customer, error)
	CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error)
	UpdateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error)
	DeleteCustomer(ctx context.Context, id int64) error

	ListEmployees(ctx context.Context) ([]domain.Employee, error)
	ListEmployeesByRole(ctx context.Context, role string) ([]domain.Employee, error)
	GetEmployeeByID(ctx context.Context, id int64) (*domain.Employee, error)
	CreateEmployee(ctx context.Context, employee domain.Employee) (*domain.Employee, error)
	UpdateEmployee(ctx context.Context, employee domain.Employee) (*domain.Employee, error)
	DeleteEmployee(ctx context.Context, id int64) error

	ListSuppliers(ctx context.Context) ([]domain.Supplier, error)
	GetSupplierByID(ctx context.Context, id int64) (*domain.Supplier, error)
	CreateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error)
	UpdateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error)
	DeleteSupplier(ctx context.Context, id int64) error

	GetSaleByID(ctx context.Context, id int64) (*domain.Sale, error)
	ListSales(ctx context.Context) ([]domain.Sale, error)
	ListSalesByCustomer(ctx context.Context, customerID int64) ([]domain.Sale, error)
	ListSalesByEmployee(ctx context.Context, employeeID int64) ([]domain.Sale, error)
	// ListSalesBetween is inclusive on both ends.
	ListSalesBetween(ctx context.Context, from time.Time, to time.Time) ([]domain.Sale, error)

	GetRefundByID(ctx context.Context, id int64) (*domain.Refund, error)
	GetRefundBySaleID(ctx context.Context, saleID int64) (*domain.Refund, error)

	CountEntities(ctx context.Context) (domain.EntityCounts, error)
	TotalRevenue(ctx context.Context) (decimal.Decimal, error)
	TopSellingProducts(ctx context.Context, limit int) ([]domain.TopSellingItem, error)
	DailySalesTotals(ctx context.Context, from time.Time, to time.Time) ([]domain.DailySalesTotal, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}

// Tx is the write side of a unit of work. The ForUpdate lookups hold the row
// until the unit of work ends, which serializes concurrent writers per product
// and per customer.
type Tx interface {
	GetProductByIDForUpdate(ctx context.Context, id int64) (*domain.Product, error)
	GetProductByCodeForUpdate(ctx context.Context, code string) (*domain.Product, error)
	SetProductStock(ctx context.Context, id int64, stock int) error

	GetCustomerByIDForUpdate(ctx context.Context, id int64) (*domain.Customer, error)
	SetCustomerLoyalty(ctx context.Context, id int64, points int, tier string) error

	GetEmployeeByID(ctx context.Context, id int64) (*domain.Employee, error)

	InvoiceExists(ctx context.Context, invoiceNo string) (bool, error)
	// InsertSale assigns ids to the sale and each of its items.
	InsertSale(ctx context.Context, sale *domain.Sale) error
	GetSaleByIDForUpdate(ctx context.Context, id int64) (*domain.Sale, error)
	SetSaleStatus(ctx context.Context, id int64, status string) error

	// InsertRefund returns ErrConflict when the sale already has a refund.
	InsertRefund(ctx context.Context, refund *domain.Refund) error
}
