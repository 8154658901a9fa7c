package memory

import (
	"context"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"tokosepatu/backend/internal/domain"
	"tokosepatu/backend/internal/store"
)

// Store keeps everything in process memory. Units of work run one at a time
// against a private copy of the mutable state, which replaces the live state
// only when the unit of work succeeds.
type Store struct {
	mu    sync.RWMutex
	state *state
}

var (
	_ store.Repository = (*Store)(nil)
	_ store.Tx         = (*memTx)(nil)
)

type state struct {
	products        map[int64]domain.Product
	customers       map[int64]domain.Customer
	employees       map[int64]domain.Employee
	suppliers       map[int64]domain.Supplier
	sales           map[int64]domain.Sale
	refunds         map[int64]domain.Refund
	usersByUsername map[string]domain.UserAccount
	seq             sequences
}

type sequences struct {
	product  int64
	customer int64
	employee int64
	supplier int64
	sale     int64
	saleItem int64
	refund   int64
}

func New() *Store {
	return &Store{state: newState()}
}

func newState() *state {
	return &state{
		products:        make(map[int64]domain.Product),
		customers:       make(map[int64]domain.Customer),
		employees:       make(map[int64]domain.Employee),
		suppliers:       make(map[int64]domain.Supplier),
		sales:           make(map[int64]domain.Sale),
		refunds:         make(map[int64]domain.Refund),
		usersByUsername: make(map[string]domain.UserAccount),
	}
}

// seedUsers builds the initial in-memory user accounts for dev/demo mode.
// Credentials are read from SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD,
// falling back to dev defaults with a warning.
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		zap.L().Warn("memory store using default dev credentials; set SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD to override")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, "admin"},
		{"cashier", cashierPwd, "cashier"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			zap.L().Fatal("failed to hash seed password", zap.String("username", u.username), zap.Error(err))
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// NewSeeded returns a store with demo catalog data, staff and user accounts.
func NewSeeded() *Store {
	st := newState()

	for _, p := range []domain.Product{
		{Code: "FSM00001", Name: "Men's Formal Leather Shoes", Price: decimal.RequireFromString("50.00"), Gender: "M", Type: "F", Variety: "S", CurrentStock: 10, LowStockThreshold: 3},
		{Code: "FHW00001", Name: "Women's Formal Heels", Price: decimal.RequireFromString("65.00"), Gender: "W", Type: "F", Variety: "H", CurrentStock: 8, LowStockThreshold: 3},
		{Code: "CSM00001", Name: "Men's Casual Sneakers", Price: decimal.RequireFromString("42.50"), Gender: "M", Type: "C", Variety: "S", CurrentStock: 25, LowStockThreshold: 5},
		{Code: "CFW00001", Name: "Women's Casual Flats", Price: decimal.RequireFromString("30.00"), Gender: "W", Type: "C", Variety: "F", CurrentStock: 3, LowStockThreshold: 5},
		{Code: "SSM00001", Name: "Men's Running Shoes", Price: decimal.RequireFromString("80.00"), Gender: "M", Type: "S", Variety: "S", CurrentStock: 12, LowStockThreshold: 4},
		{Code: "ISM00001", Name: "Industrial Safety Boots", Price: decimal.RequireFromString("95.00"), Gender: "M", Type: "I", Variety: "S", CurrentStock: 6, LowStockThreshold: 2},
		{Code: "SHMP00001", Name: "Shoe Shampoo", Price: decimal.RequireFromString("6.50"), AccessoryType: "SHMP", CurrentStock: 40, LowStockThreshold: 10},
		{Code: "SOF00001", Name: "Full Socks", Price: decimal.RequireFromString("4.00"), AccessoryType: "SOF", CurrentStock: 60, LowStockThreshold: 15},
	} {
		st.seq.product++
		p.ID = st.seq.product
		st.products[p.ID] = p
	}

	for _, c := range []domain.Customer{
		{FirstName: "Kamal", LastName: "Silva", Email: "kamal.silva@example.com", Phone: "0711234567", City: "Galle"},
		{FirstName: "Nadeesha", LastName: "Fernando", Email: "nadeesha.f@example.com", Phone: "0779876543", City: "Colombo", LoyaltyPoints: 620},
		{FirstName: "Ruwan", LastName: "Jayasinghe", Email: "ruwan.j@example.com", Phone: "0701112233", City: "Kandy", LoyaltyPoints: 1200},
	} {
		st.seq.customer++
		c.ID = st.seq.customer
		c.LoyaltyTier = domain.TierFor(c.LoyaltyPoints)
		st.customers[c.ID] = c
	}

	for _, e := range []domain.Employee{
		{FirstName: "Nimal", LastName: "Perera", Email: "nimal.perera@example.com", Branch: "Galle", Role: domain.EmployeeRoleAdmin},
		{FirstName: "Sunil", LastName: "Bandara", Email: "sunil.bandara@example.com", Branch: "Galle", Role: "USER"},
	} {
		st.seq.employee++
		e.ID = st.seq.employee
		st.employees[e.ID] = e
	}

	for _, sp := range []domain.Supplier{
		{Name: "Lanka Footwear Ltd", ContactPerson: "Chaminda", Email: "orders@lankafootwear.example.com", City: "Colombo", Country: "Sri Lanka"},
		{Name: "Asia Leather Trading", ContactPerson: "Wei Lin", Email: "sales@asialeather.example.com", City: "Guangzhou", Country: "China", IsInternational: true},
	} {
		st.seq.supplier++
		sp.ID = st.seq.supplier
		st.suppliers[sp.ID] = sp
	}

	st.usersByUsername = seedUsers()
	return &Store{state: st}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	work := s.state.clone()
	if err := fn(ctx, &memTx{st: work}); err != nil {
		return err
	}
	s.state = work
	return nil
}

func (st *state) clone() *state {
	dup := &state{
		products:        make(map[int64]domain.Product, len(st.products)),
		customers:       make(map[int64]domain.Customer, len(st.customers)),
		employees:       st.employees,
		suppliers:       st.suppliers,
		sales:           make(map[int64]domain.Sale, len(st.sales)),
		refunds:         make(map[int64]domain.Refund, len(st.refunds)),
		usersByUsername: st.usersByUsername,
		seq:             st.seq,
	}
	for id, p := range st.products {
		dup.products[id] = p
	}
	for id, c := range st.customers {
		dup.customers[id] = c
	}
	for id, sale := range st.sales {
		dup.sales[id] = cloneSale(sale)
	}
	for id, r := range st.refunds {
		dup.refunds[id] = r
	}
	return dup
}

// memTx works on a private state copy; the Store lock is already held.
type memTx struct {
	st *state
}

func (t *memTx) GetProductByIDForUpdate(_ context.Context, id int64) (*domain.Product, error) {
	p, ok := t.st.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (t *memTx) GetProductByCodeForUpdate(_ context.Context, code string) (*domain.Product, error) {
	p, ok := t.st.productByCode(code)
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (t *memTx) SetProductStock(_ context.Context, id int64, stock int) error {
	p, ok := t.st.products[id]
	if !ok {
		return store.ErrNotFound
	}
	p.CurrentStock = stock
	t.st.products[id] = p
	return nil
}

func (t *memTx) GetCustomerByIDForUpdate(_ context.Context, id int64) (*domain.Customer, error) {
	c, ok := t.st.customers[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (t *memTx) SetCustomerLoyalty(_ context.Context, id int64, points int, tier string) error {
	c, ok := t.st.customers[id]
	if !ok {
		return store.ErrNotFound
	}
	c.LoyaltyPoints = points
	c.LoyaltyTier = tier
	t.st.customers[id] = c
	return nil
}

func (t *memTx) GetEmployeeByID(_ context.Context, id int64) (*domain.Employee, error) {
	e, ok := t.st.employees[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &e, nil
}

func (t *memTx) InvoiceExists(_ context.Context, invoiceNo string) (bool, error) {
	for _, sale := range t.st.sales {
		if sale.InvoiceNo == invoiceNo {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) InsertSale(_ context.Context, sale *domain.Sale) error {
	for _, existing := range t.st.sales {
		if existing.InvoiceNo == sale.InvoiceNo {
			return store.ErrConflict
		}
	}

	t.st.seq.sale++
	sale.ID = t.st.seq.sale
	for i := range sale.Items {
		t.st.seq.saleItem++
		sale.Items[i].ID = t.st.seq.saleItem
		sale.Items[i].SaleID = sale.ID
	}
	t.st.sales[sale.ID] = cloneSale(*sale)
	return nil
}

func (t *memTx) GetSaleByIDForUpdate(_ context.Context, id int64) (*domain.Sale, error) {
	sale, ok := t.st.sales[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	dup := cloneSale(sale)
	return &dup, nil
}

func (t *memTx) SetSaleStatus(_ context.Context, id int64, status string) error {
	sale, ok := t.st.sales[id]
	if !ok {
		return store.ErrNotFound
	}
	sale.Status = status
	t.st.sales[id] = sale
	return nil
}

func (t *memTx) InsertRefund(_ context.Context, refund *domain.Refund) error {
	for _, existing := range t.st.refunds {
		if existing.SaleID == refund.SaleID {
			return store.ErrConflict
		}
	}
	t.st.seq.refund++
	refund.ID = t.st.seq.refund
	t.st.refunds[refund.ID] = *refund
	return nil
}

func (st *state) productByCode(code string) (domain.Product, bool) {
	for _, p := range st.products {
		if p.Code == code {
			return p, true
		}
	}
	return domain.Product{}, false
}

func cloneSale(src domain.Sale) domain.Sale {
	dup := src
	dup.Items = slices.Clone(src.Items)
	return dup
}

func sortedValues[K comparable, V any](m map[K]V, cmp func(a, b V) int) []V {
	out := make([]V, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	slices.SortFunc(out, cmp)
	return out
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func sameFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
