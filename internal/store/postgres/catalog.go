package postgres

import (
	"context"

	"tokosepatu/backend/internal/domain"
)

const productColumns = `id, product_code, name, description, price, image_url, gender, type, variety,
	accessory_type, current_stock, low_stock_threshold`

const customerColumns = `id, first_name, last_name, email, phone, address, city, dob, loyalty_level, loyalty_points`

const employeeColumns = `id, first_name, last_name, email, phone, address, city, date_of_joining, branch, role`

const supplierColumns = `id, name, contact_person, email, phone, address, city, country, is_international`

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products := make([]domain.Product, 0, 64)
	err := s.db.SelectContext(ctx, &products, `SELECT `+productColumns+` FROM products ORDER BY id`)
	return products, err
}

func (s *Store) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	if err := s.db.GetContext(ctx, &p, `SELECT `+productColumns+` FROM products WHERE id = $1`, id); err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *Store) GetProductByCode(ctx context.Context, code string) (*domain.Product, error) {
	var p domain.Product
	if err := s.db.GetContext(ctx, &p, `SELECT `+productColumns+` FROM products WHERE product_code = $1`, code); err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *Store) GetProductsByIDs(ctx context.Context, ids []int64) (map[int64]domain.Product, error) {
	result := make(map[int64]domain.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var products []domain.Product
	if err := s.db.SelectContext(ctx, &products, `SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, ids); err != nil {
		return nil, err
	}
	for _, p := range products {
		result[p.ID] = p
	}
	return result, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	rows, err := s.db.NamedQueryContext(ctx, `
		INSERT INTO products (product_code, name, description, price, image_url, gender, type, variety,
			accessory_type, current_stock, low_stock_threshold)
		VALUES (:product_code, :name, :description, :price, :image_url, :gender, :type, :variety,
			:accessory_type, :current_stock, :low_stock_threshold)
		RETURNING id
	`, product)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&product.ID); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

// UpdateProduct leaves current_stock alone; stock is written only inside a unit of work.
func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	var updated domain.Product
	err := s.db.GetContext(ctx, &updated, `
		UPDATE products
		SET product_code = $2, name = $3, description = $4, price = $5, image_url = $6, gender = $7,
			type = $8, variety = $9, accessory_type = $10, low_stock_threshold = $11
		WHERE id = $1
		RETURNING `+productColumns,
		product.ID, product.Code, product.Name, product.Description, product.Price, product.ImageURL,
		product.Gender, product.Type, product.Variety, product.AccessoryType, product.LowStockThreshold)
	if err != nil {
		return nil, translate(err)
	}
	return &updated, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	return expectOneRow(s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id))
}

func (s *Store) ListLowStockProducts(ctx context.Context) ([]domain.Product, error) {
	products := make([]domain.Product, 0, 16)
	err := s.db.SelectContext(ctx, &products, `
		SELECT `+productColumns+`
		FROM products
		WHERE current_stock <= low_stock_threshold
		ORDER BY id
	`)
	return products, err
}

func (s *Store) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	customers := make([]domain.Customer, 0, 64)
	err := s.db.SelectContext(ctx, &customers, `SELECT `+customerColumns+` FROM customers ORDER BY id`)
	return customers, err
}

func (s *Store) GetCustomerByID(ctx context.Context, id int64) (*domain.Customer, error) {
	var c domain.Customer
	if err := s.db.GetContext(ctx, &c, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id); err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *Store) GetCustomerByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	var c domain.Customer
	if err := s.db.GetContext(ctx, &c, `SELECT `+customerColumns+` FROM customers WHERE lower(email) = lower($1)`, email); err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *Store) CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO customers (first_name, last_name, email, phone, address, city, dob, loyalty_level, loyalty_points)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id
	`, customer.FirstName, customer.LastName, customer.Email, customer.Phone, customer.Address, customer.City,
		customer.DateOfBirth, customer.LoyaltyTier, customer.LoyaltyPoints).Scan(&customer.ID)
	if err != nil {
		return nil, translate(err)
	}
	return &customer, nil
}

// UpdateCustomer leaves the loyalty columns alone.
func (s *Store) UpdateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	var updated domain.Customer
	err := s.db.GetContext(ctx, &updated, `
		UPDATE customers
		SET first_name = $2, last_name = $3, email = $4, phone = $5, address = $6, city = $7, dob = $8
		WHERE id = $1
		RETURNING `+customerColumns,
		customer.ID, customer.FirstName, customer.LastName, customer.Email, customer.Phone, customer.Address,
		customer.City, customer.DateOfBirth)
	if err != nil {
		return nil, translate(err)
	}
	return &updated, nil
}

func (s *Store) DeleteCustomer(ctx context.Context, id int64) error {
	return expectOneRow(s.db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id))
}

func (s *Store) ListEmployees(ctx context.Context) ([]domain.Employee, error) {
	employees := make([]domain.Employee, 0, 32)
	err := s.db.SelectContext(ctx, &employees, `SELECT `+employeeColumns+` FROM employees ORDER BY id`)
	return employees, err
}

func (s *Store) ListEmployeesByRole(ctx context.Context, role string) ([]domain.Employee, error) {
	employees := make([]domain.Employee, 0, 8)
	err := s.db.SelectContext(ctx, &employees, `
		SELECT `+employeeColumns+`
		FROM employees
		WHERE upper(role) = upper($1)
		ORDER BY id
	`, role)
	return employees, err
}

func (s *Store) GetEmployeeByID(ctx context.Context, id int64) (*domain.Employee, error) {
	var e domain.Employee
	if err := s.db.GetContext(ctx, &e, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id); err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

func (s *Store) CreateEmployee(ctx context.Context, employee domain.Employee) (*domain.Employee, error) {
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO employees (first_name, last_name, email, phone, address, city, date_of_joining, branch, role)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id
	`, employee.FirstName, employee.LastName, employee.Email, employee.Phone, employee.Address, employee.City,
		employee.DateOfJoining, employee.Branch, employee.Role).Scan(&employee.ID)
	if err != nil {
		return nil, translate(err)
	}
	return &employee, nil
}

func (s *Store) UpdateEmployee(ctx context.Context, employee domain.Employee) (*domain.Employee, error) {
	var updated domain.Employee
	err := s.db.GetContext(ctx, &updated, `
		UPDATE employees
		SET first_name = $2, last_name = $3, email = $4, phone = $5, address = $6, city = $7,
			date_of_joining = $8, branch = $9, role = $10
		WHERE id = $1
		RETURNING `+employeeColumns,
		employee.ID, employee.FirstName, employee.LastName, employee.Email, employee.Phone, employee.Address,
		employee.City, employee.DateOfJoining, employee.Branch, employee.Role)
	if err != nil {
		return nil, translate(err)
	}
	return &updated, nil
}

func (s *Store) DeleteEmployee(ctx context.Context, id int64) error {
	return expectOneRow(s.db.ExecContext(ctx, `DELETE FROM employees WHERE id = $1`, id))
}

func (s *Store) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	suppliers := make([]domain.Supplier, 0, 16)
	err := s.db.SelectContext(ctx, &suppliers, `SELECT `+supplierColumns+` FROM suppliers ORDER BY id`)
	return suppliers, err
}

func (s *Store) GetSupplierByID(ctx context.Context, id int64) (*domain.Supplier, error) {
	var sp domain.Supplier
	if err := s.db.GetContext(ctx, &sp, `SELECT `+supplierColumns+` FROM suppliers WHERE id = $1`, id); err != nil {
		return nil, translate(err)
	}
	return &sp, nil
}

func (s *Store) CreateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	rows, err := s.db.NamedQueryContext(ctx, `
		INSERT INTO suppliers (name, contact_person, email, phone, address, city, country, is_international)
		VALUES (:name, :contact_person, :email, :phone, :address, :city, :country, :is_international)
		RETURNING id
	`, supplier)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&supplier.ID); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err)
	}
	return &supplier, nil
}

func (s *Store) UpdateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	err := expectOneRow(s.db.NamedExecContext(ctx, `
		UPDATE suppliers
		SET name = :name, contact_person = :contact_person, email = :email, phone = :phone,
			address = :address, city = :city, country = :country, is_international = :is_international
		WHERE id = :id
	`, supplier))
	if err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (s *Store) DeleteSupplier(ctx context.Context, id int64) error {
	return expectOneRow(s.db.ExecContext(ctx, `DELETE FROM suppliers WHERE id = $1`, id))
}
