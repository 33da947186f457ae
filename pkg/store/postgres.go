package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"gitlab.connectwisedev.com/pos-service/models"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

const schema = `
CREATE TABLE IF NOT EXISTS customers (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL UNIQUE,
	phone      TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS products (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	price       DOUBLE PRECISION NOT NULL CHECK (price >= 0),
	image       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS orders (
	id          TEXT PRIMARY KEY,
	customer_id TEXT NOT NULL,
	total       DOUBLE PRECISION NOT NULL,
	tax         DOUBLE PRECISION NOT NULL DEFAULT 0,
	discount    DOUBLE PRECISION NOT NULL DEFAULT 0,
	shipping    DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS order_items (
	order_id   TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
	position   INTEGER NOT NULL,
	product_id TEXT NOT NULL,
	quantity   INTEGER NOT NULL CHECK (quantity > 0),
	PRIMARY KEY (order_id, position)
);
CREATE INDEX IF NOT EXISTS customers_created_at_idx ON customers (created_at DESC, id DESC);
CREATE INDEX IF NOT EXISTS products_created_at_idx ON products (created_at DESC, id DESC);
CREATE INDEX IF NOT EXISTS orders_created_at_idx ON orders (created_at DESC, id DESC);
`

// PostgresStore is the relational backend. Order line items live in their
// own table and are written in the same transaction as the order row.
// Product references carry no foreign key: deleting a product leaves old
// orders pointing at it.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the tables and indexes if they do not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateCustomer(ctx context.Context, c *models.Customer) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO customers (id, name, email, phone, created_at) VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.Name, c.Email, c.Phone, c.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

const customerColumns = `id, name, email, phone, created_at`

func scanCustomer(row interface{ Scan(...any) error }) (models.Customer, error) {
	var c models.Customer
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt)
	return c, err
}

func (s *PostgresStore) FindCustomerByID(ctx context.Context, id string) (*models.Customer, error) {
	return s.findCustomer(ctx, `id = $1`, id)
}

func (s *PostgresStore) FindCustomerByEmail(ctx context.Context, email string) (*models.Customer, error) {
	return s.findCustomer(ctx, `email = $1`, email)
}

func (s *PostgresStore) findCustomer(ctx context.Context, where string, arg any) (*models.Customer, error) {
	c, err := scanCustomer(s.db.QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE `+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find customer: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) FindCustomersByIDs(ctx context.Context, ids []string) ([]models.Customer, error) {
	if len(ids) == 0 {
		return []models.Customer{}, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("find customers by ids: %w", err)
	}
	return collect(rows, scanCustomer)
}

func (s *PostgresStore) ListCustomers(ctx context.Context, offset, limit int64) ([]models.Customer, int64, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM customers`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+customerColumns+` FROM customers ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	items, err := collect(rows, scanCustomer)
	return items, total, err
}

const productColumns = `id, name, price, image, description, created_at`

func scanProduct(row interface{ Scan(...any) error }) (models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Image, &p.Description, &p.CreatedAt)
	return p, err
}

func (s *PostgresStore) CreateProduct(ctx context.Context, p *models.Product) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO products (id, name, price, image, description, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.Name, p.Price, p.Image, p.Description, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindProductByID(ctx context.Context, id string) (*models.Product, error) {
	p, err := scanProduct(s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) FindProductsByIDs(ctx context.Context, ids []string) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("find products by ids: %w", err)
	}
	return collect(rows, scanProduct)
}

func (s *PostgresStore) ListProducts(ctx context.Context, q ProductQuery) ([]models.Product, int64, error) {
	where, args := "", []any{}
	if q.Search != "" {
		where = ` WHERE name ILIKE $1 OR description ILIKE $1`
		args = append(args, "%"+escapeLike(q.Search)+"%")
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM products%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		productColumns, where, len(args)+1, len(args)+2)
	rows, err := s.db.QueryContext(ctx, query, append(args, q.Limit, q.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	items, err := collect(rows, scanProduct)
	return items, total, err
}

func (s *PostgresStore) DeleteProduct(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CreateOrder(ctx context.Context, o *models.Order) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Rollback on error by default

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, customer_id, total, tax, discount, shipping, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		o.ID, o.Customer, o.Total, o.Tax, o.Discount, o.Shipping, o.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i, item := range o.Items {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO order_items (order_id, position, product_id, quantity) VALUES ($1, $2, $3, $4)`,
			o.ID, i, item.Product, item.Quantity)
		if err != nil {
			return fmt.Errorf("insert order item %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListOrders(ctx context.Context, offset, limit int64) ([]models.Order, int64, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, customer_id, total, tax, discount, shipping, created_at
		FROM orders ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	orders, err := collect(rows, func(row interface{ Scan(...any) error }) (models.Order, error) {
		var o models.Order
		err := row.Scan(&o.ID, &o.Customer, &o.Total, &o.Tax, &o.Discount, &o.Shipping, &o.CreatedAt)
		return o, err
	})
	if err != nil {
		return nil, 0, err
	}
	if len(orders) == 0 {
		return orders, total, nil
	}

	ids := make([]string, len(orders))
	byID := make(map[string]*models.Order, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		orders[i].Items = []models.OrderItem{}
		byID[orders[i].ID] = &orders[i]
	}

	itemRows, err := s.db.QueryContext(ctx, `
		SELECT order_id, product_id, quantity FROM order_items
		WHERE order_id = ANY($1) ORDER BY order_id, position`, pq.Array(ids))
	if err != nil {
		return nil, 0, fmt.Errorf("list order items: %w", err)
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var orderID string
		var item models.OrderItem
		if err := itemRows.Scan(&orderID, &item.Product, &item.Quantity); err != nil {
			return nil, 0, fmt.Errorf("scan order item: %w", err)
		}
		if o, ok := byID[orderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error during order item iteration: %w", err)
	}
	return orders, total, nil
}

func collect[T any](rows *sql.Rows, scan func(interface{ Scan(...any) error }) (T, error)) ([]T, error) {
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration from DB: %w", err)
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes a search term match literally inside an ILIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
