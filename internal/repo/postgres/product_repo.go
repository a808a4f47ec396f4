package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var ErrProductNotFound = errors.New("product not found")

type ProductRepo struct {
	pool *pgxpool.Pool
}

type ProductRecord struct {
	ID          int64
	CategoryID  int64
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewProductRepo(pool *pgxpool.Pool) *ProductRepo {
	return &ProductRepo{pool: pool}
}

func (r *ProductRepo) Create(ctx context.Context, categoryID int64, name, description string, price decimal.Decimal, stock int) (ProductRecord, error) {
	if r.pool == nil {
		return ProductRecord{}, fmt.Errorf("postgres pool is nil")
	}
	name = strings.TrimSpace(name)
	if categoryID <= 0 || name == "" || price.Sign() <= 0 || stock < 0 {
		return ProductRecord{}, fmt.Errorf("invalid product payload")
	}

	record, err := scanProduct(r.pool.QueryRow(ctx, `
INSERT INTO products (category_id, name, description, price, stock, created_at, updated_at)
VALUES ($1, $2, $3, $4::numeric, $5, NOW(), NOW())
RETURNING id, category_id, name, description, price::text, stock, created_at, updated_at
`, categoryID, name, strings.TrimSpace(description), numericArg(price), stock))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ProductRecord{}, ErrCategoryNotFound
		}
		return ProductRecord{}, fmt.Errorf("create product: %w", err)
	}

	return record, nil
}

// UpsertByName inserts a product or refreshes an existing one matched by
// category and name. Seeding relies on it being safe to run repeatedly.
func (r *ProductRepo) UpsertByName(ctx context.Context, categoryID int64, name, description string, price decimal.Decimal, stock int) (ProductRecord, error) {
	if r.pool == nil {
		return ProductRecord{}, fmt.Errorf("postgres pool is nil")
	}
	name = strings.TrimSpace(name)
	if categoryID <= 0 || name == "" || price.Sign() <= 0 || stock < 0 {
		return ProductRecord{}, fmt.Errorf("invalid product payload")
	}

	record, err := scanProduct(r.pool.QueryRow(ctx, `
INSERT INTO products (category_id, name, description, price, stock, created_at, updated_at)
VALUES ($1, $2, $3, $4::numeric, $5, NOW(), NOW())
ON CONFLICT (category_id, name) DO UPDATE
SET description = EXCLUDED.description,
    price       = EXCLUDED.price,
    stock       = EXCLUDED.stock,
    updated_at  = NOW()
RETURNING id, category_id, name, description, price::text, stock, created_at, updated_at
`, categoryID, name, strings.TrimSpace(description), numericArg(price), stock))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ProductRecord{}, ErrCategoryNotFound
		}
		return ProductRecord{}, fmt.Errorf("upsert product by name: %w", err)
	}

	return record, nil
}

func (r *ProductRepo) FindByID(ctx context.Context, productID int64) (ProductRecord, error) {
	if r.pool == nil {
		return ProductRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if productID <= 0 {
		return ProductRecord{}, fmt.Errorf("invalid product id")
	}

	record, err := scanProduct(r.pool.QueryRow(ctx, `
SELECT id, category_id, name, description, price::text, stock, created_at, updated_at
FROM products
WHERE id = $1
LIMIT 1
`, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ProductRecord{}, ErrProductNotFound
		}
		return ProductRecord{}, fmt.Errorf("find product by id: %w", err)
	}

	return record, nil
}

func (r *ProductRepo) List(ctx context.Context, categoryID int64, limit, offset int) ([]ProductRecord, int64, error) {
	if r.pool == nil {
		return nil, 0, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	where := ""
	args := []any{}
	if categoryID > 0 {
		where = "WHERE category_id = $1"
		args = append(args, categoryID)
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	args = append(args, limit, offset)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
SELECT id, category_id, name, description, price::text, stock, created_at, updated_at
FROM products
%s
ORDER BY created_at DESC, id DESC
LIMIT $%d OFFSET $%d
`, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	items := make([]ProductRecord, 0, limit)
	for rows.Next() {
		record, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan product row: %w", err)
		}
		items = append(items, record)
	}
	if rows.Err() != nil {
		return nil, 0, fmt.Errorf("iterate product rows: %w", rows.Err())
	}

	return items, total, nil
}

func (r *ProductRepo) Update(ctx context.Context, productID int64, name, description string, price decimal.Decimal, stock int) (ProductRecord, error) {
	if r.pool == nil {
		return ProductRecord{}, fmt.Errorf("postgres pool is nil")
	}
	name = strings.TrimSpace(name)
	if productID <= 0 || name == "" || price.Sign() <= 0 || stock < 0 {
		return ProductRecord{}, fmt.Errorf("invalid product payload")
	}

	record, err := scanProduct(r.pool.QueryRow(ctx, `
UPDATE products
SET name = $2, description = $3, price = $4::numeric, stock = $5, updated_at = NOW()
WHERE id = $1
RETURNING id, category_id, name, description, price::text, stock, created_at, updated_at
`, productID, name, strings.TrimSpace(description), numericArg(price), stock))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ProductRecord{}, ErrProductNotFound
		}
		return ProductRecord{}, fmt.Errorf("update product: %w", err)
	}

	return record, nil
}

func (r *ProductRepo) Delete(ctx context.Context, productID int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if productID <= 0 {
		return fmt.Errorf("invalid product id")
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, productID)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}

	return nil
}

type productRow interface {
	Scan(dest ...any) error
}

func scanProduct(row productRow) (ProductRecord, error) {
	var (
		record   ProductRecord
		rawPrice string
	)
	if err := row.Scan(
		&record.ID,
		&record.CategoryID,
		&record.Name,
		&record.Description,
		&rawPrice,
		&record.Stock,
		&record.CreatedAt,
		&record.UpdatedAt,
	); err != nil {
		return ProductRecord{}, err
	}

	price, err := parseNumeric(rawPrice)
	if err != nil {
		return ProductRecord{}, err
	}
	record.Price = price
	return record, nil
}
