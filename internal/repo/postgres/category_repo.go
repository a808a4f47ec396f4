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
)

var (
	ErrCategoryNotFound  = errors.New("category not found")
	ErrCategoryNameTaken = errors.New("category name already exists")
	ErrCategoryInUse     = errors.New("category has associated products")
)

type CategoryRepo struct {
	pool *pgxpool.Pool
}

type CategoryRecord struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
}

func NewCategoryRepo(pool *pgxpool.Pool) *CategoryRepo {
	return &CategoryRepo{pool: pool}
}

func (r *CategoryRepo) Create(ctx context.Context, name, description string) (CategoryRecord, error) {
	if r.pool == nil {
		return CategoryRecord{}, fmt.Errorf("postgres pool is nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return CategoryRecord{}, fmt.Errorf("invalid category payload")
	}

	var record CategoryRecord
	err := r.pool.QueryRow(ctx, `
INSERT INTO categories (name, description, created_at)
VALUES ($1, $2, NOW())
RETURNING id, name, description, created_at
`, name, strings.TrimSpace(description)).Scan(
		&record.ID,
		&record.Name,
		&record.Description,
		&record.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return CategoryRecord{}, ErrCategoryNameTaken
		}
		return CategoryRecord{}, fmt.Errorf("create category: %w", err)
	}

	return record, nil
}

// UpsertByName inserts a category or refreshes the description of an existing
// one. Seeding relies on it being safe to run repeatedly.
func (r *CategoryRepo) UpsertByName(ctx context.Context, name, description string) (CategoryRecord, error) {
	if r.pool == nil {
		return CategoryRecord{}, fmt.Errorf("postgres pool is nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return CategoryRecord{}, fmt.Errorf("invalid category payload")
	}

	var record CategoryRecord
	err := r.pool.QueryRow(ctx, `
INSERT INTO categories (name, description, created_at)
VALUES ($1, $2, NOW())
ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description
RETURNING id, name, description, created_at
`, name, strings.TrimSpace(description)).Scan(
		&record.ID,
		&record.Name,
		&record.Description,
		&record.CreatedAt,
	)
	if err != nil {
		return CategoryRecord{}, fmt.Errorf("upsert category by name: %w", err)
	}

	return record, nil
}

func (r *CategoryRepo) FindByID(ctx context.Context, categoryID int64) (CategoryRecord, error) {
	if r.pool == nil {
		return CategoryRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if categoryID <= 0 {
		return CategoryRecord{}, fmt.Errorf("invalid category id")
	}

	var record CategoryRecord
	err := r.pool.QueryRow(ctx, `
SELECT id, name, description, created_at
FROM categories
WHERE id = $1
LIMIT 1
`, categoryID).Scan(&record.ID, &record.Name, &record.Description, &record.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CategoryRecord{}, ErrCategoryNotFound
		}
		return CategoryRecord{}, fmt.Errorf("find category by id: %w", err)
	}

	return record, nil
}

func (r *CategoryRepo) List(ctx context.Context, limit, offset int) ([]CategoryRecord, int64, error) {
	if r.pool == nil {
		return nil, 0, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM categories`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count categories: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, name, description, created_at
FROM categories
ORDER BY created_at DESC, id DESC
LIMIT $1 OFFSET $2
`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	items := make([]CategoryRecord, 0, limit)
	for rows.Next() {
		var record CategoryRecord
		if err := rows.Scan(&record.ID, &record.Name, &record.Description, &record.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan category row: %w", err)
		}
		items = append(items, record)
	}
	if rows.Err() != nil {
		return nil, 0, fmt.Errorf("iterate category rows: %w", rows.Err())
	}

	return items, total, nil
}

func (r *CategoryRepo) Update(ctx context.Context, categoryID int64, name, description string) (CategoryRecord, error) {
	if r.pool == nil {
		return CategoryRecord{}, fmt.Errorf("postgres pool is nil")
	}
	name = strings.TrimSpace(name)
	if categoryID <= 0 || name == "" {
		return CategoryRecord{}, fmt.Errorf("invalid category payload")
	}

	var record CategoryRecord
	err := r.pool.QueryRow(ctx, `
UPDATE categories
SET name = $2, description = $3
WHERE id = $1
RETURNING id, name, description, created_at
`, categoryID, name, strings.TrimSpace(description)).Scan(
		&record.ID,
		&record.Name,
		&record.Description,
		&record.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CategoryRecord{}, ErrCategoryNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return CategoryRecord{}, ErrCategoryNameTaken
		}
		return CategoryRecord{}, fmt.Errorf("update category: %w", err)
	}

	return record, nil
}

func (r *CategoryRepo) Delete(ctx context.Context, categoryID int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if categoryID <= 0 {
		return fmt.Errorf("invalid category id")
	}

	var inUse bool
	if err := r.pool.QueryRow(ctx, `
SELECT EXISTS (SELECT 1 FROM products WHERE category_id = $1)
`, categoryID).Scan(&inUse); err != nil {
		return fmt.Errorf("check category products: %w", err)
	}
	if inUse {
		return ErrCategoryInUse
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, categoryID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}

	return nil
}
