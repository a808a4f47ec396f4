package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	ErrPurchaseNotFound = errors.New("purchase not found")
	ErrStockConflict    = errors.New("insufficient product stock")
)

type PurchaseRepo struct {
	pool *pgxpool.Pool
}

type PurchaseRecord struct {
	ID          int64
	UserID      int64
	ProductID   int64
	Quantity    int
	TotalAmount decimal.Decimal
	PaidAmount  decimal.Decimal
	DueAmount   decimal.Decimal
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewInstallmentRow describes one installment leg inserted together with its
// purchase.
type NewInstallmentRow struct {
	No       int
	Amount   decimal.Decimal
	DueDate  time.Time
	Status   string
	PaidDate *time.Time
}

type PurchaseFilter struct {
	UserID      *int64
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

func NewPurchaseRepo(pool *pgxpool.Pool) *PurchaseRepo {
	return &PurchaseRepo{pool: pool}
}

// CreateWithInstallments records a purchase, its schedule and the stock
// decrement as one transaction. The conditional stock update serializes
// concurrent purchases of the same product: whichever transaction commits
// first consumes the stock, the other observes ErrStockConflict.
func (r *PurchaseRepo) CreateWithInstallments(
	ctx context.Context,
	userID, productID int64,
	quantity int,
	total, paid, due decimal.Decimal,
	status string,
	installments []NewInstallmentRow,
) (PurchaseRecord, []InstallmentRecord, error) {
	if r.pool == nil {
		return PurchaseRecord{}, nil, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 || productID <= 0 || quantity <= 0 || len(installments) == 0 {
		return PurchaseRecord{}, nil, fmt.Errorf("invalid purchase create payload")
	}

	var (
		purchase PurchaseRecord
		legs     []InstallmentRecord
	)
	err := WithTx(ctx, r.pool, func(txCtx context.Context, tx pgx.Tx) error {
		var stockLeft int
		err := tx.QueryRow(txCtx, `
UPDATE products
SET stock = stock - $2, updated_at = NOW()
WHERE id = $1
  AND stock >= $2
RETURNING stock
`, productID, quantity).Scan(&stockLeft)
		if err != nil {
			if !errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("decrement product stock: %w", err)
			}
			var exists bool
			if err := tx.QueryRow(txCtx, `
SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)
`, productID).Scan(&exists); err != nil {
				return fmt.Errorf("check product exists: %w", err)
			}
			if !exists {
				return ErrProductNotFound
			}
			return ErrStockConflict
		}

		purchase, err = scanPurchase(tx.QueryRow(txCtx, `
INSERT INTO purchases (
	user_id,
	product_id,
	quantity,
	total_amount,
	paid_amount,
	due_amount,
	status,
	created_at,
	updated_at
) VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6::numeric, $7, NOW(), NOW())
RETURNING id, user_id, product_id, quantity, total_amount::text, paid_amount::text, due_amount::text, status, created_at, updated_at
`, userID, productID, quantity, numericArg(total), numericArg(paid), numericArg(due), status))
		if err != nil {
			return fmt.Errorf("insert purchase: %w", err)
		}

		legs = make([]InstallmentRecord, 0, len(installments))
		for _, leg := range installments {
			record, err := scanInstallment(tx.QueryRow(txCtx, `
INSERT INTO installments (
	purchase_id,
	installment_no,
	amount,
	due_date,
	paid_date,
	status
) VALUES ($1, $2, $3::numeric, $4, $5, $6)
RETURNING id, purchase_id, installment_no, amount::text, due_date, paid_date, payment_ref, status
`, purchase.ID, leg.No, numericArg(leg.Amount), leg.DueDate, leg.PaidDate, leg.Status))
			if err != nil {
				return fmt.Errorf("insert installment #%d: %w", leg.No, err)
			}
			legs = append(legs, record)
		}

		return nil
	})
	if err != nil {
		return PurchaseRecord{}, nil, err
	}

	return purchase, legs, nil
}

func (r *PurchaseRepo) FindByID(ctx context.Context, purchaseID int64) (PurchaseRecord, error) {
	if r.pool == nil {
		return PurchaseRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if purchaseID <= 0 {
		return PurchaseRecord{}, fmt.Errorf("invalid purchase id")
	}

	record, err := scanPurchase(r.pool.QueryRow(ctx, `
SELECT id, user_id, product_id, quantity, total_amount::text, paid_amount::text, due_amount::text, status, created_at, updated_at
FROM purchases
WHERE id = $1
LIMIT 1
`, purchaseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PurchaseRecord{}, ErrPurchaseNotFound
		}
		return PurchaseRecord{}, fmt.Errorf("find purchase by id: %w", err)
	}

	return record, nil
}

func (r *PurchaseRepo) List(ctx context.Context, filter PurchaseFilter) ([]PurchaseRecord, int64, error) {
	if r.pool == nil {
		return nil, 0, fmt.Errorf("postgres pool is nil")
	}

	where, args := buildPurchaseWhere(filter)

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM purchases `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count purchases: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
SELECT id, user_id, product_id, quantity, total_amount::text, paid_amount::text, due_amount::text, status, created_at, updated_at
FROM purchases
%s
ORDER BY created_at DESC, id DESC
LIMIT $%d OFFSET $%d
`, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()

	items := make([]PurchaseRecord, 0, limit)
	for rows.Next() {
		record, err := scanPurchase(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan purchase row: %w", err)
		}
		items = append(items, record)
	}
	if rows.Err() != nil {
		return nil, 0, fmt.Errorf("iterate purchase rows: %w", rows.Err())
	}

	return items, total, nil
}

// SumByCreatedRange returns paid/due totals over purchases created in
// [from, to). One SQL SUM per window keeps report memory bounded.
func (r *PurchaseRepo) SumByCreatedRange(ctx context.Context, from, to time.Time) (decimal.Decimal, decimal.Decimal, error) {
	if r.pool == nil {
		return decimal.Decimal{}, decimal.Decimal{}, fmt.Errorf("postgres pool is nil")
	}
	if from.IsZero() || to.IsZero() {
		return decimal.Decimal{}, decimal.Decimal{}, fmt.Errorf("from/to are required")
	}

	var rawPaid, rawDue string
	err := r.pool.QueryRow(ctx, `
SELECT
	COALESCE(SUM(paid_amount), 0)::text,
	COALESCE(SUM(due_amount), 0)::text
FROM purchases
WHERE created_at >= $1
  AND created_at < $2
`, from, to).Scan(&rawPaid, &rawDue)
	if err != nil {
		return decimal.Decimal{}, decimal.Decimal{}, fmt.Errorf("sum purchases by range: %w", err)
	}

	paid, err := parseNumeric(rawPaid)
	if err != nil {
		return decimal.Decimal{}, decimal.Decimal{}, err
	}
	due, err := parseNumeric(rawDue)
	if err != nil {
		return decimal.Decimal{}, decimal.Decimal{}, err
	}

	return paid, due, nil
}

func buildPurchaseWhere(filter PurchaseFilter) (string, []any) {
	parts := make([]string, 0, 4)
	args := make([]any, 0, 4)

	if filter.UserID != nil && *filter.UserID > 0 {
		args = append(args, *filter.UserID)
		parts = append(parts, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		parts = append(parts, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		parts = append(parts, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		parts = append(parts, fmt.Sprintf("created_at < $%d", len(args)))
	}

	if len(parts) == 0 {
		return "", args
	}
	where := "WHERE " + parts[0]
	for _, part := range parts[1:] {
		where += " AND " + part
	}
	return where, args
}

type purchaseRow interface {
	Scan(dest ...any) error
}

func scanPurchase(row purchaseRow) (PurchaseRecord, error) {
	var (
		record            PurchaseRecord
		rawTotal, rawPaid string
		rawDue            string
	)
	if err := row.Scan(
		&record.ID,
		&record.UserID,
		&record.ProductID,
		&record.Quantity,
		&rawTotal,
		&rawPaid,
		&rawDue,
		&record.Status,
		&record.CreatedAt,
		&record.UpdatedAt,
	); err != nil {
		return PurchaseRecord{}, err
	}

	var err error
	if record.TotalAmount, err = parseNumeric(rawTotal); err != nil {
		return PurchaseRecord{}, err
	}
	if record.PaidAmount, err = parseNumeric(rawPaid); err != nil {
		return PurchaseRecord{}, err
	}
	if record.DueAmount, err = parseNumeric(rawDue); err != nil {
		return PurchaseRecord{}, err
	}

	return record, nil
}
