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
	ErrInstallmentNotFound = errors.New("installment not found")
	ErrInstallmentPaid     = errors.New("installment already paid")
)

type InstallmentRepo struct {
	pool *pgxpool.Pool
}

type InstallmentRecord struct {
	ID            int64
	PurchaseID    int64
	InstallmentNo int
	Amount        decimal.Decimal
	DueDate       time.Time
	PaidDate      *time.Time
	PaymentRef    *string
	Status        string
}

type InstallmentFilter struct {
	UserID *int64
	Status string
	// Unpaid matches every non-paid status (pending and overdue). It is
	// ignored when Status is set.
	Unpaid   bool
	DueFrom  *time.Time
	DueTo    *time.Time
	SortBy   string
	SortDesc bool
	Limit    int
	Offset   int
}

func NewInstallmentRepo(pool *pgxpool.Pool) *InstallmentRepo {
	return &InstallmentRepo{pool: pool}
}

func (r *InstallmentRepo) FindByID(ctx context.Context, installmentID int64) (InstallmentRecord, error) {
	if r.pool == nil {
		return InstallmentRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if installmentID <= 0 {
		return InstallmentRecord{}, fmt.Errorf("invalid installment id")
	}

	record, err := scanInstallment(r.pool.QueryRow(ctx, `
SELECT id, purchase_id, installment_no, amount::text, due_date, paid_date, payment_ref, status
FROM installments
WHERE id = $1
LIMIT 1
`, installmentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return InstallmentRecord{}, ErrInstallmentNotFound
		}
		return InstallmentRecord{}, fmt.Errorf("find installment by id: %w", err)
	}

	return record, nil
}

func (r *InstallmentRepo) ListByPurchase(ctx context.Context, purchaseID int64) ([]InstallmentRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if purchaseID <= 0 {
		return nil, fmt.Errorf("invalid purchase id")
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, purchase_id, installment_no, amount::text, due_date, paid_date, payment_ref, status
FROM installments
WHERE purchase_id = $1
ORDER BY installment_no ASC
`, purchaseID)
	if err != nil {
		return nil, fmt.Errorf("list installments by purchase: %w", err)
	}
	defer rows.Close()

	items := make([]InstallmentRecord, 0, 4)
	for rows.Next() {
		record, err := scanInstallment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan installment row: %w", err)
		}
		items = append(items, record)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate installment rows: %w", rows.Err())
	}

	return items, nil
}

// Pay applies a payment exactly once. Both the installment row and its parent
// purchase row are locked FOR UPDATE, so a concurrent payer blocks here and
// then observes ErrInstallmentPaid. The purchase aggregate is recomputed in
// SQL on NUMERIC so paid + due == total survives the update.
func (r *InstallmentRepo) Pay(ctx context.Context, installmentID int64, paymentRef string, now time.Time) (InstallmentRecord, PurchaseRecord, error) {
	if r.pool == nil {
		return InstallmentRecord{}, PurchaseRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if installmentID <= 0 || paymentRef == "" {
		return InstallmentRecord{}, PurchaseRecord{}, fmt.Errorf("invalid pay payload")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var (
		installment InstallmentRecord
		purchase    PurchaseRecord
	)
	err := WithTx(ctx, r.pool, func(txCtx context.Context, tx pgx.Tx) error {
		locked, err := scanInstallment(tx.QueryRow(txCtx, `
SELECT id, purchase_id, installment_no, amount::text, due_date, paid_date, payment_ref, status
FROM installments
WHERE id = $1
FOR UPDATE
`, installmentID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrInstallmentNotFound
			}
			return fmt.Errorf("lock installment: %w", err)
		}

		if locked.Status == "paid" {
			return ErrInstallmentPaid
		}

		if _, err := scanPurchase(tx.QueryRow(txCtx, `
SELECT id, user_id, product_id, quantity, total_amount::text, paid_amount::text, due_amount::text, status, created_at, updated_at
FROM purchases
WHERE id = $1
FOR UPDATE
`, locked.PurchaseID)); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrPurchaseNotFound
			}
			return fmt.Errorf("lock purchase: %w", err)
		}

		installment, err = scanInstallment(tx.QueryRow(txCtx, `
UPDATE installments
SET status = 'paid', paid_date = $2, payment_ref = $3
WHERE id = $1
RETURNING id, purchase_id, installment_no, amount::text, due_date, paid_date, payment_ref, status
`, installmentID, now, paymentRef))
		if err != nil {
			return fmt.Errorf("mark installment paid: %w", err)
		}

		purchase, err = scanPurchase(tx.QueryRow(txCtx, `
UPDATE purchases
SET
	paid_amount = paid_amount + $2::numeric,
	due_amount = total_amount - (paid_amount + $2::numeric),
	status = CASE
		WHEN total_amount - (paid_amount + $2::numeric) <= 0 THEN 'paid'
		ELSE status
	END,
	updated_at = $3
WHERE id = $1
RETURNING id, user_id, product_id, quantity, total_amount::text, paid_amount::text, due_amount::text, status, created_at, updated_at
`, locked.PurchaseID, numericArg(installment.Amount), now))
		if err != nil {
			return fmt.Errorf("apply payment to purchase: %w", err)
		}

		return nil
	})
	if err != nil {
		return InstallmentRecord{}, PurchaseRecord{}, err
	}

	return installment, purchase, nil
}

func (r *InstallmentRepo) List(ctx context.Context, filter InstallmentFilter) ([]InstallmentRecord, int64, error) {
	if r.pool == nil {
		return nil, 0, fmt.Errorf("postgres pool is nil")
	}

	where, args := buildInstallmentWhere(filter)

	var total int64
	if err := r.pool.QueryRow(ctx, `
SELECT COUNT(*)
FROM installments i
JOIN purchases p ON p.id = i.purchase_id
`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count installments: %w", err)
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
SELECT i.id, i.purchase_id, i.installment_no, i.amount::text, i.due_date, i.paid_date, i.payment_ref, i.status
FROM installments i
JOIN purchases p ON p.id = i.purchase_id
%s
ORDER BY %s, i.id DESC
LIMIT $%d OFFSET $%d
`, where, installmentOrder(filter), len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list installments: %w", err)
	}
	defer rows.Close()

	items := make([]InstallmentRecord, 0, limit)
	for rows.Next() {
		record, err := scanInstallment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan installment row: %w", err)
		}
		items = append(items, record)
	}
	if rows.Err() != nil {
		return nil, 0, fmt.Errorf("iterate installment rows: %w", rows.Err())
	}

	return items, total, nil
}

// MarkOverdue flips pending installments whose due date has passed.
func (r *InstallmentRepo) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE installments
SET status = 'overdue'
WHERE status = 'pending'
  AND due_date < $1
`, now)
	if err != nil {
		return 0, fmt.Errorf("mark overdue installments: %w", err)
	}

	return tag.RowsAffected(), nil
}

// installmentSortColumns is the sort allow-list; anything else falls back to
// due_date.
var installmentSortColumns = map[string]string{
	"due_date":       "i.due_date",
	"created_at":     "i.id",
	"amount":         "i.amount",
	"installment_no": "i.installment_no",
}

func installmentOrder(filter InstallmentFilter) string {
	column, ok := installmentSortColumns[filter.SortBy]
	if !ok {
		column = "i.due_date"
	}
	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}
	return column + " " + direction
}

func buildInstallmentWhere(filter InstallmentFilter) (string, []any) {
	parts := make([]string, 0, 4)
	args := make([]any, 0, 4)

	if filter.UserID != nil && *filter.UserID > 0 {
		args = append(args, *filter.UserID)
		parts = append(parts, fmt.Sprintf("p.user_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		parts = append(parts, fmt.Sprintf("i.status = $%d", len(args)))
	} else if filter.Unpaid {
		parts = append(parts, "i.status <> 'paid'")
	}
	if filter.DueFrom != nil {
		args = append(args, *filter.DueFrom)
		parts = append(parts, fmt.Sprintf("i.due_date >= $%d", len(args)))
	}
	if filter.DueTo != nil {
		args = append(args, *filter.DueTo)
		parts = append(parts, fmt.Sprintf("i.due_date < $%d", len(args)))
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

type installmentRow interface {
	Scan(dest ...any) error
}

func scanInstallment(row installmentRow) (InstallmentRecord, error) {
	var (
		record    InstallmentRecord
		rawAmount string
	)
	if err := row.Scan(
		&record.ID,
		&record.PurchaseID,
		&record.InstallmentNo,
		&rawAmount,
		&record.DueDate,
		&record.PaidDate,
		&record.PaymentRef,
		&record.Status,
	); err != nil {
		return InstallmentRecord{}, err
	}

	amount, err := parseNumeric(rawAmount)
	if err != nil {
		return InstallmentRecord{}, err
	}
	record.Amount = amount
	return record, nil
}
