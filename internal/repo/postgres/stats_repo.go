package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type StatsRepo struct {
	pool *pgxpool.Pool
}

type DashboardSnapshot struct {
	TotalPurchases    int64
	TotalInstallments int64
	TotalProducts     int64
	PaidCount         int64
	PendingCount      int64
	OverdueCount      int64
	PaidAmount        decimal.Decimal
	PendingAmount     decimal.Decimal
	OverdueAmount     decimal.Decimal
}

func NewStatsRepo(pool *pgxpool.Pool) *StatsRepo {
	return &StatsRepo{pool: pool}
}

// Dashboard gathers every aggregate in one statement so the counts and the
// sums come from the same snapshot.
func (r *StatsRepo) Dashboard(ctx context.Context) (DashboardSnapshot, error) {
	if r.pool == nil {
		return DashboardSnapshot{}, fmt.Errorf("postgres pool is nil")
	}

	var (
		snapshot                        DashboardSnapshot
		rawPaid, rawPending, rawOverdue string
	)
	err := r.pool.QueryRow(ctx, `
SELECT
	(SELECT COUNT(*) FROM purchases),
	(SELECT COUNT(*) FROM installments),
	(SELECT COUNT(*) FROM products),
	(SELECT COUNT(*) FROM installments WHERE status = 'paid'),
	(SELECT COUNT(*) FROM installments WHERE status = 'pending'),
	(SELECT COUNT(*) FROM installments WHERE status = 'overdue'),
	(SELECT COALESCE(SUM(amount), 0) FROM installments WHERE status = 'paid')::text,
	(SELECT COALESCE(SUM(amount), 0) FROM installments WHERE status = 'pending')::text,
	(SELECT COALESCE(SUM(amount), 0) FROM installments WHERE status = 'overdue')::text
`).Scan(
		&snapshot.TotalPurchases,
		&snapshot.TotalInstallments,
		&snapshot.TotalProducts,
		&snapshot.PaidCount,
		&snapshot.PendingCount,
		&snapshot.OverdueCount,
		&rawPaid,
		&rawPending,
		&rawOverdue,
	)
	if err != nil {
		return DashboardSnapshot{}, fmt.Errorf("load dashboard snapshot: %w", err)
	}

	if snapshot.PaidAmount, err = parseNumeric(rawPaid); err != nil {
		return DashboardSnapshot{}, err
	}
	if snapshot.PendingAmount, err = parseNumeric(rawPending); err != nil {
		return DashboardSnapshot{}, err
	}
	if snapshot.OverdueAmount, err = parseNumeric(rawOverdue); err != nil {
		return DashboardSnapshot{}, err
	}

	return snapshot, nil
}
