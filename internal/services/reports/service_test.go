package reports

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	pgrepo "github.com/pkaravayeu/paylater/internal/repo/postgres"
	redrepo "github.com/pkaravayeu/paylater/internal/repo/redis"
)

type stubStatsStore struct {
	snapshot pgrepo.DashboardSnapshot
	calls    int
}

func (s *stubStatsStore) Dashboard(_ context.Context) (pgrepo.DashboardSnapshot, error) {
	s.calls++
	return s.snapshot, nil
}

type stubSumStore struct {
	// keyed by window start, amounts returned as paid/due
	paid map[time.Time]decimal.Decimal
	due  map[time.Time]decimal.Decimal
}

func (s *stubSumStore) SumByCreatedRange(_ context.Context, from, _ time.Time) (decimal.Decimal, decimal.Decimal, error) {
	paid, ok := s.paid[from]
	if !ok {
		paid = decimal.Zero
	}
	due, ok := s.due[from]
	if !ok {
		due = decimal.Zero
	}
	return paid, due, nil
}

func testSnapshot() pgrepo.DashboardSnapshot {
	return pgrepo.DashboardSnapshot{
		TotalPurchases:    12,
		TotalInstallments: 20,
		TotalProducts:     4,
		PaidCount:         8,
		PendingCount:      10,
		OverdueCount:      2,
		PaidAmount:        decimal.RequireFromString("800.00"),
		PendingAmount:     decimal.RequireFromString("450.50"),
		OverdueAmount:     decimal.RequireFromString("99.99"),
	}
}

func TestDashboardStatsServedFromCache(t *testing.T) {
	mini := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mini.Addr()})
	defer func() { _ = client.Close() }()

	stats := &stubStatsStore{snapshot: testSnapshot()}
	svc := NewService(Dependencies{
		Stats:    stats,
		Sums:     &stubSumStore{},
		Cache:    redrepo.NewStatsCacheRepo(client),
		CacheTTL: 30 * time.Second,
	})

	ctx := context.Background()
	first, err := svc.GetDashboardStats(ctx)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := svc.GetDashboardStats(ctx)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}

	if stats.calls != 1 {
		t.Fatalf("expected one snapshot query, got %d", stats.calls)
	}
	if !first.PaidAmount.Equal(second.PaidAmount) || first.TotalPurchases != second.TotalPurchases {
		t.Fatalf("cached stats differ: %+v vs %+v", first, second)
	}

	mini.FastForward(time.Minute)
	if _, err := svc.GetDashboardStats(ctx); err != nil {
		t.Fatalf("call after ttl: %v", err)
	}
	if stats.calls != 2 {
		t.Fatalf("expected snapshot re-query after ttl, got %d calls", stats.calls)
	}
}

func TestDashboardStatsWithoutCache(t *testing.T) {
	stats := &stubStatsStore{snapshot: testSnapshot()}
	svc := NewService(Dependencies{Stats: stats, Sums: &stubSumStore{}})

	got, err := svc.GetDashboardStats(context.Background())
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if got.OverdueCount != 2 || !got.OverdueAmount.Equal(decimal.RequireFromString("99.99")) {
		t.Fatalf("unexpected stats: %+v", got)
	}
}

func TestPeriodReportWindows(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 45)

	sums := &stubSumStore{
		paid: map[time.Time]decimal.Decimal{
			start:                   decimal.RequireFromString("100.00"),
			start.AddDate(0, 0, 30): decimal.RequireFromString("40.00"),
		},
		due: map[time.Time]decimal.Decimal{
			start: decimal.RequireFromString("25.00"),
		},
	}
	svc := NewService(Dependencies{Stats: &stubStatsStore{}, Sums: sums})

	report, err := svc.GetPeriodReport(context.Background(), start, end)
	if err != nil {
		t.Fatalf("get period report: %v", err)
	}

	// 45 days: seven weekly windows (last truncated) and two monthly ones.
	if len(report.Weekly) != 7 {
		t.Fatalf("expected 7 weekly buckets, got %d", len(report.Weekly))
	}
	if len(report.Monthly) != 2 {
		t.Fatalf("expected 2 monthly buckets, got %d", len(report.Monthly))
	}
	if !report.Monthly[1].End.Equal(end) {
		t.Fatalf("last bucket must be truncated at end, got %v", report.Monthly[1].End)
	}
	if !report.TotalPaid.Equal(decimal.RequireFromString("140.00")) {
		t.Fatalf("unexpected total paid: %s", report.TotalPaid)
	}
	if !report.TotalDue.Equal(decimal.RequireFromString("25.00")) {
		t.Fatalf("unexpected total due: %s", report.TotalDue)
	}
}

func TestPeriodReportRejectsInvertedRange(t *testing.T) {
	svc := NewService(Dependencies{Stats: &stubStatsStore{}, Sums: &stubSumStore{}})

	now := time.Now()
	if _, err := svc.GetPeriodReport(context.Background(), now, now.AddDate(0, 0, -1)); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
}
