package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/pkaravayeu/paylater/internal/domain/rules"
	pgrepo "github.com/pkaravayeu/paylater/internal/repo/postgres"
)

const (
	weeklyWindowDays  = 7
	monthlyWindowDays = 30
)

var ErrInvalidPeriod = errors.New("invalid report period")

type StatsStore interface {
	Dashboard(ctx context.Context) (pgrepo.DashboardSnapshot, error)
}

type PurchaseSumStore interface {
	SumByCreatedRange(ctx context.Context, from, to time.Time) (decimal.Decimal, decimal.Decimal, error)
}

type StatsCache interface {
	Get(ctx context.Context) ([]byte, bool, error)
	Set(ctx context.Context, payload []byte, ttl time.Duration) error
}

type Service struct {
	stats    StatsStore
	sums     PurchaseSumStore
	cache    StatsCache
	cacheTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

type Dependencies struct {
	Stats    StatsStore
	Sums     PurchaseSumStore
	Cache    StatsCache
	CacheTTL time.Duration
	Logger   *zap.Logger
}

// DashboardStats is the admin overview payload. Amount fields serialize as
// decimal strings.
type DashboardStats struct {
	TotalPurchases    int64           `json:"total_purchases"`
	TotalInstallments int64           `json:"total_installments"`
	TotalProducts     int64           `json:"total_products"`
	PaidCount         int64           `json:"paid_count"`
	PendingCount      int64           `json:"pending_count"`
	OverdueCount      int64           `json:"overdue_count"`
	PaidAmount        decimal.Decimal `json:"paid_amount"`
	PendingAmount     decimal.Decimal `json:"pending_amount"`
	OverdueAmount     decimal.Decimal `json:"overdue_amount"`
}

type PeriodBucket struct {
	Start      time.Time       `json:"start"`
	End        time.Time       `json:"end"`
	PaidAmount decimal.Decimal `json:"paid_amount"`
	DueAmount  decimal.Decimal `json:"due_amount"`
}

type PeriodReport struct {
	Start     time.Time       `json:"start"`
	End       time.Time       `json:"end"`
	Weekly    []PeriodBucket  `json:"weekly"`
	Monthly   []PeriodBucket  `json:"monthly"`
	TotalPaid decimal.Decimal `json:"total_paid"`
	TotalDue  decimal.Decimal `json:"total_due"`
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := deps.CacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return &Service{
		stats:    deps.Stats,
		sums:     deps.Sums,
		cache:    deps.Cache,
		cacheTTL: ttl,
		logger:   logger,
		now:      time.Now,
	}
}

// GetDashboardStats serves the admin overview, preferring the cached copy.
// Cache failures fall through to the database rather than failing the call.
func (s *Service) GetDashboardStats(ctx context.Context) (DashboardStats, error) {
	if s.cache != nil {
		payload, ok, err := s.cache.Get(ctx)
		if err != nil {
			s.logger.Warn("stats cache read failed", zap.Error(err))
		} else if ok {
			var cached DashboardStats
			if err := json.Unmarshal(payload, &cached); err == nil {
				return cached, nil
			}
			s.logger.Warn("stats cache payload is corrupt", zap.Error(err))
		}
	}

	snapshot, err := s.stats.Dashboard(ctx)
	if err != nil {
		return DashboardStats{}, fmt.Errorf("load dashboard snapshot: %w", err)
	}

	stats := DashboardStats{
		TotalPurchases:    snapshot.TotalPurchases,
		TotalInstallments: snapshot.TotalInstallments,
		TotalProducts:     snapshot.TotalProducts,
		PaidCount:         snapshot.PaidCount,
		PendingCount:      snapshot.PendingCount,
		OverdueCount:      snapshot.OverdueCount,
		PaidAmount:        snapshot.PaidAmount,
		PendingAmount:     snapshot.PendingAmount,
		OverdueAmount:     snapshot.OverdueAmount,
	}

	if s.cache != nil {
		if payload, err := json.Marshal(stats); err == nil {
			if err := s.cache.Set(ctx, payload, s.cacheTTL); err != nil {
				s.logger.Warn("stats cache write failed", zap.Error(err))
			}
		}
	}

	return stats, nil
}

// GetPeriodReport sums purchase amounts over weekly and monthly windows
// between start and end. Trailing windows are truncated at end.
func (s *Service) GetPeriodReport(ctx context.Context, start, end time.Time) (PeriodReport, error) {
	weekly, err := s.buckets(ctx, start, end, weeklyWindowDays)
	if err != nil {
		return PeriodReport{}, err
	}
	monthly, err := s.buckets(ctx, start, end, monthlyWindowDays)
	if err != nil {
		return PeriodReport{}, err
	}

	totalPaid := decimal.Zero
	totalDue := decimal.Zero
	for _, bucket := range monthly {
		totalPaid = totalPaid.Add(bucket.PaidAmount)
		totalDue = totalDue.Add(bucket.DueAmount)
	}

	return PeriodReport{
		Start:     start,
		End:       end,
		Weekly:    weekly,
		Monthly:   monthly,
		TotalPaid: totalPaid,
		TotalDue:  totalDue,
	}, nil
}

func (s *Service) buckets(ctx context.Context, start, end time.Time, days int) ([]PeriodBucket, error) {
	windows, err := rules.Windows(start, end, days)
	if err != nil {
		return nil, ErrInvalidPeriod
	}

	buckets := make([]PeriodBucket, 0, len(windows))
	for _, window := range windows {
		paid, due, err := s.sums.SumByCreatedRange(ctx, window.Start, window.End)
		if err != nil {
			return nil, fmt.Errorf("sum purchases for window: %w", err)
		}
		buckets = append(buckets, PeriodBucket{
			Start:      window.Start,
			End:        window.End,
			PaidAmount: paid,
			DueAmount:  due,
		})
	}
	return buckets, nil
}
