package overdue

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Job flips pending installments whose due date has passed to overdue.
// The app runs it once at startup and then on a fixed interval.
type Job struct {
	store  installmentStore
	now    func() time.Time
	logger *zap.Logger
}

type installmentStore interface {
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
}

func New(store installmentStore, logger *zap.Logger) *Job {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		store:  store,
		now:    time.Now,
		logger: logger,
	}
}

func (j *Job) Run(ctx context.Context) error {
	if j.store == nil {
		return nil
	}

	flipped, err := j.store.MarkOverdue(ctx, j.now().UTC())
	if err != nil {
		return fmt.Errorf("mark overdue installments: %w", err)
	}
	if flipped > 0 {
		j.logger.Info("overdue sweep completed", zap.Int64("flipped", flipped))
	}

	return nil
}
