package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const dashboardStatsKey = "stats:dashboard"

// StatsCacheRepo keeps the serialized dashboard snapshot for a short TTL so
// repeated admin polls do not hammer the aggregate query.
type StatsCacheRepo struct {
	client *goredis.Client
}

func NewStatsCacheRepo(client *goredis.Client) *StatsCacheRepo {
	return &StatsCacheRepo{client: client}
}

func (r *StatsCacheRepo) Get(ctx context.Context) ([]byte, bool, error) {
	if r.client == nil {
		return nil, false, nil
	}

	raw, err := r.client.Get(ctx, dashboardStatsKey).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get cached stats: %w", err)
	}

	return raw, true, nil
}

func (r *StatsCacheRepo) Set(ctx context.Context, payload []byte, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}
	if len(payload) == 0 || ttl <= 0 {
		return fmt.Errorf("invalid stats cache payload")
	}

	if err := r.client.Set(ctx, dashboardStatsKey, payload, ttl).Err(); err != nil {
		return fmt.Errorf("set cached stats: %w", err)
	}

	return nil
}
