package auditlogs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/NeuralTrust/BotGate/pkg/domain/audit"
	"github.com/NeuralTrust/BotGate/pkg/infra/cache"
)

const RedisSinkName = "redis"

// RedisSink maintains per-day counters and the recent decisions list used by
// the admin API.
type RedisSink struct {
	stats       *cache.DecisionStats
	recentLimit int64
	counterTTL  time.Duration
}

func NewRedisSink(stats *cache.DecisionStats, recentLimit int64, counterTTL time.Duration) *RedisSink {
	return &RedisSink{
		stats:       stats,
		recentLimit: recentLimit,
		counterTTL:  counterTTL,
	}
}

func (s *RedisSink) Name() string {
	return RedisSinkName
}

func (s *RedisSink) Write(ctx context.Context, r *audit.Record) error {
	if err := s.stats.Increment(ctx, r.Timestamp, string(r.Decision.Action), r.Verdict.Category.String(), s.counterTTL); err != nil {
		return err
	}
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	return s.stats.PushRecent(ctx, string(payload), s.recentLimit)
}

func (s *RedisSink) Close() error {
	return nil
}
