package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	DecisionCountersKeyPattern = "botgate:decisions:%s"
	RecentDecisionsKey         = "botgate:decisions:recent"
	DecisionKeysPattern        = "botgate:decisions:*"

	dayLayout = "2006-01-02"
)

// DecisionStats keeps per-day decision counters and a capped list of the
// most recent decision payloads in redis.
type DecisionStats struct {
	client Client
}

func NewDecisionStats(client Client) *DecisionStats {
	return &DecisionStats{client: client}
}

func CountersKey(day time.Time) string {
	return fmt.Sprintf(DecisionCountersKeyPattern, day.UTC().Format(dayLayout))
}

func CounterField(action, category string) string {
	return action + ":" + category
}

func (s *DecisionStats) Increment(ctx context.Context, at time.Time, action, category string, ttl time.Duration) error {
	key := CountersKey(at)
	rc := s.client.RedisClient()
	if err := rc.HIncrBy(ctx, key, CounterField(action, category), 1).Err(); err != nil {
		return fmt.Errorf("failed to increment decision counter: %w", err)
	}
	if ttl > 0 {
		if err := rc.Expire(ctx, key, ttl).Err(); err != nil {
			return fmt.Errorf("failed to set counter ttl: %w", err)
		}
	}
	return nil
}

func (s *DecisionStats) PushRecent(ctx context.Context, payload string, limit int64) error {
	rc := s.client.RedisClient()
	if err := rc.LPush(ctx, RecentDecisionsKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to push recent decision: %w", err)
	}
	if limit > 0 {
		if err := rc.LTrim(ctx, RecentDecisionsKey, 0, limit-1).Err(); err != nil {
			return fmt.Errorf("failed to trim recent decisions: %w", err)
		}
	}
	return nil
}

// DayCounters is the decision breakdown for a single day.
type DayCounters struct {
	Day        string                      `json:"day"`
	Total      int64                       `json:"total"`
	ByAction   map[string]int64            `json:"by_action"`
	ByCategory map[string]int64            `json:"by_category"`
	Matrix     map[string]map[string]int64 `json:"matrix"`
}

func (s *DecisionStats) Counters(ctx context.Context, day time.Time) (*DayCounters, error) {
	raw, err := s.client.RedisClient().HGetAll(ctx, CountersKey(day)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read decision counters: %w", err)
	}
	out := &DayCounters{
		Day:        day.UTC().Format(dayLayout),
		ByAction:   map[string]int64{},
		ByCategory: map[string]int64{},
		Matrix:     map[string]map[string]int64{},
	}
	for field, value := range raw {
		action, category, ok := strings.Cut(field, ":")
		if !ok {
			continue
		}
		var n int64
		if _, err := fmt.Sscan(value, &n); err != nil {
			continue
		}
		out.Total += n
		out.ByAction[action] += n
		out.ByCategory[category] += n
		if out.Matrix[action] == nil {
			out.Matrix[action] = map[string]int64{}
		}
		out.Matrix[action][category] += n
	}
	return out, nil
}

func (s *DecisionStats) Recent(ctx context.Context, n int64) ([]string, error) {
	if n <= 0 {
		return []string{}, nil
	}
	items, err := s.client.RedisClient().LRange(ctx, RecentDecisionsKey, 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read recent decisions: %w", err)
	}
	return items, nil
}

func (s *DecisionStats) Reset(ctx context.Context) (int, error) {
	return s.client.DeleteByPattern(ctx, DecisionKeysPattern)
}

func ParseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC(), nil
	}
	return time.Parse(dayLayout, s)
}
