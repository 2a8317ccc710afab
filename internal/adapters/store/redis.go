package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkeye/Sketch/internal/core"
	"github.com/dkeye/Sketch/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisReportStore keeps a counter and the report log per target.
type RedisReportStore struct {
	client *redis.Client
}

func NewRedisReportStore(client *redis.Client) *RedisReportStore {
	return &RedisReportStore{client: client}
}

func (s *RedisReportStore) countKey(userID domain.UserID) string {
	return fmt.Sprintf("reports:%s:count", userID)
}

func (s *RedisReportStore) logKey(userID domain.UserID) string {
	return fmt.Sprintf("reports:%s:log", userID)
}

func (s *RedisReportStore) AddReport(ctx context.Context, r core.Report) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, s.logKey(r.TargetUserID), data)
		pipe.Incr(ctx, s.countKey(r.TargetUserID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("store report: %w", err)
	}
	return nil
}

func (s *RedisReportStore) CountReportsAgainst(ctx context.Context, userID domain.UserID) (int, error) {
	n, err := s.client.Get(ctx, s.countKey(userID)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("count reports: %w", err)
	}
	return n, nil
}

// Reports returns the stored reports against userID, oldest first.
func (s *RedisReportStore) Reports(ctx context.Context, userID domain.UserID) ([]core.Report, error) {
	raw, err := s.client.LRange(ctx, s.logKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	out := make([]core.Report, 0, len(raw))
	for _, item := range raw {
		var r core.Report
		if err := json.Unmarshal([]byte(item), &r); err != nil {
			return nil, fmt.Errorf("decode report: %w", err)
		}
		out = append(out, r)
	}
	return out, nil
}
