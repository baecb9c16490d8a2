package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Summary is the last AI forecast text generated for a branch.
type Summary struct {
	BranchID    uint       `json:"branch_id"`
	Text        string     `json:"forecast_text"`
	GeneratedAt *time.Time `json:"generated_at"`
}

// SummaryStore keeps one forecast summary per branch.
type SummaryStore interface {
	Save(ctx context.Context, s Summary) error
	Load(ctx context.Context, branchID uint) (Summary, bool, error)
	Delete(ctx context.Context, branchID uint) error
}

// RedisStore keeps summaries in a hash per branch.
type RedisStore struct {
	rdb redis.UniversalClient
}

func NewRedisStore(rdb redis.UniversalClient) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func summaryKey(branchID uint) string {
	return fmt.Sprintf("forecast:branch:%d", branchID)
}

func (s *RedisStore) Save(ctx context.Context, sum Summary) error {
	at := time.Now().UTC()
	if sum.GeneratedAt != nil {
		at = sum.GeneratedAt.UTC()
	}
	err := s.rdb.HSet(ctx, summaryKey(sum.BranchID),
		"text", sum.Text,
		"generated_at", at.Format(time.RFC3339),
	).Err()
	if err != nil {
		return fmt.Errorf("ai: save summary: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, branchID uint) (Summary, bool, error) {
	fields, err := s.rdb.HGetAll(ctx, summaryKey(branchID)).Result()
	if err != nil {
		return Summary{}, false, fmt.Errorf("ai: load summary: %w", err)
	}
	text, ok := fields["text"]
	if !ok {
		return Summary{}, false, nil
	}

	sum := Summary{BranchID: branchID, Text: text}
	if at, err := time.Parse(time.RFC3339, fields["generated_at"]); err == nil {
		sum.GeneratedAt = &at
	}
	return sum, true, nil
}

// Delete drops a branch's summary; used when the branch goes away.
func (s *RedisStore) Delete(ctx context.Context, branchID uint) error {
	return s.rdb.Del(ctx, summaryKey(branchID)).Err()
}
