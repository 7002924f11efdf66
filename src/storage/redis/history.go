package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"ragcore/src/core/rag"
)

const historyPrefix = "chat:" // chat history key prefix

// HistoryStore keeps per-session conversation turns in redis lists, trimmed
// to a bounded recency window. The orchestrator never touches it; history is
// loaded here and passed into each request explicitly.
type HistoryStore struct {
	client *goredis.Client
	limit  int64
	ttl    time.Duration
}

func NewHistoryStore(addr, password string, db int, limit int, ttl time.Duration) *HistoryStore {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if limit <= 0 {
		limit = 50
	}

	return &HistoryStore{
		client: client,
		limit:  int64(limit),
		ttl:    ttl,
	}
}

// Append records one turn at the end of a session's history.
func (s *HistoryStore) Append(ctx context.Context, sessionID string, turn rag.Turn) error {
	payload, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("failed to marshal turn: %w", err)
	}

	key := historyPrefix + sessionID
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, payload)
	pipe.LTrim(ctx, key, -s.limit, -1)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append chat turn: %w", err)
	}

	return nil
}

// Recent returns up to n most recent turns of a session, oldest first.
func (s *HistoryStore) Recent(ctx context.Context, sessionID string, n int) ([]rag.Turn, error) {
	if n <= 0 {
		return nil, nil
	}

	key := historyPrefix + sessionID
	raw, err := s.client.LRange(ctx, key, int64(-n), -1).Result()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read chat history: %w", err)
	}

	turns := make([]rag.Turn, 0, len(raw))
	for _, item := range raw {
		var turn rag.Turn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			return nil, fmt.Errorf("failed to unmarshal chat turn: %w", err)
		}
		turns = append(turns, turn)
	}

	return turns, nil
}

// Healthy reports whether redis answers pings.
func (s *HistoryStore) Healthy(ctx context.Context) bool {
	return s.client.Ping(ctx).Err() == nil
}

// Close releases the underlying connection pool.
func (s *HistoryStore) Close() error {
	return s.client.Close()
}
