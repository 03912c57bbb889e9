package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/DownstreamWealth/portal/internal/session"
)

// RedisSessionStore implements session.Store backed by Redis.
// Keys hold JSON documents of the form {"id": 42, "status": "explorer"}.
type RedisSessionStore struct {
	client redis.UniversalClient
	prefix string
}

var _ session.Store = (*RedisSessionStore)(nil)

// NewRedisSessionStore constructs a Redis-backed session store.
func NewRedisSessionStore(client redis.UniversalClient, prefix string) *RedisSessionStore {
	return &RedisSessionStore{client: client, prefix: prefix}
}

type sessionRecord struct {
	ID     json.Number `json:"id"`
	Status string      `json:"status"`
}

// Lookup loads and decodes the session document.
func (s *RedisSessionStore) Lookup(ctx context.Context, sessionID string) (*session.Identity, error) {
	payload, err := s.client.Get(ctx, s.prefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	var record sessionRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	userID, err := record.ID.Int64()
	if err != nil {
		return nil, fmt.Errorf("decode session id: %w", err)
	}
	return &session.Identity{UserID: userID, Status: record.Status}, nil
}
