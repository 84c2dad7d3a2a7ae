// Package presence tracks which users currently hold an open realtime
// connection. State lives in Redis with a TTL so a crashed instance
// cannot leave users online forever.
package presence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quickmoney/chat-service/internal/apperr"
)

const defaultTTL = 5 * time.Minute

type Record struct {
	Status   string `json:"status"`
	LastSeen int64  `json:"last_seen"`
}

type Store struct {
	client *redis.Client
	prefix string
}

func NewStore(client *redis.Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

func (s *Store) key(userID string) string {
	return fmt.Sprintf("%s:presence:%s", s.prefix, userID)
}

func (s *Store) MarkOnline(ctx context.Context, userID string) error {
	return s.set(ctx, userID, "online", defaultTTL)
}

func (s *Store) MarkOffline(ctx context.Context, userID string) error {
	return s.set(ctx, userID, "offline", defaultTTL)
}

func (s *Store) set(ctx context.Context, userID, status string, ttl time.Duration) error {
	rec := Record{Status: status, LastSeen: time.Now().Unix()}
	b, _ := json.Marshal(rec)
	if err := s.client.Set(ctx, s.key(userID), b, ttl).Err(); err != nil {
		return fmt.Errorf("%w: presence set: %v", apperr.ErrUnavailable, err)
	}
	return nil
}

// Get returns the presence record, or ErrNotFound when the user has
// never connected (or the record expired).
func (s *Store) Get(ctx context.Context, userID string) (*Record, error) {
	b, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: presence for %s", apperr.ErrNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: presence get: %v", apperr.ErrUnavailable, err)
	}
	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("%w: presence decode: %v", apperr.ErrUnavailable, err)
	}
	return &rec, nil
}
