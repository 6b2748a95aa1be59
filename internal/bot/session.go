// internal/bot/session.go
package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fintrack-bot/internal/models"

	"github.com/redis/go-redis/v9"
)

var ErrNoPending = errors.New("NO_PENDING_TRANSACTION")

// SessionStore keeps the per-user pending transaction between the confirm
// prompt and the user's button tap. Entries expire after the configured TTL;
// a new extraction for the same user overwrites the previous one.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func pendingKey(userID int64) string {
	return fmt.Sprintf("pending:%d", userID)
}

func (s *SessionStore) Put(ctx context.Context, p *models.PendingTransaction) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal pending transaction: %w", err)
	}
	return s.client.Set(ctx, pendingKey(p.UserID), data, s.ttl).Err()
}

// Take retrieves and deletes the pending transaction atomically enough for a
// single-chat flow: Telegram delivers one callback per button tap, and a
// stale second tap lands on an already-deleted key.
func (s *SessionStore) Take(ctx context.Context, userID int64) (*models.PendingTransaction, error) {
	key := pendingKey(userID)
	data, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoPending
		}
		return nil, fmt.Errorf("get pending transaction: %w", err)
	}

	var p models.PendingTransaction
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("unmarshal pending transaction: %w", err)
	}

	if err := s.client.Del(ctx, key).Err(); err != nil {
		return nil, fmt.Errorf("delete pending transaction: %w", err)
	}
	return &p, nil
}

// Drop discards a pending transaction without reading it. Missing keys are
// not an error.
func (s *SessionStore) Drop(ctx context.Context, userID int64) error {
	return s.client.Del(ctx, pendingKey(userID)).Err()
}
