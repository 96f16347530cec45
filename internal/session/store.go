package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrInvalidSession indicates the session id is unknown or expired.
var ErrInvalidSession = errors.New("invalid session")

// Store keeps anonymous shopping sessions in redis. Eviction is the key TTL:
// an idle session disappears on its own instead of accumulating in process
// memory.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// Issue mints a new anonymous session id.
func (s *Store) Issue(ctx context.Context) (string, error) {
	id := uuid.NewString()
	if err := s.rdb.Set(ctx, key(id), time.Now().UTC().Format(time.RFC3339), s.ttl).Err(); err != nil {
		return "", err
	}
	return id, nil
}

// Lookup validates a session id and slides its expiry forward.
func (s *Store) Lookup(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidSession
	}
	ok, err := s.rdb.Expire(ctx, key(id), s.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidSession
	}
	return nil
}

func key(id string) string {
	return "session:" + id
}
