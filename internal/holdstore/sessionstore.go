package holdstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cinetix/booking-engine/internal/booking"
	"github.com/cinetix/booking-engine/internal/model"
)

func sessionKey(showtimeID, userID uint64) string {
	return fmt.Sprintf("osess:%d:%d", showtimeID, userID)
}

// SessionStore is the Redis implementation of the engine's order
// session store, same TTL discipline as holds.
type SessionStore struct {
	rdb *redis.Client
}

// NewSessionStore returns a store bound to the given client.
func NewSessionStore(rdb *redis.Client) *SessionStore {
	return &SessionStore{rdb: rdb}
}

// Get returns the session or booking.ErrOrderSessionNotFound once it
// has expired.
func (s *SessionStore) Get(ctx context.Context, userID, showtimeID uint64) (*model.OrderSession, error) {
	raw, err := s.rdb.Get(ctx, sessionKey(showtimeID, userID)).Bytes()
	if err == redis.Nil {
		return nil, booking.ErrOrderSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var sess model.OrderSession
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Put writes the session under the given TTL.
func (s *SessionStore) Put(ctx context.Context, sess *model.OrderSession, ttl time.Duration) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, sessionKey(sess.ShowtimeID, sess.UserID), raw, ttl).Err()
}

// Delete removes the session.  Missing sessions are not an error.
func (s *SessionStore) Delete(ctx context.Context, userID, showtimeID uint64) error {
	return s.rdb.Del(ctx, sessionKey(showtimeID, userID)).Err()
}
