// Package holdstore keeps the ephemeral side of the reservation
// engine in Redis: hold records, per-seat claim keys and order
// sessions.  Redis key expiry is the only cancellation mechanism for
// idle clients; nothing here is ever swept by application code.
package holdstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cinetix/booking-engine/internal/booking"
	"github.com/cinetix/booking-engine/internal/model"
)

// Key layout.  Claims are keyed per (showtime, seat) so two users
// racing for one seat contend on a single key; hold records are keyed
// per (showtime, user).
func holdKey(showtimeID, userID uint64) string {
	return fmt.Sprintf("hold:%d:%d", showtimeID, userID)
}

func claimKey(showtimeID, seatID uint64) string {
	return fmt.Sprintf("claim:%d:%d", showtimeID, seatID)
}

// releaseScript deletes a claim only when the caller still owns it, so
// a release can never drop a claim the seat's next holder just took.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// refreshScript resets a claim's TTL only for its current owner.
var refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)

// HoldStore is the Redis implementation of the engine's hold store.
type HoldStore struct {
	rdb *redis.Client
}

// New returns a store bound to the given client.
func New(rdb *redis.Client) *HoldStore {
	return &HoldStore{rdb: rdb}
}

// Get returns the hold for (user, showtime) or booking.ErrHoldNotFound
// once the record has expired.
func (s *HoldStore) Get(ctx context.Context, userID, showtimeID uint64) (*model.Hold, error) {
	raw, err := s.rdb.Get(ctx, holdKey(showtimeID, userID)).Bytes()
	if err == redis.Nil {
		return nil, booking.ErrHoldNotFound
	}
	if err != nil {
		return nil, err
	}
	var h model.Hold
	if err := json.Unmarshal(raw, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Put writes the hold record under the given TTL.
func (s *HoldStore) Put(ctx context.Context, h *model.Hold, ttl time.Duration) error {
	raw, err := json.Marshal(h)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, holdKey(h.ShowtimeID, h.UserID), raw, ttl).Err()
}

// Delete removes the hold record.  Missing records are not an error.
func (s *HoldStore) Delete(ctx context.Context, userID, showtimeID uint64) error {
	return s.rdb.Del(ctx, holdKey(showtimeID, userID)).Err()
}

// ClaimSeat takes the seat's claim key with SETNX.  When the key
// already exists the current owner is reported instead; the caller
// decides whether that owner is itself (idempotent re-select) or a
// competitor.
func (s *HoldStore) ClaimSeat(ctx context.Context, showtimeID, seatID, userID uint64, ttl time.Duration) (bool, uint64, error) {
	key := claimKey(showtimeID, seatID)
	ok, err := s.rdb.SetNX(ctx, key, strconv.FormatUint(userID, 10), ttl).Result()
	if err != nil {
		return false, 0, err
	}
	if ok {
		return true, userID, nil
	}
	owner, live, err := s.ClaimOwner(ctx, showtimeID, seatID)
	if err != nil {
		return false, 0, err
	}
	if !live {
		// The claim expired between SETNX and GET; let the caller
		// retry rather than guessing.
		return false, 0, nil
	}
	return false, owner, nil
}

// ClaimOwner reports the live owner of a seat's claim, if any.
func (s *HoldStore) ClaimOwner(ctx context.Context, showtimeID, seatID uint64) (uint64, bool, error) {
	val, err := s.rdb.Get(ctx, claimKey(showtimeID, seatID)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	owner, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return owner, true, nil
}

// ReleaseClaim removes the seat's claim if the user still owns it.
func (s *HoldStore) ReleaseClaim(ctx context.Context, showtimeID, seatID, userID uint64) error {
	return releaseScript.Run(ctx, s.rdb,
		[]string{claimKey(showtimeID, seatID)},
		strconv.FormatUint(userID, 10)).Err()
}

// RefreshClaims resets the TTL of the user's claims on the given
// seats, keeping claim expiry in lockstep with the hold record.
func (s *HoldStore) RefreshClaims(ctx context.Context, showtimeID uint64, seatIDs []uint64, userID uint64, ttl time.Duration) error {
	owner := strconv.FormatUint(userID, 10)
	ms := ttl.Milliseconds()
	for _, seatID := range seatIDs {
		if err := refreshScript.Run(ctx, s.rdb,
			[]string{claimKey(showtimeID, seatID)}, owner, ms).Err(); err != nil {
			return err
		}
	}
	return nil
}
