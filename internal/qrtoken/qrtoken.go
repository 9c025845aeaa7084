// Package qrtoken issues and validates the signed check-in tokens
// rendered as QR codes on tickets.  Tokens are short-lived HS256 JWTs;
// revocation rides on a blacklist keyed by token id, and reissue is
// capped per ticket so a leaked ticket id cannot mint tokens forever.
package qrtoken

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/skip2/go-qrcode"

	"github.com/cinetix/booking-engine/internal/clock"
	"github.com/cinetix/booking-engine/internal/model"
)

// ErrInvalidToken is returned for malformed or badly signed tokens.
var ErrInvalidToken = errors.New("invalid check-in token")

// ErrExpired is returned when the token's own lifetime has run out or
// the showtime's check-in window has closed.
var ErrExpired = errors.New("check-in token expired")

// ErrRevoked is returned for blacklisted tokens.
var ErrRevoked = errors.New("check-in token revoked")

// ErrRegenLimit is returned when a ticket has exhausted its token
// reissue allowance.
var ErrRegenLimit = errors.New("token regeneration limit reached")

// Store keeps the ephemeral token state: the revocation blacklist,
// the per-ticket reissue counter and the id of the ticket's current
// token.
type Store interface {
	// CountIssue increments and returns the ticket's reissue counter.
	// The first issue pins the counter's lifetime to windowTTL.
	CountIssue(ctx context.Context, ticketID uint64, windowTTL time.Duration) (int64, error)
	// CurrentTokenID returns the jti of the ticket's live token, or
	// "" when none is recorded.
	CurrentTokenID(ctx context.Context, ticketID uint64) (string, error)
	SetCurrentTokenID(ctx context.Context, ticketID uint64, jti string, ttl time.Duration) error
	Blacklist(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// Claims carried inside a check-in token.  RegisteredClaims supplies
// exp and the jti the blacklist keys on.
type Claims struct {
	TicketID   uint64 `json:"ticket_id"`
	OrderID    uint64 `json:"order_id"`
	SeatID     uint64 `json:"seat_id"`
	ShowtimeID uint64 `json:"showtime_id"`
	jwt.RegisteredClaims
}

// Service issues, validates and revokes check-in tokens.
type Service struct {
	store      Store
	secret     []byte
	clock      clock.Clock
	ttl        time.Duration
	grace      time.Duration
	regenLimit int
}

// New wires a token service.  ttl bounds each token's own lifetime;
// grace is how long after showtime start check-in stays open;
// regenLimit caps reissues per ticket.
func New(store Store, secret []byte, clk clock.Clock, ttl, grace time.Duration, regenLimit int) *Service {
	return &Service{store: store, secret: secret, clock: clk, ttl: ttl, grace: grace, regenLimit: regenLimit}
}

// Generate issues a fresh token for the ticket and revokes the one it
// replaces.  Each issue counts against the ticket's reissue allowance;
// the counter lives until the check-in window closes.
func (s *Service) Generate(ctx context.Context, t *model.Ticket, showtimeStart time.Time) (string, error) {
	now := s.clock.Now()
	windowEnd := showtimeStart.Add(s.grace)
	if now.After(windowEnd) {
		return "", ErrExpired
	}

	count, err := s.store.CountIssue(ctx, t.ID, windowEnd.Sub(now))
	if err != nil {
		return "", err
	}
	if int(count) > s.regenLimit {
		return "", ErrRegenLimit
	}

	exp := now.Add(s.ttl)
	if exp.After(windowEnd) {
		exp = windowEnd
	}
	claims := Claims{
		TicketID:   t.ID,
		OrderID:    t.OrderID,
		SeatID:     t.SeatID,
		ShowtimeID: t.ShowtimeID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", err
	}

	// Revoke the token this one replaces, then record the new jti.
	prev, err := s.store.CurrentTokenID(ctx, t.ID)
	if err != nil {
		return "", err
	}
	if prev != "" {
		if err := s.blacklist(ctx, prev, windowEnd.Sub(now)); err != nil {
			return "", err
		}
	}
	if err := s.store.SetCurrentTokenID(ctx, t.ID, claims.ID, windowEnd.Sub(now)); err != nil {
		return "", err
	}
	return signed, nil
}

// PNG renders the token as a QR image.
func (s *Service) PNG(token string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	return qrcode.Encode(token, qrcode.Medium, size)
}

// Peek verifies only the token's signature and returns its claims,
// skipping lifetime and blacklist checks.  Callers use it to learn
// which showtime a token targets before running the full Validate
// against that showtime's window.
func (s *Service) Peek(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Validate verifies a presented token: signature, token lifetime,
// blacklist and the showtime's check-in window.  A blacklisted token
// is rejected regardless of how much lifetime it has left.
func (s *Service) Validate(ctx context.Context, tokenStr string, showtimeStart time.Time) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.clock.Now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	revoked, err := s.store.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrRevoked
	}

	if s.clock.Now().After(showtimeStart.Add(s.grace)) {
		return nil, ErrExpired
	}
	return claims, nil
}

// Revoke blacklists a validated token, consuming it.  Check-in calls
// this after admitting the customer so the same QR cannot be scanned
// twice.
func (s *Service) Revoke(ctx context.Context, claims *Claims, showtimeStart time.Time) error {
	return s.blacklist(ctx, claims.ID, showtimeStart.Add(s.grace).Sub(s.clock.Now()))
}

func (s *Service) blacklist(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return s.store.Blacklist(ctx, jti, ttl)
}

// RedisStore is the production Store, keeping the blacklist, reissue
// counters and current-token ids in Redis under TTLs bounded by the
// check-in window.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore { return &RedisStore{rdb: rdb} }

func blacklistKey(jti string) string  { return "qrbl:" + jti }
func regenKey(ticketID uint64) string { return fmt.Sprintf("qrgen:%d", ticketID) }
func currentKey(ticketID uint64) string {
	return fmt.Sprintf("qrcur:%d", ticketID)
}

func (s *RedisStore) CountIssue(ctx context.Context, ticketID uint64, windowTTL time.Duration) (int64, error) {
	count, err := s.rdb.Incr(ctx, regenKey(ticketID)).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := s.rdb.Expire(ctx, regenKey(ticketID), windowTTL).Err(); err != nil {
			return 0, err
		}
	}
	return count, nil
}

func (s *RedisStore) CurrentTokenID(ctx context.Context, ticketID uint64) (string, error) {
	jti, err := s.rdb.Get(ctx, currentKey(ticketID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return jti, nil
}

func (s *RedisStore) SetCurrentTokenID(ctx context.Context, ticketID uint64, jti string, ttl time.Duration) error {
	return s.rdb.Set(ctx, currentKey(ticketID), jti, ttl).Err()
}

func (s *RedisStore) Blacklist(ctx context.Context, jti string, ttl time.Duration) error {
	return s.rdb.Set(ctx, blacklistKey(jti), "1", ttl).Err()
}

func (s *RedisStore) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := s.rdb.Exists(ctx, blacklistKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
