package otp

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store issues and verifies short-lived one-time codes. Codes live in redis
// under a TTL instead of a process-global map, so restarts and multiple
// instances behave the same. The issue timestamp is stored alongside the
// code and checked against an injectable clock, which keeps expiry testable
// without waiting out the TTL. Codes are single use: a successful verify
// deletes the code.
type Store struct {
	redis    *redis.Client
	validity time.Duration
	now      func() time.Time
	rand     *rand.Rand
}

func NewStore(client *redis.Client, validity time.Duration) *Store {
	return &Store{
		redis:    client,
		validity: validity,
		now:      time.Now,
		rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// WithClock overrides the store's notion of "now". Used by tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func key(email string) string {
	return "otp:" + email
}

// Issue generates a 6-digit code for the given email and stores it with the
// configured TTL, replacing any previous code.
func (s *Store) Issue(ctx context.Context, email string) (string, error) {
	code := fmt.Sprintf("%06d", s.rand.Intn(1000000))
	value := code + "|" + strconv.FormatInt(s.now().Unix(), 10)

	if err := s.redis.Set(ctx, key(email), value, s.validity).Err(); err != nil {
		return "", err
	}

	return code, nil
}

// Verify checks a code against the stored value. Expired or missing codes
// simply fail verification. A matching code is consumed.
func (s *Store) Verify(ctx context.Context, email, code string) (bool, error) {
	value, err := s.redis.Get(ctx, key(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}

	stored, issuedAt, ok := parseValue(value)
	if !ok || stored != code {
		return false, nil
	}

	if s.now().After(issuedAt.Add(s.validity)) {
		return false, nil
	}

	if err := s.redis.Del(ctx, key(email)).Err(); err != nil {
		return false, err
	}

	return true, nil
}

func parseValue(value string) (code string, issuedAt time.Time, ok bool) {
	code, ts, found := strings.Cut(value, "|")
	if !found {
		return "", time.Time{}, false
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return "", time.Time{}, false
	}

	return code, time.Unix(unix, 0), true
}
