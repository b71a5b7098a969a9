package otp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter scopes.
const (
	ScopeOTPRequest = "otp_request"
	ScopeLogin      = "login"
)

// INCR and window start in one step. The PTTL guard repairs a key that lost its TTL.
var incrementWindowLua = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 or redis.call('PTTL', KEYS[1]) < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return count
`)

// Limiter is a fixed-window counter per scope and phone key. Window expiry is left to Redis TTL.
type Limiter struct {
	redis  redis.UniversalClient
	prefix string
}

func NewLimiter(redisClient redis.UniversalClient, prefix string) *Limiter {
	if prefix == "" {
		prefix = "rl"
	}
	return &Limiter{redis: redisClient, prefix: prefix}
}

func (l *Limiter) key(scope, phoneKey string) string {
	return l.prefix + ":" + scope + ":" + phoneKey
}

// CheckAndIncrement counts this attempt and returns ErrRateLimited once the count exceeds
// maxAttempts inside the window. A rejected attempt has no other side effect.
func (l *Limiter) CheckAndIncrement(ctx context.Context, scope, phoneKey string, maxAttempts int, window time.Duration) error {
	if maxAttempts <= 0 {
		return nil
	}
	if window <= 0 {
		return fmt.Errorf("otp: limiter window must be positive, got %s", window)
	}

	count, err := incrementWindowLua.Run(ctx, l.redis, []string{l.key(scope, phoneKey)}, window.Milliseconds()).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if count > int64(maxAttempts) {
		return ErrRateLimited
	}
	return nil
}

// Attempts returns the current window count; a missing window reads as zero.
func (l *Limiter) Attempts(ctx context.Context, scope, phoneKey string) (int, error) {
	v, err := l.redis.Get(ctx, l.key(scope, phoneKey)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, nil
	}
	return n, nil
}

// Reset drops the window, e.g. after a successful login.
func (l *Limiter) Reset(ctx context.Context, scope, phoneKey string) error {
	if err := l.redis.Del(ctx, l.key(scope, phoneKey)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
