package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RefreshRotation remembers spent refresh token ids until they would have expired anyway,
// so a rotated token cannot be replayed.
type RefreshRotation struct {
	redis  redis.UniversalClient
	prefix string
}

func NewRefreshRotation(redisClient redis.UniversalClient, prefix string) *RefreshRotation {
	if prefix == "" {
		prefix = "jwt:spent"
	}
	return &RefreshRotation{redis: redisClient, prefix: prefix}
}

// Spend marks jti as used. It returns false when the token was already spent.
func (r *RefreshRotation) Spend(ctx context.Context, jti string, expiresAt time.Time) (bool, error) {
	ttl := time.Until(expiresAt) + leeway
	if ttl <= 0 {
		return false, nil
	}
	ok, err := r.redis.SetNX(ctx, r.prefix+":"+jti, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("spend refresh token: %w", err)
	}
	return ok, nil
}
